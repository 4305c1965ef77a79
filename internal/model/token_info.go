package model

// TokenInfo captures the ERC20 metadata needed to scale and label amounts.
type TokenInfo struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
}
