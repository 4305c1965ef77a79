package flowconfig

import "math/big"

// ScalingFunc maps an allocation flow rate to the pool units it is worth.
// Implementations must be monotonic non-decreasing.
type ScalingFunc func(flowRate *big.Int) *big.Int

// Linear awards one unit per divisor of flow rate.
func Linear(divisor int64) ScalingFunc {
	d := normalizeDivisor(divisor)
	return func(flowRate *big.Int) *big.Int {
		return scaled(flowRate, d)
	}
}

// SquareRoot awards units on a diminishing-returns curve: isqrt(rate / divisor).
func SquareRoot(divisor int64) ScalingFunc {
	d := normalizeDivisor(divisor)
	return func(flowRate *big.Int) *big.Int {
		v := scaled(flowRate, d)
		return v.Sqrt(v)
	}
}

// Identity is the default linear scaling.
var Identity = Linear(1)

func scaled(flowRate *big.Int, divisor *big.Int) *big.Int {
	if flowRate == nil || flowRate.Sign() <= 0 {
		return new(big.Int)
	}
	return new(big.Int).Quo(flowRate, divisor)
}

func normalizeDivisor(divisor int64) *big.Int {
	if divisor <= 0 {
		divisor = 1
	}
	return big.NewInt(divisor)
}
