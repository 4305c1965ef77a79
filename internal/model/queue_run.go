package model

import (
	"time"

	"github.com/google/uuid"
)

// QueueStatus is the lifecycle state of a transaction queue.
type QueueStatus string

const (
	QueueIdle      QueueStatus = "idle"
	QueueRunning   QueueStatus = "running"
	QueueSucceeded QueueStatus = "succeeded"
	QueueFailed    QueueStatus = "failed"
)

// QueueRun is the record of one orchestrator run.
type QueueRun struct {
	ID             uuid.UUID   `json:"id"`
	Status         QueueStatus `json:"status"`
	CompletedCount int         `json:"completed_count"`
	TotalSteps     int         `json:"total_steps"`
	Error          string      `json:"error,omitempty"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     time.Time   `json:"finished_at,omitempty"`
}

// SnapshotRecord is a flow snapshot tagged with the account it was read for.
type SnapshotRecord struct {
	ChainID    uint64       `json:"chain_id"`
	Token      string       `json:"token"`
	Account    string       `json:"account"`
	Snapshot   FlowSnapshot `json:"snapshot"`
	ObservedAt string       `json:"observed_at"`
}
