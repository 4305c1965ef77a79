package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flowScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS queue_runs (
	id UUID PRIMARY KEY,
	status TEXT NOT NULL,
	completed_count INTEGER NOT NULL,
	total_steps INTEGER NOT NULL,
	error TEXT,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS flow_snapshots (
	chain_id BIGINT NOT NULL,
	token TEXT NOT NULL,
	account TEXT NOT NULL,
	snapshot_ts BIGINT NOT NULL,
	balance NUMERIC(78, 0) NOT NULL,
	net_flow_rate NUMERIC(78, 0) NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (chain_id, token, account, snapshot_ts)
);
`

// Store provides Postgres persistence for queue runs and flow snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutQueueRun inserts or updates a queue run record.
func (s *Store) PutQueueRun(ctx context.Context, run model.QueueRun) error {
	var finishedAt *time.Time
	if !run.FinishedAt.IsZero() {
		finishedAt = &run.FinishedAt
	}
	var errMsg *string
	if run.Error != "" {
		errMsg = &run.Error
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO queue_runs (
			id, status, completed_count, total_steps, error, started_at, finished_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (id)
		DO UPDATE SET
			status = EXCLUDED.status,
			completed_count = EXCLUDED.completed_count,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at,
			updated_at = now()
	`,
		run.ID,
		string(run.Status),
		run.CompletedCount,
		run.TotalSteps,
		errMsg,
		run.StartedAt,
		finishedAt,
	)
	return err
}

// PutSnapshots inserts flow snapshots, ignoring ones already stored.
func (s *Store) PutSnapshots(ctx context.Context, records []model.SnapshotRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		observedAt, err := time.Parse(time.RFC3339Nano, r.ObservedAt)
		if err != nil {
			return fmt.Errorf("parse observed_at: %w", err)
		}
		batch.Queue(`
			INSERT INTO flow_snapshots (
				chain_id, token, account, snapshot_ts, balance, net_flow_rate, observed_at
			) VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)
			ON CONFLICT (chain_id, token, account, snapshot_ts) DO NOTHING
		`,
			int64(r.ChainID),
			r.Token,
			r.Account,
			r.Snapshot.Timestamp,
			model.OrZero(r.Snapshot.Balance).String(),
			model.OrZero(r.Snapshot.NetFlowRate).String(),
			observedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
