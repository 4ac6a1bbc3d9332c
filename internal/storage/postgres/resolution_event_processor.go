package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/IgorGrieder/tempqr/internal/infrastructure/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResolutionEventProcessor applies a resolution event to the daily
// counters exactly once per event id.
type ResolutionEventProcessor struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewResolutionEventProcessor(p *db.Postgres) (*ResolutionEventProcessor, error) {
	if p == nil || p.Pool == nil {
		return nil, errNilPool
	}
	return &ResolutionEventProcessor{pool: p.Pool, now: time.Now}, nil
}

func (p *ResolutionEventProcessor) Process(
	ctx context.Context,
	eventID string,
	fingerprint string,
	occurredAt time.Time,
) (alreadyProcessed bool, err error) {
	eventID = strings.TrimSpace(eventID)
	fingerprint = strings.TrimSpace(fingerprint)
	if eventID == "" {
		return false, errors.New("eventID must not be empty")
	}
	if fingerprint == "" {
		return false, errors.New("fingerprint must not be empty")
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `
		INSERT INTO processed_events (event_id, processed_at) VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING`,
		eventID, p.now().UTC(),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return true, nil
	}

	if _, err := tx.Exec(ctx, incDailySQL, fingerprint, toDate(occurredAt)); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	tx = nil
	return false, nil
}
