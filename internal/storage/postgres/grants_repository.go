package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/tempqr/internal/infrastructure/db"
	"github.com/IgorGrieder/tempqr/internal/processing/policy"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GrantsRepository struct {
	pool *pgxpool.Pool
}

func NewGrantsRepository(p *db.Postgres) (*GrantsRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errNilPool
	}
	return &GrantsRepository{pool: p.Pool}, nil
}

const grantColumns = `token, plan, tier, max_minutes, daily_limit, user_id, session_id, expires_at, created_at`

func (r *GrantsRepository) FindActiveByToken(ctx context.Context, token string, at time.Time) (*policy.Grant, error) {
	return r.queryOne(ctx, `
		SELECT `+grantColumns+` FROM grants
		WHERE token = $1 AND plan = 'pro' AND (expires_at IS NULL OR expires_at > $2)`,
		token, at.UTC(),
	)
}

func (r *GrantsRepository) FindBestByUser(ctx context.Context, userID string, at time.Time) (*policy.Grant, error) {
	return r.queryOne(ctx, `
		SELECT `+grantColumns+` FROM grants
		WHERE user_id = $1 AND plan = 'pro' AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY tier DESC, max_minutes DESC
		LIMIT 1`,
		userID, at.UTC(),
	)
}

func (r *GrantsRepository) FindByToken(ctx context.Context, token string) (*policy.Grant, error) {
	return r.queryOne(ctx, `SELECT `+grantColumns+` FROM grants WHERE token = $1`, token)
}

func (r *GrantsRepository) BindUser(ctx context.Context, token, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE grants SET user_id = $2
		WHERE token = $1 AND (user_id IS NULL OR user_id = '')`,
		token, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Save inserts g. A grant with a session id that was already issued
// returns the stored grant instead.
func (r *GrantsRepository) Save(ctx context.Context, g *policy.Grant) (*policy.Grant, error) {
	createdAt := g.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return r.queryOne(ctx, `
		INSERT INTO grants (`+grantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO UPDATE SET session_id = EXCLUDED.session_id
		RETURNING `+grantColumns,
		g.Token,
		string(g.Plan),
		g.Tier,
		g.MaxMinutes,
		g.DailyLimit,
		nullText(g.UserID),
		nullText(g.SessionID),
		toTimestamptz(g.ExpiresAt),
		createdAt.UTC(),
	)
}

func (r *GrantsRepository) queryOne(ctx context.Context, sql string, args ...any) (*policy.Grant, error) {
	var (
		g         policy.Grant
		plan      string
		userID    pgtype.Text
		sessionID pgtype.Text
		expiresAt pgtype.Timestamptz
	)

	err := r.pool.QueryRow(ctx, sql, args...).Scan(
		&g.Token,
		&plan,
		&g.Tier,
		&g.MaxMinutes,
		&g.DailyLimit,
		&userID,
		&sessionID,
		&expiresAt,
		&g.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, policy.ErrGrantNotFound
	}
	if err != nil {
		return nil, err
	}

	g.Plan = policy.Plan(plan)
	g.UserID = userID.String
	g.SessionID = sessionID.String
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		g.ExpiresAt = &t
	}
	return &g, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func toTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}
