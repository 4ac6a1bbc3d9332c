package postgres

import (
	"context"
	"time"

	"github.com/IgorGrieder/tempqr/internal/infrastructure/db"
	"github.com/IgorGrieder/tempqr/internal/processing/links"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const incDailySQL = `
	INSERT INTO resolutions_daily (fp, day, count) VALUES ($1, $2, 1)
	ON CONFLICT (fp, day) DO UPDATE SET count = resolutions_daily.count + 1`

type ResolutionStatsRepository struct {
	pool *pgxpool.Pool
}

func NewResolutionStatsRepository(p *db.Postgres) (*ResolutionStatsRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errNilPool
	}
	return &ResolutionStatsRepository{pool: p.Pool}, nil
}

func (r *ResolutionStatsRepository) IncDaily(ctx context.Context, fingerprint string, at time.Time) error {
	_, err := r.pool.Exec(ctx, incDailySQL, fingerprint, toDate(at))
	return err
}

func (r *ResolutionStatsRepository) GetDaily(ctx context.Context, fingerprint string, from, to time.Time) ([]links.DailyCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day, count FROM resolutions_daily
		WHERE fp = $1 AND day BETWEEN $2 AND $3
		ORDER BY day`,
		fingerprint, toDate(from), toDate(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []links.DailyCount
	for rows.Next() {
		var (
			day   pgtype.Date
			count int64
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		out = append(out, links.DailyCount{
			Date:  day.Time.Format(time.DateOnly),
			Count: count,
		})
	}
	return out, rows.Err()
}

func toDate(v time.Time) pgtype.Date {
	y, m, d := v.UTC().Date()
	return pgtype.Date{
		Time:  time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
}
