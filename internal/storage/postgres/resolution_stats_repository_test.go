package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/IgorGrieder/tempqr/internal/infrastructure/db"
)

func TestToDate_TruncatesToUTCDay(t *testing.T) {
	at := time.Date(2025, 1, 2, 23, 30, 0, 0, time.FixedZone("UTC-3", -3*3600))
	got := toDate(at)
	if !got.Valid || got.Time.Format(time.DateOnly) != "2025-01-03" {
		t.Fatalf("unexpected date %+v", got)
	}
	if got.Time.Hour() != 0 || got.Time.Location() != time.UTC {
		t.Fatalf("expected midnight UTC, got %v", got.Time)
	}
}

func TestNullText(t *testing.T) {
	if nullText("").Valid {
		t.Error("empty string must be NULL")
	}
	if v := nullText("u1"); !v.Valid || v.String != "u1" {
		t.Errorf("unexpected %+v", v)
	}
}

func TestToTimestamptz(t *testing.T) {
	if toTimestamptz(nil).Valid {
		t.Error("nil must be NULL")
	}
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if v := toTimestamptz(&at); !v.Valid || !v.Time.Equal(at) {
		t.Errorf("unexpected %+v", v)
	}
}

func TestConstructorsRejectNilPool(t *testing.T) {
	if _, err := NewGrantsRepository(nil); !errors.Is(err, errNilPool) {
		t.Errorf("grants: got %v", err)
	}
	if _, err := NewResolutionStatsRepository(&db.Postgres{}); !errors.Is(err, errNilPool) {
		t.Errorf("stats: got %v", err)
	}
	if _, err := NewResolutionEventProcessor(nil); !errors.Is(err, errNilPool) {
		t.Errorf("processor: got %v", err)
	}
}
