package mongo

import (
	"context"
	"testing"
	"time"
)

func TestDayKeyRoundTrip(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2025, 1, 2, 23, 59, 0, 0, time.UTC), "2025-01-02"},
		{time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC), "1999-12-31"},
		{time.Date(2025, 1, 2, 23, 30, 0, 0, time.FixedZone("UTC-3", -3*3600)), "2025-01-03"},
	}

	for _, tt := range tests {
		if got := dateStringFromDayKey(dayKey(tt.at)); got != tt.want {
			t.Errorf("dayKey(%v) -> %q, want %q", tt.at, got, tt.want)
		}
		if got := dateString(tt.at); got != tt.want {
			t.Errorf("dateString(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestBulkModels_AggregatesPerDay(t *testing.T) {
	pending := map[resolutionHit]int64{
		{fingerprint: "a", day: 20250101}: 3,
		{fingerprint: "a", day: 20250102}: 1,
		{fingerprint: "b", day: 20250101}: 7,
	}
	if got := len(bulkModels(pending)); got != 3 {
		t.Fatalf("got %d models, want 3", got)
	}
	if got := len(bulkModels(nil)); got != 0 {
		t.Fatalf("got %d models, want 0", got)
	}
}

func TestBufferedStats_DropsWhenFull(t *testing.T) {
	r := &BufferedStatsRepository{queue: make(chan resolutionHit, 1)}
	at := time.Now()

	_ = r.PublishResolved(context.Background(), "fp", at)
	_ = r.PublishResolved(context.Background(), "fp", at)
	_ = r.IncDaily(context.Background(), "", at)

	if r.Dropped() != 1 {
		t.Errorf("got %d dropped, want 1", r.Dropped())
	}
	if len(r.queue) != 1 {
		t.Errorf("got %d queued, want 1", len(r.queue))
	}
}
