package breaker

import (
	"errors"
	"testing"
	"time"
)

func TestBreaker_OpensAfterThresholdAndProbes(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := New("grants", 2, 10*time.Second, WithClock(func() time.Time { return now }))

	boom := errors.New("boom")
	fail := func() error { return boom }

	if err := b.Do(fail, nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after one failure, got %s", b.State())
	}
	_ = b.Do(fail, nil)
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	called := false
	err := b.Do(func() error { called = true; return nil }, nil)
	if !errors.Is(err, ErrOpen) || called {
		t.Fatalf("expected short-circuit, got err=%v called=%v", err, called)
	}

	now = now.Add(11 * time.Second)
	if err := b.Do(func() error { return nil }, nil); err != nil {
		t.Fatalf("expected probe to pass, got %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after probe, got %s", b.State())
	}
}

func TestBreaker_IgnoredErrorsDoNotCount(t *testing.T) {
	b := New("grants", 1, time.Minute)
	notFound := errors.New("not found")

	for i := 0; i < 3; i++ {
		err := b.Do(func() error { return notFound }, func(err error) bool { return errors.Is(err, notFound) })
		if !errors.Is(err, notFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %s", b.State())
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Unix(0, 0)
	b := New("grants", 1, time.Second, WithClock(func() time.Time { return now }))
	_ = b.Do(func() error { return errors.New("x") }, nil)

	now = now.Add(2 * time.Second)
	_ = b.Do(func() error { return errors.New("still down") }, nil)
	if b.State() != StateOpen {
		t.Fatalf("expected reopen, got %s", b.State())
	}
}
