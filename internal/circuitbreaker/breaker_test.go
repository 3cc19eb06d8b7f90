package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := New("test", Config{MaxFailures: 2, ResetTimeout: time.Hour}, nil)
	failing := func(ctx context.Context) error { return errors.New("boom") }

	if err := b.Execute(context.Background(), failing); err == nil {
		t.Fatal("expected error from failing op")
	}
	if b.State() != Closed {
		t.Fatalf("expected still closed after 1 failure, got %v", b.State())
	}
	if err := b.Execute(context.Background(), failing); err == nil {
		t.Fatal("expected error from failing op")
	}
	if b.State() != Open {
		t.Fatalf("expected open after 2 failures, got %v", b.State())
	}

	if err := b.Execute(context.Background(), failing); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen while cooling down, got %v", err)
	}
}

func TestBreakerRecoversAfterResetTimeout(t *testing.T) {
	b := New("test", Config{MaxFailures: 1, ResetTimeout: time.Millisecond}, nil)
	failing := func(ctx context.Context) error { return errors.New("boom") }
	succeeding := func(ctx context.Context) error { return nil }

	_ = b.Execute(context.Background(), failing)
	if b.State() != Open {
		t.Fatalf("expected open, got %v", b.State())
	}
	time.Sleep(5 * time.Millisecond)

	if err := b.Execute(context.Background(), succeeding); err != nil {
		t.Fatalf("expected probe success to close breaker, got %v", err)
	}
	if b.State() != Closed {
		t.Fatalf("expected closed after successful probe, got %v", b.State())
	}
}
