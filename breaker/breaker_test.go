package breaker

import (
	"testing"
	"time"
)

func TestOpensAfterThreshold(t *testing.T) {
	b := New(Config{Threshold: 3, Timeout: time.Minute})
	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("Allow() at failure %d: %v", i, err)
		}
		b.OnFailure()
	}
	if b.State() != Open {
		t.Fatalf("state = %v, want Open", b.State())
	}
	if err := b.Allow(); err != ErrOpen {
		t.Fatalf("Allow() = %v, want ErrOpen", err)
	}
}

func TestHalfOpenAfterTimeoutAndRecovers(t *testing.T) {
	b := New(Config{Threshold: 1, Timeout: time.Millisecond})
	if err := b.Allow(); err != nil {
		t.Fatal(err)
	}
	b.OnFailure()
	if b.State() != Open {
		t.Fatalf("state = %v, want Open", b.State())
	}
	time.Sleep(5 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() after timeout: %v", err)
	}
	if b.State() != HalfOpen {
		t.Fatalf("state = %v, want HalfOpen", b.State())
	}
	b.OnSuccess()
	if b.State() != Closed {
		t.Fatalf("state = %v, want Closed", b.State())
	}
}

func TestHalfOpenAdmitsOnlyOneProbe(t *testing.T) {
	b := New(Config{Threshold: 1, Timeout: time.Millisecond})
	b.Allow()
	b.OnFailure()
	time.Sleep(5 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Fatalf("first probe: %v", err)
	}
	if err := b.Allow(); err != ErrOpen {
		t.Fatalf("second concurrent probe = %v, want ErrOpen", err)
	}
}
