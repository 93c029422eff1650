package registry

import "testing"

func TestCloseUnknownEntryErrors(t *testing.T) {
	r := New()
	if err := r.Close("missing"); err == nil {
		t.Fatal("expected an error closing an entry that was never initialized")
	}
}

func TestHealthEmptyRegistry(t *testing.T) {
	r := New()
	if h := r.Health(); len(h) != 0 {
		t.Fatalf("health = %v, want empty", h)
	}
}

func TestNamesEmptyRegistry(t *testing.T) {
	r := New()
	if n := r.Names(); len(n) != 0 {
		t.Fatalf("names = %v, want empty", n)
	}
}
