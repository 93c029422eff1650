package pgaccess

import "testing"

func TestDefaultConfigIsValidOnceDSNIsSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DSN = "postgres://localhost/test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestValidateRejectsEmptyDSN(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an empty DSN")
	}
}

func TestValidateRejectsMaxTTLBelowDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DSN = "postgres://localhost/test"
	cfg.MaxTTL = cfg.DefaultTTL / 2
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for MaxTTL below DefaultTTL")
	}
}
