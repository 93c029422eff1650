// Package maintenance runs the periodic sweep spec §2 component 9 and §5
// describe: on a fixed interval, clear the field-name memoization table
// (bounding its otherwise-unbounded growth across distinct language values)
// and report any registry entry whose breaker is not CLOSED.
//
// Grounded on the general "sweep on an interval via time.Ticker" shape
// every background-goroutine maintenance loop in the example pack uses —
// agentuity-go-common's in-memory cache runs its own expiry sweep the same
// way. No example repo ships a scheduler library for this, so time.Ticker
// (stdlib) is the idiomatic choice here, not a fallback.
package maintenance

import (
	"context"
	"time"

	"github.com/lattice-data/pgaccess/fieldcache"
	"github.com/lattice-data/pgaccess/registry"
)

// UnhealthyReporter receives a registry.EntryHealth for every entry whose
// breaker is not CLOSED, once per tick.
type UnhealthyReporter func(registry.EntryHealth)

// Ticker periodically clears a set of field-name tables and reports
// non-CLOSED breakers across a registry.
type Ticker struct {
	interval time.Duration
	fields   []*fieldcache.Table
	reg      *registry.Registry
	report   UnhealthyReporter

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Ticker. report may be nil to skip health reporting.
func New(interval time.Duration, reg *registry.Registry, fields []*fieldcache.Table, report UnhealthyReporter) *Ticker {
	return &Ticker{interval: interval, fields: fields, reg: reg, report: report}
}

// Start launches the sweep goroutine. Calling Start twice without Stop is a
// caller error.
func (t *Ticker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.loop(ctx)
}

// Stop ends the sweep goroutine and waits for it to exit.
func (t *Ticker) Stop() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
}

func (t *Ticker) loop(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}

func (t *Ticker) sweep() {
	for _, f := range t.fields {
		f.Clear()
	}
	if t.reg == nil || t.report == nil {
		return
	}
	for _, h := range t.reg.Health() {
		if h.BreakerState != "" && h.BreakerState != "CLOSED" && h.BreakerState != "DISABLED" {
			t.report(h)
		}
	}
}
