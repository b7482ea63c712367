package seating

import (
	"context"
	"fmt"
)

// Engine runs the full pipeline for one event: load, construct, optimize.
// An Engine holds no per-run state and may be shared; callers must still
// make sure only one run per event is in flight, since the result replaces
// the event's stored seating wholesale.
type Engine struct {
	Weights Weights
	Params  Params
}

// NewEngine returns an engine with the given search bounds and the default
// objective.
func NewEngine(p Params) *Engine {
	return &Engine{Weights: DefaultWeights, Params: p.withDefaults()}
}

// Result is a computed seating for one event.
type Result struct {
	EventID      uint64       `json:"event_id"`
	Seats        []Placement  `json:"seats"`
	Score        int          `json:"score"`
	InitialScore int          `json:"initial_score"`
	Iterations   int          `json:"iterations"`
	Diagnostics  []Diagnostic `json:"diagnostics,omitempty"`
	Trace        []int        `json:"-"`
}

// Run loads the event snapshot and solves it.  The context only bounds the
// two reads; the computation itself is not interruptible.
func (e *Engine) Run(ctx context.Context, guests GuestLister, tables TableLister, eventID uint64) (*Result, error) {
	snap, err := LoadSnapshot(ctx, guests, tables, eventID)
	if err != nil {
		return nil, err
	}
	return e.Solve(snap)
}

// Solve computes a seating for an already loaded snapshot.
func (e *Engine) Solve(snap *Snapshot) (*Result, error) {
	initial, diags, err := Construct(snap)
	if err != nil {
		return nil, err
	}
	if err := initial.Verify(); err != nil {
		return nil, fmt.Errorf("initial assignment: %w", err)
	}
	sc := NewScorer(snap, e.Weights)
	sr := Optimize(snap, sc, initial, e.Params)
	if err := sr.Best.Verify(); err != nil {
		return nil, fmt.Errorf("optimized assignment: %w", err)
	}
	return &Result{
		EventID:      snap.EventID,
		Seats:        sr.Best.Placements(),
		Score:        sr.BestScore,
		InitialScore: sr.InitialScore,
		Iterations:   sr.Iterations,
		Diagnostics:  diags,
		Trace:        sr.Trace,
	}, nil
}
