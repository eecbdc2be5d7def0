// Package ember is an incremental fuzzy-matching engine: push items from
// any goroutine, mutate the query pattern from a UI thread, and poll Tick
// to drive background scoring without blocking the UI longer than a
// caller-chosen timeout.
//
// The three moving parts are the append-only item store (src/store), the
// pattern mini-language that compiles a query into per-column match rules
// (src/pattern), and the parallel coordinator that keeps a sorted snapshot
// of matches up to date against both (src/coordinator). Matcher wires them
// together the way fzf's Terminal wires its own matcher, EventBox, and item
// list, except ember has no terminal and is safe to drive from any UI
// toolkit's event loop.
package ember

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ember-match/ember/src/algo"
	"github.com/ember-match/ember/src/coordinator"
	"github.com/ember-match/ember/src/pattern"
	"github.com/ember-match/ember/src/store"
	"github.com/ember-match/ember/src/util"
)

// Config is the scoring configuration, re-exported so callers don't need to
// import src/algo directly.
type Config = algo.Config

// DefaultConfig returns fzf's default scoring weights.
func DefaultConfig() Config { return algo.DefaultConfig() }

// MatchPathsConfig returns the path-matching preset: '/' as the only
// delimiter, initial char class Delimiter, and the whitespace boundary bonus
// set to the ordinary word-boundary bonus (the value DefaultConfig already
// uses).
func MatchPathsConfig() Config { return algo.MatchPathsConfig() }

// CaseMatching selects how the pattern mini-language's atoms treat case,
// re-exported from src/pattern.
type CaseMatching = pattern.CaseMatching

const (
	CaseSmart   = pattern.CaseSmart
	CaseIgnore  = pattern.CaseIgnore
	CaseRespect = pattern.CaseRespect
)

// Status is returned by every Tick call.
type Status = coordinator.Status

// Match pairs a scored item's rank key with the store index it refers to.
type Match = coordinator.Match

// ErrNotConfigured is returned by New when fillColumns is nil; every push
// needs it to derive matchable columns from a value.
var ErrNotConfigured = errors.New("ember: fillColumns must not be nil")

// Matcher is a single logical search: one append-only store of items of
// type T, one multi-column pattern, and the background coordinator that
// keeps a sorted, ranked snapshot of matches current against both.
//
// A Matcher must be constructed with New. It is safe to call Injector,
// Push (via an Injector), Snapshot, Get, and ActiveInjectors concurrently
// from any goroutine; Pattern's mutators, Tick, UpdateConfig, Restart, and
// Close are meant to be called from a single UI-owning goroutine, mirroring
// the original's single-threaded tick loop.
type Matcher[T any] struct {
	fillColumns func(value *T, columns []util.Chars)
	numColumns  int

	mu          sync.Mutex
	store       *store.Store[T]
	coordinator *coordinator.Coordinator[T]
	injectors   int
}

// New constructs a Matcher with numColumns searchable columns per item,
// scoring across numThreads worker threads (0 means one per
// runtime.GOMAXPROCS), invoking notify whenever a completed background run
// wants the caller to redraw; Push does not invoke notify. fillColumns
// populates an item's columns from its value and runs synchronously on the
// pushing goroutine.
func New[T any](cfg Config, notify func(), numThreads, numColumns int, fillColumns func(value *T, columns []util.Chars)) (*Matcher[T], error) {
	if fillColumns == nil {
		return nil, ErrNotConfigured
	}
	if numColumns <= 0 {
		return nil, errors.Errorf("ember: numColumns must be at least 1, got %d", numColumns)
	}
	st := store.New[T](numColumns)
	m := &Matcher[T]{
		fillColumns: fillColumns,
		numColumns:  numColumns,
		store:       st,
	}
	m.coordinator = coordinator.New[T](st, cfg, notify, numThreads)
	return m, nil
}

// Injector is a cheap, clonable handle bound to the store that was current
// when it was issued; Push always targets that store, even across a
// Restart, so in-flight producers never need to learn about a restart
// mid-push. The old store is kept alive by Go's garbage collector for as
// long as any Injector handle referencing it remains reachable.
type Injector[T any] struct {
	m     *Matcher[T]
	store *store.Store[T]
}

// Injector returns a handle pushing into the matcher's current store.
func (m *Matcher[T]) Injector() Injector[T] {
	m.mu.Lock()
	st := m.store
	m.injectors++
	m.mu.Unlock()
	return Injector[T]{m: m, store: st}
}

// Push appends value, derives its columns via the matcher's fillColumns
// callback, and returns the store index it was assigned. The coordinator
// picks it up on the next completed Tick.
func (inj Injector[T]) Push(value T) uint32 {
	return inj.store.Push(value, inj.m.fillColumns)
}

// ActiveInjectors reports how many Injector handles have been issued since
// construction or the last Restart. It is a UI diagnostic, not an exact
// live-handle count: Go has no destructor hook, so a handle that becomes
// unreachable without the caller's knowledge is not subtracted.
func (m *Matcher[T]) ActiveInjectors() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.injectors
}

// Snapshot returns the last published, ranked match list.
func (m *Matcher[T]) Snapshot() []Match {
	return m.coordinator.Snapshot()
}

// Pattern returns the mutable multi-column pattern. Callers mutate it via
// its Reparse method, typically from the same goroutine that calls Tick.
func (m *Matcher[T]) Pattern() *pattern.MultiPattern {
	return m.coordinator.Pattern()
}

// Get resolves a Match's Idx back to the value and columns Push stored for
// it. ok is false if the index was never pushed or (rare) is still being
// written by a concurrent Push.
func (m *Matcher[T]) Get(idx uint32) (value T, columns []util.Chars, ok bool) {
	m.mu.Lock()
	st := m.store
	m.mu.Unlock()
	return st.Get(idx)
}

// UpdateConfig hot-swaps the scoring configuration used by every worker
// thread, atomically between runs (it acquires the worker lock).
func (m *Matcher[T]) UpdateConfig(cfg Config) {
	m.coordinator.UpdateConfig(cfg)
}

// Restart bumps the matcher onto a fresh, empty store and resets the
// ActiveInjectors count. Handles obtained from Injector before the call
// keep pushing into the old store; its items simply stop being visible to
// new runs once the coordinator has moved on. If clearSnapshot, the
// published snapshot is cleared immediately; otherwise it persists until
// the next run against the new store completes.
func (m *Matcher[T]) Restart(clearSnapshot bool) {
	m.mu.Lock()
	newStore := store.New[T](m.numColumns)
	m.store = newStore
	m.injectors = 0
	m.mu.Unlock()
	m.coordinator.Restart(newStore, clearSnapshot)
}

// Tick drives one step of the background scoring protocol described in
// spec.md §4.7: it may block up to timeout waiting for the worker lock. If
// a pattern change or restart is pending, it first cancels the current run
// and waits for it to stop, launches a new run, and then waits up to
// timeout for that run too.
func (m *Matcher[T]) Tick(timeout time.Duration) Status {
	return m.coordinator.Tick(timeout)
}

// Close cancels any in-progress run and waits up to one second for the
// worker lock. It panics if the worker fails to finish within that budget,
// which would indicate a stuck scoring call rather than a normal shutdown.
func (m *Matcher[T]) Close() {
	m.coordinator.Close()
}
