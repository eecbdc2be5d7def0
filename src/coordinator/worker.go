// Package coordinator implements the parallel matching coordinator of
// §4.7: a background runner that rescopes and rescans a store.Store against
// a pattern.MultiPattern, and the tick-driven façade-facing wrapper around
// it that a UI thread polls.
package coordinator

import (
	"runtime"
	"sync"
	"time"

	"github.com/ember-match/ember/src/algo"
	"github.com/ember-match/ember/src/pattern"
	"github.com/ember-match/ember/src/store"
	"github.com/ember-match/ember/src/util"
)

// charsPtrs adapts a store entry's owned column slice to the pointer slice
// pattern.MultiPattern.Score expects, without copying the underlying data.
func charsPtrs(columns []util.Chars) []*util.Chars {
	out := make([]*util.Chars, len(columns))
	for i := range columns {
		out[i] = &columns[i]
	}
	return out
}

// Tombstone marks a Match as no longer matching; it sorts to the end of the
// published snapshot and is truncated off once a run completes.
const Tombstone = ^uint32(0)

// Match is one scored item: its rank key and the store index it refers to.
type Match struct {
	Score uint32
	Idx   uint32
}

// Status is returned by every Tick call.
type Status struct {
	Changed bool
	Running bool
}

// runner owns everything a single background pass touches: its own private
// pattern snapshot, the growing match list, and one scoring engine per
// worker-thread goroutine. It is only ever touched by the goroutine that
// currently holds the coordinator's worker lock.
type runner[T any] struct {
	store       *store.Store[T]
	matchers    []*algo.Matcher
	matcherSets [][]*algo.Matcher
	numThreads  int

	pattern      *pattern.MultiPattern
	matches      []Match
	lastSnapshot uint32
	inFlight     *util.ConcurrentSet[uint32]

	canceled     *util.AtomicBool
	shouldNotify *util.AtomicBool
	notify       func()

	running     bool
	wasCanceled bool
}

func newRunner[T any](st *store.Store[T], cfg algo.Config, numThreads int, notify func(), canceled, shouldNotify *util.AtomicBool) *runner[T] {
	if numThreads <= 0 {
		numThreads = runtime.GOMAXPROCS(0)
	}
	numColumns := st.NumColumns()
	matchers := make([]*algo.Matcher, numThreads)
	matcherSets := make([][]*algo.Matcher, numThreads)
	for w := 0; w < numThreads; w++ {
		matchers[w] = algo.NewMatcher(cfg)
		set := make([]*algo.Matcher, numColumns)
		for c := range set {
			set[c] = matchers[w]
		}
		matcherSets[w] = set
	}
	return &runner[T]{
		store:        st,
		matchers:     matchers,
		matcherSets:  matcherSets,
		numThreads:   numThreads,
		pattern:      pattern.NewMultiPattern(numColumns),
		inFlight:     util.NewConcurrentSet[uint32](),
		canceled:     canceled,
		shouldNotify: shouldNotify,
		notify:       notify,
	}
}

// updateConfig hot-swaps every worker-thread matcher's config. Called only
// while the coordinator holds the worker lock.
func (r *runner[T]) updateConfig(cfg algo.Config) {
	for w, m := range r.matchers {
		r.matchers[w] = m.WithConfig(cfg)
	}
	for w := range r.matcherSets {
		for c := range r.matcherSets[w] {
			r.matcherSets[w][c] = r.matchers[w]
		}
	}
}

func (r *runner[T]) itemCount() uint32 {
	return r.lastSnapshot
}

// run is the 8-step background pass of §4.7. It runs on its own goroutine
// while the coordinator's worker lock is held for its entire duration.
func (r *runner[T]) run(status pattern.PatternStatus, cleared bool) {
	r.running = true
	r.wasCanceled = false

	if cleared {
		r.lastSnapshot = 0
		r.inFlight = util.NewConcurrentSet[uint32]()
		r.matches = nil
	}

	if r.pattern.IsEmpty() {
		r.runEmptyPattern()
		r.running = false
		return
	}

	// StatusRescore means the new pattern gives no guarantee that the
	// previous match set is still valid (nucleo's worker.rs forces the
	// same full-reprocess on Rescore): drop it and let scoreNewItems below
	// rebuild matches from scratch against the new pattern, rather than
	// republishing every previously-seen index unscored.
	if status == pattern.StatusRescore {
		r.lastSnapshot = 0
		r.matches = nil
	}

	if status == pattern.StatusUpdate && len(r.matches) > 0 {
		r.rescore()
	}

	if r.store.Count() > r.lastSnapshot {
		r.scoreNewItems()
	}

	if !r.canceled.Get() {
		r.sortAndTruncate()
	} else {
		r.wasCanceled = true
	}

	if !r.canceled.Get() && r.shouldNotify.Get() {
		r.notify()
	}
	r.running = false
}

func (r *runner[T]) runEmptyPattern() {
	end := r.store.Count()
	matches := make([]Match, 0, end)
	for i := uint32(0); i < end; i++ {
		if _, _, ok := r.store.Get(i); !ok {
			r.inFlight.Add(i)
			continue
		}
		r.inFlight.Remove(i)
		matches = append(matches, Match{Score: 0, Idx: i})
	}
	r.matches = matches
	r.lastSnapshot = end
	if !r.canceled.Get() && r.shouldNotify.Get() {
		r.notify()
	}
}

// rescore revisits every existing match in place (§4.7 step 4): items that
// no longer match the (updated) pattern are tombstoned, which sorts them to
// the end of the next sort and truncates them away.
func (r *runner[T]) rescore() {
	r.forEachWorker(len(r.matches), func(w, i int) {
		m := &r.matches[i]
		_, columns, ok := r.store.Get(m.Idx)
		if !ok {
			m.Idx = Tombstone
			return
		}
		score, matched := r.pattern.Score(r.matcherSets[w], charsPtrs(columns))
		if !matched {
			m.Idx = Tombstone
			return
		}
		m.Score = uint32(score)
	})
}

// scoreNewItems processes every item pushed since lastSnapshot (§4.7 step
// 5). Items still in flight (claimed but not yet active) are remembered for
// the next run instead of being scored now. If the pass is canceled
// partway through, this whole batch's results are discarded and
// lastSnapshot is left unchanged, so the entire range is retried cleanly on
// the next run instead of being appended twice: once here (partially) and
// again by a later StatusUpdate rescore or a second scoreNewItems call
// covering the same [lastSnapshot, count) range.
func (r *runner[T]) scoreNewItems() {
	start := r.lastSnapshot
	snap := r.store.Snapshot(start)
	if len(snap) == 0 {
		r.lastSnapshot = r.store.Count()
		return
	}

	results := make([]*Match, len(snap))
	r.forEachWorker(len(snap), func(w, i int) {
		e := snap[i]
		if !e.Ok {
			r.inFlight.Add(e.Idx)
			return
		}
		r.inFlight.Remove(e.Idx)
		score, matched := r.pattern.Score(r.matcherSets[w], charsPtrs(e.Columns))
		if matched {
			results[i] = &Match{Score: uint32(score), Idx: e.Idx}
		}
	})

	if r.canceled.Get() {
		return
	}

	for _, m := range results {
		if m != nil {
			r.matches = append(r.matches, *m)
		}
	}
	r.lastSnapshot = start + uint32(len(snap))
}

// forEachWorker fans [0, n) out across r.numThreads fixed goroutines, each
// bound to its own matcher set (r.matcherSets[w]) for the duration, so no
// two goroutines ever touch the same scoring engine. Workers poll the
// cancellation flag and skip remaining work once it's observed, leaving
// those indices untouched (the caller decides what that means).
func (r *runner[T]) forEachWorker(n int, fn func(w, i int)) {
	if n == 0 {
		return
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := r.numThreads
	if workers > n {
		workers = n
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range jobs {
				if r.canceled.Get() {
					continue
				}
				fn(w, i)
			}
		}(w)
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// sortAndTruncate sorts r.matches and drops its trailing tombstone run. If
// sortMatches is interrupted partway through (polling r.canceled during
// partitioning), the comparison slice is left in a partially reordered,
// inconsistent state; r.matches is left untouched in that case rather than
// published, and sortAndTruncate marks the run as canceled so a fresh run
// picks the sort back up from a clean, fully-scored match list.
func (r *runner[T]) sortAndTruncate() {
	items := make([]scoredMatch, len(r.matches))
	for i, m := range r.matches {
		length := 0
		if m.Idx != Tombstone {
			if _, columns, ok := r.store.Get(m.Idx); ok {
				for _, c := range columns {
					length += c.Length()
				}
			}
		}
		items[i] = scoredMatch{match: m, length: length}
	}
	if !sortMatches(items, r.canceled) {
		r.wasCanceled = true
		return
	}
	for i, it := range items {
		r.matches[i] = it.match
	}
	r.matches = truncateTombstones(r.matches)
}

// timedLock is a mutex that additionally supports a bounded try-lock, the
// Go equivalent of parking_lot's try_lock_for used by the original
// coordinator.
type timedLock struct {
	ch chan struct{}
}

func newTimedLock() *timedLock {
	return &timedLock{ch: make(chan struct{}, 1)}
}

func (l *timedLock) Lock() {
	l.ch <- struct{}{}
}

func (l *timedLock) Unlock() {
	<-l.ch
}

func (l *timedLock) TryLock(timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case l.ch <- struct{}{}:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case l.ch <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

// Coordinator is one logical matcher instance: the façade-facing half of
// §4.7/§4.8, owning the public pattern, the last published snapshot, and
// the worker lock that guards handing work to the background runner.
type Coordinator[T any] struct {
	lock *timedLock
	r    *runner[T]

	store *store.Store[T]

	canceled     *util.AtomicBool
	shouldNotify *util.AtomicBool

	cleared       bool
	hasPendingRun bool
	itemCount     uint32
	matches       []Match

	pattern            *pattern.MultiPattern
	lastMatchedPattern *pattern.MultiPattern

	notify func()
}

// New constructs a Coordinator backed by st, scoring numThreads-wide (0
// means GOMAXPROCS) against a pattern with st.NumColumns() columns, invoking
// notify whenever a completed run wants the UI to redraw.
func New[T any](st *store.Store[T], cfg algo.Config, notify func(), numThreads int) *Coordinator[T] {
	if notify == nil {
		notify = func() {}
	}
	numColumns := st.NumColumns()
	canceled := util.NewAtomicBool(false)
	shouldNotify := util.NewAtomicBool(false)
	return &Coordinator[T]{
		lock:               newTimedLock(),
		r:                  newRunner[T](st, cfg, numThreads, notify, canceled, shouldNotify),
		store:              st,
		canceled:           canceled,
		shouldNotify:       shouldNotify,
		pattern:            pattern.NewMultiPattern(numColumns),
		lastMatchedPattern: pattern.NewMultiPattern(numColumns),
		notify:             notify,
	}
}

// Pattern returns the public, UI-mutated pattern. Only the UI thread should
// call Reparse on it; the runner sees a cloned copy at the start of each
// run.
func (c *Coordinator[T]) Pattern() *pattern.MultiPattern {
	return c.pattern
}

// ItemCount returns the number of items reflected in the last published
// snapshot.
func (c *Coordinator[T]) ItemCount() uint32 {
	return c.itemCount
}

// Snapshot returns the last published match list, ordered per §4.7.
func (c *Coordinator[T]) Snapshot() []Match {
	return c.matches
}

// UpdateConfig hot-swaps every worker-thread matcher's configuration,
// acquiring the worker lock so it never races a run.
func (c *Coordinator[T]) UpdateConfig(cfg algo.Config) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.r.updateConfig(cfg)
}

// Restart bumps the coordinator onto a new store allocation. If
// clearSnapshot, the published snapshot is cleared immediately; otherwise
// it persists until the next run completes against the new store.
func (c *Coordinator[T]) Restart(newStore *store.Store[T], clearSnapshot bool) {
	c.canceled.Set(true)
	c.lock.Lock()
	c.store = newStore
	c.r.store = newStore
	c.lock.Unlock()
	c.cleared = true
	if clearSnapshot {
		c.matches = nil
		c.itemCount = 0
	}
}

// Tick drives one protocol step of §4.7. It may block up to timeout
// waiting for the worker lock if no pattern change or restart is pending.
func (c *Coordinator[T]) Tick(timeout time.Duration) Status {
	c.shouldNotify.Set(false)
	status := c.pattern.Status()
	canceled := status != pattern.StatusUnchanged || c.cleared
	res := c.tickInner(timeout, canceled, status)
	c.cleared = false
	if !canceled {
		return res
	}
	return c.tickInner(timeout, false, pattern.StatusUnchanged)
}

// tickInner acquires the worker lock — which, since a spawned run holds it
// for its entire duration, means any previous run has necessarily finished
// by the time this function's body runs — commits that run's results if it
// wasn't canceled, then decides whether another pass is needed and, if so,
// launches it on a fresh goroutine that owns the lock until it returns.
func (c *Coordinator[T]) tickInner(timeout time.Duration, canceled bool, status pattern.PatternStatus) Status {
	if canceled {
		c.pattern.ClearStatuses()
		c.canceled.Set(true)
		c.lock.Lock()
	} else if !c.lock.TryLock(timeout) {
		c.shouldNotify.Set(true)
		return Status{Changed: false, Running: true}
	}

	changed := false
	if c.hasPendingRun {
		c.hasPendingRun = false
		if !c.r.wasCanceled {
			changed = true
			c.itemCount = c.r.itemCount()
			c.lastMatchedPattern = c.r.pattern.Clone()
			c.matches = append([]Match(nil), c.r.matches...)
		}
	}

	running := canceled || c.store.Count() > c.itemCount

	if running {
		c.r.pattern = c.pattern.Clone()
		c.canceled.Set(false)
		if !canceled {
			c.shouldNotify.Set(true)
		}
		cleared := c.cleared
		c.hasPendingRun = true
		go func() {
			defer c.lock.Unlock()
			c.r.run(status, cleared)
		}()
	} else {
		c.lock.Unlock()
	}

	return Status{Changed: changed, Running: running}
}

// Close cancels any in-progress run and waits up to one second for the
// worker lock, mirroring the original's drop(): a pool that cannot finish
// within that budget indicates a stuck scoring call, not a normal shutdown.
func (c *Coordinator[T]) Close() {
	c.canceled.Set(true)
	if !c.lock.TryLock(time.Second) {
		panic("coordinator: worker failed to finish within the shutdown budget")
	}
	c.lock.Unlock()
}
