package coordinator

import (
	"sort"
	"sync"

	"github.com/ember-match/ember/src/util"
)

// scoredMatch pairs a Match with its item's total column length, computed
// once up front so the sort comparator never has to chase the store.
type scoredMatch struct {
	match  Match
	length int
}

// less orders items by score descending, then total column length
// ascending, then idx ascending, per §4.7's ordering guarantee. Tombstones
// (Idx == Tombstone) always sort to the end regardless of score.
func less(a, b scoredMatch) bool {
	aTomb := a.match.Idx == Tombstone
	bTomb := b.match.Idx == Tombstone
	if aTomb != bTomb {
		return bTomb
	}
	if aTomb {
		return false
	}
	if a.match.Score != b.match.Score {
		return a.match.Score > b.match.Score
	}
	if a.length != b.length {
		return a.length < b.length
	}
	return a.match.Idx < b.match.Idx
}

// sequentialSortThreshold is the slice length below which sortMatches
// finishes with a single sort.Slice call rather than forking further
// partitions; below it the overhead of another goroutine isn't worth it.
const sequentialSortThreshold = 2048

// sortMatches quicksorts items in place, fanning each partition's two
// halves out to their own goroutine once they're large enough, and polling
// canceled before and after every partitioning step so a run can bail out
// of a large sort rather than run it to completion (§4.7 step 6, and §5's
// "workers poll ... during sort partitioning"). It reports whether the sort
// finished uncancelled; on a false return the slice is left in a partially
// reordered, inconsistent state and the caller must discard it rather than
// publish it.
func sortMatches(items []scoredMatch, canceled *util.AtomicBool) bool {
	if canceled.Get() {
		return false
	}
	if len(items) < 2 {
		return true
	}
	if len(items) <= sequentialSortThreshold {
		sort.Slice(items, func(i, j int) bool { return less(items[i], items[j]) })
		return !canceled.Get()
	}

	pivot := items[len(items)/2]
	lo, hi := 0, len(items)-1
	for lo <= hi {
		for less(items[lo], pivot) {
			lo++
		}
		for less(pivot, items[hi]) {
			hi--
		}
		if lo <= hi {
			items[lo], items[hi] = items[hi], items[lo]
			lo++
			hi--
		}
	}

	if canceled.Get() {
		return false
	}

	var leftOK, rightOK bool
	var wg sync.WaitGroup
	if hi > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			leftOK = sortMatches(items[:hi+1], canceled)
		}()
	} else {
		leftOK = true
	}
	if lo < len(items) {
		rightOK = sortMatches(items[lo:], canceled)
	} else {
		rightOK = true
	}
	wg.Wait()
	return leftOK && rightOK
}

// truncateTombstones drops the tombstone suffix a sort produced, returning
// the shortened slice.
func truncateTombstones(matches []Match) []Match {
	n := len(matches)
	for n > 0 && matches[n-1].Idx == Tombstone {
		n--
	}
	return matches[:n]
}
