// Package contact accumulates the object pairs found touching during a simulation step.
package contact

import "sync"

// Pair is an unordered pair of object ids
type Pair struct {
	A, B int
}

// Has reports whether id is one side of the pair
func (p Pair) Has(id int) bool {
	return p.A == id || p.B == id
}

// Other returns the side of the pair that is not id
func (p Pair) Other(id int) int {
	if p.A == id {
		return p.B
	}
	return p.A
}

// Equal compares pairs without regard to order
func (p Pair) Equal(other Pair) bool {
	return (p.A == other.A && p.B == other.B) || (p.A == other.B && p.B == other.A)
}

// PairTracker is written concurrently by the narrow phase while the world steps
// and read once the step is over. The same pair may be recorded many times.
type PairTracker struct {
	mu    sync.Mutex
	pairs []Pair
}

func NewPairTracker() *PairTracker {
	return &PairTracker{pairs: make([]Pair, 0, 256)}
}

// Record appends a pair, it can be called from any goroutine
func (t *PairTracker) Record(idA, idB int) {
	t.mu.Lock()
	t.pairs = append(t.pairs, Pair{A: idA, B: idB})
	t.mu.Unlock()
}

// Clear drops every pair, once per step before stepping
func (t *PairTracker) Clear() {
	t.mu.Lock()
	t.pairs = t.pairs[:0]
	t.mu.Unlock()
}

// Len returns the number of recorded pairs, duplicates included
func (t *PairTracker) Len() int {
	return len(t.pairs)
}

// Pairs returns a copy of the recorded pairs
func (t *PairTracker) Pairs() []Pair {
	return append([]Pair(nil), t.pairs...)
}

// Contains reports whether a and b were recorded together, in any order
func (t *PairTracker) Contains(idA, idB int) bool {
	target := Pair{A: idA, B: idB}
	for _, p := range t.pairs {
		if p.Equal(target) {
			return true
		}
	}
	return false
}

// Query returns the ids paired with id, each once, in first-recorded order
func (t *PairTracker) Query(id int) []int {
	return t.query(id, func(int) bool { return true })
}

// QueryGroup returns the ids paired with id whose group intersects groupMask.
// groupOf resolves the group of an id, ids it does not know are skipped.
func (t *PairTracker) QueryGroup(id int, groupMask uint32, groupOf func(id int) (uint32, bool)) []int {
	return t.query(id, func(other int) bool {
		group, ok := groupOf(other)
		return ok && group&groupMask != 0
	})
}

func (t *PairTracker) query(id int, accept func(other int) bool) []int {
	var result []int
	seen := make(map[int]struct{})

	for _, p := range t.pairs {
		if !p.Has(id) {
			continue
		}
		other := p.Other(id)
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		if accept(other) {
			result = append(result, other)
		}
	}
	return result
}
