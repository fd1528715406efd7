package convert

import (
	"math/rand"
	"sync"
	"time"

	"github.com/dyluth/regent/pkg/puzzle"
)

// LabelAssigner turns the distinct color tokens of a puzzle (in first-seen
// order) into a color map. Implementations must return a bijection onto 1..N.
type LabelAssigner interface {
	Assign(distinct []string) puzzle.ColorMap
}

// RandomLabels assigns a uniformly random permutation of 1..N.
// Converting the same puzzle twice normally yields different labels.
type RandomLabels struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomLabels returns a RandomLabels seeded from the clock.
func NewRandomLabels() *RandomLabels {
	return NewSeededLabels(time.Now().UnixNano())
}

// NewSeededLabels returns a RandomLabels with a fixed seed.
func NewSeededLabels(seed int64) *RandomLabels {
	return &RandomLabels{rng: rand.New(rand.NewSource(seed))}
}

// Assign implements LabelAssigner.
func (l *RandomLabels) Assign(distinct []string) puzzle.ColorMap {
	l.mu.Lock()
	perm := l.rng.Perm(len(distinct))
	l.mu.Unlock()

	cm := make(puzzle.ColorMap, len(distinct))
	for i, token := range distinct {
		cm[token] = perm[i] + 1
	}
	return cm
}

// SequentialLabels numbers colors 1..N in first-seen order.
type SequentialLabels struct{}

// Assign implements LabelAssigner.
func (SequentialLabels) Assign(distinct []string) puzzle.ColorMap {
	cm := make(puzzle.ColorMap, len(distinct))
	for i, token := range distinct {
		cm[token] = i + 1
	}
	return cm
}
