package affinity

import (
	"strings"
	"sync"
)

// DefaultNudge is the delta applied by Nudge.
const DefaultNudge = 0.05

// Tracker holds NPC-to-NPC affinity scores for the lifetime of the process.
// Scores are directional, keyed by (group, from, to), and bounded to [-1, 1].
// Absent pairs read as 0. Safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	scores map[string]float64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{scores: make(map[string]float64)}
}

// Update adds delta to the score and returns the clamped result.
func (t *Tracker) Update(groupID, from, to string, delta float64) float64 {
	k := key(groupID, from, to)
	t.mu.Lock()
	defer t.mu.Unlock()
	next := clamp(t.scores[k] + delta)
	t.scores[k] = next
	return next
}

// Nudge applies DefaultNudge.
func (t *Tracker) Nudge(groupID, from, to string) float64 {
	return t.Update(groupID, from, to, DefaultNudge)
}

// Get returns the current score, 0 when the pair was never updated.
func (t *Tracker) Get(groupID, from, to string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scores[key(groupID, from, to)]
}

// Len reports how many pairs are tracked.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.scores)
}

func key(groupID, from, to string) string {
	return strings.Join([]string{groupID, from, to}, ":")
}

func clamp(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
