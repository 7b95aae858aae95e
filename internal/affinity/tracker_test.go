package affinity

import (
	"math"
	"sync"
	"testing"
)

func TestTracker_DefaultsToZero(t *testing.T) {
	tr := NewTracker()
	if got := tr.Get("g", "luna", "sole"); got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
}

func TestTracker_NudgeAndDirection(t *testing.T) {
	tr := NewTracker()
	tr.Nudge("g", "luna", "sole")
	if got := tr.Get("g", "luna", "sole"); math.Abs(got-0.05) > 1e-9 {
		t.Errorf("expected 0.05, got %f", got)
	}
	if got := tr.Get("g", "sole", "luna"); got != 0 {
		t.Errorf("reverse direction must be independent, got %f", got)
	}
	if got := tr.Get("other", "luna", "sole"); got != 0 {
		t.Errorf("groups must be independent, got %f", got)
	}
}

func TestTracker_Clamps(t *testing.T) {
	tr := NewTracker()
	if got := tr.Update("g", "a", "b", 5); got != 1 {
		t.Errorf("expected 1, got %f", got)
	}
	if got := tr.Update("g", "a", "b", -3); got != -1 {
		t.Errorf("expected -1, got %f", got)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Update("g", "a", "b", 0.01)
		}()
	}
	wg.Wait()
	if got := tr.Get("g", "a", "b"); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected 0.5 after 50 updates, got %f", got)
	}
	if tr.Len() != 1 {
		t.Errorf("expected one tracked pair, got %d", tr.Len())
	}
}
