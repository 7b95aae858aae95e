package memory

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/danielpatrickdp/npc-companion/internal/npc"
)

func turns(n int) []npc.Turn {
	out := make([]npc.Turn, n)
	for i := range out {
		out[i] = npc.Turn{Role: npc.RoleUser, Content: fmt.Sprintf("msg %d", i)}
	}
	return out
}

// #region gather-tests

func TestGather_NilProfile(t *testing.T) {
	snap := Gather(nil, nil)
	if snap.ShortTerm == nil || snap.Episodic == nil || snap.Media == nil || snap.LastOpenings == nil || snap.SocialGraph == nil {
		t.Fatalf("expected empty non-nil structures, got %+v", snap)
	}
	if snap.LongTermSummary != "" {
		t.Errorf("expected empty summary, got %q", snap.LongTermSummary)
	}
}

func TestGather_ShortTermTail(t *testing.T) {
	snap := Gather(&npc.Profile{}, turns(25))
	if len(snap.ShortTerm) != ShortTermLimit {
		t.Fatalf("expected %d turns, got %d", ShortTermLimit, len(snap.ShortTerm))
	}
	if snap.ShortTerm[0].Content != "msg 15" || snap.ShortTerm[9].Content != "msg 24" {
		t.Errorf("expected last ten turns, got first=%q last=%q", snap.ShortTerm[0].Content, snap.ShortTerm[9].Content)
	}

	snap = Gather(&npc.Profile{}, turns(3))
	if len(snap.ShortTerm) != 3 {
		t.Errorf("expected 3 turns, got %d", len(snap.ShortTerm))
	}
}

func TestGather_DoesNotAlias(t *testing.T) {
	p := &npc.Profile{Memories: npc.Memories{
		LongTermSummary: "ama il mare",
		Episodic:        []npc.Episode{{Text: "gita a Napoli"}},
		SocialGraph:     map[string]npc.SocialLink{"marco": {Relation: "amico", Closeness: 0.4}},
		LastOpenings:    []string{"ciao!"},
	}}
	history := turns(2)

	snap := Gather(p, history)
	snap.Episodic[0].Text = "changed"
	snap.SocialGraph["marco"] = npc.SocialLink{Relation: "nemico"}
	snap.LastOpenings[0] = "changed"
	snap.ShortTerm[0].Content = "changed"

	if p.Memories.Episodic[0].Text != "gita a Napoli" {
		t.Error("episodic memory aliased")
	}
	if p.Memories.SocialGraph["marco"].Relation != "amico" {
		t.Error("social graph aliased")
	}
	if p.Memories.LastOpenings[0] != "ciao!" {
		t.Error("last openings aliased")
	}
	if history[0].Content != "msg 0" {
		t.Error("history aliased")
	}
}

func TestGather_Idempotent(t *testing.T) {
	p := &npc.Profile{Memories: npc.Memories{
		LongTermSummary: "summary",
		Episodic:        []npc.Episode{{Text: "a"}, {Text: "b"}},
	}}
	h := turns(12)
	if a, b := Gather(p, h), Gather(p, h); !reflect.DeepEqual(a, b) {
		t.Errorf("gather not idempotent:\n%+v\n%+v", a, b)
	}
}

// #endregion gather-tests

// #region recall-tests

func TestRecall(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{Episodic: []npc.Episode{
		{Text: "Siamo andati al mare a Napoli", CreatedAt: base},
		{Text: "Abbiamo parlato del lavoro di Marco", CreatedAt: base.Add(time.Hour)},
		{Text: "Il mare d'inverno a Napoli è bellissimo", CreatedAt: base.Add(2 * time.Hour)},
		{Text: "Pizza a Roma", CreatedAt: base.Add(3 * time.Hour)},
	}}

	got := Recall(snap, "ti ricordi il mare di Napoli?", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 memories, got %d", len(got))
	}
	// Both score 2; the newer one wins the tie.
	if got[0].Text != "Il mare d'inverno a Napoli è bellissimo" {
		t.Errorf("unexpected first memory %q", got[0].Text)
	}
	if got[1].Text != "Siamo andati al mare a Napoli" {
		t.Errorf("unexpected second memory %q", got[1].Text)
	}
}

func TestRecall_NoOverlap(t *testing.T) {
	snap := Snapshot{Episodic: []npc.Episode{{Text: "gatto nero"}}}
	if got := Recall(snap, "il cane bianco", 3); len(got) != 0 {
		t.Errorf("expected nothing, got %+v", got)
	}
}

func TestRecall_EdgeCases(t *testing.T) {
	snap := Snapshot{Episodic: []npc.Episode{{Text: "gatto nero"}}}
	if got := Recall(snap, "gatto", 0); got != nil {
		t.Error("k=0 must return nil")
	}
	if got := Recall(snap, "il la e", 3); got != nil {
		t.Error("stopword-only query must return nil")
	}
	if got := Recall(Snapshot{}, "gatto", 3); got != nil {
		t.Error("empty snapshot must return nil")
	}
}

// #endregion recall-tests
