package orchestrator

import (
	"context"
	"io"
	"math"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/danielpatrickdp/npc-companion/internal/input"
	"github.com/danielpatrickdp/npc-companion/internal/intent"
	"github.com/danielpatrickdp/npc-companion/internal/npc"
	"github.com/danielpatrickdp/npc-companion/internal/signals"
	"github.com/danielpatrickdp/npc-companion/internal/update"
)

// #region helpers
type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

var fixedNow = time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC)

func newTestOrchestrator() *Orchestrator {
	return NewOrchestrator(Options{
		Classifier: intent.NewClassifier(fixedRand{0.99}, intent.DefaultClassifierConfig()),
		Producer:   signals.NewProducer(signals.NewLexicon()),
		Logger:     log.New(io.Discard),
		Now:        func() time.Time { return fixedNow },
	})
}

func baseProfile() *npc.Profile {
	return &npc.Profile{
		ID:     "luna",
		Name:   "Luna",
		Stats:  npc.Stats{XP: 990, Level: 1},
		Traits: map[string]float64{"empathy": 0.5},
	}
}

// #endregion helpers

// #region build-tests
func TestBuild_ProposesWithoutMutating(t *testing.T) {
	o := newTestOrchestrator()
	p := baseProfile()

	res, err := o.Build(context.Background(), Request{
		Text:      "oggi ho finito il progetto e sono davvero contento del risultato finale",
		NPC:       p,
		Sentiment: update.SentimentPositive,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if p.Stats.XP != 990 || p.Relationship != nil || p.Evolution != nil {
		t.Errorf("input profile was mutated: %+v", p)
	}
	if !res.Committed {
		t.Fatalf("expected commit, gate said %q", res.Gate.Reason)
	}
	if res.Deltas.Experience.XPGained != 25 {
		t.Errorf("XPGained = %d, want 25", res.Deltas.Experience.XPGained)
	}
	if res.Profile.Stats.XP != 1015 || res.Profile.Stats.Level != 2 {
		t.Errorf("stats = %+v, want xp 1015 level 2", res.Profile.Stats)
	}
	if !res.Deltas.Experience.LevelUp {
		t.Error("expected LevelUp")
	}
	if res.Profile.Relationship == nil || math.Abs(res.Profile.Relationship.Trust-0.05) > 1e-9 {
		t.Errorf("relationship = %+v, want trust 0.05", res.Profile.Relationship)
	}
	if res.Profile.Evolution == nil {
		t.Fatal("expected evolution to be initialized")
	}
	if !res.Deltas.Evolution.Initialized {
		t.Error("expected Initialized")
	}
}

func TestBuild_ContextFields(t *testing.T) {
	o := newTestOrchestrator()
	history := make([]npc.Turn, 0, 14)
	for i := 0; i < 14; i++ {
		role := npc.RoleUser
		if i%2 == 1 {
			role = npc.RoleAssistant
		}
		history = append(history, npc.Turn{Role: role, Content: "turn"})
	}

	res, err := o.Build(context.Background(), Request{
		Text:    "  hey Luna,   mandami una foto  ",
		NPC:     baseProfile(),
		History: history,
		GroupID: "bar",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	c := res.Context
	if c.Message.Normalized != "hey Luna, mandami una foto" {
		t.Errorf("Normalized = %q", c.Message.Normalized)
	}
	if c.Message.Raw != "  hey Luna,   mandami una foto  " {
		t.Errorf("Raw = %q", c.Message.Raw)
	}
	if !c.DirectMessage || !c.MediaRequestDetected {
		t.Errorf("DirectMessage=%v MediaRequestDetected=%v, want both true", c.DirectMessage, c.MediaRequestDetected)
	}
	if len(c.History) != 10 {
		t.Errorf("History len = %d, want 10", len(c.History))
	}
	if c.GroupState == nil || c.GroupState.ID != "bar" {
		t.Errorf("GroupState = %+v, want bar placeholder", c.GroupState)
	}
	if c.Metadata.Language != input.DefaultLanguage || !c.Metadata.Timestamp.Equal(fixedNow) {
		t.Errorf("Metadata = %+v", c.Metadata)
	}
	if c.Metadata.HourOfDay != 20 {
		t.Errorf("HourOfDay = %d, want 20 (Europe/Rome, CEST)", c.Metadata.HourOfDay)
	}
	if !res.Intent.WantsPhoto || res.MediaKind() != intent.MediaPhoto {
		t.Errorf("intent = %+v, media kind %q", res.Intent, res.MediaKind())
	}
	if !res.Media.WantsMedia {
		t.Error("expected media classifier to match")
	}
}

func TestBuild_PriorAITextFromHistory(t *testing.T) {
	o := newTestOrchestrator()
	history := []npc.Turn{
		{Role: npc.RoleUser, Content: "ciao"},
		{Role: npc.RoleAssistant, Content: "mi manchi tanto"},
		{Role: npc.RoleUser, Content: "davvero?"},
	}

	res, err := o.Build(context.Background(), Request{Text: "e adesso?", NPC: baseProfile(), History: history})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !res.Intent.Tone.Emotional {
		t.Error("expected emotional tone forced by prior AI text")
	}
	if !res.Signals.Has(update.IntentVulnerability) {
		t.Errorf("signals = %+v, want vulnerability", res.Signals)
	}
}

func TestBuild_Recall(t *testing.T) {
	o := newTestOrchestrator()
	p := baseProfile()
	p.Memories.Episodic = []npc.Episode{
		{Text: "abbiamo mangiato la pizza a Napoli"},
		{Text: "il concerto era bellissimo"},
	}

	res, err := o.Build(context.Background(), Request{Text: "ti ricordi la pizza?", NPC: p})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Recalled) != 1 || res.Recalled[0].Text != "abbiamo mangiato la pizza a Napoli" {
		t.Errorf("Recalled = %+v", res.Recalled)
	}
}

func TestBuild_NilProfile(t *testing.T) {
	o := newTestOrchestrator()
	res, err := o.Build(context.Background(), Request{Text: "ciao"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Profile == nil {
		t.Fatal("expected a proposed profile")
	}
	if !res.Committed {
		t.Errorf("expected commit for a fresh profile, got %q", res.Gate.Reason)
	}
	if res.State.Mood != "neutral" {
		t.Errorf("Mood = %q, want neutral", res.State.Mood)
	}
}

func TestBuild_OutOfRangeProfileStillProgresses(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *npc.Profile)
	}{
		{"trait above one", func(p *npc.Profile) { p.Traits["warmth"] = 1.2 }},
		{"trust above one", func(p *npc.Profile) { p.Relationship = &npc.Relationship{Trust: 3} }},
		{"trust nan", func(p *npc.Profile) { p.Relationship = &npc.Relationship{Trust: math.NaN()} }},
		{"intimacy stat above cap", func(p *npc.Profile) { p.Stats.Intimacy = 250 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator()
			stored := baseProfile()
			tt.mutate(stored)
			cur := stored

			for turn := 0; turn < 3; turn++ {
				res, err := o.Build(context.Background(), Request{
					Text:      "grazie, sei gentile",
					NPC:       cur,
					Sentiment: update.SentimentPositive,
				})
				if err != nil {
					t.Fatalf("turn %d: Build: %v", turn, err)
				}
				if !res.Committed {
					t.Fatalf("turn %d: rejected: %s", turn, res.Gate.Reason)
				}
				cur = res.Profile
			}

			if cur.Stats.XP != 1050 || cur.Stats.Level != 2 {
				t.Errorf("stats = %+v, want xp 1050 level 2", cur.Stats)
			}
			if cur.Stats.Intimacy < 0 || cur.Stats.Intimacy > npc.MaxStatIntimacy {
				t.Errorf("stat intimacy %f out of range", cur.Stats.Intimacy)
			}
			for k, v := range cur.Traits {
				if v < 0 || v > 1 {
					t.Errorf("trait %s = %f out of range", k, v)
				}
			}
			r := cur.Relationship
			for _, v := range []float64{r.Trust, r.Intimacy, r.Conflict, r.Sympathy} {
				if math.IsNaN(v) || v < 0 || v > 1 {
					t.Errorf("relationship out of range: %+v", *r)
				}
			}
		})
	}
}

func TestBuild_DoesNotNormalizeCallerProfile(t *testing.T) {
	o := newTestOrchestrator()
	p := baseProfile()
	p.Traits["warmth"] = 1.2

	if _, err := o.Build(context.Background(), Request{Text: "ciao", NPC: p}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Traits["warmth"] != 1.2 {
		t.Errorf("caller profile changed: warmth = %f", p.Traits["warmth"])
	}
}

func TestBuild_CancelledContext(t *testing.T) {
	o := newTestOrchestrator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.Build(ctx, Request{Text: "ciao", NPC: baseProfile()}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestNewOrchestrator_Defaults(t *testing.T) {
	o := NewOrchestrator(Options{})
	if o.classifier == nil || o.producer == nil || o.gate == nil || o.logger == nil || o.now == nil {
		t.Fatal("expected defaults to be filled")
	}
	if o.recallK != DefaultRecallK {
		t.Errorf("recallK = %d, want %d", o.recallK, DefaultRecallK)
	}
}

// #endregion build-tests

// #region record-tests
func TestTurnRecord(t *testing.T) {
	o := newTestOrchestrator()
	res, err := o.Build(context.Background(), Request{
		Text:      "sei bellissima, mandami una foto",
		NPC:       baseProfile(),
		Sentiment: update.SentimentPositive,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rec := res.TurnRecord()
	if rec.Message != "sei bellissima, mandami una foto" {
		t.Errorf("Message = %q", rec.Message)
	}
	if !rec.Intent.Flirty || !rec.Intent.WantsPhoto {
		t.Errorf("Intent = %+v", rec.Intent)
	}
	if rec.Sentiment != "positive" || rec.MediaType != "photo" {
		t.Errorf("Sentiment=%q MediaType=%q", rec.Sentiment, rec.MediaType)
	}
	if rec.RelationshipDelta[1] != 0.08 {
		t.Errorf("intimacy delta = %v, want 0.08", rec.RelationshipDelta[1])
	}
	if rec.GateAction != "commit" {
		t.Errorf("GateAction = %q", rec.GateAction)
	}
}

// #endregion record-tests
