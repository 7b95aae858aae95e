package replay

import (
	"context"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/danielpatrickdp/npc-companion/internal/gate"
	"github.com/danielpatrickdp/npc-companion/internal/input"
	"github.com/danielpatrickdp/npc-companion/internal/intent"
	"github.com/danielpatrickdp/npc-companion/internal/npc"
	"github.com/danielpatrickdp/npc-companion/internal/orchestrator"
	"github.com/danielpatrickdp/npc-companion/internal/signals"
	"github.com/danielpatrickdp/npc-companion/internal/store"
	"github.com/danielpatrickdp/npc-companion/internal/update"
)

// #region types
// Interaction represents a single recorded user message for replay.
type Interaction struct {
	TurnID    string
	Text      string
	Sentiment update.Sentiment // empty means "run the lexicon"
	Reply     string           // the NPC's answer, appended to history
	GroupID   string
	At        time.Time
}

// ReplayConfig bundles the knobs of a replay run.
type ReplayConfig struct {
	Seed       int64
	Gate       gate.GateConfig
	Classifier intent.ClassifierConfig
	Language   string
	// HistoryLimit caps how many turns are carried between interactions.
	HistoryLimit int
	Logger       *log.Logger
}

// DefaultReplayConfig returns production gate and classifier policy with seed 1.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Seed:         1,
		Gate:         gate.DefaultGateConfig(),
		Classifier:   intent.DefaultClassifierConfig(),
		Language:     input.DefaultLanguage,
		HistoryLimit: 20,
	}
}

// ReplayResult captures the outcome of replaying one interaction.
type ReplayResult struct {
	TurnID string
	Action string // "commit" | "reject"
	Reason string

	Sentiment update.Sentiment
	Intents   []string
	MediaType intent.MediaType
	Audio     bool

	XPGained int
	LevelUp  bool
	Level    int
	XP       int
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalTurns   int
	Commits      int
	GateRejects  int
	LevelUps     int
	XPGained     int
	FinalProfile *npc.Profile
}

// #endregion types

// #region replay
// Replay feeds interactions through the orchestrator in order, starting from
// start. Committed proposals become the next turn's profile; rejected ones are
// dropped. The random source is seeded so audio decisions repeat across runs.
// start is not modified. Returns the results and the final profile.
func Replay(ctx context.Context, start *npc.Profile, interactions []Interaction, config ReplayConfig) ([]ReplayResult, *npc.Profile, error) {
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := &turnClock{}
	orch := orchestrator.NewOrchestrator(orchestrator.Options{
		Classifier: intent.NewClassifier(rand.New(rand.NewSource(config.Seed)), config.Classifier),
		Producer:   signals.NewProducer(signals.NewLexicon()),
		Gate:       gate.NewGate(config.Gate),
		Logger:     logger,
		Now:        clock.now,
	})

	current := start.Clone()
	if current == nil {
		current = &npc.Profile{Stats: npc.Stats{Level: 1}}
	}
	var history []npc.Turn
	results := make([]ReplayResult, 0, len(interactions))

	for _, inter := range interactions {
		clock.set(inter.At)
		res, err := orch.Build(ctx, orchestrator.Request{
			Text:      inter.Text,
			NPC:       current,
			History:   history,
			Metadata:  input.Metadata{Language: config.Language},
			GroupID:   inter.GroupID,
			Sentiment: inter.Sentiment,
		})
		if err != nil {
			return results, current, err
		}

		r := ReplayResult{
			TurnID:    inter.TurnID,
			Action:    res.Gate.Action,
			Reason:    res.Gate.Reason,
			Sentiment: res.Signals.Sentiment,
			Intents:   res.Signals.Intents,
			MediaType: res.MediaKind(),
			Audio:     res.ReplyWithAudio,
			Level:     current.Stats.Level,
			XP:        current.Stats.XP,
		}
		if res.Committed {
			current = res.Profile
			r.XPGained = res.Deltas.Experience.XPGained
			r.LevelUp = res.Deltas.Experience.LevelUp
			r.Level = current.Stats.Level
			r.XP = current.Stats.XP
		}
		results = append(results, r)

		history = append(history, npc.Turn{Role: npc.RoleUser, Content: inter.Text, CreatedAt: inter.At})
		if inter.Reply != "" {
			history = append(history, npc.Turn{Role: npc.RoleAssistant, Content: inter.Reply, CreatedAt: inter.At})
		}
		if config.HistoryLimit > 0 && len(history) > config.HistoryLimit {
			history = history[len(history)-config.HistoryLimit:]
		}
	}
	return results, current, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult, final *npc.Profile) ReplaySummary {
	s := ReplaySummary{
		TotalTurns:   len(results),
		FinalProfile: final,
	}
	for _, r := range results {
		switch r.Action {
		case "commit":
			s.Commits++
		case "reject":
			s.GateRejects++
		}
		if r.LevelUp {
			s.LevelUps++
		}
		s.XPGained += r.XPGained
	}
	return s
}

// #endregion replay

// #region stored
// FromMessages turns a stored conversation (oldest first) into interactions.
// Each user message becomes one interaction; the assistant message that
// follows it, if any, becomes its Reply.
func FromMessages(msgs []store.Message) []Interaction {
	var out []Interaction
	for i, m := range msgs {
		if m.Role != npc.RoleUser {
			continue
		}
		inter := Interaction{TurnID: m.ID, Text: m.Content, At: m.CreatedAt}
		if i+1 < len(msgs) && msgs[i+1].Role == npc.RoleAssistant {
			inter.Reply = msgs[i+1].Content
		}
		out = append(out, inter)
	}
	return out
}

// #endregion stored

// turnClock replays recorded timestamps. A zero time falls back to the wall clock.
type turnClock struct{ t time.Time }

func (c *turnClock) set(t time.Time) { c.t = t }

func (c *turnClock) now() time.Time {
	if c.t.IsZero() {
		return time.Now()
	}
	return c.t
}
