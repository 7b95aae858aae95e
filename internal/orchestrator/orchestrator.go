package orchestrator

// #region imports
import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/npc-companion/internal/gate"
	"github.com/danielpatrickdp/npc-companion/internal/input"
	"github.com/danielpatrickdp/npc-companion/internal/intent"
	"github.com/danielpatrickdp/npc-companion/internal/memory"
	"github.com/danielpatrickdp/npc-companion/internal/npc"
	"github.com/danielpatrickdp/npc-companion/internal/signals"
	"github.com/danielpatrickdp/npc-companion/internal/state"
	"github.com/danielpatrickdp/npc-companion/internal/update"
)

// #endregion

// DefaultRecallK is how many episodic memories are recalled per message.
const DefaultRecallK = 3

// #region orchestrator-struct

// Orchestrator assembles the conversation context for one message and runs
// the update engines on a copy of the NPC profile.
type Orchestrator struct {
	classifier *intent.Classifier
	media      *intent.MediaClassifier
	producer   *signals.Producer
	gate       *gate.Gate
	logger     *log.Logger
	now        func() time.Time
	recallK    int
}

// Options configures an Orchestrator. Zero fields get defaults.
type Options struct {
	Classifier *intent.Classifier
	Producer   *signals.Producer
	Gate       *gate.Gate
	Logger     *log.Logger
	Now        func() time.Time
	RecallK    int
}

// #endregion

// #region constructor

// NewOrchestrator creates a fully wired orchestrator.
func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		classifier: opts.Classifier,
		media:      intent.NewMediaClassifier(),
		producer:   opts.Producer,
		gate:       opts.Gate,
		logger:     opts.Logger,
		now:        opts.Now,
		recallK:    opts.RecallK,
	}
	if o.classifier == nil {
		o.classifier = intent.NewClassifier(nil, intent.DefaultClassifierConfig())
	}
	if o.producer == nil {
		o.producer = signals.NewProducer(signals.NewLexicon())
	}
	if o.gate == nil {
		o.gate = gate.NewGate(gate.DefaultGateConfig())
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.recallK <= 0 {
		o.recallK = DefaultRecallK
	}
	return o
}

// #endregion

// #region build

// Build runs the context pipeline: input, memory and state, intent, signals,
// then the relationship, experience and evolution engines. req.NPC is never
// mutated; the proposal lives in Result.Profile.
func (o *Orchestrator) Build(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Input layer
	normalized := input.Normalize(req.Text)
	meta := input.Enrich(req.Metadata, o.now())

	profile := req.NPC
	var name string
	if profile != nil {
		name = profile.Name
	}

	// Memory and state are independent reads of the same profile.
	var (
		mem memory.Snapshot
		st  state.Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mem = memory.Gather(profile, req.History)
		return gctx.Err()
	})
	g.Go(func() error {
		st = state.Load(profile, req.GroupID)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	convo := ConversationContext{
		Message:              Message{Raw: req.Text, Normalized: normalized},
		Metadata:             meta,
		DirectMessage:        input.DetectAddressed(normalized, name),
		MediaRequestDetected: input.DetectMediaRequest(normalized),
		History:              mem.ShortTerm,
		NPC:                  profile,
		GroupState:           st.Group,
	}

	// Intent layer
	prior := req.PriorAIText
	if prior == "" {
		prior = lastAssistantText(req.History)
	}
	opts := intent.Options{Language: meta.Language}
	in := o.classifier.Classify(normalized, prior, opts)
	mediaIntent := o.media.Classify(normalized)
	audio := o.classifier.ShouldReplyWithAudio(normalized, prior, in, opts)

	sig := o.producer.Produce(ctx, signals.ProduceInput{
		Message:   normalized,
		Intent:    in,
		Sentiment: req.Sentiment,
	})

	// Update engines run on a copy of the normalized record, and the gate
	// measures steps from that same baseline.
	baseline := profile.Clone()
	baseline.Normalize()
	proposed := baseline.Clone()
	if proposed == nil {
		proposed = &npc.Profile{}
	}
	var deltas Deltas
	deltas.Relationship = update.ApplyRelationship(proposed, sig)
	deltas.Experience = update.ApplyExperience(proposed, normalized, sig.Sentiment)
	deltas.Evolution = update.ApplyEvolution(proposed, normalized)

	decision := o.gate.Evaluate(baseline, proposed)
	committed := decision.Action == "commit"

	if committed {
		o.logger.Debug("turn built",
			"npc_id", proposed.ID,
			"sentiment", sig.Sentiment,
			"intents", sig.Intents,
			"xp_gained", deltas.Experience.XPGained,
			"level_up", deltas.Experience.LevelUp,
			"soft_score", decision.SoftScore,
		)
	} else {
		o.logger.Warn("proposal rejected by gate", "npc_id", proposed.ID, "reason", decision.Reason)
	}

	return Result{
		Context:        convo,
		Intent:         in,
		Media:          mediaIntent,
		ReplyWithAudio: audio,
		Memory:         mem,
		State:          st,
		Recalled:       memory.Recall(mem, normalized, o.recallK),
		Signals:        sig,
		Deltas:         deltas,
		Profile:        proposed,
		Gate:           decision,
		Committed:      committed,
	}, nil
}

// #endregion

// #region helpers

// lastAssistantText returns the newest assistant turn, or "".
func lastAssistantText(history []npc.Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == npc.RoleAssistant {
			return history[i].Content
		}
	}
	return ""
}

// #endregion
