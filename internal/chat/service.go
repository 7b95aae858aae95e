package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/npc-companion/internal/apperrors"
	"github.com/danielpatrickdp/npc-companion/internal/events"
	"github.com/danielpatrickdp/npc-companion/internal/input"
	"github.com/danielpatrickdp/npc-companion/internal/intent"
	"github.com/danielpatrickdp/npc-companion/internal/llm"
	"github.com/danielpatrickdp/npc-companion/internal/logging"
	"github.com/danielpatrickdp/npc-companion/internal/media"
	"github.com/danielpatrickdp/npc-companion/internal/npc"
	"github.com/danielpatrickdp/npc-companion/internal/orchestrator"
	"github.com/danielpatrickdp/npc-companion/internal/store"
)

// DefaultUserID is used when a request carries no user id.
const DefaultUserID = "anonymous"

// #region collaborators

// Repository is the persistence the service needs. *store.Store satisfies it.
type Repository interface {
	GetNPC(ctx context.Context, id string) (store.NPC, error)
	GetProfile(ctx context.Context, npcID string) (*npc.Profile, error)
	SaveProfile(ctx context.Context, p *npc.Profile) error
	AppendMessage(ctx context.Context, m store.Message) (store.Message, error)
	RecentMessages(ctx context.Context, npcID, userID string, limit int) ([]store.Message, error)
	GetChatMemory(ctx context.Context, npcID, userID string) (store.ChatMemory, error)
	SaveChatMemory(ctx context.Context, m store.ChatMemory) error
}

// InteractionLog records per-turn provenance. *logging.ProvenanceLog satisfies it.
type InteractionLog interface {
	Log(ctx context.Context, entry logging.InteractionEntry) error
}

// MediaGenerator produces media artifacts. *media.Client satisfies it.
type MediaGenerator interface {
	Enabled(kind intent.MediaType) bool
	Generate(ctx context.Context, kind intent.MediaType, prompt string) (media.Result, error)
}

// #endregion collaborators

// #region types

// IncomingMessage is the inbound request payload.
type IncomingMessage struct {
	Text     string `json:"text"`
	NPCID    string `json:"npc_id"`
	UserID   string `json:"userId"`
	TraceID  string `json:"traceId"`
	Language string `json:"language,omitempty"`
	GroupID  string `json:"group_id,omitempty"`
}

// Reply is what the user receives for one message.
type Reply struct {
	MessageID      string           `json:"message_id"`
	NPCID          string           `json:"npc_id"`
	UserID         string           `json:"user_id"`
	TraceID        string           `json:"trace_id"`
	Text           string           `json:"text"`
	MediaType      intent.MediaType `json:"media_type,omitempty"`
	MediaURL       string           `json:"media_url,omitempty"`
	ReplyWithAudio bool             `json:"reply_with_audio"`
	Fallback       bool             `json:"fallback"`
	Committed      bool             `json:"committed"`
	LevelUp        bool             `json:"level_up"`
	Level          int              `json:"level"`
	XP             int              `json:"xp"`
}

// Config holds the generation settings of the service.
type Config struct {
	HistoryLimit int
	Model        string
	Temperature  float64
	MaxTokens    int
}

// Deps are the service collaborators. Media, Events and Interactions may be nil.
type Deps struct {
	Repo         Repository
	Provider     llm.Provider
	Orchestrator *orchestrator.Orchestrator
	Media        MediaGenerator
	Events       events.Publisher
	Interactions InteractionLog
	Logger       *log.Logger
}

// #endregion types

// #region service

// Service handles a user message end to end.
type Service struct {
	repo         Repository
	provider     llm.Provider
	orch         *orchestrator.Orchestrator
	media        MediaGenerator
	events       events.Publisher
	interactions InteractionLog
	logger       *log.Logger
	cfg          Config
	locks        *lockMap
}

// NewService wires the service.
func NewService(deps Deps, cfg Config) *Service {
	s := &Service{
		repo:         deps.Repo,
		provider:     deps.Provider,
		orch:         deps.Orchestrator,
		media:        deps.Media,
		events:       deps.Events,
		interactions: deps.Interactions,
		logger:       deps.Logger,
		cfg:          cfg,
		locks:        newLockMap(),
	}
	if s.orch == nil {
		s.orch = orchestrator.NewOrchestrator(orchestrator.Options{Logger: deps.Logger})
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.cfg.HistoryLimit <= 0 {
		s.cfg.HistoryLimit = 20
	}
	return s
}

// #endregion service

// #region handle-message

// HandleMessage runs one turn. Writes for the same NPC are serialized so
// concurrent messages cannot lose profile updates.
func (s *Service) HandleMessage(ctx context.Context, in IncomingMessage) (Reply, error) {
	text := input.Normalize(in.Text)
	npcID := strings.TrimSpace(in.NPCID)
	if text == "" {
		return Reply{}, apperrors.Validation("text is required", nil)
	}
	if npcID == "" {
		return Reply{}, apperrors.Validation("npc_id is required", nil)
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		userID = DefaultUserID
	}
	traceID := in.TraceID
	if traceID == "" {
		traceID = uuid.New().String()
	}
	logger := s.logger.With("npc_id", npcID, "trace_id", traceID)

	unlock := s.locks.lock(npcID)
	defer unlock()

	// Loads are independent.
	var (
		identity store.NPC
		profile  *npc.Profile
		recent   []store.Message
		memo     store.ChatMemory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		identity, err = s.repo.GetNPC(gctx, npcID)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = s.repo.GetProfile(gctx, npcID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.repo.RecentMessages(gctx, npcID, userID, s.cfg.HistoryLimit)
		return err
	})
	g.Go(func() error {
		m, err := s.repo.GetChatMemory(gctx, npcID, userID)
		if errors.Is(err, store.ErrNotFound) {
			m, err = store.ChatMemory{NPCID: npcID, UserID: userID}, nil
		}
		memo = m
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Reply{}, apperrors.NotFound("npc "+npcID+" not found", err)
		}
		return Reply{}, apperrors.Internal("load conversation", err)
	}

	history := make([]npc.Turn, len(recent))
	for i, m := range recent {
		history[i] = m.Turn()
	}

	res, err := s.orch.Build(ctx, orchestrator.Request{
		Text:        in.Text,
		NPC:         profile,
		History:     history,
		Metadata:    input.Metadata{Language: in.Language},
		GroupID:     in.GroupID,
		PriorAIText: memo.LastAIText,
	})
	if err != nil {
		return Reply{}, apperrors.Internal("build context", err)
	}

	replyText, fallback := llm.CompleteOrFallback(ctx, s.provider, llm.Request{
		Model:       s.cfg.Model,
		Messages:    buildMessages(identity, res),
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}, logger)
	if !fallback {
		if ev := orchestrator.EvaluateReply(replyText); !ev.Usable {
			logger.Warn("reply rejected, using fallback", "failure", ev.FailureType)
			replyText, fallback = llm.FallbackReply, true
		}
	}

	artifact := s.generateMedia(ctx, logger, res, replyText)

	reply := Reply{
		NPCID:          npcID,
		UserID:         userID,
		TraceID:        traceID,
		Text:           replyText,
		MediaType:      artifact.Kind,
		MediaURL:       artifact.URL,
		ReplyWithAudio: res.ReplyWithAudio,
		Fallback:       fallback,
		Committed:      res.Committed,
		LevelUp:        res.Committed && res.Deltas.Experience.LevelUp,
		Level:          profile.Stats.Level,
		XP:             profile.Stats.XP,
	}

	if err := s.persist(ctx, &reply, userID, in.Text, res, memo, artifact); err != nil {
		return Reply{}, err
	}
	s.record(ctx, logger, reply, res)
	return reply, nil
}

// #endregion handle-message

// #region media

// generateMedia returns the artifact for this turn, or a zero Result.
// Failures degrade to a text-only reply.
func (s *Service) generateMedia(ctx context.Context, logger *log.Logger, res orchestrator.Result, replyText string) media.Result {
	if s.media == nil {
		return media.Result{}
	}
	kind := res.MediaKind()
	if kind == intent.MediaNone && res.ReplyWithAudio {
		kind = intent.MediaAudio
	}
	if kind == intent.MediaNone || !s.media.Enabled(kind) {
		return media.Result{}
	}

	prompt := replyText
	if kind != intent.MediaAudio {
		prompt = media.BuildPrompt(kind, res.Profile, res.State, res.Context.Message.Normalized)
	}
	out, err := s.media.Generate(ctx, kind, prompt)
	if err != nil {
		logger.Warn("media generation failed", "kind", kind, "error", err)
		return media.Result{}
	}
	return out
}

// #endregion media

// #region persist

func (s *Service) persist(ctx context.Context, reply *Reply, userID, rawText string, res orchestrator.Result, memo store.ChatMemory, artifact media.Result) error {
	now := time.Now().UTC()
	if _, err := s.repo.AppendMessage(ctx, store.Message{
		NPCID: reply.NPCID, UserID: userID, Role: npc.RoleUser,
		Content: rawText, TraceID: reply.TraceID, CreatedAt: now,
	}); err != nil {
		return apperrors.Internal("store user message", err)
	}
	saved, err := s.repo.AppendMessage(ctx, store.Message{
		NPCID: reply.NPCID, UserID: userID, Role: npc.RoleAssistant,
		Content: reply.Text, MediaURL: artifact.URL, MediaType: string(artifact.Kind),
		TraceID: reply.TraceID, CreatedAt: now.Add(time.Microsecond),
	})
	if err != nil {
		return apperrors.Internal("store reply", err)
	}
	reply.MessageID = saved.ID

	if res.Committed {
		next := res.Profile
		if !reply.Fallback {
			next.Memories.LastOpenings = rememberOpening(next.Memories.LastOpenings, opening(reply.Text))
		}
		if artifact.URL != "" {
			next.Memories.Media = append(next.Memories.Media, npc.MediaRecord{
				Kind: string(artifact.Kind), URL: artifact.URL, CreatedAt: now,
			})
		}
		if err := s.repo.SaveProfile(ctx, next); err != nil {
			return apperrors.Internal("save profile", err)
		}
		reply.Level = next.Stats.Level
		reply.XP = next.Stats.XP
	}

	memo.LastAIText = reply.Text
	memo.TurnCount++
	if err := s.repo.SaveChatMemory(ctx, memo); err != nil {
		return apperrors.Internal("save chat memory", err)
	}
	return nil
}

// #endregion persist

// #region record

// record writes provenance and publishes events. Failures are logged only.
func (s *Service) record(ctx context.Context, logger *log.Logger, reply Reply, res orchestrator.Result) {
	if s.interactions != nil {
		signals, err := json.Marshal(res.TurnRecord())
		if err != nil {
			logger.Error("marshal turn record", "error", err)
		}
		err = s.interactions.Log(ctx, logging.InteractionEntry{
			NPCID:       reply.NPCID,
			UserID:      reply.UserID,
			TraceID:     reply.TraceID,
			TriggerType: "message",
			SignalsJSON: string(signals),
			Decision:    res.Gate.Action,
			Reason:      res.Gate.Reason,
		})
		if err != nil {
			logger.Error("log interaction", "error", err)
		}
	}

	now := time.Now().UTC()
	if err := s.events.PublishInteraction(events.Interaction{
		NPCID:      reply.NPCID,
		UserID:     reply.UserID,
		TraceID:    reply.TraceID,
		Reply:      reply.Text,
		MediaType:  string(reply.MediaType),
		MediaURL:   reply.MediaURL,
		Decision:   res.Gate.Action,
		XPGained:   res.Deltas.Experience.XPGained,
		Fallback:   reply.Fallback,
		OccurredAt: now,
	}); err != nil {
		logger.Warn("publish interaction", "error", err)
	}
	if reply.LevelUp {
		logger.Info("level up", "level", reply.Level, "xp", reply.XP)
		if err := s.events.PublishLevelUp(events.LevelUp{
			NPCID: reply.NPCID, UserID: reply.UserID, Level: reply.Level, XP: reply.XP, OccurredAt: now,
		}); err != nil {
			logger.Warn("publish level up", "error", err)
		}
	}
}

// #endregion record
