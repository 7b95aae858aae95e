package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/danielpatrickdp/npc-companion/internal/affinity"
	"github.com/danielpatrickdp/npc-companion/internal/apperrors"
	"github.com/danielpatrickdp/npc-companion/internal/chat"
	"github.com/danielpatrickdp/npc-companion/internal/npc"
	"github.com/danielpatrickdp/npc-companion/internal/store"
)

// #region deps

// ChatService handles inbound messages. *chat.Service satisfies it.
type ChatService interface {
	HandleMessage(ctx context.Context, in chat.IncomingMessage) (chat.Reply, error)
}

// NPCStore reads and creates NPCs and groups. *store.Store satisfies it.
type NPCStore interface {
	GetNPC(ctx context.Context, id string) (store.NPC, error)
	GetProfile(ctx context.Context, npcID string) (*npc.Profile, error)
	CreateNPC(ctx context.Context, n store.NPC, profile *npc.Profile) error
	GetGroup(ctx context.Context, id string) (store.Group, error)
	SaveGroup(ctx context.Context, g store.Group) error
}

// Handler serves the HTTP and WebSocket API.
type Handler struct {
	chat     ChatService
	npcs     NPCStore
	affinity *affinity.Tracker
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewHandler wires the handler. A nil tracker gets a fresh one. WebSocket
// upgrades accept any origin until AllowOrigins is called.
func NewHandler(chatSvc ChatService, npcs NPCStore, tracker *affinity.Tracker, logger *log.Logger) *Handler {
	if tracker == nil {
		tracker = affinity.NewTracker()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		chat:     chatSvc,
		npcs:     npcs,
		affinity: tracker,
		logger:   logger,
		upgrader: newUpgrader(nil),
	}
}

// #endregion deps

// #region messages

func (h *Handler) postMessage(c *gin.Context) {
	var in chat.IncomingMessage
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperrors.Validation("invalid message payload", err))
		return
	}
	reply, err := h.chat.HandleMessage(c.Request.Context(), in)
	if err != nil {
		h.logFailure(c, err)
		respondError(c, err)
		return
	}
	ok(c, reply)
}

// #endregion messages

// #region npcs

type createNPCRequest struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Persona string       `json:"persona"`
	Profile *npc.Profile `json:"profile,omitempty"`
}

func (h *Handler) createNPC(c *gin.Context) {
	var req createNPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid npc payload", err))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(c, apperrors.Validation("name is required", nil))
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	ctx := c.Request.Context()
	if _, err := h.npcs.GetNPC(ctx, req.ID); err == nil {
		respondError(c, apperrors.Conflict("npc "+req.ID+" already exists", nil))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.logFailure(c, err)
		respondError(c, apperrors.Internal("lookup npc", err))
		return
	}

	profile := req.Profile
	if profile == nil {
		profile = &npc.Profile{}
	}
	profile.Normalize()
	n := store.NPC{ID: req.ID, Name: req.Name, Persona: req.Persona}
	if err := h.npcs.CreateNPC(ctx, n, profile); err != nil {
		h.logFailure(c, err)
		respondError(c, apperrors.Internal("create npc", err))
		return
	}
	h.logger.Info("npc created", "npc_id", n.ID, "name", n.Name)
	respond(c, http.StatusCreated, profile)
}

func (h *Handler) getProfile(c *gin.Context) {
	id := c.Param("id")
	p, err := h.npcs.GetProfile(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, apperrors.NotFound("npc "+id+" not found", err))
		return
	}
	if err != nil {
		h.logFailure(c, err)
		respondError(c, apperrors.Internal("load profile", err))
		return
	}
	ok(c, p)
}

// #endregion npcs

// #region groups

type groupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

func (h *Handler) getGroup(c *gin.Context) {
	id := c.Param("id")
	g, err := h.npcs.GetGroup(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, apperrors.NotFound("group "+id+" not found", err))
		return
	}
	if err != nil {
		h.logFailure(c, err)
		respondError(c, apperrors.Internal("load group", err))
		return
	}
	ok(c, g)
}

// putGroup replaces the group's name and members. Every member must be a
// known NPC.
func (h *Handler) putGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid group payload", err))
		return
	}

	ctx := c.Request.Context()
	members := make([]string, 0, len(req.Members))
	seen := make(map[string]bool, len(req.Members))
	for _, m := range req.Members {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		if _, err := h.npcs.GetNPC(ctx, m); errors.Is(err, store.ErrNotFound) {
			respondError(c, apperrors.Validation("unknown member "+m, err))
			return
		} else if err != nil {
			h.logFailure(c, err)
			respondError(c, apperrors.Internal("lookup member", err))
			return
		}
		seen[m] = true
		members = append(members, m)
	}

	g := store.Group{ID: c.Param("id"), Name: strings.TrimSpace(req.Name), Members: members}
	if err := h.npcs.SaveGroup(ctx, g); err != nil {
		h.logFailure(c, err)
		respondError(c, apperrors.Internal("save group", err))
		return
	}
	ok(c, g)
}

// #endregion groups

// #region affinity

type affinityView struct {
	GroupID  string  `json:"group_id"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Affinity float64 `json:"affinity"`
}

type affinityUpdate struct {
	From string `json:"from"`
	To   string `json:"to"`
	// Delta nil means a default nudge.
	Delta *float64 `json:"delta,omitempty"`
}

func (h *Handler) getAffinity(c *gin.Context) {
	groupID := c.Param("id")
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		respondError(c, apperrors.Validation("from and to are required", nil))
		return
	}
	ok(c, affinityView{GroupID: groupID, From: from, To: to, Affinity: h.affinity.Get(groupID, from, to)})
}

func (h *Handler) postAffinity(c *gin.Context) {
	groupID := c.Param("id")
	var req affinityUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid affinity payload", err))
		return
	}
	if req.From == "" || req.To == "" {
		respondError(c, apperrors.Validation("from and to are required", nil))
		return
	}

	var v float64
	if req.Delta == nil {
		v = h.affinity.Nudge(groupID, req.From, req.To)
	} else {
		v = h.affinity.Update(groupID, req.From, req.To, *req.Delta)
	}
	ok(c, affinityView{GroupID: groupID, From: req.From, To: req.To, Affinity: v})
}

// #endregion affinity

func (h *Handler) healthz(c *gin.Context) {
	ok(c, gin.H{"status": "ok"})
}

// logFailure logs server-side failures; client errors stay quiet.
func (h *Handler) logFailure(c *gin.Context, err error) {
	if apperrors.HTTPStatus(err) < 500 {
		return
	}
	h.logger.Error("request failed", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err)
}
