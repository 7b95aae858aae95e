package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects published by the chat service.
const (
	SubjectInteraction = "npc.interaction"
	SubjectLevelUp     = "npc.levelup"
)

// #region payloads
// Interaction is published after every handled message.
type Interaction struct {
	NPCID      string    `json:"npc_id"`
	UserID     string    `json:"user_id"`
	TraceID    string    `json:"trace_id"`
	Reply      string    `json:"reply"`
	MediaType  string    `json:"media_type,omitempty"`
	MediaURL   string    `json:"media_url,omitempty"`
	Decision   string    `json:"decision"`
	XPGained   int       `json:"xp_gained"`
	Fallback   bool      `json:"fallback"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LevelUp is published when a committed turn raised the NPC level.
type LevelUp struct {
	NPCID      string    `json:"npc_id"`
	UserID     string    `json:"user_id"`
	Level      int       `json:"level"`
	XP         int       `json:"xp"`
	OccurredAt time.Time `json:"occurred_at"`
}

// #endregion payloads

// #region publisher
// Publisher fans domain events out to subscribers.
type Publisher interface {
	PublishInteraction(ev Interaction) error
	PublishLevelUp(ev LevelUp) error
	Close() error
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) PublishInteraction(Interaction) error { return nil }
func (Noop) PublishLevelUp(LevelUp) error         { return nil }
func (Noop) Close() error                         { return nil }

// #endregion publisher

// #region nats
// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATS publishes JSON-encoded events on a NATS connection.
type NATS struct {
	nc conn
}

// NewNATS connects to url.
func NewNATS(url string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("npc-companion"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return &NATS{nc: nc}, nil
}

func (n *NATS) PublishInteraction(ev Interaction) error {
	return n.publish(SubjectInteraction, ev)
}

func (n *NATS) PublishLevelUp(ev LevelUp) error {
	return n.publish(SubjectLevelUp, ev)
}

// Close flushes pending messages and closes the connection.
func (n *NATS) Close() error {
	return n.nc.Drain()
}

func (n *NATS) publish(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if err := n.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// #endregion nats

// New returns a NATS publisher when url is set, otherwise Noop.
func New(url string) (Publisher, error) {
	if url == "" {
		return Noop{}, nil
	}
	p, err := NewNATS(url)
	if err != nil {
		return nil, err
	}
	return p, nil
}
