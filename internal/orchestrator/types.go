package orchestrator

// #region imports
import (
	"github.com/danielpatrickdp/npc-companion/internal/gate"
	"github.com/danielpatrickdp/npc-companion/internal/input"
	"github.com/danielpatrickdp/npc-companion/internal/intent"
	"github.com/danielpatrickdp/npc-companion/internal/memory"
	"github.com/danielpatrickdp/npc-companion/internal/npc"
	"github.com/danielpatrickdp/npc-companion/internal/state"
	"github.com/danielpatrickdp/npc-companion/internal/update"
)

// #endregion

// #region context

// Message holds the user text as received and after normalization.
type Message struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

// ConversationContext is the assembled view of one incoming message that the
// response generator consumes.
type ConversationContext struct {
	Message              Message           `json:"message"`
	Metadata             input.Metadata    `json:"metadata"`
	DirectMessage        bool              `json:"direct_message"`
	MediaRequestDetected bool              `json:"media_request_detected"`
	History              []npc.Turn        `json:"history"`
	NPC                  *npc.Profile      `json:"npc"`
	GroupState           *state.GroupState `json:"group_state,omitempty"`
}

// #endregion

// #region request

// Request is the input of Build. NPC is read but never modified.
type Request struct {
	Text     string
	NPC      *npc.Profile
	History  []npc.Turn
	Metadata input.Metadata
	GroupID  string
	// PriorAIText is the NPC's previous reply. Empty means "take the last
	// assistant turn of History".
	PriorAIText string
	// Sentiment, when set, bypasses the analyzer.
	Sentiment update.Sentiment
}

// #endregion

// #region result

// Deltas are the per-engine outputs computed on the proposed profile.
type Deltas struct {
	Relationship update.RelationshipResult `json:"relationship"`
	Experience   update.ExperienceResult   `json:"experience"`
	Evolution    update.EvolutionResult    `json:"evolution"`
}

// Result is everything Build decided for one message. Profile is the
// proposed next state; it should only be persisted when Committed is true.
type Result struct {
	Context        ConversationContext `json:"context"`
	Intent         intent.Intent       `json:"intent"`
	Media          intent.MediaIntent  `json:"media"`
	ReplyWithAudio bool                `json:"reply_with_audio"`
	Memory         memory.Snapshot     `json:"memory"`
	State          state.Snapshot      `json:"state"`
	Recalled       []npc.Episode       `json:"recalled"`
	Signals        update.Signals      `json:"signals"`
	Deltas         Deltas              `json:"deltas"`
	Profile        *npc.Profile        `json:"profile"`
	Gate           gate.GateDecision   `json:"gate"`
	Committed      bool                `json:"committed"`
}

// MediaKind is the media type to generate for this turn, or MediaNone.
// An explicit request wins over the regex classifier.
func (r Result) MediaKind() intent.MediaType {
	if r.Intent.ExplicitMediaType != intent.MediaNone {
		return r.Intent.ExplicitMediaType
	}
	if r.Media.WantsMedia {
		return r.Media.Type
	}
	return intent.MediaNone
}

// #endregion
