package logging

import "time"

// #region interaction-entry
// InteractionEntry is a single row in the interaction_log table.
type InteractionEntry struct {
	ID          string
	NPCID       string
	UserID      string
	TraceID     string
	TriggerType string // "message" | "replay"
	SignalsJSON string
	Decision    string // "commit" | "reject"
	Reason      string
	CreatedAt   time.Time
}

// #endregion interaction-entry

// #region turn-record
// TurnRecord captures everything the pipeline decided for one message.
// Serialized as JSON into interaction_log.signals_json for replay.
type TurnRecord struct {
	Message string `json:"message"`

	Intent    TurnIntent `json:"intent"`
	Sentiment string     `json:"sentiment"`
	Intents   []string   `json:"intents"`

	XPGained      int                `json:"xp_gained"`
	IntimacyDelta float64            `json:"intimacy_delta"`
	LevelUp       bool               `json:"level_up"`
	TraitChanges  map[string]float64 `json:"trait_changes,omitempty"`

	RelationshipDelta [4]float64 `json:"relationship_delta"` // trust, intimacy, conflict, sympathy
	EvolutionDelta    [3]float64 `json:"evolution_delta"`    // attachment, vulnerability, intimacy_level

	ReplyWithAudio bool   `json:"reply_with_audio"`
	MediaType      string `json:"media_type,omitempty"`

	// Gate output
	GateAction    string  `json:"gate_action"`
	GateSoftScore float64 `json:"gate_soft_score"`
	GateVetoed    bool    `json:"gate_vetoed"`
	GateReason    string  `json:"gate_reason"`
}

// TurnIntent mirrors the classifier output.
type TurnIntent struct {
	WantsPhoto bool   `json:"wants_photo"`
	WantsAudio bool   `json:"wants_audio"`
	Joking     bool   `json:"joking"`
	Flirty     bool   `json:"flirty"`
	Emotional  bool   `json:"emotional"`
	Angry      bool   `json:"angry"`
	Media      string `json:"explicit_media_type,omitempty"`
}

// #endregion turn-record
