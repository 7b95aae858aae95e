package npc

import "time"

// #region profile
// Profile is the persisted long-lived state bundle of an NPC (its "life core").
// The persistence layer owns its lifecycle; the pipeline only reads it and
// proposes an updated copy.
type Profile struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	CoreTraits     map[string]float64 `json:"core_traits,omitempty"`
	Stats          Stats              `json:"stats"`
	Traits         map[string]float64 `json:"traits,omitempty"`
	EvolutionRules EvolutionRules     `json:"evolution_rules"`
	CurrentState   CurrentState       `json:"current_state"`
	Relationship   *Relationship      `json:"relationship,omitempty"`
	Evolution      *EvolutionVector   `json:"evolution,omitempty"`
	Memories       Memories           `json:"memories"`
}

// Stats holds progression counters. Intimacy here is on a 0..100 scale and is
// unrelated to Relationship.Intimacy.
type Stats struct {
	XP       int     `json:"xp"`
	Level    int     `json:"level"`
	Intimacy float64 `json:"intimacy"`
}

// EvolutionRules are per-NPC tuning knobs. Nil means "use the engine default".
type EvolutionRules struct {
	IntimacyGrowthRate    *float64 `json:"intimacy_growth_rate,omitempty"`
	AttachmentSensitivity *float64 `json:"attachment_sensitivity,omitempty"`
}

// CurrentState is the NPC's short-lived affect.
type CurrentState struct {
	Mood          string         `json:"mood,omitempty"`
	SocialEnergy  *float64       `json:"social_energy,omitempty"`
	EmotionVector *EmotionVector `json:"emotion_vector,omitempty"`
}

// EmotionVector is a valence/arousal/dominance triple, each 0..1.
type EmotionVector struct {
	Valence   float64 `json:"valence"`
	Arousal   float64 `json:"arousal"`
	Dominance float64 `json:"dominance"`
}

// Relationship is the NPC's view of the user. Every component is bounded to [0, 1].
type Relationship struct {
	Trust    float64 `json:"trust"`
	Intimacy float64 `json:"intimacy"`
	Conflict float64 `json:"conflict"`
	Sympathy float64 `json:"sympathy"`
}

// EvolutionVector tracks slow personality drift. IntimacyLevel is unbounded.
type EvolutionVector struct {
	Attachment    float64 `json:"attachment"`
	Vulnerability float64 `json:"vulnerability"`
	IntimacyLevel float64 `json:"intimacy_level"`
}

// #endregion profile

// #region memories
// Memories groups everything the NPC remembers.
type Memories struct {
	LongTermSummary string                `json:"long_term_summary,omitempty"`
	Episodic        []Episode             `json:"episodic,omitempty"`
	SocialGraph     map[string]SocialLink `json:"social_graph,omitempty"`
	Media           []MediaRecord         `json:"media,omitempty"`
	LastOpenings    []string              `json:"last_openings,omitempty"`
}

// Episode is one remembered event.
type Episode struct {
	Text      string    `json:"text"`
	Emotion   string    `json:"emotion,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SocialLink describes someone the NPC knows.
type SocialLink struct {
	Relation  string  `json:"relation"`
	Closeness float64 `json:"closeness"`
}

// MediaRecord is a media artifact the NPC already sent.
type MediaRecord struct {
	Kind      string    `json:"kind"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// #endregion memories

// #region turn
// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one prior message in the conversation history.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// #endregion turn
