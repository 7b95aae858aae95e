package state

import (
	"github.com/danielpatrickdp/npc-companion/internal/npc"
)

// #region defaults
const (
	DefaultMood         = "neutral"
	DefaultSocialEnergy = 0.5
	// PlaceholderHarmony is reported for every group until group dynamics exist.
	PlaceholderHarmony = 0.75
)

// NeutralEmotion is the emotion vector used when a profile has none.
var NeutralEmotion = npc.EmotionVector{Valence: 0.5, Arousal: 0.5, Dominance: 0.5}

// #endregion defaults

// #region types

// GroupState is the placeholder group record attached when a conversation
// happens inside a group.
type GroupState struct {
	ID       string   `json:"id"`
	Harmony  float64  `json:"harmony"`
	Tensions []string `json:"tensions"`
}

// Snapshot is the NPC's affect and relationship at the start of a turn.
type Snapshot struct {
	Mood         string            `json:"mood"`
	SocialEnergy float64           `json:"social_energy"`
	Emotion      npc.EmotionVector `json:"emotion_vector"`
	Relationship npc.Relationship  `json:"relationship"`
	Group        *GroupState       `json:"group,omitempty"`
}

// #endregion types

// #region load

// Load derives a Snapshot from the profile. A nil profile yields the defaults.
// A non-empty groupID attaches a placeholder GroupState.
func Load(profile *npc.Profile, groupID string) Snapshot {
	snap := Snapshot{
		Mood:         DefaultMood,
		SocialEnergy: DefaultSocialEnergy,
		Emotion:      NeutralEmotion,
	}
	if groupID != "" {
		snap.Group = &GroupState{ID: groupID, Harmony: PlaceholderHarmony, Tensions: []string{}}
	}
	if profile == nil {
		return snap
	}

	cs := profile.CurrentState
	if cs.Mood != "" {
		snap.Mood = cs.Mood
	}
	if cs.SocialEnergy != nil {
		snap.SocialEnergy = *cs.SocialEnergy
	}
	if cs.EmotionVector != nil {
		snap.Emotion = *cs.EmotionVector
	}
	if profile.Relationship != nil {
		snap.Relationship = *profile.Relationship
	}
	return snap
}

// #endregion load
