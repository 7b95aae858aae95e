package memory

import (
	"github.com/danielpatrickdp/npc-companion/internal/npc"
)

// #region snapshot

// ShortTermLimit caps how many recent turns count as short-term memory.
const ShortTermLimit = 10

// Snapshot is a read-only view over everything the NPC remembers.
type Snapshot struct {
	ShortTerm       []npc.Turn                `json:"short_term"`
	Episodic        []npc.Episode             `json:"episodic"`
	Media           []npc.MediaRecord         `json:"media"`
	LastOpenings    []string                  `json:"last_openings"`
	LongTermSummary string                    `json:"long_term_summary"`
	SocialGraph     map[string]npc.SocialLink `json:"social_graph"`
}

// #endregion snapshot

// #region gather

// Gather projects the profile's memories and the tail of the history into a
// Snapshot. Missing structures become empty values. The snapshot never
// aliases the profile, so callers may hold it across profile updates.
func Gather(profile *npc.Profile, history []npc.Turn) Snapshot {
	snap := Snapshot{
		ShortTerm:    []npc.Turn{},
		Episodic:     []npc.Episode{},
		Media:        []npc.MediaRecord{},
		LastOpenings: []string{},
		SocialGraph:  map[string]npc.SocialLink{},
	}

	start := 0
	if len(history) > ShortTermLimit {
		start = len(history) - ShortTermLimit
	}
	snap.ShortTerm = append(snap.ShortTerm, history[start:]...)

	if profile == nil {
		return snap
	}
	m := profile.Memories
	snap.LongTermSummary = m.LongTermSummary
	snap.Episodic = append(snap.Episodic, m.Episodic...)
	snap.Media = append(snap.Media, m.Media...)
	snap.LastOpenings = append(snap.LastOpenings, m.LastOpenings...)
	for k, v := range m.SocialGraph {
		snap.SocialGraph[k] = v
	}
	return snap
}

// #endregion gather
