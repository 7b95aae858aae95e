package media

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danielpatrickdp/npc-companion/internal/intent"
	"github.com/danielpatrickdp/npc-companion/internal/npc"
	"github.com/danielpatrickdp/npc-companion/internal/state"
)

// maxPromptTraits caps how many traits are described in a prompt.
const maxPromptTraits = 3

// BuildPrompt describes the NPC, its current mood and the user's request
// for a generation model.
func BuildPrompt(kind intent.MediaType, profile *npc.Profile, snap state.Snapshot, message string) string {
	var b strings.Builder

	name := "the companion"
	if profile != nil && profile.Name != "" {
		name = profile.Name
	}
	switch kind {
	case intent.MediaAudio:
		fmt.Fprintf(&b, "Voice message spoken by %s", name)
	case intent.MediaVideo:
		fmt.Fprintf(&b, "Short video of %s", name)
	default:
		fmt.Fprintf(&b, "Photo of %s", name)
	}

	if profile != nil {
		if traits := topTraits(profile.Traits, maxPromptTraits); len(traits) > 0 {
			fmt.Fprintf(&b, ", %s", strings.Join(traits, ", "))
		}
	}
	if snap.Mood != "" && snap.Mood != state.DefaultMood {
		fmt.Fprintf(&b, ", feeling %s", snap.Mood)
	}
	if msg := strings.TrimSpace(message); msg != "" {
		fmt.Fprintf(&b, ". Request: %s", msg)
	}
	return b.String()
}

// topTraits returns the names of the strongest traits, highest first.
func topTraits(traits map[string]float64, n int) []string {
	names := make([]string, 0, len(traits))
	for k, v := range traits {
		if v >= 0.5 {
			names = append(names, k)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if traits[names[i]] != traits[names[j]] {
			return traits[names[i]] > traits[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
