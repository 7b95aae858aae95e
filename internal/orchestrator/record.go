package orchestrator

import (
	"github.com/danielpatrickdp/npc-companion/internal/logging"
)

// TurnRecord flattens the result for the interaction log.
func (r Result) TurnRecord() logging.TurnRecord {
	rel := r.Deltas.Relationship.Delta
	evo := r.Deltas.Evolution.Delta
	exp := r.Deltas.Experience

	return logging.TurnRecord{
		Message: r.Context.Message.Normalized,
		Intent: logging.TurnIntent{
			WantsPhoto: r.Intent.WantsPhoto,
			WantsAudio: r.Intent.WantsAudio,
			Joking:     r.Intent.Joking,
			Flirty:     r.Intent.Tone.Flirty,
			Emotional:  r.Intent.Tone.Emotional,
			Angry:      r.Intent.Tone.Angry,
			Media:      string(r.Intent.ExplicitMediaType),
		},
		Sentiment:         string(r.Signals.Sentiment),
		Intents:           r.Signals.Intents,
		XPGained:          exp.XPGained,
		IntimacyDelta:     exp.IntimacyDelta,
		LevelUp:           exp.LevelUp,
		TraitChanges:      exp.TraitChanges,
		RelationshipDelta: [4]float64{rel.Trust, rel.Intimacy, rel.Conflict, rel.Sympathy},
		EvolutionDelta:    [3]float64{evo.Attachment, evo.Vulnerability, evo.IntimacyLevel},
		ReplyWithAudio:    r.ReplyWithAudio,
		MediaType:         string(r.MediaKind()),
		GateAction:        r.Gate.Action,
		GateSoftScore:     r.Gate.SoftScore,
		GateVetoed:        r.Gate.Vetoed,
		GateReason:        r.Gate.Reason,
	}
}
