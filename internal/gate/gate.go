package gate

import (
	"fmt"
	"math"
	"sort"

	"github.com/danielpatrickdp/npc-companion/internal/npc"
)

// #region gate
// Gate evaluates whether a proposed profile update should be committed or rejected.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Evaluate checks hard vetoes first, then scores stability.
// A nil old profile means the proposal creates the record.
func (g *Gate) Evaluate(old, proposed *npc.Profile) GateDecision {
	if proposed == nil {
		return reject([]VetoSignal{{Type: VetoConstraint, Reason: "no proposed profile"}})
	}

	var vetoes []VetoSignal

	// --- Hard veto pass ---

	// 1. Identity
	if old != nil && old.ID != proposed.ID {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoIdentity,
			Reason: fmt.Sprintf("profile id changed %q -> %q", old.ID, proposed.ID),
		})
	}

	// 2. Progression
	if old != nil {
		vetoes = append(vetoes, g.progressionVetoes(old.Stats, proposed.Stats)...)
	}

	// 3. Bounds
	vetoes = append(vetoes, boundsVetoes(proposed)...)

	// 4. Relationship step size
	var oldRel, newRel npc.Relationship
	if old != nil && old.Relationship != nil {
		oldRel = *old.Relationship
	}
	if proposed.Relationship != nil {
		newRel = *proposed.Relationship
	}
	deltaNorm := relationshipDeltaNorm(oldRel, newRel)
	if old != nil && deltaNorm > g.config.MaxRelationshipDelta {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoConstraint,
			Reason: fmt.Sprintf("relationship delta norm %.4f exceeds cap %.4f", deltaNorm, g.config.MaxRelationshipDelta),
		})
	}

	if len(vetoes) > 0 {
		return reject(vetoes)
	}

	// --- Soft scoring ---
	softScore := computeSoftScore(deltaNorm, g.config.MaxRelationshipDelta)

	return GateDecision{
		Action:      "commit",
		Reason:      fmt.Sprintf("passed gate: soft_score=%.4f", softScore),
		Vetoed:      false,
		VetoSignals: nil,
		SoftScore:   softScore,
	}
}

func reject(vetoes []VetoSignal) GateDecision {
	return GateDecision{
		Action:      "reject",
		Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
		Vetoed:      true,
		VetoSignals: vetoes,
		SoftScore:   0,
	}
}

// #endregion gate

// #region progression
// progressionVetoes enforces monotone xp and single-step, earned level-ups.
func (g *Gate) progressionVetoes(old, proposed npc.Stats) []VetoSignal {
	var vetoes []VetoSignal
	oldLevel := normLevel(old.Level)
	newLevel := normLevel(proposed.Level)

	if proposed.XP < old.XP {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoProgression,
			Reason: fmt.Sprintf("xp decreased %d -> %d", old.XP, proposed.XP),
		})
	}
	if gain := proposed.XP - old.XP; gain > g.config.MaxXPGainPerTurn {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoProgression,
			Reason: fmt.Sprintf("xp gain %d exceeds cap %d", gain, g.config.MaxXPGainPerTurn),
		})
	}
	switch {
	case newLevel < oldLevel:
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoProgression,
			Reason: fmt.Sprintf("level decreased %d -> %d", oldLevel, newLevel),
		})
	case newLevel > oldLevel+1:
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoProgression,
			Reason: fmt.Sprintf("level jumped %d -> %d", oldLevel, newLevel),
		})
	case newLevel == oldLevel+1 && proposed.XP < oldLevel*g.config.XPPerLevel:
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoProgression,
			Reason: fmt.Sprintf("level %d reached with xp %d below threshold %d", newLevel, proposed.XP, oldLevel*g.config.XPPerLevel),
		})
	}
	return vetoes
}

func normLevel(l int) int {
	if l < 1 {
		return 1
	}
	return l
}

// #endregion progression

// #region bounds
// boundsVetoes flags every bounded scalar that is NaN or outside its interval.
func boundsVetoes(p *npc.Profile) []VetoSignal {
	type field struct {
		name   string
		v      float64
		lo, hi float64
	}
	fields := []field{{"stats.intimacy", p.Stats.Intimacy, 0, 100}}
	if r := p.Relationship; r != nil {
		fields = append(fields,
			field{"relationship.trust", r.Trust, 0, 1},
			field{"relationship.intimacy", r.Intimacy, 0, 1},
			field{"relationship.conflict", r.Conflict, 0, 1},
			field{"relationship.sympathy", r.Sympathy, 0, 1},
		)
	}
	if e := p.Evolution; e != nil {
		fields = append(fields,
			field{"evolution.attachment", e.Attachment, 0, 1},
			field{"evolution.vulnerability", e.Vulnerability, 0, 1},
			// intimacy_level has no upper bound, only finiteness is checked
			field{"evolution.intimacy_level", e.IntimacyLevel, math.Inf(-1), math.Inf(1)},
		)
	}
	names := make([]string, 0, len(p.Traits))
	for k := range p.Traits {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fields = append(fields, field{"traits." + k, p.Traits[k], 0, 1})
	}

	var vetoes []VetoSignal
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < f.lo || f.v > f.hi {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoBounds,
				Reason: fmt.Sprintf("%s=%v outside [%v, %v]", f.name, f.v, f.lo, f.hi),
			})
		}
	}
	return vetoes
}

// #endregion bounds

// #region helpers
// relationshipDeltaNorm computes the L2 norm of new - old.
func relationshipDeltaNorm(old, proposed npc.Relationship) float64 {
	d := []float64{
		proposed.Trust - old.Trust,
		proposed.Intimacy - old.Intimacy,
		proposed.Conflict - old.Conflict,
		proposed.Sympathy - old.Sympathy,
	}
	var sum float64
	for _, x := range d {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// computeSoftScore maps the relationship step onto 0-1, 1 meaning no change.
// Logged only, never blocks.
func computeSoftScore(deltaNorm, maxDelta float64) float64 {
	if maxDelta <= 0 {
		return 1
	}
	score := 1 - deltaNorm/maxDelta
	if score < 0 {
		return 0
	}
	return score
}

// #endregion helpers
