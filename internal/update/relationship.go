package update

import "github.com/danielpatrickdp/npc-companion/internal/npc"

// #region relationship-deltas
const (
	trustGain    = 0.05
	trustLoss    = 0.02
	intimacyGain = 0.08
	conflictGain = 0.1
	sympathyGain = 0.05
)

// #endregion relationship-deltas

// #region update-relationship

// UpdateRelationship is a pure additive update of the relationship vector.
// Every component is clamped to [0, 1].
func UpdateRelationship(rel npc.Relationship, sig Signals) RelationshipResult {
	next := rel

	switch sig.Sentiment {
	case SentimentPositive:
		next.Trust += trustGain
		next.Sympathy += sympathyGain
	case SentimentNegative:
		next.Trust -= trustLoss
	}
	if sig.Has(IntentIntimacy) {
		next.Intimacy += intimacyGain
	}
	if sig.Has(IntentAggression) {
		next.Conflict += conflictGain
	}

	next.Trust = clamp01(next.Trust)
	next.Intimacy = clamp01(next.Intimacy)
	next.Conflict = clamp01(next.Conflict)
	next.Sympathy = clamp01(next.Sympathy)

	return RelationshipResult{
		Relationship: next,
		Delta: npc.Relationship{
			Trust:    next.Trust - rel.Trust,
			Intimacy: next.Intimacy - rel.Intimacy,
			Conflict: next.Conflict - rel.Conflict,
			Sympathy: next.Sympathy - rel.Sympathy,
		},
	}
}

// ApplyRelationship updates p.Relationship in place, starting from the zero
// vector when the profile has none.
func ApplyRelationship(p *npc.Profile, sig Signals) RelationshipResult {
	var cur npc.Relationship
	if p.Relationship != nil {
		cur = *p.Relationship
	}
	res := UpdateRelationship(cur, sig)
	rel := res.Relationship
	p.Relationship = &rel
	return res
}

// #endregion update-relationship
