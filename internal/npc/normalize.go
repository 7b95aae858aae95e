package npc

import "math"

// MaxStatIntimacy is the ceiling of Stats.Intimacy.
const MaxStatIntimacy = 100

// #region normalize

// Normalize pulls stored values back into their documented ranges so that a
// record written by hand or by an older build can still progress. NaN and
// infinities fall back to zero; everything else is clamped. Level starts at 1.
func (p *Profile) Normalize() {
	if p == nil {
		return
	}
	if p.Stats.Level < 1 {
		p.Stats.Level = 1
	}
	if p.Stats.XP < 0 {
		p.Stats.XP = 0
	}
	p.Stats.Intimacy = clampFinite(p.Stats.Intimacy, 0, MaxStatIntimacy)

	for k, v := range p.Traits {
		p.Traits[k] = clampFinite(v, 0, 1)
	}
	if r := p.Relationship; r != nil {
		r.Trust = clampFinite(r.Trust, 0, 1)
		r.Intimacy = clampFinite(r.Intimacy, 0, 1)
		r.Conflict = clampFinite(r.Conflict, 0, 1)
		r.Sympathy = clampFinite(r.Sympathy, 0, 1)
	}
	if e := p.Evolution; e != nil {
		e.Attachment = clampFinite(e.Attachment, 0, 1)
		e.Vulnerability = clampFinite(e.Vulnerability, 0, 1)
		if math.IsNaN(e.IntimacyLevel) || math.IsInf(e.IntimacyLevel, 0) {
			e.IntimacyLevel = 0
		}
	}
}

func clampFinite(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), math.IsInf(v, 0):
		return 0
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// #endregion normalize
