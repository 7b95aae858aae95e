package npc

// #region clone
// Clone returns a deep copy so callers can propose updates without touching
// the original record.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.CoreTraits = cloneFloatMap(p.CoreTraits)
	out.Traits = cloneFloatMap(p.Traits)
	out.EvolutionRules = EvolutionRules{
		IntimacyGrowthRate:    cloneFloat(p.EvolutionRules.IntimacyGrowthRate),
		AttachmentSensitivity: cloneFloat(p.EvolutionRules.AttachmentSensitivity),
	}
	out.CurrentState.SocialEnergy = cloneFloat(p.CurrentState.SocialEnergy)
	if p.CurrentState.EmotionVector != nil {
		ev := *p.CurrentState.EmotionVector
		out.CurrentState.EmotionVector = &ev
	}
	if p.Relationship != nil {
		r := *p.Relationship
		out.Relationship = &r
	}
	if p.Evolution != nil {
		e := *p.Evolution
		out.Evolution = &e
	}
	out.Memories = p.Memories.Clone()
	return &out
}

// Clone returns a deep copy of the memories.
func (m Memories) Clone() Memories {
	out := Memories{LongTermSummary: m.LongTermSummary}
	if m.Episodic != nil {
		out.Episodic = append([]Episode(nil), m.Episodic...)
	}
	if m.Media != nil {
		out.Media = append([]MediaRecord(nil), m.Media...)
	}
	if m.LastOpenings != nil {
		out.LastOpenings = append([]string(nil), m.LastOpenings...)
	}
	if m.SocialGraph != nil {
		out.SocialGraph = make(map[string]SocialLink, len(m.SocialGraph))
		for k, v := range m.SocialGraph {
			out.SocialGraph[k] = v
		}
	}
	return out
}

// #endregion clone

// #region helpers
func cloneFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float returns a pointer to v. Handy for optional profile fields.
func Float(v float64) *float64 {
	return &v
}

// #endregion helpers
