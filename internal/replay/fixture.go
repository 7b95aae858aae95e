package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/npc-companion/internal/gate"
	"github.com/danielpatrickdp/npc-companion/internal/npc"
	"github.com/danielpatrickdp/npc-companion/internal/update"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	StartProfile    *npc.Profile            `json:"start_profile"`
	Config          FixtureConfig           `json:"config"`
	Interactions    []FixtureInteraction    `json:"interactions"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureInteraction mirrors replay.Interaction with JSON tags.
type FixtureInteraction struct {
	TurnID    string    `json:"turn_id"`
	Text      string    `json:"text"`
	Sentiment string    `json:"sentiment,omitempty"`
	Reply     string    `json:"reply,omitempty"`
	GroupID   string    `json:"group_id,omitempty"`
	At        time.Time `json:"at,omitempty"`
}

// FixtureExpectedResult captures the expected outcome per turn. Zero fields
// are not checked.
type FixtureExpectedResult struct {
	TurnID  string `json:"turn_id"`
	Action  string `json:"action"`
	LevelUp *bool  `json:"level_up,omitempty"`
	Level   int    `json:"level,omitempty"`
}

// FixtureConfig holds the run knobs. Zero values take DefaultReplayConfig.
type FixtureConfig struct {
	Seed                 int64   `json:"seed"`
	Language             string  `json:"language"`
	AudioProbability     float64 `json:"audio_probability"`
	XPPerLevel           int     `json:"xp_per_level"`
	MaxXPGainPerTurn     int     `json:"max_xp_gain_per_turn"`
	MaxRelationshipDelta float64 `json:"max_relationship_delta"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// ParseFixture decodes a fixture from JSON.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ToInteraction converts a FixtureInteraction to a domain Interaction.
// An unset sentiment is left empty so the lexicon decides.
func (fi *FixtureInteraction) ToInteraction() Interaction {
	inter := Interaction{
		TurnID:  fi.TurnID,
		Text:    fi.Text,
		Reply:   fi.Reply,
		GroupID: fi.GroupID,
		At:      fi.At,
	}
	if fi.Sentiment != "" {
		inter.Sentiment = update.ParseSentiment(fi.Sentiment)
	}
	return inter
}

// ToInteractions converts every fixture interaction.
func (f *Fixture) ToInteractions() []Interaction {
	out := make([]Interaction, len(f.Interactions))
	for i := range f.Interactions {
		out[i] = f.Interactions[i].ToInteraction()
	}
	return out
}

// ToReplayConfig overlays the non-zero fixture values on DefaultReplayConfig.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()
	if fc.Seed != 0 {
		cfg.Seed = fc.Seed
	}
	if fc.Language != "" {
		cfg.Language = fc.Language
	}
	if fc.AudioProbability > 0 {
		cfg.Classifier.AudioProbability = fc.AudioProbability
	}
	g := gate.DefaultGateConfig()
	if fc.XPPerLevel > 0 {
		g.XPPerLevel = fc.XPPerLevel
	}
	if fc.MaxXPGainPerTurn > 0 {
		g.MaxXPGainPerTurn = fc.MaxXPGainPerTurn
	}
	if fc.MaxRelationshipDelta > 0 {
		g.MaxRelationshipDelta = fc.MaxRelationshipDelta
	}
	cfg.Gate = g
	return cfg
}

// #endregion fixture-loader

// #region fixture-check

// Mismatch is one expected result the replay did not reproduce.
type Mismatch struct {
	TurnID string
	Field  string
	Want   string
	Got    string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s want %s, got %s", m.TurnID, m.Field, m.Want, m.Got)
}

// Check compares results against the fixture's expectations by turn ID.
// A missing turn is reported with Field "turn".
func (f *Fixture) Check(results []ReplayResult) []Mismatch {
	byTurn := make(map[string]ReplayResult, len(results))
	for _, r := range results {
		byTurn[r.TurnID] = r
	}

	var out []Mismatch
	for _, exp := range f.ExpectedResults {
		r, ok := byTurn[exp.TurnID]
		if !ok {
			out = append(out, Mismatch{TurnID: exp.TurnID, Field: "turn", Want: "present", Got: "missing"})
			continue
		}
		if exp.Action != "" && exp.Action != r.Action {
			out = append(out, Mismatch{TurnID: exp.TurnID, Field: "action", Want: exp.Action, Got: r.Action})
		}
		if exp.LevelUp != nil && *exp.LevelUp != r.LevelUp {
			out = append(out, Mismatch{TurnID: exp.TurnID, Field: "level_up",
				Want: fmt.Sprint(*exp.LevelUp), Got: fmt.Sprint(r.LevelUp)})
		}
		if exp.Level != 0 && exp.Level != r.Level {
			out = append(out, Mismatch{TurnID: exp.TurnID, Field: "level",
				Want: fmt.Sprint(exp.Level), Got: fmt.Sprint(r.Level)})
		}
	}
	return out
}

// #endregion fixture-check
