package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jessevdk/go-flags"

	"github.com/danielpatrickdp/npc-companion/internal/logging"
	"github.com/danielpatrickdp/npc-companion/internal/npc"
	"github.com/danielpatrickdp/npc-companion/internal/store"
)

type options struct {
	Driver string `long:"driver" description:"database driver (sqlite or postgres)" default:"sqlite"`
	DSN    string `long:"dsn" description:"database DSN or sqlite path" default:"npc_companion.db"`
	NPC    string `long:"npc" description:"show one NPC's profile and interaction log"`
	Last   int    `long:"last" description:"show N most recent interactions" default:"20"`
	JSON   bool   `long:"json" description:"output as JSON instead of table"`
}

// #region main

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	st, err := store.Open(opts.Driver, opts.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	if opts.NPC == "" {
		err = runListMode(ctx, st, opts.JSON)
	} else {
		err = runDetailMode(ctx, st, opts.NPC, opts.Last, opts.JSON)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Level    int     `json:"level"`
	XP       int     `json:"xp"`
	Intimacy float64 `json:"intimacy"`
	Mood     string  `json:"mood"`
	Trust    float64 `json:"trust"`
}

func runListMode(ctx context.Context, st *store.Store, jsonOut bool) error {
	profiles, err := st.ListProfiles(ctx)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Fprintln(os.Stderr, "no npcs found")
		return nil
	}

	rows := make([]listRow, len(profiles))
	for i, p := range profiles {
		rows[i] = listRow{
			ID:       p.ID,
			Name:     p.Name,
			Level:    p.Stats.Level,
			XP:       p.Stats.XP,
			Intimacy: p.Stats.Intimacy,
			Mood:     p.CurrentState.Mood,
		}
		if p.Relationship != nil {
			rows[i].Trust = p.Relationship.Trust
		}
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-12s  %-16s  %5s  %7s  %8s  %6s  %s\n", "NPC", "Name", "Level", "XP", "Intimacy", "Trust", "Mood")
	fmt.Printf("%-12s+-%-16s+-%5s+-%7s+-%8s+-%6s+-%s\n",
		"------------", "----------------", "-----", "-------", "--------", "------", "--------")
	for _, r := range rows {
		mood := r.Mood
		if mood == "" {
			mood = "—"
		}
		fmt.Printf("%-12s  %-16s  %5d  %7d  %8.1f  %6.2f  %s\n",
			shortID(r.ID), r.Name, r.Level, r.XP, r.Intimacy, r.Trust, mood)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type interactionRow struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id,omitempty"`
	TraceID   string   `json:"trace_id,omitempty"`
	Decision  string   `json:"decision"`
	Reason    string   `json:"reason,omitempty"`
	XPGained  int      `json:"xp_gained"`
	LevelUp   bool     `json:"level_up"`
	Sentiment string   `json:"sentiment,omitempty"`
	Intents   []string `json:"intents,omitempty"`
	Media     string   `json:"media_type,omitempty"`
	CreatedAt string   `json:"created_at"`
}

type detailOutput struct {
	Profile      *npc.Profile     `json:"profile"`
	Interactions []interactionRow `json:"interactions"`
}

func runDetailMode(ctx context.Context, st *store.Store, npcID string, last int, jsonOut bool) error {
	profile, err := st.GetProfile(ctx, npcID)
	if err != nil {
		return fmt.Errorf("load profile %s: %w", npcID, err)
	}
	entries, err := logging.ListInteractions(ctx, st.DB(), npcID, last)
	if err != nil {
		return err
	}

	// store returns DESC, reverse for chronological
	rows := make([]interactionRow, len(entries))
	for i, e := range entries {
		r := interactionRow{
			ID:        e.ID,
			UserID:    e.UserID,
			TraceID:   e.TraceID,
			Decision:  e.Decision,
			Reason:    e.Reason,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if tr := parseTurnRecord(e.SignalsJSON); tr != nil {
			r.XPGained = tr.XPGained
			r.LevelUp = tr.LevelUp
			r.Sentiment = tr.Sentiment
			r.Intents = tr.Intents
			r.Media = tr.MediaType
		}
		rows[len(entries)-1-i] = r
	}

	if jsonOut {
		return printJSON(detailOutput{Profile: profile, Interactions: rows})
	}

	printProfile(profile)
	if len(rows) == 0 {
		fmt.Println("\nno interactions logged")
		return nil
	}
	fmt.Printf("\n%-10s  %-10s  %-8s  %4s  %-3s  %-9s  %s\n", "Entry", "User", "Decision", "XP", "Lvl", "Sentiment", "Time")
	fmt.Printf("%-10s+-%-10s+-%-8s+-%4s+-%-3s+-%-9s+-%s\n",
		"----------", "----------", "--------", "----", "---", "---------", "--------------------")
	for _, r := range rows {
		lvl := ""
		if r.LevelUp {
			lvl = "up"
		}
		fmt.Printf("%-10s  %-10s  %-8s  %4d  %-3s  %-9s  %s\n",
			shortID(r.ID), shortID(r.UserID), r.Decision, r.XPGained, lvl, r.Sentiment, r.CreatedAt)
	}
	return nil
}

func printProfile(p *npc.Profile) {
	fmt.Printf("NPC:        %s (%s)\n", p.Name, p.ID)
	fmt.Printf("Level:      %d\n", p.Stats.Level)
	fmt.Printf("XP:         %d\n", p.Stats.XP)
	fmt.Printf("Intimacy:   %.1f\n", p.Stats.Intimacy)
	if p.CurrentState.Mood != "" {
		fmt.Printf("Mood:       %s\n", p.CurrentState.Mood)
	}
	if r := p.Relationship; r != nil {
		fmt.Printf("\nRelationship:\n")
		fmt.Printf("  Trust:     %.2f\n", r.Trust)
		fmt.Printf("  Intimacy:  %.2f\n", r.Intimacy)
		fmt.Printf("  Conflict:  %.2f\n", r.Conflict)
		fmt.Printf("  Sympathy:  %.2f\n", r.Sympathy)
	}
	if e := p.Evolution; e != nil {
		fmt.Printf("\nEvolution:\n")
		fmt.Printf("  Attachment:     %.3f\n", e.Attachment)
		fmt.Printf("  Vulnerability:  %.3f\n", e.Vulnerability)
		fmt.Printf("  Intimacy Level: %.3f\n", e.IntimacyLevel)
	}
	if len(p.Traits) > 0 {
		fmt.Printf("\nTraits:\n")
		names := make([]string, 0, len(p.Traits))
		for name := range p.Traits {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-14s %.2f\n", name, p.Traits[name])
		}
	}
}

// #endregion detail-mode

// #region output

func parseTurnRecord(signalsJSON string) *logging.TurnRecord {
	if signalsJSON == "" {
		return nil
	}
	var tr logging.TurnRecord
	if err := json.Unmarshal([]byte(signalsJSON), &tr); err == nil && tr.GateAction != "" {
		return &tr
	}
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
