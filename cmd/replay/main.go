package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jessevdk/go-flags"

	"github.com/danielpatrickdp/npc-companion/internal/logging"
	"github.com/danielpatrickdp/npc-companion/internal/npc"
	"github.com/danielpatrickdp/npc-companion/internal/replay"
	"github.com/danielpatrickdp/npc-companion/internal/store"
)

type options struct {
	Fixture string `long:"fixture" description:"path to fixture JSON (fixture mode)"`
	Driver  string `long:"driver" description:"database driver (sqlite or postgres)" default:"sqlite"`
	DSN     string `long:"dsn" description:"database DSN or sqlite path (DB mode)"`
	NPC     string `long:"npc" description:"NPC whose stored conversation is replayed (DB mode)"`
	User    string `long:"user" description:"only replay messages from this user"`
	Limit   int    `long:"limit" description:"max stored messages to load" default:"1000"`
	Seed    int64  `long:"seed" description:"random seed for audio decisions" default:"1"`
	Record  bool   `long:"record" description:"write each replayed turn to interaction_log (DB mode)"`
	Verbose bool   `short:"v" long:"verbose" description:"log orchestrator decisions"`
}

// #region main

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	dbMode := opts.DSN != "" || opts.NPC != ""
	if (opts.Fixture == "") == !dbMode || (dbMode && (opts.DSN == "" || opts.NPC == "")) {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --dsn npc_companion.db --npc luna [--user id] [--record]")
		os.Exit(2)
	}

	logger := log.New(io.Discard)
	if opts.Verbose {
		logger = logging.New("debug", os.Stderr)
	}

	var exitCode int
	if opts.Fixture != "" {
		exitCode = runFixtureMode(opts, logger)
	} else {
		exitCode = runDBMode(opts, logger)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(opts options, logger *log.Logger) int {
	f, err := replay.LoadFixture(opts.Fixture)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	cfg := f.Config.ToReplayConfig()
	cfg.Logger = logger

	results, final, err := replay.Replay(context.Background(), f.StartProfile, f.ToInteractions(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 1
	}

	if f.Description != "" {
		fmt.Printf("Fixture: %s\n\n", f.Description)
	}
	printResults(results)
	printSummary(replay.Summarize(results, final))

	mismatches := f.Check(results)
	if len(mismatches) == 0 {
		fmt.Printf("\nAll %d expectations matched.\n", len(f.ExpectedResults))
		return 0
	}
	fmt.Printf("\n%d mismatches:\n", len(mismatches))
	for _, m := range mismatches {
		fmt.Printf("  %s\n", m)
	}
	return 1
}

// #endregion fixture-mode

// #region db-mode

func runDBMode(opts options, logger *log.Logger) int {
	st, err := store.Open(opts.Driver, opts.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer st.Close()

	ctx := context.Background()
	current, err := st.GetProfile(ctx, opts.NPC)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load profile %s: %v\n", opts.NPC, err)
		return 2
	}
	msgs, err := st.RecentMessages(ctx, opts.NPC, opts.User, opts.Limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load messages: %v\n", err)
		return 1
	}
	interactions := replay.FromMessages(msgs)
	if len(interactions) == 0 {
		fmt.Fprintln(os.Stderr, "no stored user messages")
		return 0
	}

	cfg := replay.DefaultReplayConfig()
	cfg.Seed = opts.Seed
	cfg.Logger = logger

	results, final, err := replay.Replay(ctx, freshProfile(current), interactions, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 1
	}

	if opts.Record {
		prov := logging.NewProvenanceLog(st.DB())
		for i, r := range results {
			if err := prov.Log(ctx, replayEntry(opts.NPC, msgs, interactions[i], r)); err != nil {
				fmt.Fprintf(os.Stderr, "record %s: %v\n", r.TurnID, err)
				return 1
			}
		}
	}

	printResults(results)
	printSummary(replay.Summarize(results, final))
	fmt.Printf("\nStored profile: level %d, xp %d\n", current.Stats.Level, current.Stats.XP)
	return 0
}

// freshProfile keeps the NPC's identity and tuning but resets progression,
// so the replay rebuilds it from the stored conversation.
func freshProfile(p *npc.Profile) *npc.Profile {
	out := &npc.Profile{
		ID:             p.ID,
		Name:           p.Name,
		CoreTraits:     p.CoreTraits,
		EvolutionRules: p.EvolutionRules,
		Stats:          npc.Stats{Level: 1},
	}
	out.Memories.LongTermSummary = p.Memories.LongTermSummary
	return out.Clone()
}

func replayEntry(npcID string, msgs []store.Message, inter replay.Interaction, r replay.ReplayResult) logging.InteractionEntry {
	var userID, traceID string
	for _, m := range msgs {
		if m.ID == inter.TurnID {
			userID, traceID = m.UserID, m.TraceID
			break
		}
	}
	data, _ := json.Marshal(logging.TurnRecord{
		Message:    inter.Text,
		Sentiment:  string(r.Sentiment),
		Intents:    r.Intents,
		XPGained:   r.XPGained,
		LevelUp:    r.LevelUp,
		MediaType:  string(r.MediaType),
		GateAction: r.Action,
		GateReason: r.Reason,
	})
	return logging.InteractionEntry{
		NPCID:       npcID,
		UserID:      userID,
		TraceID:     traceID,
		TriggerType: "replay",
		SignalsJSON: string(data),
		Decision:    r.Action,
		Reason:      r.Reason,
	}
}

// #endregion db-mode

// #region output

func printResults(results []replay.ReplayResult) {
	fmt.Printf("%-10s  %-7s  %-9s  %4s  %-3s  %5s  %6s  %-5s  %s\n",
		"Turn", "Action", "Sentiment", "XP+", "Lvl", "Level", "XP", "Audio", "Reason")
	fmt.Printf("%-10s+-%-7s+-%-9s+-%4s+-%-3s+-%5s+-%6s+-%-5s+-%s\n",
		"----------", "-------", "---------", "----", "---", "-----", "------", "-----", "--------------------")
	for _, r := range results {
		lvl := ""
		if r.LevelUp {
			lvl = "up"
		}
		audio := ""
		if r.Audio {
			audio = "yes"
		}
		fmt.Printf("%-10s  %-7s  %-9s  %4d  %-3s  %5d  %6d  %-5s  %s\n",
			shortID(r.TurnID), r.Action, r.Sentiment, r.XPGained, lvl, r.Level, r.XP, audio, truncate(r.Reason, 40))
	}
}

func printSummary(s replay.ReplaySummary) {
	fmt.Printf("\nSummary: %d turns, %d commits, %d gate rejects, %d level-ups, %d xp gained\n",
		s.TotalTurns, s.Commits, s.GateRejects, s.LevelUps, s.XPGained)
	if s.FinalProfile != nil {
		fmt.Printf("Final:   level %d, xp %d, intimacy %.1f\n",
			s.FinalProfile.Stats.Level, s.FinalProfile.Stats.XP, s.FinalProfile.Stats.Intimacy)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// #endregion output
