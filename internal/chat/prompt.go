package chat

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/npc-companion/internal/intent"
	"github.com/danielpatrickdp/npc-companion/internal/llm"
	"github.com/danielpatrickdp/npc-companion/internal/npc"
	"github.com/danielpatrickdp/npc-companion/internal/orchestrator"
	"github.com/danielpatrickdp/npc-companion/internal/store"
)

// maxLastOpenings is how many reply openings are remembered to avoid repeats.
const maxLastOpenings = 5

// #region system-prompt

// buildMessages assembles the chat request: persona and state in the system
// message, then the short-term history, then the current user message.
func buildMessages(n store.NPC, res orchestrator.Result) []llm.Message {
	msgs := make([]llm.Message, 0, len(res.Memory.ShortTerm)+2)
	msgs = append(msgs, llm.Message{Role: string(npc.RoleSystem), Content: systemPrompt(n, res)})
	for _, t := range res.Memory.ShortTerm {
		if t.Role != npc.RoleUser && t.Role != npc.RoleAssistant {
			continue
		}
		msgs = append(msgs, llm.Message{Role: string(t.Role), Content: t.Content})
	}
	msgs = append(msgs, llm.Message{Role: string(npc.RoleUser), Content: res.Context.Message.Normalized})
	return msgs
}

func systemPrompt(n store.NPC, res orchestrator.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Sei %s.", n.Name)
	if n.Persona != "" {
		fmt.Fprintf(&b, " %s", strings.TrimSpace(n.Persona))
	}
	b.WriteString(" Rispondi sempre nel personaggio, in modo naturale e breve, nella lingua dell'utente.")
	b.WriteString(" Non dire mai di essere un'intelligenza artificiale.\n")

	st := res.State
	rel := st.Relationship
	fmt.Fprintf(&b, "\nUmore: %s. Energia sociale: %.2f.", st.Mood, st.SocialEnergy)
	fmt.Fprintf(&b, "\nRelazione con l'utente: fiducia %.2f, intimità %.2f, conflitto %.2f, simpatia %.2f.",
		rel.Trust, rel.Intimacy, rel.Conflict, rel.Sympathy)
	if res.Profile != nil {
		fmt.Fprintf(&b, " Livello %d.", res.Profile.Stats.Level)
	}
	fmt.Fprintf(&b, "\nOra locale: %02d:00.", res.Context.Metadata.HourOfDay)

	if st.Group != nil {
		fmt.Fprintf(&b, "\nSei in una conversazione di gruppo (%s).", st.Group.ID)
	}
	if s := strings.TrimSpace(res.Memory.LongTermSummary); s != "" {
		fmt.Fprintf(&b, "\nRicordi a lungo termine: %s", s)
	}
	if len(res.Recalled) > 0 {
		b.WriteString("\nRicordi collegati:")
		for _, ep := range res.Recalled {
			fmt.Fprintf(&b, "\n- %s", ep.Text)
		}
	}
	if len(res.Memory.LastOpenings) > 0 {
		fmt.Fprintf(&b, "\nNon iniziare la risposta come le ultime volte: %s.",
			strings.Join(quoteAll(res.Memory.LastOpenings), ", "))
	}

	switch {
	case res.Intent.Tone.Angry:
		b.WriteString("\nL'utente è arrabbiato: resta calma e non alimentare il conflitto.")
	case res.Intent.Tone.Emotional:
		b.WriteString("\nL'utente è emotivo: mostrati vicina e comprensiva.")
	case res.Intent.Tone.Flirty:
		b.WriteString("\nL'utente sta flirtando: stai al gioco con leggerezza.")
	}
	if res.Intent.Joking {
		b.WriteString("\nL'utente sta scherzando.")
	}
	if kind := res.MediaKind(); kind != intent.MediaNone {
		fmt.Fprintf(&b, "\nL'utente ha chiesto un contenuto (%s): accenna che lo stai inviando.", kind)
	}
	return b.String()
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}

// #endregion system-prompt

// #region openings

// opening returns the first sentence of reply, capped at 60 runes.
func opening(reply string) string {
	reply = strings.TrimSpace(reply)
	if i := strings.IndexAny(reply, ".!?\n"); i >= 0 {
		reply = reply[:i]
	}
	r := []rune(strings.TrimSpace(reply))
	if len(r) > 60 {
		r = r[:60]
	}
	return string(r)
}

// rememberOpening appends o and keeps the newest maxLastOpenings.
func rememberOpening(openings []string, o string) []string {
	if o == "" {
		return openings
	}
	openings = append(openings, o)
	if len(openings) > maxLastOpenings {
		openings = openings[len(openings)-maxLastOpenings:]
	}
	return openings
}

// #endregion openings
