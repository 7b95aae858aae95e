package memory

import (
	"sort"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/danielpatrickdp/npc-companion/internal/npc"
)

// #region stopwords
// stopwords are common Italian and English words excluded from topic matching.
var stopwords = map[string]bool{
	// english
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"will": true, "would": true, "could": true, "should": true, "can": true,
	"not": true, "no": true, "and": true, "or": true, "but": true, "if": true,
	"so": true, "as": true, "at": true, "by": true, "for": true, "from": true,
	"in": true, "of": true, "on": true, "to": true, "with": true, "about": true,
	"it": true, "this": true, "that": true, "what": true, "how": true,
	"you": true, "me": true, "i": true, "my": true, "your": true, "we": true,
	// italian
	"il": true, "lo": true, "la": true, "i'": true, "gli": true, "le": true,
	"un": true, "uno": true, "una": true, "di": true, "da": true, "con": true,
	"su": true, "per": true, "tra": true, "fra": true, "e": true, "ed": true,
	"o": true, "ma": true, "se": true, "che": true, "chi": true, "non": true,
	"mi": true, "ti": true, "ci": true, "si": true, "tu": true, "io": true,
	"sei": true, "sono": true, "è": true, "ho": true, "hai": true, "ha": true,
	"del": true, "della": true, "al": true, "alla": true, "nel": true, "nella": true,
	"come": true, "cosa": true, "anche": true, "molto": true,
}

// tokenize splits text into unique lowercase non-stopword tokens.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words = lo.Filter(words, func(w string, _ int) bool {
		return len([]rune(w)) > 1 && !stopwords[w]
	})
	return lo.Uniq(words)
}

// #endregion stopwords

// #region recall

// Recall returns up to k episodic memories sharing the most topic words with
// message. Equal scores prefer the more recent memory. Memories with no overlap
// are never returned.
func Recall(snap Snapshot, message string, k int) []npc.Episode {
	if k <= 0 || len(snap.Episodic) == 0 {
		return nil
	}
	query := tokenize(message)
	if len(query) == 0 {
		return nil
	}

	type scored struct {
		ep    npc.Episode
		score int
		idx   int
	}
	var hits []scored
	for i, ep := range snap.Episodic {
		overlap := len(lo.Intersect(query, tokenize(ep.Text)))
		if overlap > 0 {
			hits = append(hits, scored{ep: ep, score: overlap, idx: i})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].score != hits[b].score {
			return hits[a].score > hits[b].score
		}
		if !hits[a].ep.CreatedAt.Equal(hits[b].ep.CreatedAt) {
			return hits[a].ep.CreatedAt.After(hits[b].ep.CreatedAt)
		}
		return hits[a].idx > hits[b].idx
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return lo.Map(hits, func(s scored, _ int) npc.Episode { return s.ep })
}

// #endregion recall
