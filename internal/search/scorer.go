// Package search scores products against a free-text query by token
// compatibility. Name tokens weigh more than tag tokens, prefixes count for
// half, and a match made only of numbers ("6" in "Far Cry 6" against
// "Street Fighter 6") is rejected when the query also has words.
package search

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	nameWeight     = 2.0
	tagWeight      = 1.0
	prefixFactor   = 0.5
	minPrefixRunes = 3
	phraseBonus    = 10.0
	maxScore       = 100.0
)

type Candidate struct {
	Name string
	Tags []string
}

type Result struct {
	Score float64
	// Rejected is set when only numeric query tokens matched.
	Rejected bool
	// Matched lists the query tokens that found a counterpart.
	Matched []string
}

// Normalize lowercases s and strips diacritics ("Ação" -> "acao").
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokenize splits s into unique normalized tokens, keeping first-seen order.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func IsNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Score rates how well c answers query, from 0 to 100.
func Score(query string, c Candidate) Result {
	qTokens := Tokenize(query)
	if len(qTokens) == 0 {
		return Result{}
	}

	nameTokens := Tokenize(c.Name)
	tagTokens := Tokenize(strings.Join(c.Tags, " "))

	var (
		total             float64
		matched           []string
		matchedNonNumeric int
		queryHasWords     bool
	)
	for _, qt := range qTokens {
		numeric := IsNumeric(qt)
		if !numeric {
			queryHasWords = true
		}

		w := tokenWeight(qt, numeric, nameTokens, nameWeight)
		if tw := tokenWeight(qt, numeric, tagTokens, tagWeight); tw > w {
			w = tw
		}
		if w == 0 {
			continue
		}
		total += w
		matched = append(matched, qt)
		if !numeric {
			matchedNonNumeric++
		}
	}

	if len(matched) == 0 {
		return Result{}
	}
	if queryHasWords && matchedNonNumeric == 0 {
		return Result{Rejected: true, Matched: matched}
	}

	score := maxScore * total / (nameWeight * float64(len(qTokens)))
	if phrase := strings.Join(qTokens, " "); strings.Contains(strings.Join(nameTokens, " "), phrase) {
		score += phraseBonus
	}
	if score > maxScore {
		score = maxScore
	}
	return Result{Score: score, Matched: matched}
}

func tokenWeight(qt string, numeric bool, fieldTokens []string, weight float64) float64 {
	best := 0.0
	for _, ft := range fieldTokens {
		if ft == qt {
			return weight
		}
		if !numeric && utf8.RuneCountInString(qt) >= minPrefixRunes && strings.HasPrefix(ft, qt) {
			best = weight * prefixFactor
		}
	}
	return best
}

type Ranked[T any] struct {
	Item    T
	Score   float64
	Matched []string
}

// Rank scores every item, drops rejected ones and those below minScore, and
// orders the rest by score, then by name.
func Rank[T any](query string, items []T, candidate func(T) Candidate, minScore float64) []Ranked[T] {
	type scored struct {
		Ranked[T]
		name string
	}
	out := make([]scored, 0, len(items))
	for _, it := range items {
		c := candidate(it)
		res := Score(query, c)
		if res.Rejected || res.Score <= 0 || res.Score < minScore {
			continue
		}
		out = append(out, scored{Ranked: Ranked[T]{Item: it, Score: res.Score, Matched: res.Matched}, name: Normalize(c.Name)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].name < out[j].name
	})

	ranked := make([]Ranked[T], len(out))
	for i := range out {
		ranked[i] = out[i].Ranked
	}
	return ranked
}
