// Package propmatch resolves free-text deposit memos to known properties.
// Exact substring hits win outright; otherwise a fuzzy score built from edit
// distance, word overlap, and address components decides, with ambiguity
// surfaced instead of silently resolved.
package propmatch

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/rentledger/rentledger/internal/model"
)

// DefaultThreshold is the minimum fuzzy score accepted as a match.
const DefaultThreshold = 0.80

// tieWindow: candidates separated by this much or less are ambiguous and go
// to review.
const tieWindow = 0.02

// fuzzyCap keeps fuzzy confidence strictly below an exact match.
const fuzzyCap = 0.99

// Address abbreviations expanded before comparison, so "966 Kinsbury Ct"
// and "966 Kinsbury Court" normalize identically.
var abbreviations = map[string]string{
	"st":   "street",
	"str":  "street",
	"ave":  "avenue",
	"av":   "avenue",
	"blvd": "boulevard",
	"dr":   "drive",
	"rd":   "road",
	"ln":   "lane",
	"ct":   "court",
	"cir":  "circle",
	"pl":   "place",
	"apt":  "apartment",
	"bldg": "building",
	"prop": "property",
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	digitsRe     = regexp.MustCompile(`\d+`)
)

// Matcher scores memos against property display names.
type Matcher struct {
	threshold float64
}

// NewMatcher builds a matcher; threshold <= 0 selects DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Candidate is one scored property, for review tooling that wants to show
// the runner-ups.
type Candidate struct {
	Property model.Property
	Score    float64
}

// Match returns the best property assignment for a memo given the active
// property set. A miss returns (nil, 0, none), a valid state rather than an error.
func (m *Matcher) Match(memo string, props []model.Property) model.PropertyAssignment {
	none := model.PropertyAssignment{MatchType: model.MatchNone, MatchReason: "no property matched"}
	if strings.TrimSpace(memo) == "" || len(props) == 0 {
		return none
	}

	memoNorm := normalizeText(memo)

	// Exact pass first: a verbatim (normalized) display name inside the memo
	// always beats any fuzzy score.
	for _, p := range props {
		if !p.Active {
			continue
		}
		nameNorm := normalizeText(p.DisplayName)
		if nameNorm != "" && strings.Contains(memoNorm, nameNorm) {
			id := p.ID
			return model.PropertyAssignment{
				PropertyID:  &id,
				Confidence:  1.0,
				MatchType:   model.MatchExact,
				MatchReason: fmt.Sprintf("display name %q appears in memo", p.DisplayName),
			}
		}
	}

	candidates := m.score(memo, memoNorm, props)
	if len(candidates) == 0 || candidates[0].Score < m.threshold {
		return none
	}

	best := candidates[0]
	ambiguous := len(candidates) > 1 && candidates[0].Score-candidates[1].Score <= tieWindow
	id := best.Property.ID
	reason := fmt.Sprintf("fuzzy match on %q (score %.2f)", best.Property.DisplayName, best.Score)
	if ambiguous {
		reason = fmt.Sprintf("ambiguous between %q and %q", best.Property.DisplayName, candidates[1].Property.DisplayName)
	}
	return model.PropertyAssignment{
		PropertyID:  &id,
		Confidence:  best.Score,
		MatchType:   model.MatchFuzzy,
		MatchReason: reason,
		Ambiguous:   ambiguous,
	}
}

// TopMatches returns the n best-scoring candidates regardless of threshold.
func (m *Matcher) TopMatches(memo string, props []model.Property, n int) []Candidate {
	out := m.score(memo, normalizeText(memo), props)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (m *Matcher) score(memo, memoNorm string, props []model.Property) []Candidate {
	var out []Candidate
	for _, p := range props {
		if !p.Active {
			continue
		}
		nameNorm := normalizeText(p.DisplayName)
		if nameNorm == "" {
			continue
		}
		s := maxFloat(
			similarityRatio(memoNorm, nameNorm),
			wordOverlapScore(memoNorm, nameNorm),
			addressScore(memo, p.DisplayName),
		)
		if s > fuzzyCap {
			s = fuzzyCap
		}
		out = append(out, Candidate{Property: p, Score: s})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// normalizeText lowercases, expands address abbreviations per word, strips
// punctuation, and collapses whitespace.
func normalizeText(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	words := strings.Fields(text)
	for i, w := range words {
		clean := nonWordRe.ReplaceAllString(w, "")
		if full, ok := abbreviations[clean]; ok {
			words[i] = full
		} else {
			words[i] = clean
		}
	}
	text = strings.Join(words, " ")
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
}

// similarityRatio is a normalized edit-distance score in [0,1].
func similarityRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// wordOverlapScore measures how much of the property name's vocabulary the
// memo covers.
func wordOverlapScore(memo, name string) float64 {
	nameWords := strings.Fields(name)
	if len(nameWords) == 0 {
		return 0
	}
	memoSet := map[string]bool{}
	for _, w := range strings.Fields(memo) {
		memoSet[w] = true
	}
	overlap := 0
	for _, w := range nameWords {
		if memoSet[w] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(nameWords))
}

// addressScore matches street number and street name independently, since
// bank memos abbreviate addresses inconsistently. Matching numbers are a
// strong signal; the street-name overlap refines it.
func addressScore(memo, name string) float64 {
	nameNums := digitsRe.FindAllString(name, -1)
	if len(nameNums) == 0 {
		return 0
	}
	memoNums := map[string]bool{}
	for _, n := range digitsRe.FindAllString(memo, -1) {
		memoNums[n] = true
	}
	matched := 0
	for _, n := range nameNums {
		if memoNums[n] {
			matched++
		}
	}
	if float64(matched)/float64(len(nameNums)) < 0.5 {
		return 0
	}

	memoStreet := strings.TrimSpace(digitsRe.ReplaceAllString(normalizeText(memo), ""))
	nameStreet := strings.TrimSpace(digitsRe.ReplaceAllString(normalizeText(name), ""))
	if memoStreet == "" || nameStreet == "" {
		return 0
	}
	return 0.85 + 0.15*wordOverlapScore(memoStreet, nameStreet)
}

func maxFloat(vals ...float64) float64 {
	out := vals[0]
	for _, v := range vals[1:] {
		if v > out {
			out = v
		}
	}
	return out
}
