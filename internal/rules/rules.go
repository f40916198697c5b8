// Package rules implements the categorization cascade: merchant lookup,
// regex patterns, keyword fallback, and amount heuristics, each with a
// confidence score and a human-readable reason.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rentledger/rentledger/internal/model"
)

// merchantConfidence is fixed: a curated merchant hit is the strongest
// signal short of a human override.
const merchantConfidence = 0.95

// MerchantRule maps a vendor name substring to a category.
type MerchantRule struct {
	Name     string `toml:"name"`
	Category string `toml:"category"`
}

// PatternRule matches structured narratives (account numbers, policy
// numbers) via regex.
type PatternRule struct {
	Pattern     string  `toml:"pattern"`
	Category    string  `toml:"category"`
	Confidence  float64 `toml:"confidence"`
	Description string  `toml:"description"`

	re *regexp.Regexp
}

// KeywordRule is a single-keyword substring fallback.
type KeywordRule struct {
	Keyword    string  `toml:"keyword"`
	Category   string  `toml:"category"`
	Confidence float64 `toml:"confidence"`
}

// AmountRule infers a category from amount magnitude plus a partial text
// match. Used only when nothing else fires.
type AmountRule struct {
	MinCents    int64    `toml:"min_cents"`
	MaxCents    int64    `toml:"max_cents"` // 0 = unbounded
	AnyKeyword  []string `toml:"any_keyword"`
	Category    string   `toml:"category"`
	Confidence  float64  `toml:"confidence"`
	Description string   `toml:"description"`
}

// Ruleset is the injected, versioned rule configuration. Engines never share
// mutable table state; each engine holds the ruleset it was built with.
type Ruleset struct {
	Version   string         `toml:"version"`
	Merchants []MerchantRule `toml:"merchant"`
	Patterns  []PatternRule  `toml:"pattern"`
	Keywords  []KeywordRule  `toml:"keyword"`
	Amounts   []AmountRule   `toml:"amount"`
}

// Compile prepares the regex patterns. Must be called before the ruleset is
// handed to an engine; Load and DefaultRuleset do this for you.
func (rs *Ruleset) Compile() error {
	for i := range rs.Patterns {
		re, err := regexp.Compile("(?i)" + rs.Patterns[i].Pattern)
		if err != nil {
			return fmt.Errorf("pattern %q: %w", rs.Patterns[i].Pattern, err)
		}
		rs.Patterns[i].re = re
	}
	return nil
}

// Engine classifies transactions against one ruleset. Pure and stateless:
// the same input always yields the same result.
type Engine struct {
	rs *Ruleset
}

// NewEngine wraps a compiled ruleset.
func NewEngine(rs *Ruleset) *Engine {
	return &Engine{rs: rs}
}

// Input carries the text and amount fields the cascade inspects.
type Input struct {
	Description string
	Payee       string
	Memo        string
	AmountCents int64
}

// Classify runs every cascade stage and keeps the highest-confidence result,
// ties broken by strategy priority (merchant > pattern > keyword > amount).
// A miss is a valid terminal state: category "other", confidence zero.
func (e *Engine) Classify(in Input) model.ClassificationResult {
	text := combinedText(in)

	best := model.ClassificationResult{
		Category:    model.CategoryOther,
		Confidence:  0,
		MatchReason: "no matching rule found",
		Strategy:    model.StrategyNone,
	}
	for _, candidate := range []func(string, Input) (model.ClassificationResult, bool){
		e.matchMerchant,
		e.matchPattern,
		e.matchKeyword,
		e.matchAmount,
	} {
		res, ok := candidate(text, in)
		if !ok {
			continue
		}
		if res.Confidence > best.Confidence ||
			(res.Confidence == best.Confidence && model.StrategyRank(res.Strategy) < model.StrategyRank(best.Strategy)) {
			best = res
		}
	}
	return best
}

func (e *Engine) matchMerchant(text string, _ Input) (model.ClassificationResult, bool) {
	for _, m := range e.rs.Merchants {
		if strings.Contains(text, strings.ToLower(m.Name)) {
			return model.ClassificationResult{
				Category:    m.Category,
				Confidence:  merchantConfidence,
				MatchReason: fmt.Sprintf("matched merchant %q", m.Name),
				Strategy:    model.StrategyMerchant,
			}, true
		}
	}
	return model.ClassificationResult{}, false
}

func (e *Engine) matchPattern(text string, _ Input) (model.ClassificationResult, bool) {
	for _, p := range e.rs.Patterns {
		if p.re != nil && p.re.MatchString(text) {
			return model.ClassificationResult{
				Category:    p.Category,
				Confidence:  p.Confidence,
				MatchReason: fmt.Sprintf("matched pattern: %s", p.Description),
				Strategy:    model.StrategyPattern,
			}, true
		}
	}
	return model.ClassificationResult{}, false
}

func (e *Engine) matchKeyword(text string, _ Input) (model.ClassificationResult, bool) {
	for _, k := range e.rs.Keywords {
		if strings.Contains(text, strings.ToLower(k.Keyword)) {
			return model.ClassificationResult{
				Category:    k.Category,
				Confidence:  k.Confidence,
				MatchReason: fmt.Sprintf("matched keyword %q", k.Keyword),
				Strategy:    model.StrategyKeyword,
			}, true
		}
	}
	return model.ClassificationResult{}, false
}

func (e *Engine) matchAmount(text string, in Input) (model.ClassificationResult, bool) {
	if in.AmountCents <= 0 {
		return model.ClassificationResult{}, false
	}
	for _, a := range e.rs.Amounts {
		if in.AmountCents < a.MinCents {
			continue
		}
		if a.MaxCents > 0 && in.AmountCents > a.MaxCents {
			continue
		}
		if !containsAny(text, a.AnyKeyword) {
			continue
		}
		return model.ClassificationResult{
			Category:    a.Category,
			Confidence:  a.Confidence,
			MatchReason: fmt.Sprintf("amount heuristic: %s", a.Description),
			Strategy:    model.StrategyAmount,
		}, true
	}
	return model.ClassificationResult{}, false
}

func combinedText(in Input) string {
	parts := []string{in.Description, in.Payee, in.Memo}
	for i := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, " ")
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
