// Package model holds the core domain types shared by the normalization,
// classification, property-matching, and override layers.
package model

import "time"

// Direction marks a transaction as money in or money out.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// Transaction is a normalized bank row. Immutable once created; the ID is
// derived deterministically from the source row so reprocessing the same
// export never mints a new identity.
type Transaction struct {
	ID          string
	Date        time.Time
	AmountCents int64 // always positive; sign lives in Direction
	Direction   Direction
	Description string
	Memo        string
	Payee       string
	SourceRef   string // original bank code/reference, kept for audit
	SourceRow   int    // row index within the source export
}

// Strategy identifies which classification cascade stage produced a result.
type Strategy string

const (
	StrategyMerchant Strategy = "merchant"
	StrategyPattern  Strategy = "pattern"
	StrategyKeyword  Strategy = "keyword"
	StrategyAmount   Strategy = "amount"
	StrategyNone     Strategy = "none"
)

// strategyRank orders strategies for tie-breaking when two stages produce
// the same confidence. Lower rank wins.
var strategyRank = map[Strategy]int{
	StrategyMerchant: 0,
	StrategyPattern:  1,
	StrategyKeyword:  2,
	StrategyAmount:   3,
	StrategyNone:     4,
}

// StrategyRank returns the tie-break priority for s; unknown strategies sort
// last.
func StrategyRank(s Strategy) int {
	if r, ok := strategyRank[s]; ok {
		return r
	}
	return len(strategyRank)
}

// CategoryOther is the terminal category when no rule fires. Not an error.
const CategoryOther = "other"

// ClassificationResult is attached to a Transaction, never merged into it.
type ClassificationResult struct {
	Category    string
	Confidence  float64
	MatchReason string
	Strategy    Strategy
}

// MatchType describes how a property assignment was made.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
	MatchNone  MatchType = "none"
)

// PropertyAssignment maps a transaction to a property, or to nothing.
// A nil PropertyID is a valid terminal state awaiting human input.
type PropertyAssignment struct {
	PropertyID  *string
	Confidence  float64
	MatchType   MatchType
	MatchReason string
	// Ambiguous is set when two candidates scored within the tie window.
	// Ambiguous assignments always land in the review queue.
	Ambiguous bool
}

// PropertyKind distinguishes rentals from the owning business entity.
type PropertyKind string

const (
	KindRentalProperty PropertyKind = "rental_property"
	KindBusinessEntity PropertyKind = "business_entity"
)

// Property is a rental property or business entity. Deactivation is soft:
// historical attributions to an inactive property must keep resolving.
type Property struct {
	ID          string
	DisplayName string
	Kind        PropertyKind
	Active      bool
}

// OverrideField names the transaction fields a human may correct.
type OverrideField string

const (
	FieldCategory OverrideField = "category"
	FieldProperty OverrideField = "property"
)

// ValidOverrideField reports whether f is a correctable field.
func ValidOverrideField(f OverrideField) bool {
	return f == FieldCategory || f == FieldProperty
}

// Override is one append-only log entry. Entries are never mutated or
// deleted; a revert is a new entry pointing back at a prior value.
type Override struct {
	Seq           int64 // insertion sequence, breaks timestamp ties
	ID            string
	TransactionID string
	Field         OverrideField
	OldValue      string // empty means unset/automatic
	NewValue      string
	Actor         string
	Timestamp     time.Time
}
