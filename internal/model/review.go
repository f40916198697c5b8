package model

// ReviewPriority routes a classified transaction to the right queue.
type ReviewPriority int

const (
	ReviewNone ReviewPriority = iota // auto-accepted
	ReviewLow
	ReviewHigh
)

func (p ReviewPriority) String() string {
	switch p {
	case ReviewNone:
		return "none"
	case ReviewLow:
		return "low"
	default:
		return "high"
	}
}

// Bands holds the confidence thresholds that drive review routing. All
// threshold branching goes through this one type so a policy change does not
// require hunting through the pipeline.
type Bands struct {
	AutoAccept   float64 // >= this: no review needed
	HighPriority float64 // < this: high-priority review
}

// DefaultBands returns the standard routing thresholds.
func DefaultBands() Bands {
	return Bands{AutoAccept: 0.90, HighPriority: 0.70}
}

// Route returns the review priority for a confidence score.
func (b Bands) Route(confidence float64) ReviewPriority {
	switch {
	case confidence >= b.AutoAccept:
		return ReviewNone
	case confidence >= b.HighPriority:
		return ReviewLow
	default:
		return ReviewHigh
	}
}

// AttributedRow is the final per-transaction output consumed by reporting
// collaborators.
type AttributedRow struct {
	Transaction        Transaction
	Category           string
	CategoryConfidence float64
	PropertyID         *string
	PropertyConfidence float64
	MatchReason        string
	Priority           ReviewPriority
	CategoryOverridden bool
	PropertyOverridden bool
}

// NeedsReview reports whether the row belongs in the manual-review queue:
// below the acceptance band on either axis, or no property assigned.
func (r AttributedRow) NeedsReview(b Bands) bool {
	if r.PropertyID == nil {
		return true
	}
	if !r.CategoryOverridden && b.Route(r.CategoryConfidence) != ReviewNone {
		return true
	}
	if !r.PropertyOverridden && b.Route(r.PropertyConfidence) != ReviewNone {
		return true
	}
	return false
}

// MinConfidence is the sort key for the review queue: most uncertain first.
func (r AttributedRow) MinConfidence() float64 {
	if r.CategoryConfidence < r.PropertyConfidence {
		return r.CategoryConfidence
	}
	return r.PropertyConfidence
}
