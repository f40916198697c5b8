package propmatch

import (
	"sort"
	"time"

	"github.com/rentledger/rentledger/internal/model"
)

// Split-payment defaults: tenants paying one rent in parts usually land
// within a few days of each other.
const (
	DefaultWindowDays     = 3
	DefaultToleranceCents = 1000 // $10
	memoSimilarityFloor   = 0.60
	maxGroupSize          = 4
)

// ExpectedAmount is one recurring charge a property expects (e.g. monthly
// rent).
type ExpectedAmount struct {
	PropertyID  string
	AmountCents int64
}

// Proposal groups unassigned deposits that together satisfy one expected
// amount, suggested as a single property assignment.
type Proposal struct {
	PropertyID     string
	TransactionIDs []string
	TotalCents     int64
	ExpectedCents  int64
}

// SplitDetector finds split payments among unassigned deposits.
type SplitDetector struct {
	windowDays     int
	toleranceCents int64
}

// NewSplitDetector builds a detector; non-positive arguments select the
// defaults.
func NewSplitDetector(windowDays int, toleranceCents int64) *SplitDetector {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if toleranceCents <= 0 {
		toleranceCents = DefaultToleranceCents
	}
	return &SplitDetector{windowDays: windowDays, toleranceCents: toleranceCents}
}

// Detect proposes groups of deposits whose sum hits an expected amount
// within tolerance, whose dates fall inside the window, and whose memos are
// mutually similar. Each deposit joins at most one proposal.
func (d *SplitDetector) Detect(deposits []model.Transaction, expected []ExpectedAmount) []Proposal {
	sorted := make([]model.Transaction, len(deposits))
	copy(sorted, deposits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].SourceRow < sorted[j].SourceRow
	})

	used := map[string]bool{}
	var proposals []Proposal

	for _, exp := range expected {
		for i := range sorted {
			if used[sorted[i].ID] {
				continue
			}
			cluster := d.clusterAround(sorted, i, used)
			if len(cluster) < 2 {
				continue
			}
			group := findGroup(cluster, exp.AmountCents, d.toleranceCents)
			if group == nil {
				continue
			}
			ids := make([]string, 0, len(group))
			var total int64
			for _, tx := range group {
				ids = append(ids, tx.ID)
				total += tx.AmountCents
				used[tx.ID] = true
			}
			proposals = append(proposals, Proposal{
				PropertyID:     exp.PropertyID,
				TransactionIDs: ids,
				TotalCents:     total,
				ExpectedCents:  exp.AmountCents,
			})
		}
	}
	return proposals
}

// clusterAround collects unused deposits within the date window of the
// anchor whose memos are similar to the anchor's.
func (d *SplitDetector) clusterAround(sorted []model.Transaction, anchor int, used map[string]bool) []model.Transaction {
	a := sorted[anchor]
	aMemo := normalizeText(a.Memo)
	cluster := []model.Transaction{a}
	for j := range sorted {
		if j == anchor || used[sorted[j].ID] {
			continue
		}
		if daysApart(a.Date, sorted[j].Date) > d.windowDays {
			continue
		}
		if similarityRatio(aMemo, normalizeText(sorted[j].Memo)) < memoSimilarityFloor {
			continue
		}
		cluster = append(cluster, sorted[j])
	}
	return cluster
}

// findGroup searches subsets of the cluster (anchor always included) for one
// whose sum lands within tolerance of the target. Smallest group wins.
func findGroup(cluster []model.Transaction, target, tolerance int64) []model.Transaction {
	for size := 2; size <= maxGroupSize && size <= len(cluster); size++ {
		group := searchSubset(cluster, 1, []model.Transaction{cluster[0]}, size, target, tolerance)
		if group != nil {
			return group
		}
	}
	return nil
}

func searchSubset(cluster []model.Transaction, start int, current []model.Transaction, size int, target, tolerance int64) []model.Transaction {
	if len(current) == size {
		var sum int64
		for _, tx := range current {
			sum += tx.AmountCents
		}
		if diff := sum - target; diff >= -tolerance && diff <= tolerance {
			out := make([]model.Transaction, len(current))
			copy(out, current)
			return out
		}
		return nil
	}
	for i := start; i < len(cluster); i++ {
		next := make([]model.Transaction, len(current)+1)
		copy(next, current)
		next[len(current)] = cluster[i]
		if found := searchSubset(cluster, i+1, next, size, target, tolerance); found != nil {
			return found
		}
	}
	return nil
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
