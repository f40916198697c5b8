package service

import (
	"context"

	"github.com/rentledger/rentledger/internal/database/repository"
	"github.com/rentledger/rentledger/internal/model"
)

// AuditService is the read side of the override log: filtered history for
// audit display and aggregate activity summaries. It never mutates.
type AuditService struct {
	Overrides *repository.OverrideRepo
}

// History returns the chronological override list for one transaction.
func (s *AuditService) History(ctx context.Context, transactionID string) ([]model.Override, error) {
	return s.Overrides.History(ctx, transactionID)
}

// Filter returns log entries narrowed by transaction, actor, or date range.
func (s *AuditService) Filter(ctx context.Context, f repository.AuditFilter) ([]model.Override, error) {
	return s.Overrides.Filter(ctx, f)
}

// ActivitySummary aggregates correction activity.
type ActivitySummary struct {
	Total   int
	ByActor []repository.ActorActivity
	ByDay   []repository.DayActivity
}

// Summary reports override counts per actor and per day.
func (s *AuditService) Summary(ctx context.Context) (ActivitySummary, error) {
	byActor, err := s.Overrides.CountByActor(ctx)
	if err != nil {
		return ActivitySummary{}, err
	}
	byDay, err := s.Overrides.CountByDay(ctx)
	if err != nil {
		return ActivitySummary{}, err
	}
	total := 0
	for _, a := range byActor {
		total += a.Count
	}
	return ActivitySummary{Total: total, ByActor: byActor, ByDay: byDay}, nil
}
