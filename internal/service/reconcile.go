package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rentledger/rentledger/internal/database/repository"
	"github.com/rentledger/rentledger/internal/model"
	"github.com/rentledger/rentledger/internal/normalize"
	"github.com/rentledger/rentledger/internal/propmatch"
	"github.com/rentledger/rentledger/internal/rules"
)

// Stage names the pipeline phases. Only Normalizing can fail the batch;
// every later stage degrades into the review queue instead of halting.
type Stage string

const (
	StageNormalizing      Stage = "normalizing"
	StageClassifying      Stage = "classifying"
	StagePropertyMatching Stage = "property_matching"
	StageOverrideMerging  Stage = "override_merging"
	StageDone             Stage = "done"
)

// DepositMapping is an exact (memo, amount) -> property entry from the
// curated deposit map. Consulted before fuzzy matching for income rows.
type DepositMapping struct {
	Memo        string
	AmountCents int64
	PropertyID  string
}

// RunOptions tune one batch run.
type RunOptions struct {
	// Year filters the batch to a tax year when non-zero.
	Year int
	// DepositMap is the optional exact memo+amount property map.
	DepositMap []DepositMapping
	// Expected lists recurring amounts per property for split detection.
	Expected []propmatch.ExpectedAmount
}

// RunReport is the complete outcome of one reconciliation run. Every input
// row lands in exactly one of Resolved, ReviewQueue, Unresolved, Rejected,
// or SkippedYear; nothing is silently discarded.
type RunReport struct {
	RunID       string
	Stage       Stage
	InputRows   int
	Resolved    []model.AttributedRow
	ReviewQueue []model.AttributedRow
	Unresolved  []normalize.UnresolvedRow
	Rejected    []normalize.RowError
	// SkippedYear counts rows outside the requested tax year.
	SkippedYear    int
	Duplicates     []normalize.DuplicateWarning
	SplitProposals []propmatch.Proposal
}

// ReconcileService drives a batch through the pipeline:
// normalize -> classify -> match properties -> merge overrides.
type ReconcileService struct {
	Transactions *repository.TransactionRepo
	Properties   *repository.PropertyRepo
	Overrides    *repository.OverrideRepo
	Engine       *rules.Engine
	Matcher      *propmatch.Matcher
	Splits       *propmatch.SplitDetector
	Bands        model.Bands
	Workers      int
	Log          *slog.Logger
}

type attribution struct {
	class  model.ClassificationResult
	assign model.PropertyAssignment
}

// Run processes one source batch. A SchemaError aborts before any output;
// context cancellation stops submitting further rows and returns the
// partial report alongside the context error; completed rows stay valid.
func (s *ReconcileService) Run(ctx context.Context, src normalize.Source, opts RunOptions) (RunReport, error) {
	report := RunReport{RunID: uuid.NewString(), Stage: StageNormalizing, InputRows: len(src.Rows)}
	log := s.logger().With("run_id", report.RunID, "source", src.Name)

	norm, err := normalize.Run(src)
	if err != nil {
		return report, err
	}
	report.Unresolved = norm.Unresolved
	report.Rejected = norm.RowErrors
	report.Duplicates = norm.Duplicates
	log.Info("normalized source",
		"rows", len(src.Rows),
		"transactions", len(norm.Transactions),
		"unresolved", len(norm.Unresolved),
		"rejected", len(norm.RowErrors),
		"duplicates", len(norm.Duplicates))

	txs := norm.Transactions
	if opts.Year != 0 {
		kept := txs[:0]
		for _, tx := range txs {
			if tx.Date.Year() == opts.Year {
				kept = append(kept, tx)
			} else {
				report.SkippedYear++
			}
		}
		txs = kept
	}

	if err := s.Transactions.UpsertAll(ctx, txs); err != nil {
		return report, fmt.Errorf("persist transactions: %w", err)
	}

	if err := s.processTransactions(ctx, txs, opts, &report); err != nil {
		return report, err
	}
	log.Info("run complete",
		"resolved", len(report.Resolved),
		"review", len(report.ReviewQueue),
		"split_proposals", len(report.SplitProposals))
	return report, nil
}

// Replay recomputes the attributed dataset from stored transactions:
// classification and property matching are pure and rerun fresh, then the
// persisted override log is laid on top. No raw source file needed.
func (s *ReconcileService) Replay(ctx context.Context, opts RunOptions) (RunReport, error) {
	report := RunReport{RunID: uuid.NewString(), Stage: StageClassifying}

	txs, err := s.Transactions.List(ctx)
	if err != nil {
		return report, fmt.Errorf("load transactions: %w", err)
	}
	if opts.Year != 0 {
		kept := txs[:0]
		for _, tx := range txs {
			if tx.Date.Year() == opts.Year {
				kept = append(kept, tx)
			} else {
				report.SkippedYear++
			}
		}
		txs = kept
	}
	report.InputRows = len(txs) + report.SkippedYear

	if err := s.processTransactions(ctx, txs, opts, &report); err != nil {
		return report, err
	}
	return report, nil
}

// processTransactions runs the classify -> match -> merge stages shared by
// Run and Replay and fills the report buckets.
func (s *ReconcileService) processTransactions(ctx context.Context, txs []model.Transaction, opts RunOptions, report *RunReport) error {
	props, err := s.Properties.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("load properties: %w", err)
	}

	report.Stage = StageClassifying
	attrs, submitted := s.attributeAll(ctx, txs, props, opts)
	report.Stage = StagePropertyMatching

	if submitted < len(txs) {
		// cancelled mid-batch: report what completed
		txs = txs[:submitted]
		attrs = attrs[:submitted]
	}

	report.Stage = StageOverrideMerging
	latest, err := s.Overrides.LatestPerField(ctx)
	if err != nil {
		return fmt.Errorf("load override snapshot: %w", err)
	}

	var unassignedIncome []model.Transaction
	for i, tx := range txs {
		row := s.mergeRow(tx, attrs[i], latest)
		if row.NeedsReview(s.Bands) {
			report.ReviewQueue = append(report.ReviewQueue, row)
			if tx.Direction == model.DirectionIncome && row.PropertyID == nil {
				unassignedIncome = append(unassignedIncome, tx)
			}
		} else {
			report.Resolved = append(report.Resolved, row)
		}
	}

	// most uncertain first
	sort.SliceStable(report.ReviewQueue, func(i, j int) bool {
		return report.ReviewQueue[i].MinConfidence() < report.ReviewQueue[j].MinConfidence()
	})

	if s.Splits != nil && len(unassignedIncome) > 0 && len(opts.Expected) > 0 {
		report.SplitProposals = s.Splits.Detect(unassignedIncome, opts.Expected)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	report.Stage = StageDone
	return nil
}

// AutoResolver returns an AutoFunc for the override store backed by this
// pipeline's engine and matcher, so effective-value lookups see the same
// automatic results a run would produce.
func (s *ReconcileService) AutoResolver() AutoFunc {
	return func(ctx context.Context, tx model.Transaction, field model.OverrideField) (string, error) {
		switch field {
		case model.FieldCategory:
			return s.classify(tx).Category, nil
		case model.FieldProperty:
			props, err := s.Properties.ListActive(ctx)
			if err != nil {
				return "", err
			}
			assign := s.Matcher.Match(tx.Memo, props)
			if assign.PropertyID == nil {
				return "", nil
			}
			return *assign.PropertyID, nil
		default:
			return "", fmt.Errorf("unknown field %q", field)
		}
	}
}

// attributeAll fans classification and property matching out across a
// bounded worker pool. Both are pure functions, so rows are independent;
// the returned count is how many rows were submitted before cancellation.
func (s *ReconcileService) attributeAll(ctx context.Context, txs []model.Transaction, props []model.Property, opts RunOptions) ([]attribution, int) {
	results := make([]attribution, len(txs))
	workers := s.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(txs) {
		workers = len(txs)
	}
	if workers == 0 {
		return results, 0
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.attribute(txs[i], props, opts)
			}
		}()
	}

	submitted := 0
	for i := range txs {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
		submitted++
	}
	close(jobs)
	wg.Wait()
	return results, submitted
}

func (s *ReconcileService) attribute(tx model.Transaction, props []model.Property, opts RunOptions) attribution {
	a := attribution{class: s.classify(tx)}

	if tx.Direction == model.DirectionIncome {
		if pid, ok := depositMapLookup(tx, opts.DepositMap); ok {
			a.assign = model.PropertyAssignment{
				PropertyID:  &pid,
				Confidence:  1.0,
				MatchType:   model.MatchExact,
				MatchReason: "deposit mapping: exact memo and amount",
			}
			return a
		}
	}
	a.assign = s.Matcher.Match(tx.Memo, props)
	return a
}

func (s *ReconcileService) classify(tx model.Transaction) model.ClassificationResult {
	return s.Engine.Classify(rules.Input{
		Description: tx.Description,
		Payee:       tx.Payee,
		Memo:        tx.Memo,
		AmountCents: tx.AmountCents,
	})
}

// mergeRow lays the override snapshot over the automatic attribution.
// Overrides always win.
func (s *ReconcileService) mergeRow(tx model.Transaction, a attribution, latest map[repository.FieldKey]model.Override) model.AttributedRow {
	row := model.AttributedRow{
		Transaction:        tx,
		Category:           a.class.Category,
		CategoryConfidence: a.class.Confidence,
		PropertyID:         a.assign.PropertyID,
		PropertyConfidence: a.assign.Confidence,
		MatchReason:        joinReasons(a.class.MatchReason, a.assign.MatchReason),
	}
	if a.assign.Ambiguous {
		// ambiguity must surface, never auto-resolve
		row.PropertyConfidence = 0
		row.PropertyID = nil
	}

	if o, ok := latest[repository.FieldKey{TransactionID: tx.ID, Field: model.FieldCategory}]; ok {
		row.Category = o.NewValue
		row.CategoryConfidence = 1.0
		row.CategoryOverridden = true
		row.MatchReason = joinReasons(fmt.Sprintf("category overridden by %s", o.Actor), a.assign.MatchReason)
	}
	if o, ok := latest[repository.FieldKey{TransactionID: tx.ID, Field: model.FieldProperty}]; ok {
		row.PropertyOverridden = true
		row.PropertyConfidence = 1.0
		if o.NewValue == "" {
			row.PropertyID = nil
		} else {
			v := o.NewValue
			row.PropertyID = &v
		}
	}
	row.Priority = s.Bands.Route(row.MinConfidence())
	return row
}

func depositMapLookup(tx model.Transaction, mappings []DepositMapping) (string, bool) {
	memo := strings.ToLower(strings.TrimSpace(tx.Memo))
	for _, m := range mappings {
		if m.AmountCents == tx.AmountCents && strings.ToLower(strings.TrimSpace(m.Memo)) == memo {
			return m.PropertyID, true
		}
	}
	return "", false
}

func joinReasons(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "; ")
}

func (s *ReconcileService) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
