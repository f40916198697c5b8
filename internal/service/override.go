// Package service orchestrates the engine: batch reconciliation runs, the
// override store, and audit reads.
package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"

	"github.com/rentledger/rentledger/internal/database"
	"github.com/rentledger/rentledger/internal/database/repository"
	"github.com/rentledger/rentledger/internal/model"
)

// AutoFunc computes the automatic (pre-override) value of a field for a
// transaction. The reconciliation pipeline supplies one backed by the rule
// engine and property resolver; without it the automatic value reads as
// empty.
type AutoFunc func(ctx context.Context, tx model.Transaction, field model.OverrideField) (string, error)

// lockStripes bounds the per-transaction mutex table.
const lockStripes = 64

// OverrideService records human corrections on top of automatic results.
// Writers to the same transaction are serialized through striped locks so
// concurrent corrections to one field are strictly ordered.
type OverrideService struct {
	transactions *repository.TransactionRepo
	overrides    *repository.OverrideRepo
	auto         AutoFunc

	locks [lockStripes]sync.Mutex
}

// NewOverrideService wires the store. auto may be nil.
func NewOverrideService(tx *repository.TransactionRepo, ov *repository.OverrideRepo, auto AutoFunc) *OverrideService {
	return &OverrideService{transactions: tx, overrides: ov, auto: auto}
}

// Record appends one correction. The current effective value (latest
// override, else the automatic result) is captured as old_value; the
// timestamp is server-assigned. Setting a field to its current value still
// logs, since a confirmation has audit value.
func (s *OverrideService) Record(ctx context.Context, transactionID string, field model.OverrideField, newValue, actor string) (model.Override, error) {
	if !model.ValidOverrideField(field) {
		return model.Override{}, fmt.Errorf("unknown override field %q", field)
	}
	if actor == "" {
		return model.Override{}, fmt.Errorf("actor is required")
	}

	lock := s.lockFor(transactionID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.transactions.Get(ctx, transactionID)
	if err != nil {
		return model.Override{}, fmt.Errorf("load transaction %s: %w", transactionID, err)
	}
	if tx == nil {
		return model.Override{}, fmt.Errorf("transaction %s not found", transactionID)
	}

	oldValue, _, err := s.effectiveLocked(ctx, *tx, field)
	if err != nil {
		return model.Override{}, err
	}

	entry := model.Override{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		Field:         field,
		OldValue:      oldValue,
		NewValue:      newValue,
		Actor:         actor,
		Timestamp:     database.Now(),
	}
	seq, err := s.overrides.Append(ctx, entry)
	if err != nil {
		return model.Override{}, err
	}
	entry.Seq = seq
	return entry, nil
}

// BulkEntry is one row of a bulk-correction import.
type BulkEntry struct {
	TransactionID string
	Field         model.OverrideField
	NewValue      string
}

// BulkError reports one failed bulk entry.
type BulkError struct {
	TransactionID string
	Reason        string
}

// BulkResult summarizes a bulk apply. Partial success is the expected
// outcome: valid entries persist regardless of invalid ones.
type BulkResult struct {
	SuccessCount int
	ErrorCount   int
	Errors       []BulkError
}

// BulkApply records each entry independently. A bad entry is reported and
// skipped; the batch never aborts.
func (s *OverrideService) BulkApply(ctx context.Context, entries []BulkEntry, actor string) BulkResult {
	res := BulkResult{}
	for _, e := range entries {
		if _, err := s.Record(ctx, e.TransactionID, e.Field, e.NewValue, actor); err != nil {
			res.ErrorCount++
			res.Errors = append(res.Errors, BulkError{TransactionID: e.TransactionID, Reason: err.Error()})
			continue
		}
		res.SuccessCount++
	}
	return res
}

// Effective returns the value actually in force for a field: the latest
// override's new_value if any exists, else the automatic result. The bool
// reports whether an override supplied it.
func (s *OverrideService) Effective(ctx context.Context, tx model.Transaction, field model.OverrideField) (string, bool, error) {
	lock := s.lockFor(tx.ID)
	lock.Lock()
	defer lock.Unlock()
	return s.effectiveLocked(ctx, tx, field)
}

// History returns the full chronological audit list for one transaction.
func (s *OverrideService) History(ctx context.Context, transactionID string) ([]model.Override, error) {
	return s.overrides.History(ctx, transactionID)
}

func (s *OverrideService) effectiveLocked(ctx context.Context, tx model.Transaction, field model.OverrideField) (string, bool, error) {
	latest, err := s.overrides.Latest(ctx, tx.ID, field)
	if err != nil {
		return "", false, fmt.Errorf("load latest override: %w", err)
	}
	if latest != nil {
		return latest.NewValue, true, nil
	}
	if s.auto == nil {
		return "", false, nil
	}
	v, err := s.auto(ctx, tx, field)
	if err != nil {
		return "", false, fmt.Errorf("compute automatic value: %w", err)
	}
	return v, false, nil
}

func (s *OverrideService) lockFor(transactionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(transactionID))
	return &s.locks[h.Sum32()%lockStripes]
}
