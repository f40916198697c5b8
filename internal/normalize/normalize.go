// Package normalize turns heterogeneous raw bank rows into canonical
// transactions. Column names are matched case/whitespace-insensitively, the
// credit/debit split is resolved into a typed direction, and rows that cannot
// be resolved are reported, never silently dropped.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rentledger/rentledger/internal/model"
)

// Source is one raw export delivered by the ingestion collaborator: a header
// plus data rows, column names still in whatever shape the bank used.
type Source struct {
	Name   string
	Header []string
	Rows   [][]string
}

// UnresolvedReason codes why a row landed in the unresolved bucket.
type UnresolvedReason string

const (
	ReasonBothAmounts UnresolvedReason = "both_credit_and_debit"
	ReasonNoAmount    UnresolvedReason = "no_credit_or_debit"
)

// UnresolvedRow is a structurally ambiguous row held for human attention.
type UnresolvedRow struct {
	Row    int
	Reason UnresolvedReason
	Fields map[string]string
}

// RowError is a per-row parse failure. The row is excluded from the
// transaction set but retained here.
type RowError struct {
	Row   int
	Field string
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
}

// DuplicateWarning flags rows sharing (date, amount, memo). They are never
// deduplicated automatically: two tenants paying identical rent on the same
// day are both real.
type DuplicateWarning struct {
	Rows        []int
	Date        time.Time
	AmountCents int64
	Memo        string
}

// Result is the full outcome of normalizing one source.
type Result struct {
	Transactions []model.Transaction
	Unresolved   []UnresolvedRow
	RowErrors    []RowError
	Duplicates   []DuplicateWarning
}

// SchemaError rejects an entire source before any row is processed.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %q missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
}

// canonical column names after alias resolution.
const (
	colDate        = "date"
	colCredit      = "credit"
	colDebit       = "debit"
	colDescription = "description"
	colMemo        = "memo"
	colPayee       = "payee"
	colReference   = "reference"
)

var columnAliases = map[string]string{
	"date":              colDate,
	"transaction_date":  colDate,
	"posting_date":      colDate,
	"post_date":         colDate,
	"credit":            colCredit,
	"credit_amount":     colCredit,
	"deposit":           colCredit,
	"deposit_amount":    colCredit,
	"debit":             colDebit,
	"debit_amount":      colDebit,
	"withdrawal":        colDebit,
	"withdrawal_amount": colDebit,
	"description":       colDescription,
	"desc":              colDescription,
	"transaction_desc":  colDescription,
	"memo":              colMemo,
	"notes":             colMemo,
	"payee":             colPayee,
	"merchant":          colPayee,
	"reference":         colReference,
	"source_reference":  colReference,
	"ref":               colReference,
	"bank_reference":    colReference,
	"check_number":      colReference,
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"01-02-2006",
	"Jan 2, 2006",
}

// Run normalizes one source. Deterministic: the same source always produces
// the same transaction IDs and the same bucket membership.
func Run(src Source) (Result, error) {
	cols, err := resolveColumns(src)
	if err != nil {
		return Result{}, err
	}

	res := Result{}
	type dupKey struct {
		date  string
		cents int64
		memo  string
	}
	dupRows := map[dupKey][]int{}

	for i, rec := range src.Rows {
		fields := rowFields(cols, rec)

		date, derr := parseDate(fields[colDate])
		if derr != nil {
			res.RowErrors = append(res.RowErrors, RowError{Row: i, Field: colDate, Err: derr})
			continue
		}

		credit, cerr := parseCents(fields[colCredit])
		if cerr != nil {
			res.RowErrors = append(res.RowErrors, RowError{Row: i, Field: colCredit, Err: cerr})
			continue
		}
		debit, berr := parseCents(fields[colDebit])
		if berr != nil {
			res.RowErrors = append(res.RowErrors, RowError{Row: i, Field: colDebit, Err: berr})
			continue
		}

		var direction model.Direction
		var cents int64
		switch {
		case credit != 0 && debit == 0:
			direction, cents = model.DirectionIncome, abs64(credit)
		case debit != 0 && credit == 0:
			direction, cents = model.DirectionExpense, abs64(debit)
		case credit != 0 && debit != 0:
			res.Unresolved = append(res.Unresolved, UnresolvedRow{Row: i, Reason: ReasonBothAmounts, Fields: fields})
			continue
		default:
			res.Unresolved = append(res.Unresolved, UnresolvedRow{Row: i, Reason: ReasonNoAmount, Fields: fields})
			continue
		}

		memo := strings.TrimSpace(fields[colMemo])
		tx := model.Transaction{
			ID:          transactionID(date, cents, memo, i),
			Date:        date,
			AmountCents: cents,
			Direction:   direction,
			Description: strings.TrimSpace(fields[colDescription]),
			Memo:        memo,
			Payee:       strings.TrimSpace(fields[colPayee]),
			SourceRef:   strings.TrimSpace(fields[colReference]),
			SourceRow:   i,
		}
		res.Transactions = append(res.Transactions, tx)

		key := dupKey{date: date.Format(time.DateOnly), cents: cents, memo: memoKey(memo)}
		dupRows[key] = append(dupRows[key], i)
	}

	keys := make([]dupKey, 0, len(dupRows))
	for k, rows := range dupRows {
		if len(rows) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(a, b int) bool { return dupRows[keys[a]][0] < dupRows[keys[b]][0] })
	for _, k := range keys {
		d, _ := time.Parse(time.DateOnly, k.date)
		res.Duplicates = append(res.Duplicates, DuplicateWarning{
			Rows:        dupRows[k],
			Date:        d,
			AmountCents: k.cents,
			Memo:        k.memo,
		})
	}

	return res, nil
}

// resolveColumns maps header positions to canonical column names and fails
// fast when the schema is unusable.
func resolveColumns(src Source) (map[string]int, error) {
	cols := map[string]int{}
	for i, raw := range src.Header {
		name, ok := columnAliases[normalizeColumnName(raw)]
		if !ok {
			continue
		}
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}

	var missing []string
	if _, ok := cols[colDate]; !ok {
		missing = append(missing, colDate)
	}
	_, hasCredit := cols[colCredit]
	_, hasDebit := cols[colDebit]
	if !hasCredit && !hasDebit {
		missing = append(missing, "credit or debit amount")
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Source: src.Name, Missing: missing}
	}
	return cols, nil
}

// normalizeColumnName lowercases and collapses separators so "Credit Amount",
// "credit-amount", and " CREDIT_AMOUNT " all resolve identically.
func normalizeColumnName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, sep := range []string{" ", "/", "-"} {
		name = strings.ReplaceAll(name, sep, "_")
	}
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	return name
}

func rowFields(cols map[string]int, rec []string) map[string]string {
	fields := make(map[string]string, len(cols))
	for name, idx := range cols {
		if idx < len(rec) {
			fields[name] = rec[idx]
		}
	}
	return fields
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// parseCents converts a raw amount string like "$1,234.56" or "(45.00)" to
// signed integer cents. Empty strings are zero, not errors: many exports
// leave the unused side of the credit/debit pair blank.
func parseCents(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	negative := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		negative = true
		raw = raw[1 : len(raw)-1]
	}
	raw = strings.ReplaceAll(raw, "$", "")
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimSpace(raw)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", raw, err)
	}
	cents := d.Shift(2).Round(0).IntPart()
	if negative {
		cents = -cents
	}
	return cents, nil
}

// transactionID derives a stable identifier from the row's content and its
// position in the source, so reprocessing the same file is idempotent.
func transactionID(date time.Time, cents int64, memo string, rowIndex int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%d", date.Format(time.DateOnly), cents, memoKey(memo), rowIndex)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// memoKey is the comparison-friendly memo form used for IDs and duplicate
// detection.
func memoKey(memo string) string {
	return strings.ToLower(strings.TrimSpace(memo))
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
