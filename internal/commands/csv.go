package commands

// The CSV readers here are the collaborator boundary: they turn files into
// the canonical shapes the engine consumes and do nothing clever beyond
// that.

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rentledger/rentledger/internal/model"
	"github.com/rentledger/rentledger/internal/normalize"
	"github.com/rentledger/rentledger/internal/propmatch"
	"github.com/rentledger/rentledger/internal/service"
)

// readSource loads a raw bank export; the first record is the header.
func readSource(path string) (normalize.Source, error) {
	records, err := readAll(path)
	if err != nil {
		return normalize.Source{}, err
	}
	if len(records) == 0 {
		return normalize.Source{}, fmt.Errorf("%s: empty file", path)
	}
	return normalize.Source{
		Name:   filepath.Base(path),
		Header: records[0],
		Rows:   records[1:],
	}, nil
}

// readBulkEntries parses a bulk-correction file with columns
// transaction_id, field, new_value.
func readBulkEntries(path string) ([]service.BulkEntry, error) {
	records, err := readAll(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	idx, err := headerIndex(records[0], "transaction_id", "field", "new_value")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var out []service.BulkEntry
	for _, rec := range records[1:] {
		out = append(out, service.BulkEntry{
			TransactionID: field(rec, idx["transaction_id"]),
			Field:         model.OverrideField(field(rec, idx["field"])),
			NewValue:      field(rec, idx["new_value"]),
		})
	}
	return out, nil
}

// readDepositMap parses the curated memo+amount property map with columns
// memo, credit_amount, prop_name (property id or display name as stored).
func readDepositMap(path string) ([]service.DepositMapping, error) {
	records, err := readAll(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	idx, err := headerIndex(records[0], "memo", "credit_amount", "prop_name")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var out []service.DepositMapping
	for i, rec := range records[1:] {
		cents, err := parseDollarsToCents(field(rec, idx["credit_amount"]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		out = append(out, service.DepositMapping{
			Memo:        field(rec, idx["memo"]),
			AmountCents: cents,
			PropertyID:  field(rec, idx["prop_name"]),
		})
	}
	return out, nil
}

// readExpectedAmounts parses recurring charges with columns property_id,
// amount.
func readExpectedAmounts(path string) ([]propmatch.ExpectedAmount, error) {
	records, err := readAll(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	idx, err := headerIndex(records[0], "property_id", "amount")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var out []propmatch.ExpectedAmount
	for i, rec := range records[1:] {
		cents, err := parseDollarsToCents(field(rec, idx["amount"]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		out = append(out, propmatch.ExpectedAmount{
			PropertyID:  field(rec, idx["property_id"]),
			AmountCents: cents,
		})
	}
	return out, nil
}

func readAll(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

func headerIndex(header []string, required ...string) (map[string]int, error) {
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

func parseDollarsToCents(raw string) (int64, error) {
	raw = strings.ReplaceAll(strings.ReplaceAll(raw, "$", ""), ",", "")
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", raw, err)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
