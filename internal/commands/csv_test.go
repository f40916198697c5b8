package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentledger/rentledger/internal/model"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestReadSource(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "export.csv",
		"Date,Credit,Debit,Memo\n2024-03-01,1200.00,,RENT 123 MAIN ST\n")

	src, err := readSource(path)
	require.NoError(t, err)
	assert.Equal(t, "export.csv", src.Name)
	assert.Equal(t, []string{"Date", "Credit", "Debit", "Memo"}, src.Header)
	require.Len(t, src.Rows, 1)
	assert.Equal(t, "RENT 123 MAIN ST", src.Rows[0][3])
}

func TestReadBulkEntries(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "corrections.csv",
		"transaction_id,field,new_value\nabc123,category,repairs\ndef456,property,p1\n")

	entries, err := readBulkEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "abc123", entries[0].TransactionID)
	assert.Equal(t, model.FieldCategory, entries[0].Field)
	assert.Equal(t, "repairs", entries[0].NewValue)
	assert.Equal(t, model.FieldProperty, entries[1].Field)
}

func TestReadBulkEntriesMissingColumn(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "bad.csv", "transaction_id,new_value\nabc,repairs\n")

	_, err := readBulkEntries(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns: field")
}

func TestReadDepositMap(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "deposits.csv",
		"memo,credit_amount,prop_name\nACH DEPOSIT 0042,\"$1,200.00\",p1\n")

	mappings, err := readDepositMap(path)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "ACH DEPOSIT 0042", mappings[0].Memo)
	assert.Equal(t, int64(120000), mappings[0].AmountCents)
	assert.Equal(t, "p1", mappings[0].PropertyID)
}

func TestReadExpectedAmounts(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "expected.csv",
		"property_id,amount\np1,1200.00\np2,850\n")

	expected, err := readExpectedAmounts(path)
	require.NoError(t, err)
	require.Len(t, expected, 2)
	assert.Equal(t, int64(120000), expected[0].AmountCents)
	assert.Equal(t, int64(85000), expected[1].AmountCents)
}
