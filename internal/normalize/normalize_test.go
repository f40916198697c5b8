package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentledger/rentledger/internal/model"
)

func TestRunResolvesMessyHeaders(t *testing.T) {
	t.Parallel()

	src := Source{
		Name:   "chase.csv",
		Header: []string{"Posting Date", "Credit Amount", "Debit Amount", "Desc", "Notes", "Merchant", "Check Number"},
		Rows: [][]string{
			{"2024-03-01", "1200.00", "", "DEPOSIT", "RENT 123 MAIN ST", "", "991"},
			{"03/05/2024", "", "$84.12", "CARD PURCHASE", "HOME DEPOT #1234", "HOME DEPOT", ""},
		},
	}

	res, err := Run(src)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)
	require.Empty(t, res.Unresolved)
	require.Empty(t, res.RowErrors)

	income := res.Transactions[0]
	assert.Equal(t, model.DirectionIncome, income.Direction)
	assert.Equal(t, int64(120000), income.AmountCents)
	assert.Equal(t, "RENT 123 MAIN ST", income.Memo)
	assert.Equal(t, "991", income.SourceRef)
	assert.Equal(t, "2024-03-01", income.Date.Format("2006-01-02"))

	expense := res.Transactions[1]
	assert.Equal(t, model.DirectionExpense, expense.Direction)
	assert.Equal(t, int64(8412), expense.AmountCents)
	assert.Equal(t, "HOME DEPOT", expense.Payee)
	assert.Equal(t, "2024-03-05", expense.Date.Format("2006-01-02"))
}

func TestRunSchemaError(t *testing.T) {
	t.Parallel()

	src := Source{
		Name:   "broken.csv",
		Header: []string{"Description", "Notes"},
		Rows:   [][]string{{"something", "else"}},
	}

	_, err := Run(src)
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "broken.csv", schemaErr.Source)
	assert.Contains(t, schemaErr.Missing, "date")
	assert.Contains(t, schemaErr.Missing, "credit or debit amount")
}

func TestRunUnresolvedRows(t *testing.T) {
	t.Parallel()

	src := Source{
		Name:   "odd.csv",
		Header: []string{"Date", "Credit", "Debit", "Memo"},
		Rows: [][]string{
			{"2024-01-10", "50.00", "50.00", "both sides filled"},
			{"2024-01-11", "", "", "no amount at all"},
			{"2024-01-12", "25.00", "", "fine"},
		},
	}

	res, err := Run(src)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	require.Len(t, res.Unresolved, 2)

	assert.Equal(t, 0, res.Unresolved[0].Row)
	assert.Equal(t, ReasonBothAmounts, res.Unresolved[0].Reason)
	assert.Equal(t, "both sides filled", res.Unresolved[0].Fields["memo"])
	assert.Equal(t, 1, res.Unresolved[1].Row)
	assert.Equal(t, ReasonNoAmount, res.Unresolved[1].Reason)
}

func TestRunRowErrorsDoNotAbortBatch(t *testing.T) {
	t.Parallel()

	src := Source{
		Name:   "partial.csv",
		Header: []string{"Date", "Credit", "Debit", "Memo"},
		Rows: [][]string{
			{"not a date", "10.00", "", "bad date"},
			{"2024-02-01", "ten dollars", "", "bad amount"},
			{"2024-02-02", "10.00", "", "good"},
		},
	}

	res, err := Run(src)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	require.Len(t, res.RowErrors, 2)
	assert.Equal(t, 0, res.RowErrors[0].Row)
	assert.Equal(t, "date", res.RowErrors[0].Field)
	assert.Equal(t, 1, res.RowErrors[1].Row)
	assert.Equal(t, "credit", res.RowErrors[1].Field)
	assert.Equal(t, "good", res.Transactions[0].Memo)
}

func TestRunAmountFormats(t *testing.T) {
	t.Parallel()

	src := Source{
		Name:   "amounts.csv",
		Header: []string{"Date", "Credit", "Debit", "Memo"},
		Rows: [][]string{
			{"2024-04-01", "$1,234.56", "", "currency and thousands"},
			{"2024-04-02", "", "(45.00)", "parenthesized negative"},
			{"2024-04-03", "", "-30.25", "signed negative"},
		},
	}

	res, err := Run(src)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 3)
	assert.Equal(t, int64(123456), res.Transactions[0].AmountCents)
	assert.Equal(t, model.DirectionIncome, res.Transactions[0].Direction)
	// debit magnitude is stored positive regardless of sign convention
	assert.Equal(t, int64(4500), res.Transactions[1].AmountCents)
	assert.Equal(t, model.DirectionExpense, res.Transactions[1].Direction)
	assert.Equal(t, int64(3025), res.Transactions[2].AmountCents)
	assert.Equal(t, model.DirectionExpense, res.Transactions[2].Direction)
}

func TestRunDuplicateWarningNeverDrops(t *testing.T) {
	t.Parallel()

	// Two tenants paying identical rent on the same day are both real.
	src := Source{
		Name:   "dupes.csv",
		Header: []string{"Date", "Credit", "Debit", "Memo"},
		Rows: [][]string{
			{"2024-05-01", "600.00", "", "ZELLE PAYMENT RENT"},
			{"2024-05-01", "600.00", "", "zelle payment rent"},
			{"2024-05-01", "600.00", "", "different memo"},
		},
	}

	res, err := Run(src)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 3)
	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, []int{0, 1}, res.Duplicates[0].Rows)
	assert.Equal(t, int64(60000), res.Duplicates[0].AmountCents)

	// all three kept distinct IDs
	seen := map[string]bool{}
	for _, tx := range res.Transactions {
		assert.False(t, seen[tx.ID], "duplicate id %s", tx.ID)
		seen[tx.ID] = true
	}
}

func TestRunDeterministicIDs(t *testing.T) {
	t.Parallel()

	src := Source{
		Name:   "stable.csv",
		Header: []string{"Date", "Credit", "Debit", "Memo"},
		Rows: [][]string{
			{"2024-06-01", "1500.00", "", "RENT 456 OAK AVE"},
			{"2024-06-02", "", "99.00", "UTILITY BILL"},
		},
	}

	first, err := Run(src)
	require.NoError(t, err)
	second, err := Run(src)
	require.NoError(t, err)

	require.Len(t, first.Transactions, 2)
	for i := range first.Transactions {
		assert.Equal(t, first.Transactions[i].ID, second.Transactions[i].ID)
		assert.Len(t, first.Transactions[i].ID, 16)
	}
}
