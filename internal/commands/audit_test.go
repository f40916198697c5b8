package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRangeEndIsInclusive(t *testing.T) {
	t.Parallel()

	from, to, err := auditRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), from)
	// entries anywhere on the --to day fall before this bound
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestAuditRangeOpenEnds(t *testing.T) {
	t.Parallel()

	from, to, err := auditRange("", "")
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())

	from, to, err = auditRange("2024-03-01", "")
	require.NoError(t, err)
	assert.False(t, from.IsZero())
	assert.True(t, to.IsZero())
}

func TestAuditRangeBadDates(t *testing.T) {
	t.Parallel()

	_, _, err := auditRange("03/01/2024", "")
	assert.ErrorContains(t, err, "--from")

	_, _, err = auditRange("", "not-a-date")
	assert.ErrorContains(t, err, "--to")
}
