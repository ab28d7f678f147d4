package amortization

import (
	"testing"
	"time"

	"github.com/coopledger/coopledger/internal/apperrors"
	"github.com/coopledger/coopledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeScheduleDiminishing(t *testing.T) {
	first := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	sched, err := ComputeSchedule(d("10000"), d("12"), 12, domain.Diminishing, first)
	require.NoError(t, err)
	require.Len(t, sched.Entries, 12)

	assert.True(t, sched.EMI.Equal(d("888.49")), "EMI = %s", sched.EMI)

	firstEntry := sched.Entries[0]
	assert.Equal(t, 1, firstEntry.Number)
	assert.True(t, firstEntry.Interest.Equal(d("100.00")), "interest = %s", firstEntry.Interest)
	assert.True(t, firstEntry.Principal.Equal(d("788.49")), "principal = %s", firstEntry.Principal)
	assert.Equal(t, first, firstEntry.DueDate)

	principalSum := decimal.Zero
	for i, entry := range sched.Entries {
		assert.Equal(t, i+1, entry.Number)
		assert.Equal(t, first.AddDate(0, i, 0), entry.DueDate)
		assert.True(t, entry.Total.Equal(entry.Principal.Add(entry.Interest)))
		principalSum = principalSum.Add(entry.Principal)
	}
	assert.True(t, principalSum.Equal(d("10000")), "principal sum = %s", principalSum)

	// The outstanding balance shrinks, so interest must strictly decrease.
	for i := 1; i < len(sched.Entries); i++ {
		assert.True(t, sched.Entries[i].Interest.LessThan(sched.Entries[i-1].Interest),
			"interest at %d not decreasing", i+1)
	}
}

func TestComputeScheduleDiminishingZeroRate(t *testing.T) {
	first := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	sched, err := ComputeSchedule(d("1200"), decimal.Zero, 12, domain.Diminishing, first)
	require.NoError(t, err)
	require.Len(t, sched.Entries, 12)

	assert.True(t, sched.EMI.Equal(d("100.00")))
	principalSum := decimal.Zero
	for _, entry := range sched.Entries {
		assert.True(t, entry.Interest.IsZero())
		principalSum = principalSum.Add(entry.Principal)
	}
	assert.True(t, principalSum.Equal(d("1200")))
}

func TestComputeScheduleFlat(t *testing.T) {
	first := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	sched, err := ComputeSchedule(d("12000"), d("10"), 12, domain.Flat, first)
	require.NoError(t, err)
	require.Len(t, sched.Entries, 12)

	// 12000 * 10 / 1200 = 100 interest per month, 1000 principal per month.
	assert.True(t, sched.EMI.Equal(d("1100.00")), "EMI = %s", sched.EMI)

	principalSum := decimal.Zero
	interestSum := decimal.Zero
	for _, entry := range sched.Entries {
		assert.True(t, entry.Interest.Equal(d("100.00")))
		principalSum = principalSum.Add(entry.Principal)
		interestSum = interestSum.Add(entry.Interest)
	}
	assert.True(t, principalSum.Equal(d("12000")))
	assert.True(t, interestSum.Equal(d("1200.00")))
}

func TestComputeScheduleFlatResidueInFinalEntry(t *testing.T) {
	first := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	// 10000 / 7 does not divide evenly at two places.
	sched, err := ComputeSchedule(d("10000"), d("12"), 7, domain.Flat, first)
	require.NoError(t, err)
	require.Len(t, sched.Entries, 7)

	principalSum := decimal.Zero
	for _, entry := range sched.Entries {
		principalSum = principalSum.Add(entry.Principal)
	}
	assert.True(t, principalSum.Equal(d("10000")), "principal sum = %s", principalSum)

	last := sched.Entries[6]
	assert.False(t, last.Principal.Equal(sched.Entries[0].Principal),
		"final entry should absorb the rounding residue")
}

func TestComputeScheduleDiminishingFinalEntryClearsBalance(t *testing.T) {
	first := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	sched, err := ComputeSchedule(d("5000"), d("18.5"), 11, domain.Diminishing, first)
	require.NoError(t, err)

	principalSum := decimal.Zero
	for _, entry := range sched.Entries {
		principalSum = principalSum.Add(entry.Principal)
	}
	assert.True(t, principalSum.Equal(d("5000")), "principal sum = %s", principalSum)
}

func TestComputeScheduleValidation(t *testing.T) {
	first := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name         string
		principal    decimal.Decimal
		rate         decimal.Decimal
		tenure       int
		interestType domain.InterestType
	}{
		{"zero principal", decimal.Zero, d("12"), 12, domain.Flat},
		{"negative principal", d("-100"), d("12"), 12, domain.Flat},
		{"zero tenure", d("1000"), d("12"), 0, domain.Flat},
		{"negative rate", d("1000"), d("-1"), 12, domain.Flat},
		{"invalid interest type", d("1000"), d("12"), 12, domain.InterestType("BALLOON")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeSchedule(tc.principal, tc.rate, tc.tenure, tc.interestType, first)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}
