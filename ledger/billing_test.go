package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwella/rent-engine/ledger"
)

func TestComputeCharge(t *testing.T) {
	cases := []struct {
		name                          string
		current, previous, multiplier string
		want                          string
	}{
		{"consumption", "110", "100", "7", "70"},
		{"no consumption", "100", "100", "7", "0"},
		{"negative consumption is not rejected", "90", "100", "7", "-70"},
		{"fractional multiplier", "105.5", "100", "8.25", "45.375"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ledger.ComputeCharge(dec(tc.current), dec(tc.previous), dec(tc.multiplier))
			assertDecimal(t, tc.want, got)
		})
	}
}

func TestPreviousReading_Fallbacks(t *testing.T) {
	tenant := activeTenant("t1")
	assertDecimal(t, "0", ledger.PreviousReading(tenant), "no readings at all")

	tenant.StartMonthMeterReading = nd("500")
	assertDecimal(t, "500", ledger.PreviousReading(tenant), "start reading before first bill")

	tenant.LastMeterReading = nd("520")
	assertDecimal(t, "520", ledger.PreviousReading(tenant), "last reading wins")

	// A last reading of zero is still a reading.
	tenant.LastMeterReading = nd("0")
	assertDecimal(t, "0", ledger.PreviousReading(tenant))
}

func TestMultiplier_DefaultsToSeven(t *testing.T) {
	tenant := activeTenant("t1")
	assertDecimal(t, "7", ledger.Multiplier(tenant))

	tenant.BaseElectricityMultiplier = nd("9.5")
	assertDecimal(t, "9.5", ledger.Multiplier(tenant))
}

func TestBreakdown_UsesSnapshots(t *testing.T) {
	// GIVEN: A bill recorded at multiplier 7
	tenant := activeTenant("t1")
	tenant.StartMonthMeterReading = nd("500")
	bill, err := ledger.NewActivity(tenant, ledger.ActivityInput{
		Type:                ledger.ActivityElectricityBill,
		Description:         "October",
		Date:                day("2026-10-01"),
		CurrentMeterReading: nd("520"),
	})
	require.NoError(t, err)

	// WHEN: The tenant's multiplier changes afterwards
	tenant.BaseElectricityMultiplier = nd("10")

	// THEN: The breakdown still reflects the recorded bill
	b, ok := ledger.Breakdown(bill)
	require.True(t, ok)
	assertDecimal(t, "500", b.Previous)
	assertDecimal(t, "520", b.Current)
	assertDecimal(t, "20", b.Units)
	assertDecimal(t, "7", b.Multiplier)
	assertDecimal(t, "140", b.BaseAmount)
	assertDecimal(t, "140", b.Total)

	_, ok = ledger.Breakdown(entry("p1", "t1", ledger.ActivityPayment, "10", "2026-10-01"))
	assert.False(t, ok, "payments have no breakdown")
}
