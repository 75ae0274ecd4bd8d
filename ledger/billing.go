/*
billing.go - Electricity charge computation

PURPOSE:
  Converts a meter-reading delta into a monetary charge:

    units  = current - previous
    charge = units * multiplier

  The previous reading is the tenant's last billed reading, falling back to
  the reading taken at move-in and finally to zero. The multiplier is the
  tenant's price per unit, 7 when unset.

NEGATIVE CONSUMPTION:
  ComputeCharge is pure arithmetic and returns a negative charge when the
  current reading is below the previous one. Rejecting a meter rollback is
  the caller's job; NewActivity does so before anything is written.
*/
package ledger

import "github.com/shopspring/decimal"

// DefaultElectricityMultiplier is the price per unit when a tenant has none.
var DefaultElectricityMultiplier = decimal.NewFromInt(7)

// ComputeCharge returns (current - previous) * multiplier.
func ComputeCharge(current, previous, multiplier decimal.Decimal) decimal.Decimal {
	return UnitsConsumed(current, previous).Mul(multiplier)
}

func UnitsConsumed(current, previous decimal.Decimal) decimal.Decimal {
	return current.Sub(previous)
}

// PreviousReading resolves the reading a new bill is measured against.
func PreviousReading(t Tenant) decimal.Decimal {
	if t.LastMeterReading.Valid {
		return t.LastMeterReading.Decimal
	}
	if t.StartMonthMeterReading.Valid {
		return t.StartMonthMeterReading.Decimal
	}
	return decimal.Zero
}

// Multiplier resolves the tenant's price per consumption unit.
func Multiplier(t Tenant) decimal.Decimal {
	if t.BaseElectricityMultiplier.Valid {
		return t.BaseElectricityMultiplier.Decimal
	}
	return DefaultElectricityMultiplier
}

// =============================================================================
// BILL BREAKDOWN - Display view of a recorded bill
// =============================================================================

// BillBreakdown is recomputed from the snapshots stored on a bill, so it is
// unaffected by later changes to the tenant's multiplier.
type BillBreakdown struct {
	Previous   decimal.Decimal
	Current    decimal.Decimal
	Units      decimal.Decimal
	Multiplier decimal.Decimal
	BaseAmount decimal.Decimal
	Total      decimal.Decimal // absolute value of the recorded amount
}

// Breakdown returns false for activities that are not electricity bills.
func Breakdown(a Activity) (BillBreakdown, bool) {
	if !a.IsElectricityBill() {
		return BillBreakdown{}, false
	}
	units := UnitsConsumed(a.CurrentMeterReading.Decimal, a.PreviousMeterReading.Decimal)
	return BillBreakdown{
		Previous:   a.PreviousMeterReading.Decimal,
		Current:    a.CurrentMeterReading.Decimal,
		Units:      units,
		Multiplier: a.BaseElectricityMultiplier.Decimal,
		BaseAmount: units.Mul(a.BaseElectricityMultiplier.Decimal),
		Total:      a.SignedAmount().Abs(),
	}, true
}
