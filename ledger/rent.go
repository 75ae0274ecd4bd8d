/*
rent.go - Monthly rent generation

PURPOSE:
  Ensures an Active tenant has exactly one rent charge per calendar month.
  This is lazy backfill: it runs when a landlord opens a tenant, not on a
  schedule, and only ever looks at the month of the given date.

DETECTION:
  A month already has rent when any activity carries the structured marker
  (GeneratedKind == auto_rent with the same RentPeriod), or, for entries
  recorded before the marker existed, when an Expense whose description
  contains "Monthly Rent" is dated in that month. New charges always carry
  the marker, so renaming the description cannot break idempotence.

CONCURRENCY:
  Two reconciles racing on the same tenant can both see "no rent". Stores
  that can enforce uniqueness on (tenant, rent period) reject the second
  insert with ErrDuplicateRentCharge.
*/
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RentToken is the description fragment that identifies legacy rent charges.
const RentToken = "Monthly Rent"

// RentDescription returns e.g. "Monthly Rent for October 2026".
func RentDescription(d Date) string {
	return fmt.Sprintf("%s for %s %d", RentToken, d.Month(), d.Year())
}

// IsRentChargeFor reports whether a records the rent of the month of period.
func IsRentChargeFor(a Activity, period Date) bool {
	if a.GeneratedKind == GeneratedAutoRent {
		return a.RentPeriod == period.MonthKey()
	}
	return a.Type == ActivityExpense &&
		strings.Contains(a.Description, RentToken) &&
		a.Date.SameMonth(period)
}

// EnsureMonthlyRent returns the rent charge to append for the month of asOf,
// or nil when the tenant is not Active or the month is already charged.
// existing must hold the activities of this tenant only.
func EnsureMonthlyRent(tenant Tenant, existing []Activity, asOf Date) *Activity {
	if !tenant.ParticipatesInRent() {
		return nil
	}
	for _, a := range existing {
		if IsRentChargeFor(a, asOf) {
			return nil
		}
	}
	return &Activity{
		OwnerID:       tenant.OwnerID,
		TenantID:      tenant.ID,
		Type:          ActivityExpense,
		Description:   RentDescription(asOf),
		Amount:        decimal.NewNullDecimal(tenant.RentAmount.Neg()),
		Date:          asOf,
		GeneratedKind: GeneratedAutoRent,
		RentPeriod:    asOf.MonthKey(),
	}
}
