package ledger_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dwella/rent-engine/ledger"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func day(s string) ledger.Date {
	return ledger.MustParseDate(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !dec(want).Equal(got) {
		assert.Fail(t, fmt.Sprintf("want %s, got %s", want, got), msgAndArgs...)
	}
}

// noon is the reference "now" used by window tests.
var noon = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func activeTenant(id string) ledger.Tenant {
	return ledger.Tenant{
		ID:         ledger.TenantID(id),
		OwnerID:    "owner-1",
		Name:       "Tenant " + id,
		RentAmount: dec("1000"),
		Status:     ledger.TenantActive,
	}
}

func entry(id, tenant string, typ ledger.ActivityType, amount string, date string) ledger.Activity {
	a := ledger.Activity{
		ID:       ledger.ActivityID(id),
		OwnerID:  "owner-1",
		TenantID: ledger.TenantID(tenant),
		Type:     typ,
		Date:     day(date),
	}
	if amount != "" {
		a.Amount = nd(amount)
	}
	return a
}
