package ledger_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwella/rent-engine/ledger"
)

// =============================================================================
// TENANT BALANCE
// =============================================================================

func TestTenantBalance_OrderIndependent(t *testing.T) {
	activities := []ledger.Activity{
		entry("a1", "t1", ledger.ActivityExpense, "-1000", "2026-10-01"),
		entry("a2", "t1", ledger.ActivityPayment, "600", "2026-10-05"),
		entry("a3", "t1", ledger.ActivityElectricityBill, "-140", "2026-10-06"),
		entry("a4", "t1", ledger.ActivityNotice, "", "2026-10-07"),
	}

	// Every ordering of the four entries replays to the same balance.
	for _, order := range permutations(len(activities)) {
		shuffled := make([]ledger.Activity, 0, len(order))
		for _, i := range order {
			shuffled = append(shuffled, activities[i])
		}
		assertDecimal(t, "-540", ledger.TenantBalance(shuffled), "order %v", order)
	}
	assertDecimal(t, "0", ledger.TenantBalance(nil))
}

// permutations returns every ordering of 0..n-1.
func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for pos := 0; pos <= len(p); pos++ {
			next := make([]int, 0, n)
			next = append(next, p[:pos]...)
			next = append(next, n-1)
			next = append(next, p[pos:]...)
			out = append(out, next)
		}
	}
	return out
}

func TestTenantBalances_PerTenant(t *testing.T) {
	balances := ledger.TenantBalances([]ledger.Activity{
		entry("a1", "t1", ledger.ActivityExpense, "-1000", "2026-10-01"),
		entry("a2", "t2", ledger.ActivityPayment, "50", "2026-10-01"),
		entry("a3", "t1", ledger.ActivityPayment, "400", "2026-10-02"),
	})
	assertDecimal(t, "-600", balances["t1"])
	assertDecimal(t, "50", balances["t2"])
}

// =============================================================================
// PORTFOLIO AMOUNT OWED
// =============================================================================

func TestPortfolioAmountOwed_ActiveTenantsInWindowOnly(t *testing.T) {
	// GIVEN: One Active tenant owing, one Inactive tenant owing, one in credit
	inactive := activeTenant("t2")
	inactive.Status = ledger.TenantInactive
	tenants := []ledger.Tenant{activeTenant("t1"), inactive, activeTenant("t3")}

	activities := []ledger.Activity{
		entry("a1", "t1", ledger.ActivityExpense, "-1000", "2026-10-01"),
		entry("a2", "t1", ledger.ActivityPayment, "300", "2026-10-03"),
		// older than six months: excluded even though it is unpaid
		entry("a3", "t1", ledger.ActivityExpense, "-5000", "2026-04-14"),
		entry("a4", "t2", ledger.ActivityExpense, "-2000", "2026-10-01"),
		entry("a5", "t3", ledger.ActivityPayment, "900", "2026-10-01"),
	}

	// WHEN: Computing the amount owed as of 2026-10-15
	owed := ledger.PortfolioAmountOwed(tenants, activities, noon, ledger.DefaultOwedWindowMonths)

	// THEN: Only t1's windowed debt counts
	assertDecimal(t, "700", owed)
}

func TestPortfolioAmountOwed_WindowStartInclusive(t *testing.T) {
	tenants := []ledger.Tenant{activeTenant("t1")}
	activities := []ledger.Activity{
		entry("a1", "t1", ledger.ActivityExpense, "-100", "2026-04-15"),
	}
	owed := ledger.PortfolioAmountOwed(tenants, activities, noon, 6)
	assertDecimal(t, "100", owed)
}

func TestPortfolioAmountOwed_NoTenants(t *testing.T) {
	owed := ledger.PortfolioAmountOwed(nil, []ledger.Activity{
		entry("a1", "t1", ledger.ActivityExpense, "-100", "2026-10-01"),
	}, noon, 6)
	assertDecimal(t, "0", owed)
}

// =============================================================================
// RECENT ACTIVITY FEED
// =============================================================================

func TestRecentActivityFeed_LimitWindowAndOrder(t *testing.T) {
	// GIVEN: 12 activities in the window and one outside
	var activities []ledger.Activity
	base := time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		a := entry(string(rune('a'+i)), "t1", ledger.ActivityPayment, "10", "2026-10-01")
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		activities = append(activities, a)
	}
	old := entry("old", "t1", ledger.ActivityPayment, "10", "2026-01-01")
	old.CreatedAt = base.Add(48 * time.Hour) // created recently, dated long ago
	activities = append(activities, old)

	// WHEN: Building the feed
	feed := ledger.RecentActivityFeed(activities, noon, ledger.DefaultFeedLimit, ledger.DefaultOwedWindowMonths)

	// THEN: 10 entries, newest first, nothing outside the window
	require.Len(t, feed, 10)
	assert.Equal(t, ledger.ActivityID("l"), feed[0].ID)
	for i := 1; i < len(feed); i++ {
		assert.False(t, feed[i].OrderTime().After(feed[i-1].OrderTime()), "feed must be newest first")
	}
	for _, a := range feed {
		assert.NotEqual(t, ledger.ActivityID("old"), a.ID)
	}
	assert.Equal(t, ledger.ActivityID("a"), activities[0].ID, "input slice is not reordered")
}

func TestRecentActivityFeed_Sizes(t *testing.T) {
	limit := ledger.DefaultFeedLimit
	base := time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)

	for _, size := range []int{0, 1, limit - 1, limit, limit + 1, 100} {
		t.Run(fmt.Sprintf("%d activities", size), func(t *testing.T) {
			// GIVEN: size activities in the window, created an hour apart
			activities := make([]ledger.Activity, 0, size)
			for i := 0; i < size; i++ {
				a := entry(fmt.Sprintf("a%03d", i), "t1", ledger.ActivityPayment, "10", "2026-10-01")
				a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
				activities = append(activities, a)
			}

			// WHEN: Building the feed
			feed := ledger.RecentActivityFeed(activities, noon, limit, ledger.DefaultOwedWindowMonths)

			// THEN: min(size, limit) entries, the newest ones, newest first
			require.Len(t, feed, min(size, limit))
			for i, a := range feed {
				assert.Equal(t, activities[size-1-i].ID, a.ID)
			}
		})
	}
}

func TestRecentActivityFeed_NegativeLimitIsEmpty(t *testing.T) {
	activities := []ledger.Activity{entry("a", "t1", ledger.ActivityPayment, "1", "2026-10-02")}
	assert.Empty(t, ledger.RecentActivityFeed(activities, noon, -1, 6))
}

func TestRecentActivityFeed_FallsBackToDateAndBreaksTiesByID(t *testing.T) {
	// GIVEN: Activities without creation times, two on the same date
	activities := []ledger.Activity{
		entry("b", "t1", ledger.ActivityPayment, "1", "2026-10-02"),
		entry("c", "t1", ledger.ActivityPayment, "1", "2026-10-03"),
		entry("a", "t1", ledger.ActivityPayment, "1", "2026-10-02"),
	}

	feed := ledger.RecentActivityFeed(activities, noon, 10, 6)

	ids := []ledger.ActivityID{feed[0].ID, feed[1].ID, feed[2].ID}
	assert.Equal(t, []ledger.ActivityID{"c", "a", "b"}, ids)
}

// =============================================================================
// TENANT LIST ORDERING
// =============================================================================

func TestSortTenants(t *testing.T) {
	alice := activeTenant("t1")
	alice.Name = "alice"
	bob := activeTenant("t2")
	bob.Name = "Bob"
	bob.Status = ledger.TenantPending
	carol := activeTenant("t3")
	carol.Name = "Carol"
	carol.Status = ledger.TenantInactive

	balances := map[ledger.TenantID]decimal.Decimal{
		"t1": dec("-500"),
		"t2": dec("100"),
		"t3": dec("-50"),
	}

	names := func(ts []ledger.Tenant) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.Name)
		}
		return out
	}

	tenants := []ledger.Tenant{carol, alice, bob}
	ledger.SortTenants(tenants, nil, ledger.SortByName, false)
	assert.Equal(t, []string{"alice", "Bob", "Carol"}, names(tenants))

	ledger.SortTenants(tenants, balances, ledger.SortByBalance, true)
	assert.Equal(t, []string{"Bob", "Carol", "alice"}, names(tenants))

	ledger.SortTenants(tenants, nil, ledger.SortByStatus, false)
	assert.Equal(t, []string{"alice", "Carol", "Bob"}, names(tenants))
}

func TestFilterTenants(t *testing.T) {
	asha := activeTenant("t1")
	asha.Name = "Asha Rao"
	asha.Email = "asha@example.com"
	ravi := activeTenant("t2")
	ravi.Name = "Ravi"
	ravi.Phone = "98765 43210"
	ravi.PropertyName = "Lake View"
	tenants := []ledger.Tenant{asha, ravi}

	ids := func(ts []ledger.Tenant) []ledger.TenantID {
		out := []ledger.TenantID{}
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}

	tests := []struct {
		search string
		want   []ledger.TenantID
	}{
		{"", []ledger.TenantID{"t1", "t2"}},
		{"  ", []ledger.TenantID{"t1", "t2"}},
		{"ASHA", []ledger.TenantID{"t1"}},
		{"Example.COM", []ledger.TenantID{"t1"}},
		{"43210", []ledger.TenantID{"t2"}},
		{"lake", []ledger.TenantID{"t2"}},
		{"a", []ledger.TenantID{"t1", "t2"}},
		{"nobody", []ledger.TenantID{}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ledger.FilterTenants(tenants, tt.search)))
		})
	}
}
