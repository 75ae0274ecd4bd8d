/*
balance.go - Balances and portfolio aggregates

PURPOSE:
  Folds already-fetched activities into the figures the landlord sees:

  TenantBalance:        sum of every amount of one tenant, no time window
  PortfolioAmountOwed:  what Active tenants owe over a trailing window
  RecentActivityFeed:   newest activities in the window, truncated

  All functions are pure. They never fail; malformed input is rejected
  before activities reach the ledger.

WINDOWS:
  A window of N months includes every activity dated on or after the
  calendar date N months before now (see WindowStart).

ORDERING:
  The feed orders by creation time when the store assigned one, else by
  the effective date. Equal instants fall back to the activity id, so
  repeated calls on the same input return the same order.
*/
package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultOwedWindowMonths = 6
	DefaultFeedLimit        = 10
)

// TenantBalance sums the signed amounts. The result is independent of order.
func TenantBalance(activities []Activity) decimal.Decimal {
	total := decimal.Zero
	for _, a := range activities {
		total = total.Add(a.SignedAmount())
	}
	return total
}

// TenantBalances sums activities per tenant.
func TenantBalances(activities []Activity) map[TenantID]decimal.Decimal {
	balances := make(map[TenantID]decimal.Decimal)
	for _, a := range activities {
		balances[a.TenantID] = balances[a.TenantID].Add(a.SignedAmount())
	}
	return balances
}

// InWindow keeps activities dated on or after the window start.
func InWindow(activities []Activity, now time.Time, months int) []Activity {
	start := WindowStart(now, months)
	var result []Activity
	for _, a := range activities {
		if a.Date.AfterOrEqual(start) {
			result = append(result, a)
		}
	}
	return result
}

// PortfolioAmountOwed returns the total owed by Active tenants, counting only
// activities inside the window. Each tenant contributes the absolute value of
// a negative windowed balance and nothing otherwise. Inactive and Pending
// tenants are left out even when they owe.
func PortfolioAmountOwed(tenants []Tenant, activities []Activity, now time.Time, windowMonths int) decimal.Decimal {
	balances := TenantBalances(InWindow(activities, now, windowMonths))

	total := decimal.Zero
	for _, t := range tenants {
		if !t.IsActive() {
			continue
		}
		if b := balances[t.ID]; b.IsNegative() {
			total = total.Add(b.Abs())
		}
	}
	return total
}

// RecentActivityFeed returns at most limit activities from the window, newest
// first. A negative limit is treated as zero. The input slice is not modified.
func RecentActivityFeed(activities []Activity, now time.Time, limit, windowMonths int) []Activity {
	feed := InWindow(activities, now, windowMonths)
	SortByRecency(feed)
	limit = max(limit, 0)
	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}

// SortByRecency orders newest first, ties broken by id.
func SortByRecency(activities []Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		ti, tj := activities[i].OrderTime(), activities[j].OrderTime()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return activities[i].ID < activities[j].ID
	})
}

// =============================================================================
// TENANT LIST ORDERING
// =============================================================================

type TenantSort string

const (
	SortByName    TenantSort = "name"
	SortByBalance TenantSort = "balance"
	SortByStatus  TenantSort = "status"
)

// FilterTenants keeps the tenants whose name, email, phone or property name
// contains search, ignoring case. An empty search keeps every tenant.
func FilterTenants(tenants []Tenant, search string) []Tenant {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return tenants
	}
	matched := make([]Tenant, 0, len(tenants))
	for _, t := range tenants {
		for _, field := range []string{t.Name, t.Email, t.Phone, t.PropertyName} {
			if strings.Contains(strings.ToLower(field), term) {
				matched = append(matched, t)
				break
			}
		}
	}
	return matched
}

// SortTenants orders tenants for the tenant list. Unknown keys keep the input
// order. balances may be nil when sorting by name or status.
func SortTenants(tenants []Tenant, balances map[TenantID]decimal.Decimal, by TenantSort, desc bool) {
	less := func(a, b Tenant) int {
		switch by {
		case SortByName:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortByBalance:
			return balances[a.ID].Cmp(balances[b.ID])
		case SortByStatus:
			return strings.Compare(string(a.Status), string(b.Status))
		}
		return 0
	}
	sort.SliceStable(tenants, func(i, j int) bool {
		c := less(tenants[i], tenants[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}
