package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwella/rent-engine/ledger"
	"github.com/dwella/rent-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// steppingClock advances one minute per call so inserts have distinct times.
func steppingClock() func() time.Time {
	now := time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func newTestMemory() *store.TxMemory {
	m := store.NewTxMemory()
	m.Now = steppingClock()
	return m
}

func seedTenant(t *testing.T, s ledger.Store, owner ledger.OwnerID) ledger.Tenant {
	t.Helper()
	tenant, err := s.InsertTenant(context.Background(), ledger.Tenant{
		OwnerID:    owner,
		Name:       "Asha",
		RentAmount: decimal.NewFromInt(1000),
		Status:     ledger.TenantActive,
	})
	require.NoError(t, err)
	return tenant
}

func payment(owner ledger.OwnerID, tenant ledger.TenantID, date string) ledger.Activity {
	return ledger.Activity{
		OwnerID:  owner,
		TenantID: tenant,
		Type:     ledger.ActivityPayment,
		Amount:   decimal.NewNullDecimal(decimal.NewFromInt(100)),
		Date:     ledger.MustParseDate(date),
	}
}

// =============================================================================
// OWNERSHIP
// =============================================================================

func TestMemory_RecordsOfOtherOwnersAreNotFound(t *testing.T) {
	// GIVEN: A tenant of owner-1
	m := newTestMemory()
	ctx := context.Background()
	tenant := seedTenant(t, m, "owner-1")

	// WHEN: owner-2 reads it
	_, err := m.GetTenant(ctx, "owner-2", tenant.ID)

	// THEN: It does not exist for them
	assert.True(t, ledger.IsNotFound(err))
	tenants, err := m.ListTenants(ctx, "owner-2")
	require.NoError(t, err)
	assert.Empty(t, tenants)

	err = m.DeleteTenant(ctx, "owner-2", tenant.ID)
	assert.True(t, ledger.IsNotFound(err))
}

func TestMemory_InsertAssignsIDsAndTimestamps(t *testing.T) {
	m := newTestMemory()
	ctx := context.Background()

	p, err := m.InsertProperty(ctx, ledger.Property{OwnerID: "owner-1", Name: "Sunrise", Status: ledger.PropertyActive})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	tenant := seedTenant(t, m, "owner-1")
	a, err := m.InsertActivity(ctx, payment("owner-1", tenant.ID, "2026-10-01"))
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := m.GetActivity(ctx, "owner-1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

// =============================================================================
// TENANT METER READING
// =============================================================================

func TestMemory_UpdateTenantKeepsLastMeterReading(t *testing.T) {
	// GIVEN: A tenant with a recorded reading of 520
	m := newTestMemory()
	ctx := context.Background()
	tenant := seedTenant(t, m, "owner-1")
	require.NoError(t, m.SetLastMeterReading(ctx, "owner-1", tenant.ID, decimal.NewFromInt(520)))

	// WHEN: An edit arrives carrying a different reading
	tenant.Name = "Asha K"
	tenant.LastMeterReading = decimal.NewNullDecimal(decimal.NewFromInt(1))
	updated, err := m.UpdateTenant(ctx, tenant)
	require.NoError(t, err)

	// THEN: The name changes, the reading does not
	assert.Equal(t, "Asha K", updated.Name)
	assert.True(t, updated.LastMeterReading.Decimal.Equal(decimal.NewFromInt(520)))
}

// =============================================================================
// ACTIVITIES
// =============================================================================

func TestMemory_ListActivities_FilterOrderLimit(t *testing.T) {
	m := newTestMemory()
	ctx := context.Background()
	t1 := seedTenant(t, m, "owner-1")
	t2 := seedTenant(t, m, "owner-1")

	for _, date := range []string{"2026-10-05", "2026-09-01", "2026-10-01"} {
		_, err := m.InsertActivity(ctx, payment("owner-1", t1.ID, date))
		require.NoError(t, err)
	}
	_, err := m.InsertActivity(ctx, payment("owner-1", t2.ID, "2026-10-02"))
	require.NoError(t, err)

	asc, err := m.ListActivities(ctx, "owner-1", ledger.ActivityFilter{TenantID: t1.ID})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, "2026-09-01", asc[0].Date.String())
	assert.Equal(t, "2026-10-05", asc[2].Date.String())

	windowed, err := m.ListActivities(ctx, "owner-1", ledger.ActivityFilter{
		From:  ledger.MustParseDate("2026-10-01"),
		Order: ledger.OrderDateDesc,
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, windowed, 2)
	assert.Equal(t, "2026-10-05", windowed[0].Date.String())
	assert.Equal(t, "2026-10-02", windowed[1].Date.String())

	newest, err := m.ListActivities(ctx, "owner-1", ledger.ActivityFilter{Order: ledger.OrderCreatedDesc, Limit: 1})
	require.NoError(t, err)
	require.Len(t, newest, 1)
	assert.Equal(t, t2.ID, newest[0].TenantID, "last inserted comes first")
}

func TestMemory_DuplicateRentChargeRejected(t *testing.T) {
	// GIVEN: October rent already generated
	m := newTestMemory()
	ctx := context.Background()
	tenant := seedTenant(t, m, "owner-1")
	charge := ledger.EnsureMonthlyRent(tenant, nil, ledger.MustParseDate("2026-10-01"))
	require.NotNil(t, charge)
	_, err := m.InsertActivity(ctx, *charge)
	require.NoError(t, err)

	// WHEN: A racing reconcile inserts October rent again
	_, err = m.InsertActivity(ctx, *charge)

	// THEN: The store rejects it
	assert.ErrorIs(t, err, ledger.ErrDuplicateRentCharge)

	// AND: After the cascade the period is free again
	n, err := m.DeleteTenantActivities(ctx, "owner-1", tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = m.InsertActivity(ctx, *charge)
	assert.NoError(t, err)
}

func TestLedger_AppendRejectsLegacyRentDuplicate(t *testing.T) {
	// GIVEN: A legacy rent expense with no marker
	m := newTestMemory()
	ctx := context.Background()
	tenant := seedTenant(t, m, "owner-1")
	legacy := payment("owner-1", tenant.ID, "2026-10-01")
	legacy.Type = ledger.ActivityExpense
	legacy.Amount = decimal.NewNullDecimal(decimal.NewFromInt(-1000))
	legacy.Description = "Monthly Rent for October 2026"
	_, err := m.InsertActivity(ctx, legacy)
	require.NoError(t, err)

	// WHEN: Appending a generated charge for the same month
	l := ledger.NewLedger(m)
	charge := ledger.EnsureMonthlyRent(tenant, nil, ledger.MustParseDate("2026-10-20"))
	_, err = l.Append(ctx, *charge)

	// THEN: The ledger refuses it and the balance is unchanged
	assert.ErrorIs(t, err, ledger.ErrDuplicateRentCharge)
	stored, err := m.ListActivities(ctx, "owner-1", ledger.ActivityFilter{TenantID: tenant.ID})
	require.NoError(t, err)
	assert.True(t, ledger.TenantBalance(stored).Equal(decimal.NewFromInt(-1000)))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestTxMemory_RollbackOnError(t *testing.T) {
	// GIVEN: A tenant with no activities
	m := newTestMemory()
	ctx := context.Background()
	tenant := seedTenant(t, m, "owner-1")

	// WHEN: A transaction writes a bill and a reading, then fails
	boom := errors.New("boom")
	err := m.WithTx(ctx, func(tx ledger.Store) error {
		bill := payment("owner-1", tenant.ID, "2026-10-01")
		if _, err := tx.InsertActivity(ctx, bill); err != nil {
			return err
		}
		if err := tx.SetLastMeterReading(ctx, "owner-1", tenant.ID, decimal.NewFromInt(520)); err != nil {
			return err
		}
		return boom
	})

	// THEN: Neither write is visible
	assert.ErrorIs(t, err, boom)
	activities, err := m.ListActivities(ctx, "owner-1", ledger.ActivityFilter{TenantID: tenant.ID})
	require.NoError(t, err)
	assert.Empty(t, activities)
	got, err := m.GetTenant(ctx, "owner-1", tenant.ID)
	require.NoError(t, err)
	assert.False(t, got.LastMeterReading.Valid)
}

func TestTxMemory_CommitOnSuccess(t *testing.T) {
	m := newTestMemory()
	ctx := context.Background()
	tenant := seedTenant(t, m, "owner-1")

	err := m.WithTx(ctx, func(tx ledger.Store) error {
		return tx.SetLastMeterReading(ctx, "owner-1", tenant.ID, decimal.NewFromInt(520))
	})
	require.NoError(t, err)

	got, err := m.GetTenant(ctx, "owner-1", tenant.ID)
	require.NoError(t, err)
	assert.True(t, got.LastMeterReading.Decimal.Equal(decimal.NewFromInt(520)))
}
