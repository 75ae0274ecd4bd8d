package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwella/rent-engine/auth"
	"github.com/dwella/rent-engine/ledger"
	"github.com/dwella/rent-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)
	store.Now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return store
}

func seedTenant(t *testing.T, store *sqlite.Store) ledger.Tenant {
	t.Helper()
	tenant, err := store.InsertTenant(context.Background(), ledger.Tenant{
		OwnerID:                "owner-1",
		PropertyID:             "p1",
		PropertyName:           "Sunrise Apartments",
		Name:                   "Asha",
		Phone:                  "9876543210",
		LeaseStart:             ledger.MustParseDate("2026-01-01"),
		RentAmount:             decimal.RequireFromString("12500.50"),
		Status:                 ledger.TenantActive,
		StartMonthMeterReading: decimal.NewNullDecimal(decimal.NewFromInt(500)),
	})
	require.NoError(t, err)
	return tenant
}

// =============================================================================
// ROUND TRIPS
// =============================================================================

func TestTenant_PersistsDecimalsDatesAndNulls(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, store)

	got, err := store.GetTenant(ctx, "owner-1", tenant.ID)
	require.NoError(t, err)

	assert.Equal(t, "Sunrise Apartments", got.PropertyName)
	assert.True(t, got.RentAmount.Equal(decimal.RequireFromString("12500.5")))
	assert.Equal(t, "2026-01-01", got.LeaseStart.String())
	assert.True(t, got.LeaseEnd.IsZero(), "unset lease end stays unset")
	assert.True(t, got.StartMonthMeterReading.Valid)
	assert.False(t, got.LastMeterReading.Valid, "no bill yet")
	assert.False(t, got.BaseElectricityMultiplier.Valid)
}

func TestTenant_UpdateIgnoresLastMeterReading(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, store)
	require.NoError(t, store.SetLastMeterReading(ctx, "owner-1", tenant.ID, decimal.NewFromInt(520)))

	tenant.Status = ledger.TenantInactive
	tenant.LastMeterReading = decimal.NullDecimal{}
	updated, err := store.UpdateTenant(ctx, tenant)
	require.NoError(t, err)

	assert.Equal(t, ledger.TenantInactive, updated.Status)
	require.True(t, updated.LastMeterReading.Valid)
	assert.True(t, updated.LastMeterReading.Decimal.Equal(decimal.NewFromInt(520)))
}

func TestOwnerScoping(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, store)

	_, err := store.GetTenant(ctx, "owner-2", tenant.ID)
	assert.True(t, ledger.IsNotFound(err))

	err = store.SetLastMeterReading(ctx, "owner-2", tenant.ID, decimal.NewFromInt(1))
	assert.True(t, ledger.IsNotFound(err))

	p, err := store.InsertProperty(ctx, ledger.Property{OwnerID: "owner-1", Name: "Sunrise", Units: 4, Status: ledger.PropertyActive})
	require.NoError(t, err)
	p.OwnerID = "owner-2"
	p.Name = "Hijacked"
	_, err = store.UpdateProperty(ctx, p)
	assert.True(t, ledger.IsNotFound(err))
}

// =============================================================================
// ACTIVITIES
// =============================================================================

func TestActivity_RoundTripAndOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, store)

	bill, err := ledger.NewActivity(tenant, ledger.ActivityInput{
		Type:                ledger.ActivityElectricityBill,
		Description:         "September",
		Date:                ledger.MustParseDate("2026-09-30"),
		CurrentMeterReading: decimal.NewNullDecimal(decimal.NewFromInt(520)),
	})
	require.NoError(t, err)
	stored, err := store.InsertActivity(ctx, bill)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	notice, err := ledger.NewActivity(tenant, ledger.ActivityInput{
		Type: ledger.ActivityNotice,
		Date: ledger.MustParseDate("2026-10-02"),
	})
	require.NoError(t, err)
	_, err = store.InsertActivity(ctx, notice)
	require.NoError(t, err)

	activities, err := store.ListActivities(ctx, "owner-1", ledger.ActivityFilter{TenantID: tenant.ID})
	require.NoError(t, err)
	require.Len(t, activities, 2)

	got := activities[0]
	assert.Equal(t, ledger.ActivityElectricityBill, got.Type)
	assert.True(t, got.Amount.Decimal.Equal(decimal.NewFromInt(-140)))
	assert.True(t, got.PreviousMeterReading.Decimal.Equal(decimal.NewFromInt(500)))
	assert.True(t, got.BaseElectricityMultiplier.Decimal.Equal(decimal.NewFromInt(7)))
	assert.False(t, activities[1].Amount.Valid, "notice has no amount")

	newest, err := store.ListActivities(ctx, "owner-1", ledger.ActivityFilter{
		From:  ledger.MustParseDate("2026-10-01"),
		Order: ledger.OrderCreatedDesc,
		Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, newest, 1)
	assert.Equal(t, ledger.ActivityNotice, newest[0].Type)
}

func TestActivity_UniqueRentPeriod(t *testing.T) {
	// GIVEN: October rent stored
	store := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, store)
	charge := ledger.EnsureMonthlyRent(tenant, nil, ledger.MustParseDate("2026-10-15"))
	require.NotNil(t, charge)
	_, err := store.InsertActivity(ctx, *charge)
	require.NoError(t, err)

	// WHEN: Inserting another October charge, as a racing reconcile would
	_, err = store.InsertActivity(ctx, *charge)

	// THEN: The unique index rejects it
	assert.ErrorIs(t, err, ledger.ErrDuplicateRentCharge)

	// AND: November is still allowed
	november := ledger.EnsureMonthlyRent(tenant, nil, ledger.MustParseDate("2026-11-01"))
	_, err = store.InsertActivity(ctx, *november)
	assert.NoError(t, err)
}

func TestDeleteTenantActivities(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, store)
	other := seedTenant(t, store)

	for _, tn := range []ledger.Tenant{tenant, tenant, other} {
		a, err := ledger.NewActivity(tn, ledger.ActivityInput{
			Type:   ledger.ActivityPayment,
			Date:   ledger.MustParseDate("2026-10-01"),
			Amount: decimal.NewNullDecimal(decimal.NewFromInt(100)),
		})
		require.NoError(t, err)
		_, err = store.InsertActivity(ctx, a)
		require.NoError(t, err)
	}

	n, err := store.DeleteTenantActivities(ctx, "owner-1", tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := store.ListActivities(ctx, "owner-1", ledger.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, other.ID, left[0].TenantID)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollsBackBillAndReading(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, store)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx ledger.Store) error {
		bill, err := ledger.NewActivity(tenant, ledger.ActivityInput{
			Type:                ledger.ActivityElectricityBill,
			Date:                ledger.MustParseDate("2026-10-01"),
			CurrentMeterReading: decimal.NewNullDecimal(decimal.NewFromInt(520)),
		})
		if err != nil {
			return err
		}
		if _, err := tx.InsertActivity(ctx, bill); err != nil {
			return err
		}
		if err := tx.SetLastMeterReading(ctx, "owner-1", tenant.ID, decimal.NewFromInt(520)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	activities, err := store.ListActivities(ctx, "owner-1", ledger.ActivityFilter{TenantID: tenant.ID})
	require.NoError(t, err)
	assert.Empty(t, activities)
	got, err := store.GetTenant(ctx, "owner-1", tenant.ID)
	require.NoError(t, err)
	assert.False(t, got.LastMeterReading.Valid)
}

// =============================================================================
// USERS
// =============================================================================

func TestUsers_EmailUniqueIgnoringCase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, auth.User{Email: "Owner@Example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, auth.User{Email: "owner@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, auth.ErrEmailInUse)

	byEmail, err := store.GetUserByEmail(ctx, "OWNER@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}
