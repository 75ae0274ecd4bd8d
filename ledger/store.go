/*
store.go - Persistence interfaces for properties, tenants and activities

PURPOSE:
  Defines the boundary between the ledger logic and the database. Every
  collection is partitioned by owner: reads take the owner id and a record
  belonging to another owner is reported as ErrNotFound, never returned.

KEY INTERFACES:
  PropertyStore:  Property CRUD
  TenantStore:    Tenant CRUD plus the meter-reading setter
  ActivityStore:  Append-only activity log with filtered range queries
  Store:          All three collections
  TxStore:        Store with atomic multi-collection writes

APPEND-ONLY CONTRACT:
  Activities are never updated. The only way they disappear is the
  cascade that deletes a tenant (DeleteTenantActivities).

IMPLEMENTATIONS:
  - ledger/store/memory.go: In-memory for tests and development
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - ledger.go: Higher-level interface over ActivityStore
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// QUERY OPTIONS
// =============================================================================

type ActivityOrder int

const (
	OrderDateAsc ActivityOrder = iota
	OrderDateDesc
	// OrderCreatedDesc orders by creation time, newest first.
	OrderCreatedDesc
)

// ActivityFilter selects activities of one owner. Zero values mean no bound:
// an empty TenantID matches every tenant, zero dates leave the range open and
// a zero Limit returns everything. From and To are inclusive.
type ActivityFilter struct {
	TenantID TenantID
	From     Date
	To       Date
	Order    ActivityOrder
	Limit    int
}

// Matches reports whether a falls inside the filter, ignoring Order and Limit.
func (f ActivityFilter) Matches(a Activity) bool {
	if f.TenantID != "" && a.TenantID != f.TenantID {
		return false
	}
	if !f.From.IsZero() && a.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && a.Date.After(f.To) {
		return false
	}
	return true
}

// =============================================================================
// STORES
// =============================================================================

// PropertyStore persists properties. Insert assigns the id and timestamps
// and returns the stored record.
type PropertyStore interface {
	InsertProperty(ctx context.Context, p Property) (Property, error)
	UpdateProperty(ctx context.Context, p Property) (Property, error)
	DeleteProperty(ctx context.Context, owner OwnerID, id PropertyID) error
	GetProperty(ctx context.Context, owner OwnerID, id PropertyID) (Property, error)
	ListProperties(ctx context.Context, owner OwnerID) ([]Property, error)
}

// TenantStore persists tenants. UpdateTenant leaves LastMeterReading as
// stored; SetLastMeterReading is the only writer of that field.
type TenantStore interface {
	InsertTenant(ctx context.Context, t Tenant) (Tenant, error)
	UpdateTenant(ctx context.Context, t Tenant) (Tenant, error)
	DeleteTenant(ctx context.Context, owner OwnerID, id TenantID) error
	GetTenant(ctx context.Context, owner OwnerID, id TenantID) (Tenant, error)
	ListTenants(ctx context.Context, owner OwnerID) ([]Tenant, error)
	SetLastMeterReading(ctx context.Context, owner OwnerID, id TenantID, reading decimal.Decimal) error
}

// ActivityStore is the append-only activity log.
type ActivityStore interface {
	// InsertActivity assigns the id and CreatedAt and returns the stored
	// activity. A second generated rent charge for the same tenant and
	// period fails with ErrDuplicateRentCharge.
	InsertActivity(ctx context.Context, a Activity) (Activity, error)

	GetActivity(ctx context.Context, owner OwnerID, id ActivityID) (Activity, error)

	ListActivities(ctx context.Context, owner OwnerID, filter ActivityFilter) ([]Activity, error)

	// DeleteTenantActivities removes every activity of the tenant and
	// returns how many were removed. Used only by the tenant cascade.
	DeleteTenantActivities(ctx context.Context, owner OwnerID, tenant TenantID) (int, error)
}

type Store interface {
	PropertyStore
	TenantStore
	ActivityStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// OwnerLister is implemented by stores that can enumerate the owners with
// tenants. Background jobs use it to visit every portfolio.
type OwnerLister interface {
	ListOwners(ctx context.Context) ([]OwnerID, error)
}
