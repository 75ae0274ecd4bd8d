/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements ledger.TxStore (properties, tenants, activities) and
  auth.UserStore (landlord accounts) on one SQLite database.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the activities table
  - The only DELETE on activities is the tenant cascade

KEY TABLES:
  users:       Landlord accounts
  properties:  Buildings, partitioned by owner_id
  tenants:     Tenants with their meter-reading state
  activities:  Immutable per-tenant ledger

INDEXES:
  - idx_activities_owner_date: Dashboard window queries (hot path)
  - idx_activities_tenant_date: Tenant ledger view
  - idx_unique_rent_period: At most one generated rent charge per
    tenant and month, the backstop for racing reconciles

ENCODING:
  Money and meter readings are stored as decimal TEXT, never REAL.
  Dates are YYYY-MM-DD and timestamps fixed-width UTC, so both sort
  correctly as text.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite allows a single writer;
  WithTx holds the write lock for the whole transaction.

USAGE:
  store, err := sqlite.New("./dwella.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/dwella/rent-engine/ledger"
)

// timestampLayout is fixed width so that text order matches time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	// Now stamps created_at and updated_at.
	Now func() time.Time
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, Now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Landlord accounts
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		units INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_properties_owner
		ON properties(owner_id);

	-- No foreign key to properties: deleting a property keeps its tenants.
	CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		property_id TEXT NOT NULL DEFAULT '',
		property_name TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		unit_number TEXT NOT NULL DEFAULT '',
		lease_start TEXT,
		lease_end TEXT,
		rent_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		base_electricity_multiplier TEXT,
		start_month_meter_reading TEXT,
		last_meter_reading TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tenants_owner
		ON tenants(owner_id);

	-- Activities (append-only ledger)
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		amount TEXT,
		date TEXT NOT NULL,
		current_meter_reading TEXT,
		previous_meter_reading TEXT,
		base_electricity_multiplier TEXT,
		generated_kind TEXT NOT NULL DEFAULT '',
		rent_period TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_activities_owner_date
		ON activities(owner_id, date DESC);
	CREATE INDEX IF NOT EXISTS idx_activities_tenant_date
		ON activities(tenant_id, date);

	-- CRITICAL: one generated rent charge per tenant and month
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_rent_period
		ON activities(tenant_id, rent_period)
		WHERE generated_kind = 'auto_rent';
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs every statement against one querier. Store wraps it with
// locking; inside WithTx it is used directly on the transaction.
type conn struct {
	q   querier
	now func() time.Time
}

func (s *Store) conn() *conn {
	return &conn{q: s.db, now: s.Now}
}

func (c *conn) timestamp() string {
	return c.now().UTC().Format(timestampLayout)
}

// =============================================================================
// PROPERTY STORE
// =============================================================================

func (s *Store) InsertProperty(ctx context.Context, p ledger.Property) (ledger.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().InsertProperty(ctx, p)
}

func (s *Store) UpdateProperty(ctx context.Context, p ledger.Property) (ledger.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().UpdateProperty(ctx, p)
}

func (s *Store) DeleteProperty(ctx context.Context, owner ledger.OwnerID, id ledger.PropertyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().DeleteProperty(ctx, owner, id)
}

func (s *Store) GetProperty(ctx context.Context, owner ledger.OwnerID, id ledger.PropertyID) (ledger.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().GetProperty(ctx, owner, id)
}

func (s *Store) ListProperties(ctx context.Context, owner ledger.OwnerID) ([]ledger.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().ListProperties(ctx, owner)
}

const propertyColumns = `id, owner_id, name, address, units, status, created_at, updated_at`

func (c *conn) InsertProperty(ctx context.Context, p ledger.Property) (ledger.Property, error) {
	if p.ID == "" {
		p.ID = ledger.PropertyID(uuid.NewString())
	}
	now := c.timestamp()
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO properties (`+propertyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.OwnerID, p.Name, p.Address, p.Units, p.Status, now, now)
	if err != nil {
		return ledger.Property{}, fmt.Errorf("failed to insert property: %w", err)
	}
	return c.GetProperty(ctx, p.OwnerID, p.ID)
}

func (c *conn) UpdateProperty(ctx context.Context, p ledger.Property) (ledger.Property, error) {
	res, err := c.q.ExecContext(ctx, `
		UPDATE properties SET name = ?, address = ?, units = ?, status = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`, p.Name, p.Address, p.Units, p.Status, c.timestamp(), p.ID, p.OwnerID)
	if err != nil {
		return ledger.Property{}, fmt.Errorf("failed to update property: %w", err)
	}
	if err := requireAffected(res, "property", string(p.ID)); err != nil {
		return ledger.Property{}, err
	}
	return c.GetProperty(ctx, p.OwnerID, p.ID)
}

func (c *conn) DeleteProperty(ctx context.Context, owner ledger.OwnerID, id ledger.PropertyID) error {
	res, err := c.q.ExecContext(ctx, `DELETE FROM properties WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	return requireAffected(res, "property", string(id))
}

func (c *conn) GetProperty(ctx context.Context, owner ledger.OwnerID, id ledger.PropertyID) (ledger.Property, error) {
	row := c.q.QueryRowContext(ctx, `
		SELECT `+propertyColumns+` FROM properties WHERE id = ? AND owner_id = ?
	`, id, owner)
	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Property{}, &ledger.NotFoundError{Kind: "property", ID: string(id)}
	}
	return p, err
}

func (c *conn) ListProperties(ctx context.Context, owner ledger.OwnerID) ([]ledger.Property, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT `+propertyColumns+` FROM properties WHERE owner_id = ?
		ORDER BY created_at ASC, id ASC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	var properties []ledger.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

// =============================================================================
// TENANT STORE
// =============================================================================

func (s *Store) InsertTenant(ctx context.Context, t ledger.Tenant) (ledger.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().InsertTenant(ctx, t)
}

func (s *Store) UpdateTenant(ctx context.Context, t ledger.Tenant) (ledger.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().UpdateTenant(ctx, t)
}

func (s *Store) DeleteTenant(ctx context.Context, owner ledger.OwnerID, id ledger.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().DeleteTenant(ctx, owner, id)
}

func (s *Store) GetTenant(ctx context.Context, owner ledger.OwnerID, id ledger.TenantID) (ledger.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().GetTenant(ctx, owner, id)
}

func (s *Store) ListTenants(ctx context.Context, owner ledger.OwnerID) ([]ledger.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().ListTenants(ctx, owner)
}

// ListOwners returns every owner that has at least one tenant.
func (s *Store) ListOwners(ctx context.Context) ([]ledger.OwnerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM tenants ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query owners: %w", err)
	}
	defer rows.Close()

	var owners []ledger.OwnerID
	for rows.Next() {
		var owner ledger.OwnerID
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

func (s *Store) SetLastMeterReading(ctx context.Context, owner ledger.OwnerID, id ledger.TenantID, reading decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().SetLastMeterReading(ctx, owner, id, reading)
}

const tenantColumns = `id, owner_id, property_id, property_name, name, email, phone, unit_number,
	lease_start, lease_end, rent_amount, status,
	base_electricity_multiplier, start_month_meter_reading, last_meter_reading,
	created_at, updated_at`

func (c *conn) InsertTenant(ctx context.Context, t ledger.Tenant) (ledger.Tenant, error) {
	if t.ID == "" {
		t.ID = ledger.TenantID(uuid.NewString())
	}
	now := c.timestamp()
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO tenants (`+tenantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.OwnerID, t.PropertyID, t.PropertyName, t.Name, t.Email, t.Phone, t.UnitNumber,
		nullDate(t.LeaseStart), nullDate(t.LeaseEnd), t.RentAmount.String(), t.Status,
		t.BaseElectricityMultiplier, t.StartMonthMeterReading, t.LastMeterReading,
		now, now,
	)
	if err != nil {
		return ledger.Tenant{}, fmt.Errorf("failed to insert tenant: %w", err)
	}
	return c.GetTenant(ctx, t.OwnerID, t.ID)
}

// UpdateTenant writes every landlord-editable field. last_meter_reading is
// not among them.
func (c *conn) UpdateTenant(ctx context.Context, t ledger.Tenant) (ledger.Tenant, error) {
	res, err := c.q.ExecContext(ctx, `
		UPDATE tenants SET
			property_id = ?, property_name = ?, name = ?, email = ?, phone = ?, unit_number = ?,
			lease_start = ?, lease_end = ?, rent_amount = ?, status = ?,
			base_electricity_multiplier = ?, start_month_meter_reading = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`,
		t.PropertyID, t.PropertyName, t.Name, t.Email, t.Phone, t.UnitNumber,
		nullDate(t.LeaseStart), nullDate(t.LeaseEnd), t.RentAmount.String(), t.Status,
		t.BaseElectricityMultiplier, t.StartMonthMeterReading, c.timestamp(),
		t.ID, t.OwnerID,
	)
	if err != nil {
		return ledger.Tenant{}, fmt.Errorf("failed to update tenant: %w", err)
	}
	if err := requireAffected(res, "tenant", string(t.ID)); err != nil {
		return ledger.Tenant{}, err
	}
	return c.GetTenant(ctx, t.OwnerID, t.ID)
}

func (c *conn) DeleteTenant(ctx context.Context, owner ledger.OwnerID, id ledger.TenantID) error {
	res, err := c.q.ExecContext(ctx, `DELETE FROM tenants WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	return requireAffected(res, "tenant", string(id))
}

func (c *conn) GetTenant(ctx context.Context, owner ledger.OwnerID, id ledger.TenantID) (ledger.Tenant, error) {
	row := c.q.QueryRowContext(ctx, `
		SELECT `+tenantColumns+` FROM tenants WHERE id = ? AND owner_id = ?
	`, id, owner)
	t, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Tenant{}, &ledger.NotFoundError{Kind: "tenant", ID: string(id)}
	}
	return t, err
}

func (c *conn) ListTenants(ctx context.Context, owner ledger.OwnerID) ([]ledger.Tenant, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT `+tenantColumns+` FROM tenants WHERE owner_id = ?
		ORDER BY created_at ASC, id ASC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer rows.Close()

	var tenants []ledger.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (c *conn) SetLastMeterReading(ctx context.Context, owner ledger.OwnerID, id ledger.TenantID, reading decimal.Decimal) error {
	res, err := c.q.ExecContext(ctx, `
		UPDATE tenants SET last_meter_reading = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`, reading.String(), c.timestamp(), id, owner)
	if err != nil {
		return fmt.Errorf("failed to set meter reading: %w", err)
	}
	return requireAffected(res, "tenant", string(id))
}

// =============================================================================
// ACTIVITY STORE (append-only)
// =============================================================================

func (s *Store) InsertActivity(ctx context.Context, a ledger.Activity) (ledger.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().InsertActivity(ctx, a)
}

func (s *Store) GetActivity(ctx context.Context, owner ledger.OwnerID, id ledger.ActivityID) (ledger.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().GetActivity(ctx, owner, id)
}

func (s *Store) ListActivities(ctx context.Context, owner ledger.OwnerID, filter ledger.ActivityFilter) ([]ledger.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().ListActivities(ctx, owner, filter)
}

func (s *Store) DeleteTenantActivities(ctx context.Context, owner ledger.OwnerID, tenant ledger.TenantID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().DeleteTenantActivities(ctx, owner, tenant)
}

const activityColumns = `id, owner_id, tenant_id, type, description, amount, date,
	current_meter_reading, previous_meter_reading, base_electricity_multiplier,
	generated_kind, rent_period, created_at`

func (c *conn) InsertActivity(ctx context.Context, a ledger.Activity) (ledger.Activity, error) {
	if a.ID == "" {
		a.ID = ledger.ActivityID(uuid.NewString())
	}
	createdAt := c.timestamp()
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.OwnerID, a.TenantID, a.Type, a.Description, a.Amount, a.Date.String(),
		a.CurrentMeterReading, a.PreviousMeterReading, a.BaseElectricityMultiplier,
		a.GeneratedKind, a.RentPeriod, createdAt,
	)
	if err != nil {
		if isRentPeriodConflict(err) {
			return ledger.Activity{}, ledger.ErrDuplicateRentCharge
		}
		return ledger.Activity{}, fmt.Errorf("failed to insert activity: %w", err)
	}
	a.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	return a, nil
}

func (c *conn) GetActivity(ctx context.Context, owner ledger.OwnerID, id ledger.ActivityID) (ledger.Activity, error) {
	row := c.q.QueryRowContext(ctx, `
		SELECT `+activityColumns+` FROM activities WHERE id = ? AND owner_id = ?
	`, id, owner)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Activity{}, &ledger.NotFoundError{Kind: "activity", ID: string(id)}
	}
	return a, err
}

func (c *conn) ListActivities(ctx context.Context, owner ledger.OwnerID, filter ledger.ActivityFilter) ([]ledger.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE owner_id = ?`
	args := []any{owner}

	if filter.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, filter.TenantID)
	}
	if !filter.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, filter.To.String())
	}

	switch filter.Order {
	case ledger.OrderDateDesc:
		query += ` ORDER BY date DESC, created_at DESC, id DESC`
	case ledger.OrderCreatedDesc:
		query += ` ORDER BY created_at DESC, id DESC`
	default:
		query += ` ORDER BY date ASC, created_at ASC, id ASC`
	}
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []ledger.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (c *conn) DeleteTenantActivities(ctx context.Context, owner ledger.OwnerID, tenant ledger.TenantID) (int, error) {
	res, err := c.q.ExecContext(ctx, `DELETE FROM activities WHERE tenant_id = ? AND owner_id = ?`, tenant, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to delete activities: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted activities: %w", err)
	}
	return int(n), nil
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
// fn must only use the Store it is given; the outer store is locked.
func (s *Store) WithTx(ctx context.Context, fn func(store ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&conn{q: sqlTx, now: s.Now}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

var (
	_ ledger.TxStore     = (*Store)(nil)
	_ ledger.OwnerLister = (*Store)(nil)
	_ ledger.Store       = (*conn)(nil)
)

// =============================================================================
// SCANNING
// =============================================================================

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(row scanner) (ledger.Property, error) {
	var (
		p                    ledger.Property
		createdAt, updatedAt string
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Address, &p.Units, &p.Status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan property: %w", err)
	}
	p.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	p.UpdatedAt, _ = time.Parse(timestampLayout, updatedAt)
	return p, nil
}

func scanTenant(row scanner) (ledger.Tenant, error) {
	var (
		t                    ledger.Tenant
		leaseStart, leaseEnd sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&t.ID, &t.OwnerID, &t.PropertyID, &t.PropertyName, &t.Name, &t.Email, &t.Phone, &t.UnitNumber,
		&leaseStart, &leaseEnd, &t.RentAmount, &t.Status,
		&t.BaseElectricityMultiplier, &t.StartMonthMeterReading, &t.LastMeterReading,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("failed to scan tenant: %w", err)
	}
	if t.LeaseStart, err = parseNullDate(leaseStart); err != nil {
		return t, err
	}
	if t.LeaseEnd, err = parseNullDate(leaseEnd); err != nil {
		return t, err
	}
	t.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	t.UpdatedAt, _ = time.Parse(timestampLayout, updatedAt)
	return t, nil
}

func scanActivity(row scanner) (ledger.Activity, error) {
	var (
		a         ledger.Activity
		date      string
		createdAt string
	)
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.TenantID, &a.Type, &a.Description, &a.Amount, &date,
		&a.CurrentMeterReading, &a.PreviousMeterReading, &a.BaseElectricityMultiplier,
		&a.GeneratedKind, &a.RentPeriod, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("failed to scan activity: %w", err)
	}
	if a.Date, err = ledger.ParseDate(date); err != nil {
		return a, fmt.Errorf("activity %s: %w", a.ID, err)
	}
	a.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	return a, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullDate(d ledger.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) (ledger.Date, error) {
	if !s.Valid || s.String == "" {
		return ledger.Date{}, nil
	}
	return ledger.ParseDate(s.String)
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isRentPeriodConflict(err error) bool {
	return isUniqueConstraintError(err) && strings.Contains(err.Error(), "activities.rent_period")
}
