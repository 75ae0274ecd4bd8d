/*
Package ledger provides the tenant ledger and utility billing engine.

PURPOSE:
  This package holds the landlord's record-keeping model and the pure
  computations over it. Balances are never stored: they are derived by
  folding a tenant's append-only activity log. Store access lives behind
  the interfaces in store.go; everything else here is synchronous and
  side-effect free.

KEY CONCEPTS IN THIS FILE (types.go):
  - Activity: An immutable ledger entry with a signed amount
  - ActivityType: Payment, Expense, Electricity Bill and informational kinds
  - Property: A building owned by a landlord
  - Typed identifiers for owners, properties, tenants and activities

SIGN CONVENTION:
  Payment                     +amount (reduces what the tenant owes)
  Expense, Electricity Bill   -amount (increases what the tenant owes)
  Monthly rent (generated)    -rent
  Maintenance, Complaint,
  Notice, Other               as recorded, amount optional

  A negative balance means the tenant owes money; positive is a credit.

SEE ALSO:
  - activity.go: Building validated activities
  - billing.go: Electricity charge computation
  - rent.go: Monthly rent generation
  - balance.go: Balances, owed amount and the recent feed
  - tenant.go: Tenant status and meter-reading state
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OwnerID string
type PropertyID string
type TenantID string
type ActivityID string

// =============================================================================
// ACTIVITY TYPES
// =============================================================================

type ActivityType string

const (
	ActivityPayment         ActivityType = "Payment"
	ActivityExpense         ActivityType = "Expense"
	ActivityElectricityBill ActivityType = "Electricity Bill"
	ActivityMaintenance     ActivityType = "Maintenance"
	ActivityComplaint       ActivityType = "Complaint"
	ActivityNotice          ActivityType = "Notice"
	ActivityOther           ActivityType = "Other"
)

// ActivityTypes lists every recordable type in display order.
var ActivityTypes = []ActivityType{
	ActivityPayment,
	ActivityExpense,
	ActivityElectricityBill,
	ActivityMaintenance,
	ActivityComplaint,
	ActivityNotice,
	ActivityOther,
}

func (t ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseActivityType returns a ValidationError for unknown types.
func ParseActivityType(s string) (ActivityType, error) {
	t := ActivityType(s)
	if !t.Valid() {
		return "", &ValidationError{
			Field:   "type",
			Code:    CodeInvalid,
			Message: fmt.Sprintf("unknown activity type %q", s),
		}
	}
	return t, nil
}

// GeneratedKind marks activities synthesized by the engine rather than
// recorded by the landlord.
type GeneratedKind string

const (
	GeneratedNone     GeneratedKind = ""
	GeneratedAutoRent GeneratedKind = "auto_rent"
)

// =============================================================================
// ACTIVITY - One immutable ledger entry
// =============================================================================

type Activity struct {
	ID          ActivityID
	OwnerID     OwnerID
	TenantID    TenantID
	Type        ActivityType
	Description string

	// Amount is signed per the convention above. Informational activities
	// may leave it unset; it then counts as zero.
	Amount decimal.NullDecimal

	// Date is the effective date of the activity.
	Date Date

	// CreatedAt is assigned by the store on insert.
	CreatedAt time.Time

	// Electricity Bill snapshots, fixed at creation.
	CurrentMeterReading       decimal.NullDecimal
	PreviousMeterReading      decimal.NullDecimal
	BaseElectricityMultiplier decimal.NullDecimal

	// Structured marker for generated rent: kind plus the "YYYY-MM" period.
	GeneratedKind GeneratedKind
	RentPeriod    string
}

// SignedAmount returns the amount, or zero when none was recorded.
func (a Activity) SignedAmount() decimal.Decimal {
	if !a.Amount.Valid {
		return decimal.Zero
	}
	return a.Amount.Decimal
}

func (a Activity) IsElectricityBill() bool { return a.Type == ActivityElectricityBill }

// OrderTime is the instant used for recency ordering: the creation
// timestamp when known, otherwise midnight of the effective date.
func (a Activity) OrderTime() time.Time {
	if !a.CreatedAt.IsZero() {
		return a.CreatedAt
	}
	return a.Date.Midnight()
}

// =============================================================================
// PROPERTY
// =============================================================================

type PropertyStatus string

const (
	PropertyActive      PropertyStatus = "Active"
	PropertyInactive    PropertyStatus = "Inactive"
	PropertyMaintenance PropertyStatus = "Maintenance"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyActive, PropertyInactive, PropertyMaintenance:
		return true
	}
	return false
}

type Property struct {
	ID        PropertyID
	OwnerID   OwnerID
	Name      string
	Address   string
	Units     int
	Status    PropertyStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields a landlord must supply.
func (p Property) Validate() error {
	if p.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Code: CodeRequired, Message: "owner is required"}
	}
	if p.Name == "" {
		return &ValidationError{Field: "name", Code: CodeRequired, Message: "name is required"}
	}
	if p.Units < 0 {
		return &ValidationError{Field: "units", Code: CodeNegative, Message: "units must be non-negative"}
	}
	if !p.Status.Valid() {
		return &ValidationError{Field: "status", Code: CodeInvalid, Message: fmt.Sprintf("unknown property status %q", p.Status)}
	}
	return nil
}
