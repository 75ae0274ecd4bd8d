/*
tenant.go - Tenant record and its state machine

STATES:
  Active, Inactive, Pending. Every transition is an explicit landlord edit;
  nothing in the engine moves a tenant between states on its own.

EFFECTS OF STATUS:
  - Only Active tenants receive generated monthly rent (rent.go)
  - Only Active tenants count toward the portfolio owed amount (balance.go)
  - The per-tenant balance ignores status

METER STATE:
  LastMeterReading is unset until the first Electricity Bill. ApplyBill is
  the only way it changes: the reading of each recorded bill becomes the
  new last reading, and bills below it are rejected upstream (activity.go).

DELETION:
  A tenant's activities are deleted before the tenant itself. A crash in
  between leaves orphaned activities, which are harmless to every balance
  computed per tenant, rather than a tenant whose ledger has vanished.
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TenantStatus string

const (
	TenantActive   TenantStatus = "Active"
	TenantInactive TenantStatus = "Inactive"
	TenantPending  TenantStatus = "Pending"
)

func (s TenantStatus) Valid() bool {
	switch s {
	case TenantActive, TenantInactive, TenantPending:
		return true
	}
	return false
}

func ParseTenantStatus(s string) (TenantStatus, error) {
	status := TenantStatus(s)
	if !status.Valid() {
		return "", &ValidationError{
			Field:   "status",
			Code:    CodeInvalid,
			Message: fmt.Sprintf("unknown tenant status %q", s),
		}
	}
	return status, nil
}

// =============================================================================
// TENANT
// =============================================================================

type Tenant struct {
	ID           TenantID
	OwnerID      OwnerID
	PropertyID   PropertyID
	PropertyName string // cached from the property at write time
	Name         string
	Email        string
	Phone        string
	UnitNumber   string
	LeaseStart   Date
	LeaseEnd     Date
	RentAmount   decimal.Decimal
	Status       TenantStatus

	BaseElectricityMultiplier decimal.NullDecimal
	StartMonthMeterReading    decimal.NullDecimal
	LastMeterReading          decimal.NullDecimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Tenant) IsActive() bool { return t.Status == TenantActive }

// ParticipatesInRent reports whether monthly rent is generated for the tenant.
func (t Tenant) ParticipatesInRent() bool { return t.IsActive() }

// Validate checks the landlord-editable fields.
func (t Tenant) Validate() error {
	if t.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Code: CodeRequired, Message: "owner is required"}
	}
	if t.Name == "" {
		return &ValidationError{Field: "name", Code: CodeRequired, Message: "name is required"}
	}
	if t.RentAmount.IsNegative() {
		return &ValidationError{Field: "rent_amount", Code: CodeNegative, Message: "rent amount must be non-negative"}
	}
	if _, err := ParseTenantStatus(string(t.Status)); err != nil {
		return err
	}
	if t.BaseElectricityMultiplier.Valid && t.BaseElectricityMultiplier.Decimal.IsNegative() {
		return &ValidationError{Field: "base_electricity_multiplier", Code: CodeNegative, Message: "multiplier must be non-negative"}
	}
	if t.StartMonthMeterReading.Valid && t.StartMonthMeterReading.Decimal.IsNegative() {
		return &ValidationError{Field: "start_month_meter_reading", Code: CodeNegative, Message: "meter reading must be non-negative"}
	}
	if !t.LeaseStart.IsZero() && !t.LeaseEnd.IsZero() && t.LeaseEnd.Before(t.LeaseStart) {
		return &ValidationError{Field: "lease_end", Code: CodeInvalid, Message: "lease end is before lease start"}
	}
	return nil
}

// TransitionTo moves the tenant to a new status. Any known status may follow
// any other; unknown statuses are rejected.
func (t *Tenant) TransitionTo(status TenantStatus) error {
	next, err := ParseTenantStatus(string(status))
	if err != nil {
		return err
	}
	t.Status = next
	return nil
}

// ApplyBill records the reading of an Electricity Bill as the tenant's last
// meter reading.
func (t *Tenant) ApplyBill(a Activity) error {
	if !a.IsElectricityBill() {
		return fmt.Errorf("apply bill: activity %s is %q, not an electricity bill", a.ID, a.Type)
	}
	if a.TenantID != t.ID {
		return fmt.Errorf("apply bill: activity %s belongs to tenant %s, not %s", a.ID, a.TenantID, t.ID)
	}
	if !a.CurrentMeterReading.Valid {
		return &ValidationError{Field: "current_meter_reading", Code: CodeRequired, Message: "bill has no meter reading"}
	}
	t.LastMeterReading = decimal.NewNullDecimal(a.CurrentMeterReading.Decimal)
	return nil
}
