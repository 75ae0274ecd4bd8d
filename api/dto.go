/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request shape (required fields, lengths, date layout) is checked with
  validator struct tags before the handler runs. Domain rules such as
  non-negative amounts and meter rollback stay in the ledger package.

NUMBERS:
  Amounts and readings are decimals. They are accepted as JSON numbers or
  numeric strings (see Number) and always returned as strings. A value that
  is not a number is a ValidationError with code not_numeric.
*/
package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dwella/rent-engine/auth"
	"github.com/dwella/rent-engine/ledger"
	"github.com/dwella/rent-engine/rentals"
)

// =============================================================================
// NUMBERS
// =============================================================================

// Number holds a decimal field exactly as the client sent it. Parsing is
// left to ledger.ParseDecimal so a bad value is reported against its field.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	raw := string(b)
	switch {
	case raw == "null":
		*n = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number(s)
	default:
		*n = Number(raw)
	}
	return nil
}

func (n Number) parse(field string) (decimal.NullDecimal, error) {
	return ledger.ParseDecimal(field, string(n))
}

// =============================================================================
// AUTH
// =============================================================================

type SignUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type SessionDTO struct {
	User      UserDTO `json:"user"`
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
}

func toUserDTO(u auth.User) UserDTO {
	return UserDTO{ID: string(u.ID), Email: u.Email, CreatedAt: u.CreatedAt.Format(time.RFC3339)}
}

func toSessionDTO(s auth.Session) SessionDTO {
	return SessionDTO{User: toUserDTO(s.User), Token: s.Token, ExpiresAt: s.ExpiresAt.Format(time.RFC3339)}
}

// =============================================================================
// PROPERTIES
// =============================================================================

type PropertyRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address" validate:"max=500"`
	Units   int    `json:"units" validate:"gte=0"`
	Status  string `json:"status" validate:"omitempty,oneof=Active Inactive Maintenance"`
}

func (req PropertyRequest) toProperty(owner ledger.OwnerID) ledger.Property {
	return ledger.Property{
		OwnerID: owner,
		Name:    req.Name,
		Address: req.Address,
		Units:   req.Units,
		Status:  ledger.PropertyStatus(req.Status),
	}
}

type PropertyDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Units     int    `json:"units"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toPropertyDTO(p ledger.Property) PropertyDTO {
	return PropertyDTO{
		ID:        string(p.ID),
		Name:      p.Name,
		Address:   p.Address,
		Units:     p.Units,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// TENANTS
// =============================================================================

type TenantRequest struct {
	PropertyID                string              `json:"property_id"`
	Name                      string              `json:"name" validate:"required,max=200"`
	Email                     string              `json:"email" validate:"omitempty,email"`
	Phone                     string              `json:"phone" validate:"max=32"`
	UnitNumber                string              `json:"unit_number" validate:"max=32"`
	LeaseStart                string              `json:"lease_start" validate:"omitempty,datetime=2006-01-02"`
	LeaseEnd                  string              `json:"lease_end" validate:"omitempty,datetime=2006-01-02"`
	RentAmount                Number              `json:"rent_amount"`
	Status                    string              `json:"status" validate:"omitempty,oneof=Active Inactive Pending"`
	BaseElectricityMultiplier Number              `json:"base_electricity_multiplier"`
	StartMonthMeterReading    Number              `json:"start_month_meter_reading"`
}

// toTenant builds the tenant. Dates were checked by the validator.
func (req TenantRequest) toTenant(owner ledger.OwnerID) (ledger.Tenant, error) {
	rent, err := req.RentAmount.parse("rent_amount")
	if err != nil {
		return ledger.Tenant{}, err
	}
	multiplier, err := req.BaseElectricityMultiplier.parse("base_electricity_multiplier")
	if err != nil {
		return ledger.Tenant{}, err
	}
	startReading, err := req.StartMonthMeterReading.parse("start_month_meter_reading")
	if err != nil {
		return ledger.Tenant{}, err
	}
	t := ledger.Tenant{
		OwnerID:                   owner,
		PropertyID:                ledger.PropertyID(req.PropertyID),
		Name:                      req.Name,
		Email:                     req.Email,
		Phone:                     req.Phone,
		UnitNumber:                req.UnitNumber,
		RentAmount:                rent.Decimal,
		Status:                    ledger.TenantStatus(req.Status),
		BaseElectricityMultiplier: multiplier,
		StartMonthMeterReading:    startReading,
	}
	if req.LeaseStart != "" {
		t.LeaseStart, _ = ledger.ParseDate(req.LeaseStart)
	}
	if req.LeaseEnd != "" {
		t.LeaseEnd, _ = ledger.ParseDate(req.LeaseEnd)
	}
	return t, nil
}

type TenantDTO struct {
	ID                        string              `json:"id"`
	PropertyID                string              `json:"property_id"`
	PropertyName              string              `json:"property_name"`
	Name                      string              `json:"name"`
	Email                     string              `json:"email"`
	Phone                     string              `json:"phone"`
	UnitNumber                string              `json:"unit_number"`
	LeaseStart                string              `json:"lease_start,omitempty"`
	LeaseEnd                  string              `json:"lease_end,omitempty"`
	RentAmount                decimal.Decimal     `json:"rent_amount"`
	Status                    string              `json:"status"`
	BaseElectricityMultiplier decimal.NullDecimal `json:"base_electricity_multiplier"`
	StartMonthMeterReading    decimal.NullDecimal `json:"start_month_meter_reading"`
	LastMeterReading          decimal.NullDecimal `json:"last_meter_reading"`
	Balance                   *decimal.Decimal    `json:"balance,omitempty"`
	CreatedAt                 string              `json:"created_at"`
	UpdatedAt                 string              `json:"updated_at"`
}

func toTenantDTO(t ledger.Tenant) TenantDTO {
	return TenantDTO{
		ID:                        string(t.ID),
		PropertyID:                string(t.PropertyID),
		PropertyName:              t.PropertyName,
		Name:                      t.Name,
		Email:                     t.Email,
		Phone:                     t.Phone,
		UnitNumber:                t.UnitNumber,
		LeaseStart:                t.LeaseStart.String(),
		LeaseEnd:                  t.LeaseEnd.String(),
		RentAmount:                t.RentAmount,
		Status:                    string(t.Status),
		BaseElectricityMultiplier: t.BaseElectricityMultiplier,
		StartMonthMeterReading:    t.StartMonthMeterReading,
		LastMeterReading:          t.LastMeterReading,
		CreatedAt:                 t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:                 t.UpdatedAt.Format(time.RFC3339),
	}
}

func toTenantSummaryDTO(s rentals.TenantSummary) TenantDTO {
	dto := toTenantDTO(s.Tenant)
	balance := s.Balance
	dto.Balance = &balance
	return dto
}

// =============================================================================
// ACTIVITIES
// =============================================================================

type ActivityRequest struct {
	Type                string              `json:"type" validate:"required"`
	Description         string              `json:"description" validate:"max=500"`
	Date                string              `json:"date" validate:"required,datetime=2006-01-02"`
	Amount              Number `json:"amount"`
	CurrentMeterReading Number `json:"current_meter_reading"`
}

func (req ActivityRequest) toInput() (ledger.ActivityInput, error) {
	amount, err := req.Amount.parse("amount")
	if err != nil {
		return ledger.ActivityInput{}, err
	}
	reading, err := req.CurrentMeterReading.parse("current_meter_reading")
	if err != nil {
		return ledger.ActivityInput{}, err
	}
	date, _ := ledger.ParseDate(req.Date)
	return ledger.ActivityInput{
		Type:                ledger.ActivityType(req.Type),
		Description:         req.Description,
		Date:                date,
		Amount:              amount,
		CurrentMeterReading: reading,
	}, nil
}

type ActivityDTO struct {
	ID                        string              `json:"id"`
	TenantID                  string              `json:"tenant_id"`
	Type                      string              `json:"type"`
	Description               string              `json:"description"`
	Amount                    decimal.NullDecimal `json:"amount"`
	Date                      string              `json:"date"`
	CurrentMeterReading       decimal.NullDecimal `json:"current_meter_reading,omitempty"`
	PreviousMeterReading      decimal.NullDecimal `json:"previous_meter_reading,omitempty"`
	BaseElectricityMultiplier decimal.NullDecimal `json:"base_electricity_multiplier,omitempty"`
	UnitsConsumed             *decimal.Decimal    `json:"units_consumed,omitempty"`
	GeneratedKind             string              `json:"generated_kind,omitempty"`
	RentPeriod                string              `json:"rent_period,omitempty"`
	CreatedAt                 string              `json:"created_at"`
}

func toActivityDTO(a ledger.Activity) ActivityDTO {
	dto := ActivityDTO{
		ID:            string(a.ID),
		TenantID:      string(a.TenantID),
		Type:          string(a.Type),
		Description:   a.Description,
		Amount:        a.Amount,
		Date:          a.Date.String(),
		GeneratedKind: string(a.GeneratedKind),
		RentPeriod:    a.RentPeriod,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339Nano),
	}
	if b, ok := ledger.Breakdown(a); ok {
		units := b.Units
		dto.CurrentMeterReading = a.CurrentMeterReading
		dto.PreviousMeterReading = a.PreviousMeterReading
		dto.BaseElectricityMultiplier = a.BaseElectricityMultiplier
		dto.UnitsConsumed = &units
	}
	return dto
}

func toActivityDTOs(activities []ledger.Activity) []ActivityDTO {
	dtos := make([]ActivityDTO, 0, len(activities))
	for _, a := range activities {
		dtos = append(dtos, toActivityDTO(a))
	}
	return dtos
}

type LedgerDTO struct {
	Tenant     TenantDTO       `json:"tenant"`
	Activities []ActivityDTO   `json:"activities"`
	Balance    decimal.Decimal `json:"balance"`
}

type ReconcileDTO struct {
	// Charge is null when the month was already charged or the tenant is
	// not Active.
	Charge *ActivityDTO `json:"charge"`
}

type ShareDTO struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

// =============================================================================
// DASHBOARD
// =============================================================================

type DashboardDTO struct {
	PropertyCount     int             `json:"property_count"`
	ActiveTenantCount int             `json:"active_tenant_count"`
	AmountOwed        decimal.Decimal `json:"amount_owed"`
	RecentActivities  []ActivityDTO   `json:"recent_activities"`
	Partial           bool            `json:"partial"`
	Warnings          []string        `json:"warnings,omitempty"`
	GeneratedAt       string          `json:"generated_at"`
}

func toDashboardDTO(s rentals.DashboardSummary) DashboardDTO {
	return DashboardDTO{
		PropertyCount:     s.PropertyCount,
		ActiveTenantCount: s.ActiveTenantCount,
		AmountOwed:        s.AmountOwed,
		RecentActivities:  toActivityDTOs(s.RecentActivities),
		Partial:           s.Partial,
		Warnings:          s.Warnings,
		GeneratedAt:       s.GeneratedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string       `json:"error"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
