package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACTIVITY INPUT - What the landlord supplies when recording an activity
// =============================================================================

// ActivityInput is the recorder-supplied part of an activity. Amount is
// unsigned for Payment and Expense; the sign is derived from the type.
type ActivityInput struct {
	Type                ActivityType
	Description         string
	Date                Date
	Amount              decimal.NullDecimal
	CurrentMeterReading decimal.NullDecimal
}

// NewActivity validates the input against the tenant and builds the activity
// to append. Nothing is written; the caller persists the result and, for
// Electricity Bills, applies it to the tenant with Tenant.ApplyBill.
//
// Electricity Bills snapshot the previous reading and multiplier resolved
// from the tenant at this moment. A reading below the previous one is
// rejected with CodeMeterRollback.
func NewActivity(tenant Tenant, in ActivityInput) (Activity, error) {
	if tenant.ID == "" {
		return Activity{}, &ValidationError{Field: "tenant_id", Code: CodeRequired, Message: "tenant is required"}
	}
	if tenant.OwnerID == "" {
		return Activity{}, &ValidationError{Field: "owner_id", Code: CodeRequired, Message: "owner is required"}
	}
	if _, err := ParseActivityType(string(in.Type)); err != nil {
		return Activity{}, err
	}
	if in.Date.IsZero() {
		return Activity{}, &ValidationError{Field: "date", Code: CodeRequired, Message: "date is required"}
	}

	a := Activity{
		OwnerID:     tenant.OwnerID,
		TenantID:    tenant.ID,
		Type:        in.Type,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
	}

	switch in.Type {
	case ActivityPayment:
		amount, err := requireNonNegative("amount", in.Amount)
		if err != nil {
			return Activity{}, err
		}
		a.Amount = decimal.NewNullDecimal(amount)

	case ActivityExpense:
		amount, err := requireNonNegative("amount", in.Amount)
		if err != nil {
			return Activity{}, err
		}
		a.Amount = decimal.NewNullDecimal(amount.Neg())

	case ActivityElectricityBill:
		current, err := requireNonNegative("current_meter_reading", in.CurrentMeterReading)
		if err != nil {
			return Activity{}, err
		}
		previous := PreviousReading(tenant)
		if current.LessThan(previous) {
			return Activity{}, &ValidationError{
				Field:   "current_meter_reading",
				Code:    CodeMeterRollback,
				Message: "reading " + current.String() + " is below the previous reading " + previous.String(),
			}
		}
		multiplier := Multiplier(tenant)
		a.Amount = decimal.NewNullDecimal(ComputeCharge(current, previous, multiplier).Neg())
		a.CurrentMeterReading = decimal.NewNullDecimal(current)
		a.PreviousMeterReading = decimal.NewNullDecimal(previous)
		a.BaseElectricityMultiplier = decimal.NewNullDecimal(multiplier)

	default:
		// Informational types keep whatever the recorder entered, sign included.
		a.Amount = in.Amount
	}

	return a, nil
}

func requireNonNegative(field string, v decimal.NullDecimal) (decimal.Decimal, error) {
	if !v.Valid {
		return decimal.Decimal{}, &ValidationError{Field: field, Code: CodeRequired, Message: field + " is required"}
	}
	if v.Decimal.IsNegative() {
		return decimal.Decimal{}, &ValidationError{Field: field, Code: CodeNegative, Message: field + " must be non-negative"}
	}
	return v.Decimal, nil
}

// ParseDecimal parses a form value. Blank input yields an unset value;
// anything non-numeric is a ValidationError for the named field.
func ParseDecimal(field, s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, &ValidationError{Field: field, Code: CodeNotNumeric, Message: field + " must be a number"}
	}
	return decimal.NewNullDecimal(d), nil
}
