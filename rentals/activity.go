package rentals

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dwella/rent-engine/ledger"
	"github.com/dwella/rent-engine/share"
)

// =============================================================================
// RECORDING
// =============================================================================

// RecordActivity validates and appends an activity for the tenant. For an
// Electricity Bill the tenant's last meter reading is updated in the same
// transaction.
func (s *Service) RecordActivity(ctx context.Context, owner ledger.OwnerID, tenantID ledger.TenantID, in ledger.ActivityInput) (_ ledger.Activity, err error) {
	ctx, span := s.startSpan(ctx, "rentals.RecordActivity", owner)
	span.SetAttributes(attribute.String("activity_type", string(in.Type)))
	defer func() { endSpan(span, err) }()

	var recorded ledger.Activity
	err = s.withTx(ctx, func(store ledger.Store) error {
		tenant, err := store.GetTenant(ctx, owner, tenantID)
		if err != nil {
			return err
		}
		a, err := ledger.NewActivity(tenant, in)
		if err != nil {
			return err
		}
		recorded, err = ledger.NewLedger(store).Append(ctx, a)
		if err != nil {
			return err
		}
		if !recorded.IsElectricityBill() {
			return nil
		}
		if err := tenant.ApplyBill(recorded); err != nil {
			return err
		}
		return store.SetLastMeterReading(ctx, owner, tenant.ID, tenant.LastMeterReading.Decimal)
	})
	if err != nil {
		return ledger.Activity{}, err
	}

	s.Metrics.IncrementActivityRecorded(string(recorded.Type))
	s.Logger.WithFields(logrus.Fields{
		"owner_id":    owner,
		"tenant_id":   tenantID,
		"activity_id": recorded.ID,
		"type":        recorded.Type,
		"amount":      recorded.SignedAmount().String(),
	}).Info("activity recorded")
	return recorded, nil
}

// =============================================================================
// RENT RECONCILIATION
// =============================================================================

// ReconcileTenant appends the monthly rent for the current month when the
// tenant is Active and the month is not yet charged. It returns the new
// charge, or nil when nothing was due.
func (s *Service) ReconcileTenant(ctx context.Context, owner ledger.OwnerID, tenantID ledger.TenantID) (_ *ledger.Activity, err error) {
	ctx, span := s.startSpan(ctx, "rentals.ReconcileTenant", owner)
	defer func() { endSpan(span, err) }()

	tenant, err := s.Store.GetTenant(ctx, owner, tenantID)
	if err != nil {
		return nil, err
	}
	asOf := ledger.DateOf(s.Now())
	existing, err := s.Store.ListActivities(ctx, owner, ledger.ActivityFilter{
		TenantID: tenantID,
		From:     ledger.StartOfMonth(asOf.Year(), asOf.Month()),
		To:       ledger.EndOfMonth(asOf.Year(), asOf.Month()),
	})
	if err != nil {
		return nil, err
	}

	charge := ledger.EnsureMonthlyRent(tenant, existing, asOf)
	if charge == nil {
		return nil, nil
	}
	stored, err := ledger.NewLedger(s.Store).Append(ctx, *charge)
	if errors.Is(err, ledger.ErrDuplicateRentCharge) {
		// Lost a race with another reconcile for the same month.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.Metrics.IncrementRentGenerated()
	s.Logger.WithFields(logrus.Fields{
		"owner_id":  owner,
		"tenant_id": tenantID,
		"period":    stored.RentPeriod,
		"amount":    stored.SignedAmount().String(),
	}).Info("monthly rent generated")
	return &stored, nil
}

// ReconcileOwner reconciles every tenant of the owner and returns the
// charges created. A failing tenant does not stop the others.
func (s *Service) ReconcileOwner(ctx context.Context, owner ledger.OwnerID) ([]ledger.Activity, error) {
	tenants, err := s.Store.ListTenants(ctx, owner)
	if err != nil {
		return nil, err
	}
	var (
		created []ledger.Activity
		errs    []error
	)
	for _, t := range tenants {
		charge, err := s.ReconcileTenant(ctx, owner, t.ID)
		if err != nil {
			s.Logger.WithError(err).WithField("tenant_id", t.ID).Error("reconcile failed")
			errs = append(errs, err)
			continue
		}
		if charge != nil {
			created = append(created, *charge)
		}
	}
	return created, errors.Join(errs...)
}

// =============================================================================
// LEDGER VIEW
// =============================================================================

// TenantLedger is the tenant detail view: the newest activity first.
type TenantLedger struct {
	Tenant     ledger.Tenant
	Activities []ledger.Activity
	Balance    decimal.Decimal
}

func (s *Service) TenantLedger(ctx context.Context, owner ledger.OwnerID, tenantID ledger.TenantID) (TenantLedger, error) {
	tenant, err := s.Store.GetTenant(ctx, owner, tenantID)
	if err != nil {
		return TenantLedger{}, err
	}
	activities, err := s.Store.ListActivities(ctx, owner, ledger.ActivityFilter{
		TenantID: tenantID,
		Order:    ledger.OrderDateDesc,
	})
	if err != nil {
		return TenantLedger{}, err
	}
	return TenantLedger{
		Tenant:     tenant,
		Activities: activities,
		Balance:    ledger.TenantBalance(activities),
	}, nil
}

// =============================================================================
// SHARING
// =============================================================================

type SharedActivity struct {
	Channel share.Channel
	Message string
	// Link is empty for the text channel.
	Link string
}

// ShareActivity renders the activity for the tenant's phone.
func (s *Service) ShareActivity(ctx context.Context, owner ledger.OwnerID, id ledger.ActivityID, channel share.Channel) (SharedActivity, error) {
	if channel == "" {
		channel = share.ChannelText
	}
	if !channel.Valid() {
		return SharedActivity{}, &ledger.ValidationError{
			Field:   "channel",
			Code:    ledger.CodeInvalid,
			Message: "channel must be text, whatsapp or sms",
		}
	}
	a, err := s.Store.GetActivity(ctx, owner, id)
	if err != nil {
		return SharedActivity{}, err
	}
	tenant, err := s.Store.GetTenant(ctx, owner, a.TenantID)
	if err != nil {
		return SharedActivity{}, err
	}
	msg := share.Message(a)
	return SharedActivity{
		Channel: channel,
		Message: msg,
		Link:    share.Link(channel, tenant.Phone, msg),
	}, nil
}
