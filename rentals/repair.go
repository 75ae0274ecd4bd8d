package rentals

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/dwella/rent-engine/ledger"
)

// RepairMeterReadings raises each tenant's last meter reading to the reading
// of its most recently recorded Electricity Bill. Bills may be backdated, so
// recording order is what the reading follows, not the bill date. A stored
// reading is never lowered and tenants with no bill are left alone. It
// returns the number of tenants repaired.
//
// A bill and its reading are written together when the store has
// transactions; this catches drift from stores that do not.
func (s *Service) RepairMeterReadings(ctx context.Context, owner ledger.OwnerID) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "rentals.RepairMeterReadings", owner)
	defer func() { endSpan(span, err) }()

	tenants, err := s.Store.ListTenants(ctx, owner)
	if err != nil {
		return 0, err
	}
	activities, err := s.Store.ListActivities(ctx, owner, ledger.ActivityFilter{})
	if err != nil {
		return 0, err
	}
	latest := latestBills(activities)

	repaired := 0
	for _, t := range tenants {
		bill, ok := latest[t.ID]
		if !ok || !bill.CurrentMeterReading.Valid {
			continue
		}
		want := bill.CurrentMeterReading.Decimal
		if t.LastMeterReading.Valid && t.LastMeterReading.Decimal.GreaterThanOrEqual(want) {
			if t.LastMeterReading.Decimal.GreaterThan(want) {
				s.Logger.WithFields(logrus.Fields{
					"owner_id":  owner,
					"tenant_id": t.ID,
					"bill_id":   bill.ID,
					"reading":   t.LastMeterReading.Decimal.String(),
					"bill":      want.String(),
				}).Warn("meter reading ahead of latest bill, left unchanged")
			}
			continue
		}
		if err := s.Store.SetLastMeterReading(ctx, owner, t.ID, want); err != nil {
			return repaired, err
		}
		repaired++
		s.Metrics.IncrementMeterRepair()

		entry := s.Logger.WithFields(logrus.Fields{
			"owner_id":  owner,
			"tenant_id": t.ID,
			"bill_id":   bill.ID,
			"reading":   want.String(),
		})
		if t.LastMeterReading.Valid {
			entry = entry.WithField("was", t.LastMeterReading.Decimal.String())
		}
		entry.Warn("meter reading repaired")
	}
	return repaired, nil
}

// latestBills returns the last recorded Electricity Bill per tenant, by
// creation time then id.
func latestBills(activities []ledger.Activity) map[ledger.TenantID]ledger.Activity {
	latest := make(map[ledger.TenantID]ledger.Activity)
	for _, a := range activities {
		if !a.IsElectricityBill() {
			continue
		}
		cur, ok := latest[a.TenantID]
		if !ok || a.CreatedAt.After(cur.CreatedAt) ||
			(a.CreatedAt.Equal(cur.CreatedAt) && a.ID > cur.ID) {
			latest[a.TenantID] = a
		}
	}
	return latest
}

// =============================================================================
// PORTFOLIO-WIDE JOBS
// =============================================================================

func (s *Service) owners(ctx context.Context) ([]ledger.OwnerID, error) {
	lister, ok := s.Store.(ledger.OwnerLister)
	if !ok {
		return nil, ledger.ErrStoreRequired
	}
	return lister.ListOwners(ctx)
}

// RepairAllMeterReadings runs RepairMeterReadings for every owner.
func (s *Service) RepairAllMeterReadings(ctx context.Context) (int, error) {
	owners, err := s.owners(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	var errs []error
	for _, owner := range owners {
		n, err := s.RepairMeterReadings(ctx, owner)
		total += n
		if err != nil {
			s.Logger.WithError(err).WithField("owner_id", owner).Error("meter repair failed")
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// ReconcileAll runs ReconcileOwner for every owner.
func (s *Service) ReconcileAll(ctx context.Context) ([]ledger.Activity, error) {
	owners, err := s.owners(ctx)
	if err != nil {
		return nil, err
	}
	var (
		created []ledger.Activity
		errs    []error
	)
	for _, owner := range owners {
		charges, err := s.ReconcileOwner(ctx, owner)
		created = append(created, charges...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return created, errors.Join(errs...)
}
