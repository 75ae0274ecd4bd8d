/*
Package rentals orchestrates the ledger over a store.

PURPOSE:
  The ledger package is pure; this package is where its computations meet
  persistence. Every operation is scoped to one owner, and every write
  that touches more than one record runs in a store transaction when the
  store supports one.

OPERATIONS:
  Properties and tenants:  CRUD with the property name cached on tenants
  RecordActivity:          Validated append, plus the meter reading for bills
  ReconcileTenant:         Explicit monthly rent backfill
  DeleteTenant:            Cascade, activities first
  TenantLedger:            Tenant, its activities and its balance
  Dashboard:               Portfolio summary (dashboard.go)
  RepairMeterReadings:     Compensator for drifted meter readings (repair.go)

SEE ALSO:
  - ledger/: Model and computations
  - api/: HTTP surface over this service
*/
package rentals

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwella/rent-engine/ledger"
)

// DefaultDashboardTimeout bounds how long Dashboard waits before returning
// whatever has loaded.
const DefaultDashboardTimeout = 10 * time.Second

type Service struct {
	Store   ledger.Store
	Logger  logrus.FieldLogger
	Metrics *Metrics
	Tracer  trace.Tracer

	// Now is the clock for rent periods, windows and the dashboard.
	Now func() time.Time

	DashboardTimeout time.Duration
}

func NewService(store ledger.Store, logger logrus.FieldLogger, metrics *Metrics) *Service {
	return &Service{
		Store:            store,
		Logger:           logger,
		Metrics:          metrics,
		Tracer:           otel.Tracer("dwella/rentals"),
		Now:              time.Now,
		DashboardTimeout: DefaultDashboardTimeout,
	}
}

// withTx runs fn in a transaction when the store has them, directly
// otherwise.
func (s *Service) withTx(ctx context.Context, fn func(ledger.Store) error) error {
	if txs, ok := s.Store.(ledger.TxStore); ok {
		return txs.WithTx(ctx, fn)
	}
	return fn(s.Store)
}

func (s *Service) startSpan(ctx context.Context, name string, owner ledger.OwnerID) (context.Context, trace.Span) {
	return s.Tracer.Start(ctx, name, trace.WithAttributes(attribute.String("owner_id", string(owner))))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// =============================================================================
// PROPERTIES
// =============================================================================

func (s *Service) CreateProperty(ctx context.Context, p ledger.Property) (ledger.Property, error) {
	if p.Status == "" {
		p.Status = ledger.PropertyActive
	}
	if err := p.Validate(); err != nil {
		return ledger.Property{}, err
	}
	created, err := s.Store.InsertProperty(ctx, p)
	if err != nil {
		return ledger.Property{}, err
	}
	s.Logger.WithFields(logrus.Fields{"owner_id": p.OwnerID, "property_id": created.ID}).Info("property created")
	return created, nil
}

func (s *Service) UpdateProperty(ctx context.Context, p ledger.Property) (ledger.Property, error) {
	if err := p.Validate(); err != nil {
		return ledger.Property{}, err
	}
	return s.Store.UpdateProperty(ctx, p)
}

// DeleteProperty removes the property only. Its tenants keep their cached
// property name.
func (s *Service) DeleteProperty(ctx context.Context, owner ledger.OwnerID, id ledger.PropertyID) error {
	return s.Store.DeleteProperty(ctx, owner, id)
}

func (s *Service) GetProperty(ctx context.Context, owner ledger.OwnerID, id ledger.PropertyID) (ledger.Property, error) {
	return s.Store.GetProperty(ctx, owner, id)
}

func (s *Service) ListProperties(ctx context.Context, owner ledger.OwnerID) ([]ledger.Property, error) {
	return s.Store.ListProperties(ctx, owner)
}

// =============================================================================
// TENANTS
// =============================================================================

// TenantSummary is a tenant with its full-history balance.
type TenantSummary struct {
	ledger.Tenant
	Balance decimal.Decimal
}

// CreateTenant stores a new tenant, Active unless a status is given. The
// meter has no billed reading yet whatever the input says.
func (s *Service) CreateTenant(ctx context.Context, t ledger.Tenant) (ledger.Tenant, error) {
	if t.Status == "" {
		t.Status = ledger.TenantActive
	}
	t.LastMeterReading = decimal.NullDecimal{}
	if err := t.Validate(); err != nil {
		return ledger.Tenant{}, err
	}
	if err := s.resolvePropertyName(ctx, &t); err != nil {
		return ledger.Tenant{}, err
	}
	created, err := s.Store.InsertTenant(ctx, t)
	if err != nil {
		return ledger.Tenant{}, err
	}
	s.Logger.WithFields(logrus.Fields{"owner_id": t.OwnerID, "tenant_id": created.ID}).Info("tenant created")
	return created, nil
}

// UpdateTenant saves the landlord-editable fields. A status change is a
// transition of the tenant state machine; LastMeterReading is not editable.
func (s *Service) UpdateTenant(ctx context.Context, t ledger.Tenant) (ledger.Tenant, error) {
	current, err := s.Store.GetTenant(ctx, t.OwnerID, t.ID)
	if err != nil {
		return ledger.Tenant{}, err
	}
	if t.Status == "" {
		t.Status = current.Status
	}
	next := t
	next.Status = current.Status
	if err := next.TransitionTo(t.Status); err != nil {
		return ledger.Tenant{}, err
	}
	next.LastMeterReading = current.LastMeterReading
	if err := next.Validate(); err != nil {
		return ledger.Tenant{}, err
	}
	if err := s.resolvePropertyName(ctx, &next); err != nil {
		return ledger.Tenant{}, err
	}
	updated, err := s.Store.UpdateTenant(ctx, next)
	if err != nil {
		return ledger.Tenant{}, err
	}
	if current.Status != updated.Status {
		s.Logger.WithFields(logrus.Fields{
			"tenant_id": updated.ID,
			"from":      current.Status,
			"to":        updated.Status,
		}).Info("tenant status changed")
	}
	return updated, nil
}

// resolvePropertyName caches the property's name on the tenant. A missing
// property leaves the name empty.
func (s *Service) resolvePropertyName(ctx context.Context, t *ledger.Tenant) error {
	t.PropertyName = ""
	if t.PropertyID == "" {
		return nil
	}
	p, err := s.Store.GetProperty(ctx, t.OwnerID, t.PropertyID)
	if err != nil {
		if ledger.IsNotFound(err) {
			return nil
		}
		return err
	}
	t.PropertyName = p.Name
	return nil
}

func (s *Service) GetTenant(ctx context.Context, owner ledger.OwnerID, id ledger.TenantID) (ledger.Tenant, error) {
	return s.Store.GetTenant(ctx, owner, id)
}

// TenantQuery narrows and orders the tenant list.
type TenantQuery struct {
	Search string
	Sort   ledger.TenantSort
	Desc   bool
}

// ListTenants returns the owner's tenants matching q.Search with balances,
// ordered for the tenant list.
func (s *Service) ListTenants(ctx context.Context, owner ledger.OwnerID, q TenantQuery) ([]TenantSummary, error) {
	tenants, err := s.Store.ListTenants(ctx, owner)
	if err != nil {
		return nil, err
	}
	tenants = ledger.FilterTenants(tenants, q.Search)
	activities, err := s.Store.ListActivities(ctx, owner, ledger.ActivityFilter{})
	if err != nil {
		return nil, err
	}
	balances := ledger.TenantBalances(activities)
	ledger.SortTenants(tenants, balances, q.Sort, q.Desc)

	summaries := make([]TenantSummary, 0, len(tenants))
	for _, t := range tenants {
		summaries = append(summaries, TenantSummary{Tenant: t, Balance: balances[t.ID]})
	}
	return summaries, nil
}

// DeleteTenant removes the tenant's activities, then the tenant.
func (s *Service) DeleteTenant(ctx context.Context, owner ledger.OwnerID, id ledger.TenantID) (err error) {
	ctx, span := s.startSpan(ctx, "rentals.DeleteTenant", owner)
	defer func() { endSpan(span, err) }()

	var removed int
	err = s.withTx(ctx, func(store ledger.Store) error {
		if _, err := store.GetTenant(ctx, owner, id); err != nil {
			return err
		}
		n, err := store.DeleteTenantActivities(ctx, owner, id)
		if err != nil {
			return err
		}
		removed = n
		return store.DeleteTenant(ctx, owner, id)
	})
	if err != nil {
		return err
	}
	s.Logger.WithFields(logrus.Fields{
		"owner_id":   owner,
		"tenant_id":  id,
		"activities": removed,
	}).Info("tenant deleted")
	return nil
}
