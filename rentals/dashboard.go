package rentals

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dwella/rent-engine/ledger"
)

// dashboardActivityLimit caps the activities loaded for the dashboard.
const dashboardActivityLimit = 100

// DashboardSummary is the landlord's portfolio overview.
type DashboardSummary struct {
	PropertyCount     int
	ActiveTenantCount int
	AmountOwed        decimal.Decimal
	RecentActivities  []ledger.Activity

	// Partial is set when the summary was built before every source loaded.
	Partial bool
	// Warnings names the sources that failed or had not loaded.
	Warnings []string

	GeneratedAt time.Time
}

// dashboardSources collects what the fetches have loaded so far.
type dashboardSources struct {
	mu sync.Mutex

	properties []ledger.Property
	tenants    []ledger.Tenant
	activities []ledger.Activity
	loaded     map[string]bool
	warnings   []string
}

func (d *dashboardSources) set(source string, apply func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	apply()
	d.loaded[source] = true
}

func (d *dashboardSources) fail(source string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.warnings = append(d.warnings, source+": "+err.Error())
	d.loaded[source] = true
}

// Dashboard loads properties, tenants and recent activities concurrently
// and summarizes them. A failing source counts as empty and adds a warning.
// After DashboardTimeout the summary is built from whatever has loaded; the
// remaining fetches are left to finish in the background.
func (s *Service) Dashboard(ctx context.Context, owner ledger.OwnerID) (_ DashboardSummary, err error) {
	ctx, span := s.startSpan(ctx, "rentals.Dashboard", owner)
	defer func() { endSpan(span, err) }()

	start := time.Now()
	now := s.Now()
	fetchCtx := context.WithoutCancel(ctx)

	sources := &dashboardSources{loaded: make(map[string]bool)}
	var g errgroup.Group

	g.Go(func() error {
		properties, err := s.Store.ListProperties(fetchCtx, owner)
		if err != nil {
			s.Logger.WithError(err).WithField("owner_id", owner).Error("dashboard: failed to load properties")
			sources.fail("properties", err)
			return nil
		}
		sources.set("properties", func() { sources.properties = properties })
		return nil
	})
	g.Go(func() error {
		tenants, err := s.Store.ListTenants(fetchCtx, owner)
		if err != nil {
			s.Logger.WithError(err).WithField("owner_id", owner).Error("dashboard: failed to load tenants")
			sources.fail("tenants", err)
			return nil
		}
		sources.set("tenants", func() { sources.tenants = tenants })
		return nil
	})
	g.Go(func() error {
		activities, err := s.Store.ListActivities(fetchCtx, owner, ledger.ActivityFilter{
			From:  ledger.WindowStart(now, ledger.DefaultOwedWindowMonths),
			Order: ledger.OrderDateDesc,
			Limit: dashboardActivityLimit,
		})
		if err != nil {
			s.Logger.WithError(err).WithField("owner_id", owner).Error("dashboard: failed to load activities")
			sources.fail("activities", err)
			return nil
		}
		sources.set("activities", func() { sources.activities = activities })
		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	timeout := s.DashboardTimeout
	if timeout <= 0 {
		timeout = DefaultDashboardTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	partial := false
	select {
	case <-done:
	case <-timer.C:
		partial = true
	case <-ctx.Done():
		partial = true
	}

	summary := s.summarize(sources, now, partial)
	if partial {
		s.Logger.WithField("owner_id", owner).WithField("warnings", summary.Warnings).Warn("dashboard returned before all sources loaded")
	}
	s.Metrics.ObserveDashboard(start, partial)
	return summary, nil
}

func (s *Service) summarize(sources *dashboardSources, now time.Time, partial bool) DashboardSummary {
	sources.mu.Lock()
	defer sources.mu.Unlock()

	warnings := append([]string(nil), sources.warnings...)
	for _, name := range []string{"properties", "tenants", "activities"} {
		if !sources.loaded[name] {
			warnings = append(warnings, name+": still loading")
		}
	}

	active := 0
	for _, t := range sources.tenants {
		if t.IsActive() {
			active++
		}
	}

	return DashboardSummary{
		PropertyCount:     len(sources.properties),
		ActiveTenantCount: active,
		AmountOwed: ledger.PortfolioAmountOwed(sources.tenants, sources.activities, now,
			ledger.DefaultOwedWindowMonths),
		RecentActivities: ledger.RecentActivityFeed(sources.activities, now,
			ledger.DefaultFeedLimit, ledger.DefaultOwedWindowMonths),
		Partial:     partial,
		Warnings:    warnings,
		GeneratedAt: now,
	}
}
