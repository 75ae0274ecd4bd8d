package rentals

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts ledger writes. A nil *Metrics records nothing.
type Metrics struct {
	ActivitiesRecorded   *prometheus.CounterVec
	RentChargesGenerated prometheus.Counter
	MeterRepairs         prometheus.Counter
	DashboardDuration    prometheus.Histogram
	DashboardPartial     prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActivitiesRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dwella_activities_recorded_total",
			Help: "Total number of activities recorded, by activity type",
		}, []string{"type"}),
		RentChargesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "dwella_rent_charges_generated_total",
			Help: "Total number of monthly rent charges generated by reconcile",
		}),
		MeterRepairs: factory.NewCounter(prometheus.CounterOpts{
			Name: "dwella_meter_reading_repairs_total",
			Help: "Total number of tenant meter readings repaired from their latest bill",
		}),
		DashboardDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dwella_dashboard_duration_seconds",
			Help:    "Duration of dashboard summary loads",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		DashboardPartial: factory.NewCounter(prometheus.CounterOpts{
			Name: "dwella_dashboard_partial_total",
			Help: "Total number of dashboard summaries returned before every source loaded",
		}),
	}
}

func (m *Metrics) IncrementActivityRecorded(activityType string) {
	if m == nil {
		return
	}
	m.ActivitiesRecorded.WithLabelValues(activityType).Inc()
}

func (m *Metrics) IncrementRentGenerated() {
	if m == nil {
		return
	}
	m.RentChargesGenerated.Inc()
}

func (m *Metrics) IncrementMeterRepair() {
	if m == nil {
		return
	}
	m.MeterRepairs.Inc()
}

func (m *Metrics) ObserveDashboard(start time.Time, partial bool) {
	if m == nil {
		return
	}
	m.DashboardDuration.Observe(time.Since(start).Seconds())
	if partial {
		m.DashboardPartial.Inc()
	}
}
