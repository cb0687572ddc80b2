// Package metrics содержит Prometheus-метрики сервиса drop4life.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics содержит счётчики бизнес-событий.
type Metrics struct {
	DonationsAccepted     prometheus.Counter
	DonorRequestsDeclined prometheus.Counter
	EligibilityRefusals   *prometheus.CounterVec
	StockUnitsCredited    *prometheus.CounterVec
	SeekerRequestsCreated prometheus.Counter
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DonationsAccepted: f.NewCounter(prometheus.CounterOpts{
			Name: "drop4life_donations_accepted_total",
			Help: "Total number of donor requests accepted with a recorded donation",
		}),
		DonorRequestsDeclined: f.NewCounter(prometheus.CounterOpts{
			Name: "drop4life_donor_requests_declined_total",
			Help: "Total number of donor requests declined",
		}),
		EligibilityRefusals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "drop4life_eligibility_refusals_total",
			Help: "Total number of refused acceptances by ineligibility reason",
		}, []string{"reason"}),
		StockUnitsCredited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "drop4life_stock_units_credited_total",
			Help: "Total number of blood units credited to hospital stock",
		}, []string{"blood_type"}),
		SeekerRequestsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "drop4life_seeker_requests_created_total",
			Help: "Total number of seeker requests created",
		}),
	}
}

// IncrementDonationsAccepted увеличивает счётчик принятых донаций.
func (m *Metrics) IncrementDonationsAccepted() {
	if m == nil {
		return
	}
	m.DonationsAccepted.Inc()
}

// IncrementDeclined увеличивает счётчик отклонённых запросов.
func (m *Metrics) IncrementDeclined() {
	if m == nil {
		return
	}
	m.DonorRequestsDeclined.Inc()
}

// IncrementRefusal увеличивает счётчик отказов по причине reason.
func (m *Metrics) IncrementRefusal(reason string) {
	if m == nil {
		return
	}
	m.EligibilityRefusals.WithLabelValues(reason).Inc()
}

// AddStockUnits учитывает зачисленные единицы крови.
func (m *Metrics) AddStockUnits(bloodType string, units int) {
	if m == nil {
		return
	}
	m.StockUnitsCredited.WithLabelValues(bloodType).Add(float64(units))
}

// IncrementSeekerRequests увеличивает счётчик запросов нуждающихся.
func (m *Metrics) IncrementSeekerRequests() {
	if m == nil {
		return
	}
	m.SeekerRequestsCreated.Inc()
}
