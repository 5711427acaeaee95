package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lapboard"

// Metrics groups the collectors of one server. Each instance owns its own
// registry so several servers can run in one process.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	LapTimesAdded   prometheus.Counter
	LapTimesDeleted prometheus.Counter
	Exports         *prometheus.CounterVec

	Drivers     prometheus.Gauge
	LapTimes    prometheus.Gauge
	LiveClients prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),

		LapTimesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lap_times_added_total",
			Help:      "Lap times submitted.",
		}),

		LapTimesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lap_times_deleted_total",
			Help:      "Successful lap time deletions.",
		}),

		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Export attempts by result.",
		}, []string{"result"}),

		Drivers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drivers",
			Help:      "Drivers currently on the leaderboard.",
		}),

		LapTimes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lap_times",
			Help:      "Lap times currently on the leaderboard.",
		}),

		LiveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_clients",
			Help:      "Connected live feed clients.",
		}),
	}

	m.registry.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.LapTimesAdded,
		m.LapTimesDeleted,
		m.Exports,
		m.Drivers,
		m.LapTimes,
		m.LiveClients,
	)

	return m
}

// SetSize records the current number of drivers and lap times.
func (m *Metrics) SetSize(drivers, lapTimes int) {
	m.Drivers.Set(float64(drivers))
	m.LapTimes.Set(float64(lapTimes))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
