package collab

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the hub's prometheus collectors.
type Metrics struct {
	Clients  prometheus.Gauge
	Rooms    prometheus.Gauge
	Batches  *prometheus.CounterVec
	Saves    *prometheus.CounterVec
	BatchOps prometheus.Histogram
	Dropped  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "drafting_collab_clients",
			Help: "Connected websocket clients",
		}),
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "drafting_collab_rooms",
			Help: "Projects with at least one connected client",
		}),
		Batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drafting_collab_batches_total",
				Help: "Submitted edit batches by result",
			},
			[]string{"result"},
		),
		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drafting_collab_snapshot_saves_total",
				Help: "Snapshot saves by result",
			},
			[]string{"result"},
		),
		BatchOps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drafting_collab_batch_operations",
			Help:    "Operations per accepted batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drafting_collab_dropped_messages_total",
			Help: "Outgoing messages dropped because a client queue was full",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Clients, m.Rooms, m.Batches, m.Saves, m.BatchOps, m.Dropped)
	}
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
