package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scribbl"

// Metrics holds the server's collectors. All methods are safe for
// concurrent use.
type Metrics struct {
	gatherer prometheus.Gatherer

	sessions       prometheus.Gauge
	rooms          prometheus.Gauge
	frames         *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	dropped        prometheus.Counter
	historyEvicted prometheus.Counter
}

// New registers the collectors on reg. Each registry can back one Metrics.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Connected sessions.",
		}),
		rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms held in the registry.",
		}),
		frames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Inbound frames by type.",
		}, []string{"type"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rejected_total",
			Help:      "Inbound frames dropped as malformed, by error code.",
		}, []string{"code"}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Outbound frames dropped because the recipient was full or gone.",
		}),
		historyEvicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_evicted_total",
			Help:      "Draw events evicted from room history.",
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionOpened() { m.sessions.Inc() }
func (m *Metrics) SessionClosed() { m.sessions.Dec() }

func (m *Metrics) RoomCreated()              { m.rooms.Inc() }
func (m *Metrics) RoomsRemoved(n int)        { m.rooms.Sub(float64(n)) }
func (m *Metrics) HistoryEvicted()           { m.historyEvicted.Inc() }
func (m *Metrics) FramesDropped(n int)       { m.dropped.Add(float64(n)) }
func (m *Metrics) FrameReceived(typ string)  { m.frames.WithLabelValues(typ).Inc() }
func (m *Metrics) FrameRejected(code string) { m.rejected.WithLabelValues(code).Inc() }
