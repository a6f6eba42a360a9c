package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

type Metrics struct {
	RoomsActive       prometheus.Gauge
	ConnectionsActive prometheus.Gauge
	NumbersCalled     prometheus.Counter
	GamesFinished     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the bingo collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bingo_rooms_active",
			Help: "Rooms currently held in the registry.",
		}),
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bingo_connections_active",
			Help: "Open websocket connections.",
		}),
		NumbersCalled: factory.NewCounter(prometheus.CounterOpts{
			Name: "bingo_numbers_called_total",
			Help: "Accepted number calls.",
		}),
		GamesFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bingo_games_finished_total",
			Help: "Finished games by outcome.",
		}, []string{"outcome"}),
		gatherer: reg,
	}
}

// NewDefault registers on a fresh registry that also carries the go and process collectors.
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return New(reg)
}

func (that *Metrics) GameFinished(outcome entity.Outcome) {
	that.GamesFinished.WithLabelValues(string(outcome)).Inc()
}

// Handler exposes the registry at /metrics.
func (that *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(that.gatherer, promhttp.HandlerOpts{})
}
