package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/oldscape/server/internal/net/packet"
)

const namespace = "oldscape"

// Metrics collects server counters in its own registry. It satisfies the
// network layer's observer so sessions can report traffic directly.
type Metrics struct {
	Registry *prometheus.Registry

	packets  *prometheus.CounterVec
	sessions prometheus.Gauge
	logins   *prometheus.CounterVec
	players  prometheus.Gauge
	tick     prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		packets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "net",
				Name:      "packets_total",
				Help:      "Packets processed. Broken down by direction and packet type.",
			},
			[]string{"direction", "type"},
		),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "net",
			Name:      "sessions",
			Help:      "Open connections, including those still logging in.",
		}),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "net",
				Name:      "logins_total",
				Help:      "Login attempts that reached a verdict. Broken down by result.",
			},
			[]string{"result"},
		),
		players: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "players",
			Help:      "Players in the world.",
		}),
		tick: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "tick_seconds",
			Help:      "Time spent running one game tick.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .6},
		}),
	}
	m.Registry.MustRegister(m.packets, m.sessions, m.logins, m.players, m.tick)
	return m
}

func (m *Metrics) SessionOpened() { m.sessions.Inc() }
func (m *Metrics) SessionClosed() { m.sessions.Dec() }

func (m *Metrics) PacketDecoded(t packet.Type) {
	m.packets.WithLabelValues("in", t.String()).Inc()
}

func (m *Metrics) PacketEncoded(t packet.Type) {
	m.packets.WithLabelValues("out", t.String()).Inc()
}

func (m *Metrics) LoginResult(result string) {
	m.logins.WithLabelValues(result).Inc()
}

// SetPlayers records the world population.
func (m *Metrics) SetPlayers(n int) { m.players.Set(float64(n)) }

// ObserveTick records how long a tick took.
func (m *Metrics) ObserveTick(d time.Duration) { m.tick.Observe(d.Seconds()) }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown", zap.Error(err))
		}
	}()

	log.Info("metrics listening", zap.String("addr", ln.Addr().String()))
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
