package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "glomers"

var (
	Registry = prometheus.NewRegistry()

	EnvelopesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "envelopes_received_total",
			Help:      "Inbound envelopes by body type.",
		},
		[]string{"type"},
	)

	EnvelopesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "envelopes_sent_total",
			Help:      "Envelopes written to the output stream by body type.",
		},
		[]string{"type"},
	)

	GossipRounds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gossip_rounds_total",
			Help:      "Gossip timer ticks handled.",
		},
	)

	GossipFactsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gossip_facts_sent_total",
			Help:      "Facts carried by gossip envelopes, redundant ones included.",
		},
	)

	GossipSendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gossip_send_failures_total",
			Help:      "Gossip envelopes that could not be written; retried next round.",
		},
	)

	FactsKnown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "facts_known",
			Help:      "Facts currently held by this node.",
		},
	)

	PeersTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peers_tracked",
			Help:      "Peers this node gossips with.",
		},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build info (constant 1, labeled by binary and version).",
		},
		[]string{"binary", "version"},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(
		EnvelopesReceived, EnvelopesSent,
		GossipRounds, GossipFactsSent, GossipSendFailures,
		FactsKnown, PeersTracked,
		buildInfo, uptime,
	)
}

// MetricsHandler exposes the registry in the Prometheus text format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// SetBuildInfo should be called once at startup.
func SetBuildInfo(binary, version string) {
	buildInfo.WithLabelValues(binary, version).Set(1)
}

var shutdownTimeout = time.Second

// ServeMetrics serves /metrics on addr in the background until ctx is done.
// Stdout carries the protocol, so this is the only way to scrape a node.
func ServeMetrics(ctx context.Context, addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics listener stopped", zap.Error(err))
		}
	}()
	go shutdownOnDone(ctx, srv, log)
}

func shutdownOnDone(ctx context.Context, srv *http.Server, log *zap.Logger) {
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics listener shutdown", zap.Error(err))
	}
}
