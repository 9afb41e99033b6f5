package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the http server that will be serving the /metrics request for prometheus
type Server struct {
	server *http.Server
	log    zerolog.Logger
}

// NewServer creates a new server that will listen on the specified port and
// serve the metrics gathered by gatherer on the `/metrics` endpoint.
func NewServer(log zerolog.Logger, port uint, gatherer prometheus.Gatherer) *Server {
	addr := net.JoinHostPort("", strconv.Itoa(int(port)))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Server{
		server: &http.Server{Addr: addr, Handler: mux},
		log:    log.With().Str("component", "metrics_server").Str("address", addr).Logger(),
	}
}

// Start serves in the background until Shutdown is called.
func (m *Server) Start() {
	m.log.Info().Msg("metrics server started")
	go func() {
		err := m.server.ListenAndServe()
		// http.ErrServerClosed is returned when Close or Shutdown is called
		if errors.Is(err, http.ErrServerClosed) {
			m.log.Debug().Err(err).Msg("metrics server shutdown")
			return
		}
		m.log.Err(err).Msg("metrics server failed")
	}()
}

// Shutdown stops the server, waiting for in-flight scrapes until ctx is done.
func (m *Server) Shutdown(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
