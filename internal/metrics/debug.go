package metrics

import (
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"jet-fighter/internal/config"
)

// DebugHandler serves pprof, /metrics and /health.
func DebugHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// StartDebugServer starts the observability listener in the background.
// It returns nil when disabled. Non-loopback addresses are forced to
// 127.0.0.1 unless ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(cfg config.ObservabilityConfig, log zerolog.Logger) *http.Server {
	log = log.With().Str("component", "debug").Logger()
	if !cfg.DebugEnabled {
		log.Info().Msg("debug server disabled")
		return nil
	}

	addr := cfg.DebugAddr
	if !isLoopback(addr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Warn().Str("requested", addr).Msg("debug server forced to localhost")
		addr = "127.0.0.1:6060"
	}

	srv := &http.Server{Addr: addr, Handler: DebugHandler()}
	go func() {
		log.Info().Str("addr", addr).Msg("debug server starting (pprof, /metrics)")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("debug server failed")
		}
	}()
	return srv
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
