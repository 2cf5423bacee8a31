package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"twhydrate/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Handler serves /metrics from the default registry and a /health probe
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Serve exposes Handler on addr until ctx is cancelled. It returns once the
// listener is bound; serving continues in the background.
func Serve(ctx context.Context, addr string, log logger.Logger) (net.Addr, error) {
	log = logger.OrDefault(log)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		log.InfoWithFields("metrics server listening", map[string]interface{}{
			"addr": ln.Addr().String(),
		})
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()

	return ln.Addr(), nil
}
