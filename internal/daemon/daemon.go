// Package daemon wires the services together and runs the HTTP API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tillpoint-pos/tillpoint/internal/api"
	"github.com/tillpoint-pos/tillpoint/internal/infra/sqlite"
	"github.com/tillpoint-pos/tillpoint/internal/inventory"
	"github.com/tillpoint-pos/tillpoint/internal/ledger"
	"github.com/tillpoint-pos/tillpoint/internal/logger"
	"github.com/tillpoint-pos/tillpoint/internal/sales"
)

// Run starts the back-office server and blocks until SIGINT/SIGTERM.
func Run(cfg Config) error {
	if err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	log := logger.WithComponent("daemon")

	db, err := sqlite.Open(cfg.Store.Dir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	adjuster := inventory.NewAdjuster(db)
	recorder := sales.NewRecorder(db, adjuster)
	l := ledger.New(db, adjuster, recorder)

	server := api.NewServer(db, l, adjuster, recorder)
	server.SetAPIKey(cfg.API.Key)
	if cfg.API.MetricsEnabled {
		server.EnableMetrics()
	}

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info().Msg("daemon stopped")
	return nil
}
