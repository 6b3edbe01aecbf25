package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/hostledger/internal/auth"
	"github.com/mmynk/hostledger/internal/config"
	"github.com/mmynk/hostledger/internal/metrics"
	"github.com/mmynk/hostledger/internal/middleware"
	"github.com/mmynk/hostledger/internal/ratefeed"
	"github.com/mmynk/hostledger/internal/service"
	"github.com/mmynk/hostledger/internal/storage/sqlstore"
	"github.com/mmynk/hostledger/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	store, err := sqlstore.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	svc, err := service.NewFinanceService(store, cfg.ReportingCurrency)
	if err != nil {
		return err
	}

	var authInterceptor connect.Interceptor
	if cfg.JWTSecret != "" {
		authInterceptor = middleware.RequireAuth(auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL))
	} else {
		slog.Warn("JWT_SECRET not set; every request runs as the local admin of org \"default\"")
		authInterceptor = middleware.StaticPrincipal(auth.Principal{UserID: "local", OrgID: "default", Role: auth.RoleAdmin})
	}

	metrics.Register()
	mux := http.NewServeMux()

	financePath, financeHandler := service.NewFinanceServiceHandler(svc,
		connect.WithInterceptors(authInterceptor, middleware.LoggingInterceptor()))
	mux.Handle(financePath, financeHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.DB().PingContext(r.Context()); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})

	if len(cfg.RateFeedCurrencies) > 0 {
		feed := ratefeed.New(cfg.RateFeedURL, ratefeed.WithRateLimit(cfg.RateFeedRPS, cfg.RateFeedBurst))
		go syncRates(ctx, feed, svc, cfg)
	}

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(metrics.Instrument(loggingMiddleware(corsMiddleware(mux))), &http2.Server{})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "reporting_currency", cfg.ReportingCurrency)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// syncRates records the day's rate from each configured currency into the
// reporting currency, once at startup and then every RateFeedInterval.
func syncRates(ctx context.Context, feed *ratefeed.Client, svc *service.FinanceService, cfg config.Config) {
	sync := func() {
		for _, from := range cfg.RateFeedCurrencies {
			if from == cfg.ReportingCurrency {
				continue
			}
			if _, err := feed.Sync(ctx, svc.Registry(), from, []string{cfg.ReportingCurrency}, time.Now()); err != nil {
				slog.Warn("Rate sync failed", "from", from, "to", cfg.ReportingCurrency, "error", err)
			}
		}
	}

	sync()
	ticker := time.NewTicker(cfg.RateFeedInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sync()
		}
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
