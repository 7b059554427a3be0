package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/vrcbridge/vrcbridge/api"
	"github.com/vrcbridge/vrcbridge/config"
	"github.com/vrcbridge/vrcbridge/eventlog"
	"github.com/vrcbridge/vrcbridge/handshake"
	"github.com/vrcbridge/vrcbridge/session"
	"github.com/vrcbridge/vrcbridge/upstream"
)

var (
	servePort int
	authMode  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway server",
	Long: `Start the gateway. If the persisted session record is present and still
accepted upstream, the full server starts immediately. Otherwise only the
restricted auth-mode surface comes up and the interactive login handshake
runs against the rendezvous endpoints; once it succeeds the full server is
promoted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

		store := session.NewStore(newBacking(cfg))
		holder := session.NewHolder(store)
		validator := session.NewValidator(cfg.APIBase, cfg.ClientName)

		client, err := upstream.New(cfg.APIBase, cfg.ClientName)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(cfg.EventLogFile), 0o700); err != nil {
			return fmt.Errorf("creating event log directory: %w", err)
		}
		events, err := eventlog.Open(cfg.EventLogFile)
		if err != nil {
			return err
		}
		defer events.Close()

		channel := handshake.NewChannel()
		a := api.New(holder, channel, client,
			api.WithLogger(logger),
			api.WithEventLog(events),
			api.WithRateLimits(cfg.CallsPerMinute, cfg.CallsPerHour),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		printBanner()

		if !authMode && sessionReady(ctx, store, validator, holder, logger) {
			return serveFull(ctx, cfg, a, validator, holder, events, logger)
		}

		if authMode {
			// Forced auth mode: expose the rendezvous surface only; an
			// external driver process runs the handshake.
			logger.Info("starting in forced auth mode", "port", cfg.Port)
			return serveHTTP(ctx, newServer(cfg.Port, a.AuthRouter()), logger)
		}

		logger.Info("no valid session, starting auth mode and login handshake", "port", cfg.Port)
		if err := runAuthPhase(ctx, cfg, a, store, validator, channel, logger); err != nil {
			return err
		}
		if err := holder.Initialize(ctx); err != nil {
			return fmt.Errorf("initializing session after login: %w", err)
		}
		logger.Info("login complete, promoting to full server")
		return serveFull(ctx, cfg, a, validator, holder, events, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&authMode, "auth-mode", false, "Serve only the rendezvous endpoints")
}

// newBacking selects the persisted-record representation once; everything
// downstream is backing-agnostic.
func newBacking(cfg config.Config) session.Backing {
	if cfg.Distant {
		return &session.RemoteBacking{URL: cfg.DistantURL}
	}
	return &session.LocalBacking{Path: cfg.TokenFile}
}

// sessionReady attempts TokenStore load then upstream validation. Failures
// here downgrade to "not authenticated"; they never abort startup.
func sessionReady(ctx context.Context, store *session.Store, validator *session.Validator, holder *session.Holder, logger *slog.Logger) bool {
	rec, err := store.Load(ctx)
	if err != nil {
		logger.Warn("no persisted session record", "err", err)
		return false
	}
	if !rec.Usable() || rec.Expired(time.Now().UTC()) {
		logger.Warn("persisted session record unusable or expired")
		return false
	}
	if !validator.Verify(ctx, rec.Cookie) {
		logger.Warn("persisted session rejected by upstream, reconnection required")
		return false
	}
	if err := holder.Initialize(ctx); err != nil {
		logger.Warn("session initialization failed", "err", err)
		return false
	}
	return true
}

// runAuthPhase serves the restricted router while the in-process handshake
// waits on the rendezvous channel, then persists the new record. A failed
// handshake is terminal for the process; the supervisor decides on retry.
func runAuthPhase(ctx context.Context, cfg config.Config, a *api.API, store *session.Store, validator *session.Validator, channel *handshake.Channel, logger *slog.Logger) error {
	srv := newServer(cfg.Port, a.AuthRouter())
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("auth-mode server failed", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	hsClient, err := upstream.New(cfg.APIBase, cfg.ClientName)
	if err != nil {
		return err
	}
	hs := handshake.New(hsClient, handshake.NewChannelSource(channel), validator.Verify, logger)
	rec, err := hs.Run(ctx)
	if err != nil {
		return fmt.Errorf("login handshake: %w", err)
	}

	if !store.Writable() {
		return fmt.Errorf("distant mode holds no local record; update the distant source with the new token")
	}
	if _, err := store.Save(rec); err != nil {
		return fmt.Errorf("persisting session record: %w", err)
	}
	return nil
}

// serveFull runs the complete router plus the background re-check and
// limiter sweep loops until the context is cancelled.
func serveFull(ctx context.Context, cfg config.Config, a *api.API, validator *session.Validator, holder *session.Holder, events *eventlog.Store, logger *slog.Logger) error {
	go a.RunSweeper(ctx)

	if cfg.RecheckIntervalSeconds > 0 {
		interval := time.Duration(cfg.RecheckIntervalSeconds) * time.Second
		rechecker := session.NewRechecker(holder, validator.Verify, interval, logger, func(ok bool) {
			outcome := "ok"
			if !ok {
				outcome = "failed"
			}
			_ = events.Append("session_recheck", outcome, "")
		})
		go rechecker.Run(ctx)
	}

	logger.Info("starting server", "port", cfg.Port)
	return serveHTTP(ctx, newServer(cfg.Port, a.Router()), logger)
}

func newServer(port int, h http.Handler) *http.Server {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Mount("/", h)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serveHTTP blocks until the context is cancelled or the server fails,
// then shuts down gracefully.
func serveHTTP(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	done := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- fmt.Errorf("server failed: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-done:
		return err
	}
}
