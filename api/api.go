// Package api is the HTTP surface of the gateway: the rendezvous endpoints
// used during interactive login, the system endpoints, and the rate-limited
// pass-through endpoints that consume a validated session.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/vrcbridge/vrcbridge/eventlog"
	"github.com/vrcbridge/vrcbridge/handshake"
	"github.com/vrcbridge/vrcbridge/session"
	"github.com/vrcbridge/vrcbridge/upstream"
)

//go:embed openapi.yaml
var openapiSpec []byte

// API holds the dependencies needed by the REST handlers.
type API struct {
	holder  *session.Holder
	channel *handshake.Channel
	client  *upstream.Client
	limiter *rateLimiter
	audit   *auditLogger
	logger  *slog.Logger
	events  *eventlog.Store
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger. If not set, a JSON logger writing
// to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) { a.logger = logger }
}

// WithEventLog attaches a persistent event log mirroring audit entries.
func WithEventLog(events *eventlog.Store) Option {
	return func(a *API) { a.events = events }
}

// WithRateLimits overrides the default per-client admission caps.
func WithRateLimits(perMinute, perHour int) Option {
	return func(a *API) { a.limiter = newRateLimiter(perMinute, perHour) }
}

// New creates a new API instance. The upstream client may be nil when only
// the restricted auth-mode router will be served.
func New(holder *session.Holder, channel *handshake.Channel, client *upstream.Client, opts ...Option) *API {
	a := &API{
		holder:  holder,
		channel: channel,
		client:  client,
		limiter: newRateLimiter(60, 1000),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	a.audit = newAuditLogger(a.logger, a.events)
	return a
}

// Router returns the full router: rendezvous, system and pass-through
// endpoints, all behind the rate limiter.
func (a *API) Router() chi.Router {
	r := a.baseRouter()
	r.Route("/api", func(r chi.Router) {
		a.mountSystem(r)
		r.Get("/users/{userID}", a.GetUser)
		r.Get("/worlds/{worldID}", a.GetWorld)
		r.Get("/groups/{groupID}", a.GetGroup)
		r.Get("/search/users", a.SearchUsers)
	})
	return r
}

// AuthRouter returns the restricted auth-mode router: only the rendezvous
// and system endpoints are reachable while no valid session exists.
func (a *API) AuthRouter() chi.Router {
	r := a.baseRouter()
	r.Route("/api", func(r chi.Router) {
		a.mountSystem(r)
	})
	return r
}

func (a *API) baseRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(SecurityHeaders)
	r.Use(a.RateLimit)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})
	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
	}, nil))
	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/openapi.yaml",
		Path:    "redoc",
	}, nil))

	r.Route("/webhook/auth", func(r chi.Router) {
		r.Get("/status", a.GetStatus)
		r.Post("/status", a.UpdateStatus)
		r.Get("/status/short", a.GetShortStatus)
		r.Get("/connected", a.GetConnected)
		r.Post("/login", a.SubmitCredentials)
		r.Get("/login", a.TakeCredentials)
		r.Post("/2fa", a.SubmitCode)
		r.Get("/2fa", a.TakeCode)
	})

	r.Get("/system/events", a.ListEvents)

	return r
}

func (a *API) mountSystem(r chi.Router) {
	r.Get("/ping", a.Ping)
	r.Get("/status", a.SystemStatus)
	// Alias kept for the operator UI, which polls the connected state
	// under the api prefix.
	r.Get("/vrchat/connected", a.GetConnected)
}
