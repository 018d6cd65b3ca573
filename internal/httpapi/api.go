package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"niceblog.org/internal/auth"
	"niceblog.org/internal/blog"
	"niceblog.org/internal/obs"
)

// ReadyProbe reports readiness, pinging the database when one is wired.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the account and blog services.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	blogs      *blog.Service
	readyProbe ReadyProbe
	version    string

	rateRPS   float64
	rateBurst int
}

// Option configures the API.
type Option func(*API)

// WithRateLimit overrides the default per-IP rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(a *API) {
		if rps > 0 {
			a.rateRPS = rps
		}
		if burst > 0 {
			a.rateBurst = burst
		}
	}
}

func New(authSvc *auth.Service, blogSvc *blog.Service, rp ReadyProbe, version string, opts ...Option) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       authSvc,
		blogs:      blogSvc,
		readyProbe: rp,
		version:    version,
		rateRPS:    20,
		rateBurst:  40,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// JSON API
	a.mux.HandleFunc("/api/login", a.apiLogin)
	a.mux.HandleFunc("/api/register", a.apiRegister)
	a.mux.HandleFunc("/api/users/", a.apiUserScoped)
	a.mux.HandleFunc("/api/blogs/", a.apiBlogScoped)
	a.mux.HandleFunc("/api/labels/", a.apiLabelScoped)
	a.mux.HandleFunc("/api/blog/preview/", a.apiPreview)

	// Browser session flow
	a.mux.HandleFunc("/auth/login", a.authLogin)
	a.mux.HandleFunc("/auth/logout", a.authLogout)
	a.mux.HandleFunc("/auth/register", a.authRegister)
	a.mux.HandleFunc("/auth/confirm/", a.authConfirm)
	a.mux.HandleFunc("/auth/unconfirmed", a.authUnconfirmed)
	a.mux.HandleFunc("/auth/reset", a.authRequestReset)
	a.mux.HandleFunc("/auth/reset/", a.authResetPassword)
	a.mux.HandleFunc("/auth/change-password", a.authChangePassword)

	// Moderation and role management
	a.mux.HandleFunc("/manage/comments/", a.manageComments)
	a.mux.HandleFunc("/manage/roles", a.manageRolesList)
	a.mux.HandleFunc("/manage/roles/", a.manageRoleScoped)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler chain for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAPIAuth(h)
	h = a.withSession(h)
	h = RateLimit(h, a.rateBurst, int(a.rateRPS))
	h = MaxBodyBytes(h, 1<<20)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- ops handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "niceblog-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "niceblog-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
