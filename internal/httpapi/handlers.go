// Package httpapi is the HTTP boundary: routing, authn middleware, and the
// translation of normalized error kinds to status codes.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"usergate.org/internal/auth"
	"usergate.org/internal/errs"
	"usergate.org/internal/obs"
	"usergate.org/internal/stream"
	"usergate.org/internal/user"
)

// ReadyProbe reports readiness (DB ping when a handle is present).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options carries the collaborators the API serves.
type Options struct {
	Ready    ReadyProbe
	Version  string
	Users    *user.Service
	Auth     *auth.Service
	Verifier auth.TokenVerifier
	Events   *stream.Stream

	MaxBodyBytes   int64
	RateLimitRPS   float64
	RateLimitBurst int
}

// API is the HTTP layer.
type API struct {
	mux      *http.ServeMux
	ready    ReadyProbe
	version  string
	users    *user.Service
	auth     *auth.Service
	verifier auth.TokenVerifier
	events   *stream.Stream

	maxBodyBytes   int64
	rateLimitRPS   float64
	rateLimitBurst int
}

func New(opts Options) *API {
	a := &API{
		mux:            http.NewServeMux(),
		ready:          opts.Ready,
		version:        opts.Version,
		users:          opts.Users,
		auth:           opts.Auth,
		verifier:       opts.Verifier,
		events:         opts.Events,
		maxBodyBytes:   opts.MaxBodyBytes,
		rateLimitRPS:   opts.RateLimitRPS,
		rateLimitBurst: opts.RateLimitBurst,
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 1 << 20
	}
	if a.rateLimitRPS <= 0 {
		a.rateLimitRPS = 50
	}
	if a.rateLimitBurst <= 0 {
		a.rateLimitBurst = 100
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth flows
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/change-password", a.handleChangePassword)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)

	// user lifecycle
	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	// lifecycle event stream
	a.mux.HandleFunc("/v1/events", a.Stream)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = obs.Instrument(a.mux)
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateLimitBurst, a.rateLimitRPS)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return h
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "usergate-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
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
		"name":    "usergate-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleKindError maps the normalized error taxonomy to HTTP statuses.
// Causes never reach response bodies; only the stable message does.
func handleKindError(w http.ResponseWriter, r *http.Request, err error) {
	var e *errs.Error
	if !errors.As(err, &e) {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	switch e.Kind {
	case errs.InvalidCredentials, errs.WeakPassword, errs.InvalidAttributes,
		errs.DuplicateIdentity, errs.DuplicateAttribute:
		writeError(w, r, http.StatusBadRequest, e.Message)
	case errs.NotFound:
		writeError(w, r, http.StatusNotFound, e.Message)
	case errs.ChallengeRequired:
		writeError(w, r, http.StatusPreconditionRequired, e.Message)
	case errs.PermissionDenied:
		writeError(w, r, http.StatusForbidden, e.Message)
	case errs.PartialCreate:
		payload := map[string]any{
			"error":       e.Message,
			"external_id": e.ExternalID,
		}
		if rid := RequestIDFromContext(r.Context()); rid != "" {
			payload["request_id"] = rid
		}
		writeJSON(w, http.StatusBadGateway, payload)
	case errs.UpstreamAuth, errs.UpstreamIdentity:
		writeError(w, r, http.StatusBadGateway, e.Message)
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
