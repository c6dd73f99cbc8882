package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/notDuyLam/myshop-wp/internal/application"
	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// StatusClientClosedRequest reports a request abandoned by its caller.
const StatusClientClosedRequest = 499

type Services struct {
	Auth     *application.AuthService
	Catalog  *application.CatalogService
	Orders   *application.OrderService
	Settings *application.SettingsService
}

type Options struct {
	LoginRate  rate.Limit
	LoginBurst int
	SessionTTL time.Duration
	Logger     zerolog.Logger
}

type Handler struct {
	svc      Services
	log      zerolog.Logger
	sessions *sessions
	limiter  *loginLimiter
}

func NewRouter(svc Services, opts Options) http.Handler {
	if opts.LoginRate <= 0 {
		opts.LoginRate = rate.Limit(1)
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 3
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}

	h := &Handler{
		svc:      svc,
		log:      opts.Logger.With().Str("component", "http").Logger(),
		sessions: newSessions(opts.SessionTTL),
		limiter:  newLoginLimiter(opts.LoginRate, opts.LoginBurst, 3*time.Minute),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().Format(time.RFC3339)})
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", h.handleLogin)
		api.Get("/auth/state", h.handleAuthState)

		api.Group(func(p chi.Router) {
			p.Use(h.requireSession)

			p.Post("/auth/logout", h.handleLogout)
			p.Post("/auth/password", h.handleChangePassword)

			p.Get("/products", h.handleQueryProducts)
			p.Post("/products", h.handleAddProduct)
			p.Get("/products/{id}", h.handleGetProduct)
			p.Put("/products/{id}", h.handleUpdateProduct)
			p.Delete("/products/{id}", h.handleRemoveProduct)

			p.Get("/categories", h.handleListCategories)
			p.Post("/categories", h.handleAddCategory)
			p.Put("/categories/{id}", h.handleUpdateCategory)
			p.Delete("/categories/{id}", h.handleRemoveCategory)

			p.Get("/orders", h.handleListOrders)
			p.Post("/orders", h.handleCreateOrder)
			p.Get("/orders/{id}", h.handleGetOrder)
			p.Post("/orders/{id}/status", h.handleSetOrderStatus)
			p.Delete("/orders/{id}", h.handleRemoveOrder)

			p.Get("/settings/database", h.handleGetDatabaseConfig)
			p.Put("/settings/database", h.handleSaveDatabaseConfig)
			p.Post("/settings/database/test", h.handleTestDatabaseConfig)
			p.Delete("/settings/database", h.handleResetDatabaseConfig)
		})
	})

	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ev := h.log.Info()
		if status >= http.StatusInternalServerError {
			ev = h.log.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, err := h.svc.Auth.State()
		if err != nil {
			h.writeError(w, err)
			return
		}
		if state != application.Authenticated || !h.sessions.valid(tokenFromRequest(r)) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type apiLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.allow(r) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": "rate limit exceeded"})
		return
	}

	var req apiLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	if err := h.svc.Auth.Login(req.Username, req.Password); err != nil {
		h.writeError(w, err)
		return
	}

	token, err := h.sessions.issue()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.setSessionCookie(w, r, token)
	writeJSON(w, http.StatusOK, map[string]any{"state": application.Authenticated.String(), "token": token})
}

func (h *Handler) handleAuthState(w http.ResponseWriter, _ *http.Request) {
	state, err := h.svc.Auth.State()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": state.String()})
}

func (h *Handler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	h.sessions.revokeAll()
	h.clearSessionCookie(w)
	if err := h.svc.Auth.Logout(); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type apiChangePasswordRequest struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req apiChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	if err := h.svc.Auth.ChangePassword(req.Current, req.Next); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessions.ttl.Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// statusFor maps the outermost domain error kind onto an HTTP status.
func statusFor(err error) int {
	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.ErrValidation:
			return http.StatusBadRequest
		case domain.ErrInvalidCredentials:
			return http.StatusUnauthorized
		case domain.ErrNotFound:
			return http.StatusNotFound
		case domain.ErrReferenced:
			return http.StatusConflict
		case domain.ErrCancelled:
			return StatusClientClosedRequest
		case domain.ErrConnectionFailure:
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}
	if domain.IsCancelled(err) {
		return StatusClientClosedRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := domain.Message(err)
	if msg == "" {
		msg = http.StatusText(status)
		if status == StatusClientClosedRequest {
			msg = "request cancelled"
		}
	}
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseID(r *http.Request) (uint, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, domain.Validation("invalid id %q", raw)
	}
	return uint(id), nil
}

func parseOptionalInt(raw string, field string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validation("%s must be an integer", field)
	}
	return v, nil
}

func parseOptionalUint(raw string, field string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, domain.Validation("%s must be a positive integer", field)
	}
	id := uint(v)
	return &id, nil
}
