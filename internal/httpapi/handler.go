// Package httpapi exposes the player-data service over HTTP: a read endpoint
// and a section-write endpoint, plus a health probe. Remote failures pass
// through with their original status; conflicts, bad requests, and unresolved
// handles map to 409, 400, and 404.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"pkt.systems/pslog"

	"github.com/rbxkit/playerstore/internal/httpx"
	"github.com/rbxkit/playerstore/internal/playerdata"
)

// requestTimeout bounds the whole coordinator sequence (resolve + fetch +
// write) for one inbound request, on top of the per-call timeout inside
// httpx.
const requestTimeout = 45 * time.Second

// Config assembles a Handler.
type Config struct {
	Service *playerdata.Service
	// AdminToken gates the /api routes when non-empty. Empty disables the
	// gate.
	AdminToken string
	Logger     pslog.Logger
	Metrics    *Metrics
}

// Handler routes inbound requests to the player-data service.
type Handler struct {
	svc        *playerdata.Service
	adminToken string
	logger     pslog.Logger
	metrics    *Metrics
	router     chi.Router
}

// New builds the Handler and its route table.
func New(cfg Config) (*Handler, error) {
	if cfg.Service == nil {
		return nil, errors.New("httpapi: service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.NoopLogger()
	}

	h := &Handler{
		svc:        cfg.Service,
		adminToken: cfg.AdminToken,
		logger:     logger,
		metrics:    cfg.Metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(h.requireAdminToken)
		r.Get("/player/{handle}", h.getPlayer)
		r.Post("/player/{handle}/set-section", h.setSection)
	})

	h.router = r
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) getPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	player, err := h.svc.Read(ctx, chi.URLParam(r, "handle"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (h *Handler) setSection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var patch playerdata.SectionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.svc.SetSection(ctx, chi.URLParam(r, "handle"), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"entryId": result.EntryID,
		"updated": result.Updated,
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		badReq   *playerdata.BadRequestError
		conflict *playerdata.ConflictError
		httpErr  *httpx.HTTPError
	)
	switch {
	case errors.As(err, &badReq):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": badReq.Reason})
	case errors.Is(err, playerdata.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "player not found"})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":        "etag conflict",
			"expectedEtag": conflict.ExpectedETag,
			"currentEtag":  conflict.CurrentETag,
		})
	case errors.As(err, &httpErr):
		status := httpErr.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, map[string]any{
			"error":   "remote call failed",
			"details": httpErr.Details,
		})
	default:
		h.logger.Error("httpapi.request.internal_error", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

// requireAdminToken compares the caller's bearer (or X-Admin-Token) header
// against the configured secret. With no secret configured the gate is a
// no-op.
func (h *Handler) requireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := r.Header.Get("X-Admin-Token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		h.logger.Info("http.request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
		if h.metrics != nil {
			h.metrics.observe(r.Method, route, ww.Status(), elapsed)
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
