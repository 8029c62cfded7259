// Package api serves the read-only query surface: an unauthenticated
// health endpoint plus key-guarded access to live metrics and snapshot
// history. It never mutates alert state or configuration.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"cantonwatch/internal/fetcher"
	"cantonwatch/internal/metrics"
	"cantonwatch/internal/storage"
)

const defaultSnapshotLimit = 24

// Handler is the HTTP handler for all query-surface endpoints.
type Handler struct {
	fetcher   fetcher.PageFetcher
	snapshots storage.SnapshotStore
	keys      storage.APIKeyStore
	logger    zerolog.Logger
	mux       *http.ServeMux
}

// New creates a Handler and registers all routes. snapshots and keys
// may be nil when the database is not configured; guarded endpoints
// then answer 503.
func New(f fetcher.PageFetcher, snapshots storage.SnapshotStore, keys storage.APIKeyStore, logger zerolog.Logger) *Handler {
	h := &Handler{
		fetcher:   f,
		snapshots: snapshots,
		keys:      keys,
		logger:    logger.With().Str("component", "api").Logger(),
		mux:       http.NewServeMux(),
	}

	h.mux.HandleFunc("/healthz", h.health)
	h.mux.HandleFunc("/api/v1/metrics/live", h.withKey(h.liveMetrics))
	h.mux.HandleFunc("/api/v1/snapshots", h.withKey(h.listSnapshots))

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Serve runs an HTTP server on addr until ctx is cancelled.
func (h *Handler) Serve(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: h}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	h.logger.Info().Str("addr", addr).Msg("query surface listening")
	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withKey guards an endpoint behind the pre-generated key set.
func (h *Handler) withKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.keys == nil {
			jsonErr(w, http.StatusServiceUnavailable, "key store not configured")
			return
		}

		key := r.Header.Get("X-API-Key")
		if key == "" {
			jsonErr(w, http.StatusUnauthorized, "missing api key")
			return
		}

		ok, err := h.keys.HasAPIKey(r.Context(), key)
		if err != nil {
			h.logger.Error().Err(err).Msg("api key lookup failed")
			jsonErr(w, http.StatusServiceUnavailable, "key store unavailable")
			return
		}
		if !ok {
			jsonErr(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		next(w, r)
	}
}

func (h *Handler) liveMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw, err := h.fetcher.FetchPage(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("live fetch failed")
		jsonErr(w, http.StatusBadGateway, "dashboard fetch failed")
		return
	}

	jsonResp(w, http.StatusOK, snapshotResponse(metrics.Parse(raw)))
}

func (h *Handler) listSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.snapshots == nil {
		jsonErr(w, http.StatusServiceUnavailable, "snapshot store not configured")
		return
	}

	limit := defaultSnapshotLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			jsonErr(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := h.snapshots.ListRecentSnapshots(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("snapshot listing failed")
		jsonErr(w, http.StatusServiceUnavailable, "snapshot store unavailable")
		return
	}

	out := make([]snapshotRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, snapshotRecordResponse{
			Ts:      rec.Ts.UTC().Format(time.RFC3339),
			Periods: snapshotResponse(rec.Snapshot()),
		})
	}
	jsonResp(w, http.StatusOK, out)
}

type periodResponse struct {
	Gross   *string `json:"gross"`
	Traffic *string `json:"traffic"`
}

type snapshotRecordResponse struct {
	Ts      string                    `json:"ts"`
	Periods map[string]periodResponse `json:"periods"`
}

func snapshotResponse(snap metrics.Snapshot) map[string]periodResponse {
	out := make(map[string]periodResponse, len(snap))
	for period, values := range snap {
		resp := periodResponse{}
		if values.Gross != nil {
			s := values.Gross.String()
			resp.Gross = &s
		}
		if values.Traffic != nil {
			s := values.Traffic.String()
			resp.Traffic = &s
		}
		out[string(period)] = resp
	}
	return out
}

func jsonResp(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func jsonErr(w http.ResponseWriter, status int, message string) {
	jsonResp(w, status, map[string]string{"error": message})
}
