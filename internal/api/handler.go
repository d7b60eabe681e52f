package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/journal"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/tracker"
	"github.com/hardimpactdev/orbit-ui-sub001/internal/transport/channel"
)

// Pagination defaults and limits.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Emitter buffers a decoded envelope for dispatch.
type Emitter interface {
	Emit(ctx context.Context, env domain.Envelope) error
}

// Journal provides read access to the persisted event history.
type Journal interface {
	ListByKey(ctx context.Context, key string, limit, offset int) ([]journal.Entry, error)
}

// HealthChecker provides database health status for the /health endpoint.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// Pinger provides Redis health status for the /health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	tracker *tracker.Tracker
	bus     Emitter
	journal Journal       // optional
	db      HealthChecker // optional
	redis   Pinger        // optional
}

func NewHandler(trk *tracker.Tracker, bus Emitter) *Handler {
	return &Handler{tracker: trk, bus: bus}
}

// WithJournal exposes the persisted event history at /history.
func (h *Handler) WithJournal(j Journal) *Handler {
	h.journal = j
	return h
}

// WithHealthChecker sets the database health checker for verbose /health responses.
func (h *Handler) WithHealthChecker(db HealthChecker) *Handler {
	h.db = db
	return h
}

// WithRedisPinger sets the Redis health checker for verbose /health responses.
func (h *Handler) WithRedisPinger(p Pinger) *Handler {
	h.redis = p
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/health" && r.Method == http.MethodGet:
		h.health(w, r)

	case path == "/events" && r.Method == http.MethodPost:
		h.ingestEvent(w, r)

	case path == "/provisioning" && r.Method == http.MethodGet:
		h.snapshot(w, domain.KindProvision)

	case path == "/deletions" && r.Method == http.MethodGet:
		h.snapshot(w, domain.KindDeletion)

	case path == "/status" && r.Method == http.MethodGet:
		h.status(w, r)

	case path == "/counters" && r.Method == http.MethodGet:
		h.counters(w)

	case path == "/connection" && r.Method == http.MethodGet:
		h.connection(w)

	case path == "/history" && r.Method == http.MethodGet:
		h.history(w, r)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"

	if !verbose || (h.db == nil && h.redis == nil) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	resp := HealthResponse{
		Status:     "ok",
		Components: make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			resp.Status = "degraded"
			resp.Components["journal"] = "unhealthy: " + err.Error()
		} else {
			resp.Components["journal"] = "healthy"
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Components["analytics"] = "unhealthy: " + err.Error()
		} else {
			resp.Components["analytics"] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if resp.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, resp)
}

// maxRequestBodySize is the maximum allowed request body size (1MB).
const maxRequestBodySize = 1 << 20

// ingestEvent is the decode boundary: it turns one raw push message into an
// Envelope and buffers it for dispatch. Malformed envelopes are rejected
// here; the tracker assumes a valid one.
func (h *Handler) ingestEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var env domain.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := env.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.bus.Emit(r.Context(), env); err != nil {
		log.Printf("api: emit event key=%s: %v", env.Key, err)
		if errors.Is(err, channel.ErrBufferFull) {
			writeError(w, http.StatusServiceUnavailable, "event buffer full")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to queue event")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) snapshot(w http.ResponseWriter, kind domain.Kind) {
	snap := h.tracker.Snapshot(kind)
	resp := SnapshotResponse{Records: make(map[string]RecordResponse, len(snap))}
	for key, rec := range snap {
		resp.Records[key] = toRecordResponse(rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	kind := domain.KindProvision
	switch r.URL.Query().Get("kind") {
	case "", string(domain.KindProvision):
	case string(domain.KindDeletion):
		kind = domain.KindDeletion
	default:
		writeError(w, http.StatusBadRequest, "kind must be 'provision' or 'deletion'")
		return
	}

	rec, ok := h.tracker.Read(kind, key)
	if !ok {
		writeError(w, http.StatusNotFound, "not tracked")
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) counters(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, CountersResponse{
		SuccessfulProvisions: h.tracker.SuccessfulProvisions(),
		SuccessfulDeletions:  h.tracker.SuccessfulDeletions(),
	})
}

func (h *Handler) connection(w http.ResponseWriter) {
	resp := ConnectionResponse{
		Configured: h.tracker.IsConfigured(),
		Connected:  h.tracker.IsConnected(),
	}
	if err := h.tracker.ConnectionError(); err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusNotFound, "event history not configured")
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.journal.ListByKey(r.Context(), key, limit, offset)
	if err != nil {
		log.Printf("api: list history key=%s: %v", key, err)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}

	resp := HistoryResponse{Events: make([]HistoryEntryResponse, len(entries))}
	for i, e := range entries {
		resp.Events[i] = toHistoryEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: json encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// parsePagination extracts and validates limit/offset query parameters.
// Returns DefaultLimit if limit is not specified, and 0 for offset if not specified.
// Returns an error if limit exceeds MaxLimit or if values are negative/invalid.
func parsePagination(r *http.Request) (limit, offset int, err error) {
	limit = DefaultLimit
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, err
		}
		if limit < 0 {
			return 0, 0, strconv.ErrRange
		}
		if limit > MaxLimit {
			return 0, 0, &limitExceededError{max: MaxLimit}
		}
		if limit == 0 {
			limit = DefaultLimit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, err
		}
		if offset < 0 {
			return 0, 0, strconv.ErrRange
		}
	}

	return limit, offset, nil
}

type limitExceededError struct {
	max int
}

func (e *limitExceededError) Error() string {
	return "limit exceeds maximum of " + strconv.Itoa(e.max)
}
