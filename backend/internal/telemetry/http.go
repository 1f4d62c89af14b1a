package telemetry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/xcrap/micromachines/backend/internal/shared/types"
)

const defaultListLimit = 100

// Register mounts /metrics and /v1/events on mux.
func (s *Store) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/metrics", s.handleMetrics)
}

func (s *Store) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var ev types.TelemetryEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
			return
		}
		if ev.EventType == "" {
			WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "event_type_required"})
			return
		}
		ev = s.Ingest(ev)
		WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "event_id": ev.EventID})
	case http.MethodGet:
		limit := defaultListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_limit"})
				return
			}
			limit = n
		}
		recent := s.Recent(limit)
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"count":  len(recent),
			"events": recent,
		})
	default:
		WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
	}
}

func (s *Store) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	summary := s.Summary()
	_, _ = fmt.Fprintln(w, "# HELP micromachines_telemetry_events_total Total telemetry events ingested")
	_, _ = fmt.Fprintln(w, "# TYPE micromachines_telemetry_events_total counter")
	_, _ = fmt.Fprintf(w, "micromachines_telemetry_events_total %d\n", summary.Total)

	typesSeen := make([]string, 0, len(summary.ByType))
	for typ := range summary.ByType {
		typesSeen = append(typesSeen, typ)
	}
	sort.Strings(typesSeen)
	for _, typ := range typesSeen {
		_, _ = fmt.Fprintf(w, "micromachines_telemetry_events_by_type{event_type=%q} %d\n", typ, summary.ByType[typ])
	}
}

// WithCORS lets the browser renderer call the HTTP API from another origin.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WriteJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
