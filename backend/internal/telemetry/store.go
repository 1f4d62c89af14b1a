package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xcrap/micromachines/backend/internal/shared/types"
)

const instrumentationName = "github.com/xcrap/micromachines/backend/internal/telemetry"

// DefaultCapacity is how many recent events the store keeps.
const DefaultCapacity = 1000

// Store keeps recent gameplay events in memory with per-type counters.
// It is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	capacity    int
	recent      []types.TelemetryEvent
	totalIngest int64
	byType      map[string]int64

	ingested metric.Int64Counter
	now      func() time.Time
}

// Summary is a point-in-time copy of the counters.
type Summary struct {
	Total  int64
	ByType map[string]int64
}

// NewStore keeps up to capacity events. Counters are also exported through
// the global otel meter provider.
func NewStore(capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	ingested, err := otel.Meter(instrumentationName).Int64Counter(
		"micromachines.telemetry.events",
		metric.WithDescription("Total telemetry events ingested"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create events counter: %w", err)
	}
	return &Store{
		capacity: capacity,
		recent:   make([]types.TelemetryEvent, 0, capacity),
		byType:   make(map[string]int64),
		ingested: ingested,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Ingest fills in a missing id and timestamp and stores ev.
func (s *Store) Ingest(ev types.TelemetryEvent) types.TelemetryEvent {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = s.now().UnixMilli()
	}

	s.mu.Lock()
	s.totalIngest++
	s.byType[ev.EventType]++
	s.recent = append(s.recent, ev)
	if len(s.recent) > s.capacity {
		s.recent = s.recent[len(s.recent)-s.capacity:]
	}
	s.mu.Unlock()

	s.ingested.Add(context.Background(), 1, metric.WithAttributes(attribute.String("event_type", ev.EventType)))
	return ev
}

// RecordSimEvent stores a simulation event raised by a session.
func (s *Store) RecordSimEvent(sessionID string, e types.SimEvent) {
	s.Ingest(types.TelemetryEvent{
		EventType: "sim." + e.Type,
		SessionID: sessionID,
		Payload: map[string]interface{}{
			"value":  e.Value,
			"sim_ms": e.SimMS,
		},
	})
}

// Recent returns up to limit of the newest events, oldest first.
// A non-positive limit returns everything held.
func (s *Store) Recent(limit int) []types.TelemetryEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.recent) {
		limit = len(s.recent)
	}
	out := make([]types.TelemetryEvent, limit)
	copy(out, s.recent[len(s.recent)-limit:])
	return out
}

func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byType := make(map[string]int64, len(s.byType))
	for k, v := range s.byType {
		byType[k] = v
	}
	return Summary{Total: s.totalIngest, ByType: byType}
}
