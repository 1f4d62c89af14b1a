package simulation

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/xcrap/micromachines/backend/internal/shared/types"
)

// maxBuffered caps trail and sim events held between snapshots.
const maxBuffered = 512

// EventRecorder receives every simulation event as it happens.
type EventRecorder interface {
	RecordSimEvent(sessionID string, e types.SimEvent)
}

// World is the authoritative session state: one car on one map.
type World struct {
	mu        sync.RWMutex
	sessionID string
	ctrl      *Controller
	input     types.InputState
	tick      uint64
	trail     []types.TrailEvent
	events    []types.SimEvent
	attached  int
	recorder  EventRecorder
	log       zerolog.Logger
}

// NewWorld spawns a car at the start of world. rec may be nil.
func NewWorld(sessionID string, world Terrain, tuning Tuning, rec EventRecorder, log zerolog.Logger) (*World, error) {
	w := &World{
		sessionID: sessionID,
		recorder:  rec,
		log:       log.With().Str("session_id", sessionID).Logger(),
	}
	ctrl, err := NewController(world, w, tuning)
	if err != nil {
		return nil, fmt.Errorf("new world %s: %w", sessionID, err)
	}
	w.ctrl = ctrl

	pos := ctrl.Position()
	w.log.Info().Float32("x", pos.X()).Float32("z", pos.Z()).Float32("heading", ctrl.State().Heading).Msg("car spawned")
	return w, nil
}

// ApplyInput stores the latest client key state.
func (w *World) ApplyInput(in types.InputState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if in.Sequence != 0 && in.Sequence < w.input.Sequence {
		return
	}
	w.input = in
}

// Tick advances the world simulation by dt seconds.
func (w *World) Tick(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tick++
	w.ctrl.Update(float32(dt), inputFromWire(w.input))
	for _, ev := range w.ctrl.Events() {
		se := types.SimEvent{Type: string(ev.Kind), Value: float64(ev.Value), SimMS: simMS(ev.SimTime)}
		w.events = appendCapped(w.events, se)
		if w.recorder != nil {
			w.recorder.RecordSimEvent(w.sessionID, se)
		}
	}
}

// Snapshot returns a deep copy of state for safe replication and hands
// over the trail and sim events buffered since the previous snapshot.
func (w *World) Snapshot() types.SessionState {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := types.SessionState{
		SessionID: w.sessionID,
		Tick:      w.tick,
		SimMS:     simMS(w.ctrl.State().SimTime),
		Vehicle:   vehicleToWire(w.ctrl.State(), w.ctrl.Wheels()),
		Trail:     make([]types.TrailEvent, len(w.trail)),
		Events:    make([]types.SimEvent, len(w.events)),
	}
	copy(out.Trail, w.trail)
	copy(out.Events, w.events)
	w.trail = w.trail[:0]
	w.events = w.events[:0]
	return out
}

// LastInputSequence is the sequence of the input the next tick will use.
func (w *World) LastInputSequence() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.input.Sequence
}

// Reset respawns the car at the start line and clears held keys.
func (w *World) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctrl.Respawn()
	w.input = types.InputState{Sequence: w.input.Sequence}
	w.log.Info().Uint64("tick", w.tick).Msg("car respawned")
}

// Dispose releases the car. The world must not be ticked afterwards.
func (w *World) Dispose() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.ctrl.Dispose()
	w.log.Info().Uint64("tick", w.tick).Int("attached", w.attached).Msg("world disposed")
	return err
}

// Attached reports how many wheel visuals are currently held.
func (w *World) Attached() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.attached
}

// AttachWheel and NewTrail make World the controller's Host. They run with
// w.mu held (construction, Tick, Reset, Dispose) or before w is shared.

func (w *World) AttachWheel(int) (io.Closer, error) {
	w.attached++
	return &wheelHandle{world: w}, nil
}

func (w *World) NewTrail(wheel int) (TrailSink, error) {
	return &trailBuffer{world: w, wheel: wheel}, nil
}

type wheelHandle struct {
	world  *World
	closed bool
}

func (h *wheelHandle) Close() error {
	if !h.closed {
		h.closed = true
		h.world.attached--
	}
	return nil
}

// trailBuffer turns controller trail calls into wire events.
type trailBuffer struct {
	world *World
	wheel int
}

func (b *trailBuffer) AddPoint(p TrailPoint) {
	b.world.trail = appendCapped(b.world.trail, types.TrailEvent{
		Type:      "point",
		Wheel:     p.Wheel,
		Position:  vecToWire(p.Position),
		Intensity: float64(p.Intensity),
		SimMS:     simMS(p.SimTime),
	})
}

func (b *trailBuffer) Break() {
	b.world.trail = appendCapped(b.world.trail, types.TrailEvent{
		Type:  "break",
		Wheel: b.wheel,
		SimMS: simMS(b.world.ctrl.State().SimTime),
	})
}

func (b *trailBuffer) Close() error { return nil }

// appendCapped drops the oldest entry once the buffer is full.
func appendCapped[T any](buf []T, v T) []T {
	if len(buf) >= maxBuffered {
		copy(buf, buf[1:])
		buf = buf[:len(buf)-1]
	}
	return append(buf, v)
}

func inputFromWire(in types.InputState) Input {
	return Input{
		Forward:  in.Forward,
		Backward: in.Backward,
		Left:     in.Left,
		Right:    in.Right,
		Drift:    in.Drift,
	}
}

func vehicleToWire(s *VehicleState, wheels *[wheelCount]WheelContact) types.VehicleState {
	out := types.VehicleState{
		Position:         vecToWire(s.Position),
		Direction:        vecToWire(mgl32.Vec3{sinf(s.Heading), 0, cosf(s.Heading)}),
		Orientation:      types.Quat{W: float64(s.Orientation.W), X: float64(s.Orientation.V.X()), Y: float64(s.Orientation.V.Y()), Z: float64(s.Orientation.V.Z())},
		Heading:          float64(s.Heading),
		Pitch:            float64(s.Pitch),
		Roll:             float64(s.Roll),
		Velocity:         float64(s.Velocity),
		LateralVelocity:  float64(s.LateralVelocity),
		YawRate:          float64(s.YawRate),
		DriftFactor:      float64(s.DriftFactor),
		SlipAngle:        float64(s.SlipAngle),
		SteeringAngle:    float64(s.SteeringAngle),
		VerticalVelocity: float64(s.VerticalVelocity),
		IsGrounded:       s.IsGrounded,
		AirborneTime:     float64(s.AirborneTime),
		OffTrack:         s.OffTrack,
		Wheels:           make([]types.WheelState, 0, len(wheels)),
	}
	for i, wc := range wheels {
		out.Wheels = append(out.Wheels, types.WheelState{
			Index:         i,
			GroundPoint:   vecToWire(wc.GroundPoint),
			GroundNormal:  vecToWire(wc.GroundNormal),
			Compression:   float64(wc.Compression),
			CurrentHeight: float64(wc.CurrentHeight),
		})
	}
	return out
}

func vecToWire(v mgl32.Vec3) types.Vec3 {
	return types.Vec3{X: float64(v.X()), Y: float64(v.Y()), Z: float64(v.Z())}
}

func simMS(seconds float32) int64 {
	return int64(float64(seconds)*1000 + 0.5)
}
