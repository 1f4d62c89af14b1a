package simulation

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/xcrap/micromachines/backend/internal/terrain"
)

var testDt float32 = 0.016

var errBoom = errors.New("boom")

// flatWorld is a single plane, everywhere on track unless offTrack is set.
type flatWorld struct {
	ground    terrain.Surface
	plane     *terrain.Plane
	obstacles []terrain.Surface
	offTrack  bool
	bounds    float32
	start     mgl32.Vec3
	dir       mgl32.Vec3
}

func newFlatWorld() *flatWorld {
	p := terrain.NewPlane(0, terrain.KindGround)
	return &flatWorld{
		ground: p,
		plane:  p,
		bounds: 50,
		dir:    mgl32.Vec3{0, 0, 1},
	}
}

func (w *flatWorld) HeightAt(x, z float32) float32 { return w.plane.HeightAt(x, z) }
func (w *flatWorld) GroundSurfaces() []terrain.Surface { return []terrain.Surface{w.ground} }
func (w *flatWorld) Obstacles() []terrain.Surface { return w.obstacles }
func (w *flatWorld) IsPointOnTrack(_, _ float32) bool { return !w.offTrack }
func (w *flatWorld) StartPosition() mgl32.Vec3 { return w.start }
func (w *flatWorld) StartDirection() mgl32.Vec3 { return w.dir }
func (w *flatWorld) Bounds() float32 { return w.bounds }

// patchyGround is a plane with a round hole no ray can hit.
type patchyGround struct {
	*terrain.Plane
	hole   mgl32.Vec2
	radius float32
}

func (p patchyGround) Raycast(origin, dir mgl32.Vec3, maxDistance float32) (terrain.Hit, bool) {
	h, ok := p.Plane.Raycast(origin, dir, maxDistance)
	if !ok {
		return h, false
	}
	if (mgl32.Vec2{h.Point.X() - p.hole.X(), h.Point.Z() - p.hole.Y()}).Len() < p.radius {
		return terrain.Hit{}, false
	}
	return h, true
}

// recordingHost hands out resources that log when they are closed.
type recordingHost struct {
	failWheel int
	failTrail int
	closeErr  error
	closed    []string
	sinks     map[int]*recordingSink
}

func newRecordingHost() *recordingHost {
	return &recordingHost{failWheel: -1, failTrail: -1, sinks: map[int]*recordingSink{}}
}

func (h *recordingHost) AttachWheel(index int) (io.Closer, error) {
	if index == h.failWheel {
		return nil, errBoom
	}
	return &recordingCloser{name: fmt.Sprintf("wheel%d", index), host: h}, nil
}

func (h *recordingHost) NewTrail(wheel int) (TrailSink, error) {
	if wheel == h.failTrail {
		return nil, errBoom
	}
	s := &recordingSink{recordingCloser: recordingCloser{name: fmt.Sprintf("trail%d", wheel), host: h}}
	h.sinks[wheel] = s
	return s, nil
}

type recordingCloser struct {
	name string
	host *recordingHost
}

func (r *recordingCloser) Close() error {
	r.host.closed = append(r.host.closed, r.name)
	if r.host.closeErr != nil {
		return fmt.Errorf("%s: %w", r.name, r.host.closeErr)
	}
	return nil
}

type recordingSink struct {
	recordingCloser
	points []TrailPoint
	breaks int
}

func (s *recordingSink) AddPoint(p TrailPoint) { s.points = append(s.points, p) }

func (s *recordingSink) Break() { s.breaks++ }

func newTestController(t testing.TB, w Terrain, host Host) *Controller {
	t.Helper()
	c, err := NewController(w, host, DefaultTuning())
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c
}

// spyReverse counts reversal calls and records the velocity around each.
type spyReverse struct {
	calls   int
	factors []float32
	before  []float32
	after   []float32
}

func (s *spyReverse) install(c *Controller) {
	c.reverse = func(f float32) {
		s.calls++
		s.factors = append(s.factors, f)
		s.before = append(s.before, c.dyn.Velocity)
		c.dyn.ReverseVelocity(f)
		s.after = append(s.after, c.dyn.Velocity)
	}
}

func near(a, b float32) bool {
	return absf(a-b) < 1e-4
}

func hasEvent(events []Event, kind EventKind) bool {
	for _, e := range events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
