package simulation

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoTerrain is returned when a controller is built without a world.
var ErrNoTerrain = errors.New("controller needs terrain")

// VehicleState is the car's full motion state after the last Update.
// Pitch and Roll are derived from Orientation for display only.
type VehicleState struct {
	Position         mgl32.Vec3
	Heading          float32
	Orientation      mgl32.Quat
	Pitch            float32
	Roll             float32
	Velocity         float32
	LateralVelocity  float32
	YawRate          float32
	DriftFactor      float32
	SlipAngle        float32
	SteeringAngle    float32
	VerticalVelocity float32
	IsGrounded       bool
	AirborneTime     float32
	OffTrack         bool
	SimTime          float32
}

// EventKind names something that happened during a tick.
type EventKind string

const (
	EventCollision   EventKind = "collision"
	EventBoundary    EventKind = "boundary"
	EventTakeoff     EventKind = "takeoff"
	EventLanding     EventKind = "landing"
	EventHardLanding EventKind = "hard_landing"
	EventTrailBreak  EventKind = "trail_break"
)

type Event struct {
	Kind    EventKind
	Value   float32
	SimTime float32
}

// Host hands out the renderer-side resources a car holds for its lifetime:
// a visual per wheel and a skid ribbon per rear wheel.
type Host interface {
	AttachWheel(index int) (io.Closer, error)
	NewTrail(wheel int) (TrailSink, error)
}

// Controller runs one car. It is not safe for concurrent use; the caller
// serialises Update with every other method.
type Controller struct {
	tuning  Tuning
	terrain Terrain

	dyn   *Dynamics
	susp  *Suspension
	trail trailTrigger
	tilt  mgl32.Quat
	state VehicleState

	trails    []TrailSink
	resources []io.Closer
	disposed  bool

	events  []Event
	scratch scratch

	// reverse is the single path collision, boundary and landing responses
	// take into the dynamics model.
	reverse func(factor float32)
}

// NewController spawns a car at the terrain's start pose. Every resource
// taken from host is released again if construction fails part way.
func NewController(world Terrain, host Host, tuning Tuning) (*Controller, error) {
	if world == nil {
		return nil, ErrNoTerrain
	}
	if err := tuning.Validate(); err != nil {
		return nil, fmt.Errorf("new controller: %w", err)
	}
	if host == nil {
		host = NopHost{}
	}

	c := &Controller{
		tuning:  tuning,
		terrain: world,
		events:  make([]Event, 0, 8),
	}
	c.dyn = NewDynamics(&c.tuning)
	c.susp = NewSuspension(&c.tuning)
	c.reverse = c.dyn.ReverseVelocity

	if err := c.acquire(host); err != nil {
		return nil, errors.Join(fmt.Errorf("new controller: %w", err), c.release())
	}

	c.Respawn()
	return c, nil
}

func (c *Controller) acquire(host Host) error {
	for i := 0; i < wheelCount; i++ {
		w, err := host.AttachWheel(i)
		if err != nil {
			return fmt.Errorf("attach wheel %d: %w", i, err)
		}
		c.resources = append(c.resources, w)
	}
	for _, i := range []int{WheelRearLeft, WheelRearRight} {
		sink, err := host.NewTrail(i)
		if err != nil {
			return fmt.Errorf("trail for wheel %d: %w", i, err)
		}
		c.trails = append(c.trails, sink)
		c.resources = append(c.resources, sink)
	}
	return nil
}

// release closes acquired resources newest first.
func (c *Controller) release() error {
	var errs []error
	for i := len(c.resources) - 1; i >= 0; i-- {
		if c.resources[i] == nil {
			continue
		}
		if err := c.resources[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.resources, c.trails = nil, nil
	return errors.Join(errs...)
}

// Dispose releases every host resource. Calling it again is a no-op, and
// Update does nothing afterwards.
func (c *Controller) Dispose() error {
	if c.disposed {
		return nil
	}
	c.disposed = true
	if err := c.release(); err != nil {
		return fmt.Errorf("dispose controller: %w", err)
	}
	return nil
}

// Respawn puts the car back on the start line at rest.
func (c *Controller) Respawn() {
	if c.trail.active {
		for _, sink := range c.trails {
			sink.Break()
		}
	}
	c.trail.reset()
	c.dyn.Reset()
	c.susp.Reset()

	start := c.terrain.StartPosition()
	dir := c.terrain.StartDirection()
	var heading float32
	if dir.X() != 0 || dir.Z() != 0 {
		heading = atan2f(dir.X(), dir.Z())
	}

	// A start point under the heightfield would leave the rays no ground.
	if ground := c.terrain.HeightAt(start.X(), start.Z()); start.Y() < ground {
		start[1] = ground
	}

	c.tilt = mgl32.QuatIdent()
	c.state = VehicleState{
		Position:   start.Add(mgl32.Vec3{0, c.tuning.RestLength, 0}),
		Heading:    heading,
		IsGrounded: true,
		SimTime:    c.state.SimTime,
	}
	c.scratch.frame(heading)
	c.sync()
}

// Update advances the car by dt seconds with the given keys. dt above
// Tuning.MaxDt is clamped; non-positive dt is ignored.
func (c *Controller) Update(dt float32, in Input) {
	c.events = c.events[:0]
	if c.disposed || dt <= 0 {
		return
	}

	t := &c.tuning
	s := &c.state
	sc := &c.scratch
	dt = min(dt, t.MaxDt)

	s.OffTrack = !c.terrain.IsPointOnTrack(s.Position.X(), s.Position.Z())
	step := dt
	if s.OffTrack {
		step *= t.OffTrackSlowdown
	}

	c.dyn.Step(in, step, s.OffTrack)
	s.Heading = wrapAngle(s.Heading - c.dyn.YawRate*step)
	sc.frame(s.Heading)

	sc.step = sc.forward.Mul(c.dyn.Velocity * step).Add(sc.right.Mul(c.dyn.LateralVelocity * step))
	sc.tentative = s.Position.Add(sc.step)

	probe := ProbeObstacles(c.terrain.Obstacles(), sc.tentative, sc.forward, sc.right, t.ProbeHeight, t.CollisionDistance)
	if probe.HasCollision {
		c.reverse(t.CollisionBounce)
		s.Position = pushOut(s.Position, probe.Point, absf(c.dyn.Velocity)*t.PushOutFactor)
		c.emit(EventCollision, probe.Distance)
	} else {
		s.Position = sc.tentative
	}

	if OutOfBounds(t.BoundaryShape, s.Position, c.terrain.Bounds()) {
		c.reverse(t.CollisionBounce)
		c.emit(EventBoundary, c.dyn.Velocity)
	}

	c.settle(dt)
	c.level()

	s.SimTime += dt
	c.sync()
	c.emitTrail()
}

// ReverseVelocity bounces the car back at factor of its speed.
func (c *Controller) ReverseVelocity(factor float32) {
	c.reverse(factor)
	c.sync()
}

// sync copies dynamics into the state and derives the display transform.
func (c *Controller) sync() {
	s := &c.state
	s.Velocity = c.dyn.Velocity
	s.LateralVelocity = c.dyn.LateralVelocity
	s.YawRate = c.dyn.YawRate
	s.DriftFactor = c.dyn.DriftFactor
	s.SlipAngle = c.dyn.SlipAngle
	s.SteeringAngle = c.dyn.SteeringAngle

	s.Orientation = c.tilt.Mul(c.scratch.yaw)
	s.Pitch = asinf(s.Orientation.Rotate(localFwd).Y())
	s.Roll = asinf(s.Orientation.Rotate(localRight).Y())
}

func (c *Controller) emitTrail() {
	t := &c.tuning
	s := &c.state
	switch c.trail.evaluate(ShouldTrail(t, s), s.SimTime, t.TrailInterval) {
	case trailEmit:
		intensity := TrailIntensity(t, s)
		for i, sink := range c.trails {
			wheel := WheelRearLeft + i
			sink.AddPoint(TrailPoint{
				Wheel:     wheel,
				Position:  c.susp.Wheels[wheel].GroundPoint,
				Intensity: intensity,
				SimTime:   s.SimTime,
			})
		}
	case trailBreak:
		for _, sink := range c.trails {
			sink.Break()
		}
		c.emit(EventTrailBreak, 0)
	}
}

func (c *Controller) emit(kind EventKind, value float32) {
	c.events = append(c.events, Event{Kind: kind, Value: value, SimTime: c.state.SimTime})
}

// Position returns a copy of the chassis position.
func (c *Controller) Position() mgl32.Vec3 { return c.state.Position }

// Direction returns the unit heading vector on the ground plane.
func (c *Controller) Direction() mgl32.Vec3 {
	return mgl32.Vec3{sinf(c.state.Heading), 0, cosf(c.state.Heading)}
}

// State returns the live state. It is read-only and changes on Update.
func (c *Controller) State() *VehicleState { return &c.state }

// Wheels returns the live wheel contacts. Read-only.
func (c *Controller) Wheels() *[wheelCount]WheelContact { return &c.susp.Wheels }

// Events returns what happened during the last Update. The slice is reused
// by the next call.
func (c *Controller) Events() []Event { return c.events }

func wrapAngle(a float32) float32 {
	if a > math.Pi {
		return a - 2*math.Pi
	}
	if a < -math.Pi {
		return a + 2*math.Pi
	}
	return a
}

// NopHost hands out resources that do nothing.
type NopHost struct{}

func (NopHost) AttachWheel(int) (io.Closer, error) { return nopCloser{}, nil }

func (NopHost) NewTrail(int) (TrailSink, error) { return nopSink{}, nil }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type nopSink struct{ nopCloser }

func (nopSink) AddPoint(TrailPoint) {}

func (nopSink) Break() {}
