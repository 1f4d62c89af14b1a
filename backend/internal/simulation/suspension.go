package simulation

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/xcrap/micromachines/backend/internal/terrain"
)

// Wheel indices. Wheel 0 drives chassis height and orientation.
const (
	WheelFrontLeft = iota
	WheelFrontRight
	WheelRearLeft
	WheelRearRight
	wheelCount
)

var down = mgl32.Vec3{0, -1, 0}

// WheelContact is the spring-damper state of one suspension corner.
// GroundPoint and GroundNormal keep the last hit; they go stale while the
// wheel's ray finds nothing. Only wheel 0 records a normal.
type WheelContact struct {
	LocalOffset   mgl32.Vec3
	GroundPoint   mgl32.Vec3
	GroundNormal  mgl32.Vec3
	Compression   float32
	Velocity      float32
	CurrentHeight float32
	// Contact reports whether the last probe found ground.
	Contact bool

	distance float32
}

// Suspension holds the four wheel corners. LocalOffset is in the chassis
// frame: +X left, +Z forward.
type Suspension struct {
	Wheels [wheelCount]WheelContact
	tuning *Tuning
}

func NewSuspension(t *Tuning) *Suspension {
	s := &Suspension{tuning: t}
	halfTrack, halfBase := t.TrackWidth/2, t.WheelBase/2
	s.Wheels[WheelFrontLeft].LocalOffset = mgl32.Vec3{halfTrack, 0, halfBase}
	s.Wheels[WheelFrontRight].LocalOffset = mgl32.Vec3{-halfTrack, 0, halfBase}
	s.Wheels[WheelRearLeft].LocalOffset = mgl32.Vec3{halfTrack, 0, -halfBase}
	s.Wheels[WheelRearRight].LocalOffset = mgl32.Vec3{-halfTrack, 0, -halfBase}
	s.Reset()
	return s
}

// Reset puts every wheel at rest length with no contact.
func (s *Suspension) Reset() {
	for i := range s.Wheels {
		w := &s.Wheels[i]
		w.GroundPoint = mgl32.Vec3{}
		w.GroundNormal = mgl32.Vec3{0, 1, 0}
		w.Compression = 0
		w.Velocity = 0
		w.CurrentHeight = s.tuning.RestLength
		w.Contact = false
		w.distance = s.tuning.RestLength
	}
}

// Mount returns wheel i's world position for a chassis at pos turned by yaw.
func (s *Suspension) Mount(i int, pos mgl32.Vec3, yaw mgl32.Quat) mgl32.Vec3 {
	return pos.Add(yaw.Rotate(s.Wheels[i].LocalOffset))
}

// Probe casts every wheel's ray down onto the ground set and refreshes the
// contacts that hit. It returns the smallest clearance below rest length
// across the wheels that hit, and false when none did.
func (s *Suspension) Probe(ground []terrain.Surface, pos mgl32.Vec3, yaw mgl32.Quat) (float32, bool) {
	t := s.tuning
	clearance := float32(0)
	found := false
	for i := range s.Wheels {
		w := &s.Wheels[i]
		mount := s.Mount(i, pos, yaw)
		origin := mount.Add(mgl32.Vec3{0, t.RayLift, 0})
		hit, ok := terrain.Cast(ground, origin, down, t.RayLength)
		w.Contact = ok
		if !ok {
			continue
		}
		w.GroundPoint = hit.Point
		if i == WheelFrontLeft {
			w.GroundNormal = hit.Normal
		}
		w.distance = mount.Y() - hit.Point.Y()

		c := w.distance - t.RestLength
		if !found || c < clearance {
			clearance = c
		}
		found = true
	}
	return clearance, found
}

// Solve integrates the spring-damper of every wheel that has contact.
// CurrentHeight follows the measured ride height (rest minus compression)
// instead of being pushed by compression alone.
// Wheels without contact keep their state untouched.
func (s *Suspension) Solve(dt float32) {
	t := s.tuning
	for i := range s.Wheels {
		w := &s.Wheels[i]
		if !w.Contact {
			continue
		}
		w.Compression = t.RestLength - w.distance
		target := t.RestLength - w.Compression
		force := t.SpringStiffness*(target-w.CurrentHeight) - t.SpringDamping*w.Velocity
		w.Velocity += force / t.WheelMass * dt
		w.CurrentHeight += w.Velocity * dt

		if w.CurrentHeight < t.MinSuspension {
			w.CurrentHeight = t.MinSuspension
			w.Velocity = 0
		} else if w.CurrentHeight > t.MaxSuspension {
			w.CurrentHeight = t.MaxSuspension
			w.Velocity = 0
		}
	}
}

// ContactNormal is the normal of the plane through the ground points of
// wheels 0, 1 and 2. Degenerate or steep triangles report false.
func (s *Suspension) ContactNormal() (mgl32.Vec3, bool) {
	p0 := s.Wheels[WheelFrontLeft].GroundPoint
	across := s.Wheels[WheelFrontRight].GroundPoint.Sub(p0)
	back := s.Wheels[WheelRearLeft].GroundPoint.Sub(p0)

	// back x across points up for a level chassis.
	n := back.Cross(across)
	l := n.Len()
	if l < 1e-6 {
		return mgl32.Vec3{}, false
	}
	n = n.Mul(1 / l)
	if n.Y() <= s.tuning.MinNormalUp {
		return mgl32.Vec3{}, false
	}
	return n, true
}
