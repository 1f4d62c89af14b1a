package simulation

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// settle runs the grounded/airborne state machine and moves the chassis
// vertically. A car is grounded while its lowest wheel sits within
// GroundThreshold of rest length; an airborne car only lands while falling.
func (c *Controller) settle(dt float32) {
	t := &c.tuning
	s := &c.state

	clearance, ok := c.susp.Probe(c.terrain.GroundSurfaces(), s.Position, c.scratch.yaw)
	if !ok {
		clearance = float32(math.Inf(1))
	}

	if s.IsGrounded {
		if clearance < t.GroundThreshold {
			c.followGround(dt)
			return
		}
		s.IsGrounded = false
		c.emit(EventTakeoff, s.VerticalVelocity)
	} else if clearance < t.GroundThreshold && s.VerticalVelocity <= 0 {
		c.land(clearance)
		if s.IsGrounded {
			c.followGround(dt)
		}
		return
	}

	s.VerticalVelocity += t.Gravity * dt
	s.AirborneTime += dt
	dy := s.VerticalVelocity * dt
	s.Position[1] += dy

	if after := clearance + dy; after < t.GroundThreshold && s.VerticalVelocity <= 0 {
		c.land(after)
	}
}

// land resolves a touchdown. A hard impact bounces the car back up and
// scrubs its speed; a soft one plants it.
func (c *Controller) land(clearance float32) {
	t := &c.tuning
	s := &c.state

	if clearance < 0 {
		s.Position[1] -= clearance
	}
	impact := absf(s.VerticalVelocity)
	s.AirborneTime = 0

	if impact > t.HardLanding {
		s.VerticalVelocity = -s.VerticalVelocity * t.LandingBounce
		c.reverse(t.LandingScrub)
		c.emit(EventHardLanding, impact)
		return
	}
	s.VerticalVelocity = 0
	s.IsGrounded = true
	c.emit(EventLanding, impact)
}

// followGround is the grounded half of the tick: springs, chassis height
// from wheel 0 and the tilt toward the contact plane.
func (c *Controller) followGround(dt float32) {
	t := &c.tuning
	s := &c.state

	c.susp.Solve(dt)

	if w0 := &c.susp.Wheels[WheelFrontLeft]; w0.Contact {
		target := w0.GroundPoint.Y() + t.RestLength
		prev := s.Position.Y()
		s.Position[1] += (target - prev) * t.HeightBlend
		s.VerticalVelocity = (s.Position.Y() - prev) / dt
	}

	if n, ok := c.susp.ContactNormal(); ok {
		c.scratch.target = alignUp(n)
		c.tilt = mgl32.QuatSlerp(c.tilt, c.scratch.target, t.OrientationBlend).Normalize()
	}
}

// level relaxes the tilt while the car has been in the air for a while.
// Heading is untouched.
func (c *Controller) level() {
	t := &c.tuning
	if c.state.IsGrounded || c.state.AirborneTime <= t.AirGrace {
		return
	}
	c.tilt = mgl32.QuatSlerp(c.tilt, mgl32.QuatIdent(), t.AirLevelBlend).Normalize()
}

// alignUp rotates world up onto n. Near-parallel vectors give the identity.
func alignUp(n mgl32.Vec3) mgl32.Quat {
	if n.Y() >= 1-1e-6 {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatBetweenVectors(up, n)
}
