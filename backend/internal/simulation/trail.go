package simulation

import (
	"io"

	"github.com/go-gl/mathgl/mgl32"
)

// TrailPoint is one new vertex for a wheel's skid ribbon.
type TrailPoint struct {
	Wheel     int
	Position  mgl32.Vec3
	Intensity float32
	SimTime   float32
}

// TrailSink receives skid marks for one wheel. Break ends the current
// ribbon so the next point starts a new one.
type TrailSink interface {
	AddPoint(p TrailPoint)
	Break()
	io.Closer
}

// ShouldTrail decides whether the car is leaving skid marks this tick.
func ShouldTrail(t *Tuning, s *VehicleState) bool {
	drifting := s.DriftFactor > t.TrailDriftMin
	sliding := absf(s.SlipAngle) > t.TrailSlipMin || absf(s.LateralVelocity) > t.TrailLateralMin
	return (drifting || sliding) && absf(s.Velocity) > t.TrailMinSpeed && s.IsGrounded
}

// TrailIntensity is how dark the marks should be, in [0, 1].
func TrailIntensity(t *Tuning, s *VehicleState) float32 {
	return max(s.DriftFactor, clamp(absf(s.LateralVelocity)/t.TrailLateralScale, 0, 1))
}

// trailTrigger turns the per-tick decision into rate-limited emits and a
// single break on the falling edge.
type trailTrigger struct {
	active   bool
	lastEmit float32
}

type trailAction uint8

const (
	trailNone trailAction = iota
	trailEmit
	trailBreak
)

func (tr *trailTrigger) evaluate(on bool, now, interval float32) trailAction {
	if !on {
		if tr.active {
			tr.active = false
			return trailBreak
		}
		return trailNone
	}
	if !tr.active || now-tr.lastEmit >= interval {
		tr.active = true
		tr.lastEmit = now
		return trailEmit
	}
	return trailNone
}

func (tr *trailTrigger) reset() {
	*tr = trailTrigger{}
}
