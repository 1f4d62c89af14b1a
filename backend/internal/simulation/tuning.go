package simulation

import (
	"errors"
	"fmt"
)

// BoundaryShape selects how the map edge is tested.
type BoundaryShape string

const (
	BoundarySquare   BoundaryShape = "square"
	BoundaryCircular BoundaryShape = "circular"
)

// ErrInvalidTuning is wrapped by every Tuning.Validate failure.
var ErrInvalidTuning = errors.New("invalid tuning")

// Tuning is the whole handling table. Distances are metres, times seconds,
// angles radians.
type Tuning struct {
	MaxDt float32 `mapstructure:"maxDt"`

	// Longitudinal.
	MaxSpeed          float32 `mapstructure:"maxSpeed"`
	MaxReverseSpeed   float32 `mapstructure:"maxReverseSpeed"`
	Acceleration      float32 `mapstructure:"acceleration"`
	DecelRate         float32 `mapstructure:"decelRate"`
	DriftScrub        float32 `mapstructure:"driftScrub"`
	OffTrackMaxSpeed  float32 `mapstructure:"offTrackMaxSpeed"`
	OffTrackSlowdown  float32 `mapstructure:"offTrackSlowdown"`
	OffTrackSteerClip float32 `mapstructure:"offTrackSteerClip"`

	// Steering and yaw.
	MaxSteer           float32 `mapstructure:"maxSteer"`
	SteeringSpeed      float32 `mapstructure:"steeringSpeed"`
	SteeringResetSpeed float32 `mapstructure:"steeringResetSpeed"`
	CounterSteerGain   float32 `mapstructure:"counterSteerGain"`

	// Drift and lateral slip.
	DriftBuildup      float32 `mapstructure:"driftBuildup"`
	DriftRecovery     float32 `mapstructure:"driftRecovery"`
	SlideRatio        float32 `mapstructure:"slideRatio"`
	LateralApproach   float32 `mapstructure:"lateralApproach"`
	LateralDriftDecay float32 `mapstructure:"lateralDriftDecay"`
	LateralGripDecay  float32 `mapstructure:"lateralGripDecay"`
	LateralCreepDecay float32 `mapstructure:"lateralCreepDecay"`
	MaxLateral        float32 `mapstructure:"maxLateral"`
	SlipDecay         float32 `mapstructure:"slipDecay"`

	// Suspension.
	WheelBase        float32 `mapstructure:"wheelBase"`
	TrackWidth       float32 `mapstructure:"trackWidth"`
	RestLength       float32 `mapstructure:"restLength"`
	MinSuspension    float32 `mapstructure:"minSuspension"`
	MaxSuspension    float32 `mapstructure:"maxSuspension"`
	SpringStiffness  float32 `mapstructure:"springStiffness"`
	SpringDamping    float32 `mapstructure:"springDamping"`
	WheelMass        float32 `mapstructure:"wheelMass"`
	RayLift          float32 `mapstructure:"rayLift"`
	RayLength        float32 `mapstructure:"rayLength"`
	HeightBlend      float32 `mapstructure:"heightBlend"`
	OrientationBlend float32 `mapstructure:"orientationBlend"`
	MinNormalUp      float32 `mapstructure:"minNormalUp"`

	// Collision and bounds.
	ProbeHeight       float32       `mapstructure:"probeHeight"`
	CollisionDistance float32       `mapstructure:"collisionDistance"`
	CollisionBounce   float32       `mapstructure:"collisionBounce"`
	PushOutFactor     float32       `mapstructure:"pushOutFactor"`
	BoundaryShape     BoundaryShape `mapstructure:"boundaryShape"`

	// Airborne.
	Gravity         float32 `mapstructure:"gravity"`
	GroundThreshold float32 `mapstructure:"groundThreshold"`
	HardLanding     float32 `mapstructure:"hardLanding"`
	LandingBounce   float32 `mapstructure:"landingBounce"`
	LandingScrub    float32 `mapstructure:"landingScrub"`
	AirGrace        float32 `mapstructure:"airGrace"`
	AirLevelBlend   float32 `mapstructure:"airLevelBlend"`

	// Trails.
	TrailMinSpeed     float32 `mapstructure:"trailMinSpeed"`
	TrailInterval     float32 `mapstructure:"trailInterval"`
	TrailDriftMin     float32 `mapstructure:"trailDriftMin"`
	TrailSlipMin      float32 `mapstructure:"trailSlipMin"`
	TrailLateralMin   float32 `mapstructure:"trailLateralMin"`
	TrailLateralScale float32 `mapstructure:"trailLateralScale"`
}

// DefaultTuning is the handling the demo ships with.
func DefaultTuning() Tuning {
	return Tuning{
		MaxDt: 0.03,

		MaxSpeed:          30,
		MaxReverseSpeed:   -15,
		Acceleration:      15,
		DecelRate:         8,
		DriftScrub:        4,
		OffTrackMaxSpeed:  15,
		OffTrackSlowdown:  0.85,
		OffTrackSteerClip: 0.7,

		MaxSteer:           0.06,
		SteeringSpeed:      0.2,
		SteeringResetSpeed: 0.4,
		CounterSteerGain:   1.5,

		DriftBuildup:      1.5,
		DriftRecovery:     0.8,
		SlideRatio:        0.35,
		LateralApproach:   4,
		LateralDriftDecay: 0.5,
		LateralGripDecay:  6,
		LateralCreepDecay: 8,
		MaxLateral:        12,
		SlipDecay:         5,

		WheelBase:        2.6,
		TrackWidth:       1.6,
		RestLength:       0.5,
		MinSuspension:    0.2,
		MaxSuspension:    0.8,
		SpringStiffness:  400,
		SpringDamping:    40,
		WheelMass:        10,
		RayLift:          2,
		RayLength:        6,
		HeightBlend:      0.2,
		OrientationBlend: 0.1,
		MinNormalUp:      0.5,

		ProbeHeight:       0.5,
		CollisionDistance: 1.6,
		CollisionBounce:   0.5,
		PushOutFactor:     0.05,
		BoundaryShape:     BoundarySquare,

		Gravity:         -20,
		GroundThreshold: 0.3,
		HardLanding:     8,
		LandingBounce:   0.3,
		LandingScrub:    0.1,
		AirGrace:        0.2,
		AirLevelBlend:   0.05,

		TrailMinSpeed:     5,
		TrailInterval:     0.05,
		TrailDriftMin:     0.1,
		TrailSlipMin:      0.1,
		TrailLateralMin:   1,
		TrailLateralScale: 8,
	}
}

// MaxSpeedFor returns the forward speed cap for the current surface.
func (t Tuning) MaxSpeedFor(offTrack bool) float32 {
	if offTrack {
		return t.OffTrackMaxSpeed
	}
	return t.MaxSpeed
}

// Validate rejects tables the integrator cannot run with.
func (t Tuning) Validate() error {
	positive := map[string]float32{
		"maxDt":         t.MaxDt,
		"maxSpeed":      t.MaxSpeed,
		"acceleration":  t.Acceleration,
		"maxSteer":      t.MaxSteer,
		"wheelMass":     t.WheelMass,
		"rayLength":     t.RayLength,
		"trailInterval": t.TrailInterval,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidTuning, name)
		}
	}
	bounce := max(t.CollisionBounce, t.LandingScrub)
	switch {
	case t.MaxReverseSpeed > 0:
		return fmt.Errorf("%w: maxReverseSpeed must not be positive", ErrInvalidTuning)
	case t.MaxReverseSpeed > -bounce*t.MaxSpeed:
		return fmt.Errorf("%w: maxReverseSpeed must be at most -%g*maxSpeed", ErrInvalidTuning, bounce)
	case -t.MaxReverseSpeed*bounce > t.MaxSpeed:
		return fmt.Errorf("%w: reversing from maxReverseSpeed must stay under maxSpeed", ErrInvalidTuning)
	case t.OffTrackMaxSpeed <= 0 || t.OffTrackMaxSpeed > t.MaxSpeed:
		return fmt.Errorf("%w: offTrackMaxSpeed must be in (0, maxSpeed]", ErrInvalidTuning)
	case t.MinSuspension > t.RestLength || t.RestLength > t.MaxSuspension:
		return fmt.Errorf("%w: restLength must lie within [minSuspension, maxSuspension]", ErrInvalidTuning)
	case t.Gravity >= 0:
		return fmt.Errorf("%w: gravity must point down", ErrInvalidTuning)
	case t.BoundaryShape != BoundarySquare && t.BoundaryShape != BoundaryCircular:
		return fmt.Errorf("%w: unknown boundary shape %q", ErrInvalidTuning, t.BoundaryShape)
	}
	return nil
}
