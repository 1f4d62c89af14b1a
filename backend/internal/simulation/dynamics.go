package simulation

const (
	driftScrubSpeed = 5
	driftMinSpeed   = 3
	driftActive     = 0.05
	movingSpeed     = 0.1
	creepLateral    = 1
	lateralSnap     = 1e-4
)

// Dynamics turns keys and a time step into forward speed, steering, yaw
// rate and tire slip. It knows nothing about world geometry.
//
// Sign conventions: steering and lateral velocity are negative to the left,
// positive to the right. A positive yaw rate turns the car right.
type Dynamics struct {
	Velocity        float32
	LateralVelocity float32
	YawRate         float32
	DriftFactor     float32
	SlipAngle       float32
	SteeringAngle   float32

	slideDirection float32
	tuning         *Tuning
}

func NewDynamics(t *Tuning) *Dynamics {
	return &Dynamics{tuning: t}
}

// Reset zeroes the motion state.
func (d *Dynamics) Reset() {
	*d = Dynamics{tuning: d.tuning}
}

// Speed is the unsigned forward speed.
func (d *Dynamics) Speed() float32 {
	return absf(d.Velocity)
}

// Step advances the model by dt. dt is expected to be clamped by the caller.
func (d *Dynamics) Step(in Input, dt float32, offTrack bool) {
	t := d.tuning

	var accel float32
	if in.Forward {
		accel = t.Acceleration
	} else if in.Backward {
		accel = -t.Acceleration
	}
	if in.Drift && d.Speed() > driftScrubSpeed {
		accel -= sign(d.Velocity) * t.DriftScrub
	}
	d.Velocity += accel * dt

	if !in.Forward && !in.Backward {
		d.Velocity = approachZero(d.Velocity, t.DecelRate*dt)
	}
	d.Velocity = clamp(d.Velocity, t.MaxReverseSpeed, t.MaxSpeedFor(offTrack))

	d.steer(in, dt, offTrack)

	speed := d.Speed()
	d.YawRate = d.yawRate(in, speed)

	drifting := in.Drift && speed > driftMinSpeed
	if drifting {
		d.DriftFactor += t.DriftBuildup * dt
	} else {
		d.DriftFactor -= t.DriftRecovery * dt
	}
	d.DriftFactor = clamp(d.DriftFactor, 0, 1)

	d.slide(in, dt, speed, drifting)

	if speed > movingSpeed {
		d.SlipAngle = atan2f(d.LateralVelocity, speed)
	} else {
		d.SlipAngle -= d.SlipAngle * min(1, t.SlipDecay*dt)
	}
}

func (d *Dynamics) steer(in Input, dt float32, offTrack bool) {
	t := d.tuning
	limit := t.MaxSteer
	if offTrack {
		limit *= t.OffTrackSteerClip
	}
	if dir := in.steerDirection(); dir != 0 {
		d.SteeringAngle += dir * t.SteeringSpeed * dt
	} else {
		d.SteeringAngle = approachZero(d.SteeringAngle, t.SteeringResetSpeed*dt)
	}
	d.SteeringAngle = clamp(d.SteeringAngle, -limit, limit)
}

// yawRate combines direct steering with the drift term. Steering against
// the slide catches it; anything else over-rotates the car.
func (d *Dynamics) yawRate(in Input, speed float32) float32 {
	t := d.tuning
	yaw := d.SteeringAngle * speed * sign(d.Velocity)
	if d.DriftFactor <= driftActive {
		return yaw
	}

	steerDir := in.steerDirection()
	slideDir := sign(d.LateralVelocity)
	if steerDir != 0 && slideDir != 0 && steerDir != slideDir {
		speedNorm := clamp(speed/t.MaxSpeed, 0, 1)
		return yaw - slideDir*d.DriftFactor*speedNorm*t.CounterSteerGain
	}
	return yaw + d.SteeringAngle*d.DriftFactor*speed
}

func (d *Dynamics) slide(in Input, dt, speed float32, drifting bool) {
	t := d.tuning
	if drifting {
		if dir := in.steerDirection(); dir != 0 {
			d.slideDirection = dir
		}
		target := d.slideDirection * speed * t.SlideRatio * d.DriftFactor
		d.LateralVelocity += (target - d.LateralVelocity) * min(1, t.LateralApproach*dt)
	} else if !in.Drift {
		d.slideDirection = 0
	}

	decay := t.LateralGripDecay
	if drifting {
		decay = t.LateralDriftDecay
	}
	d.LateralVelocity -= d.LateralVelocity * min(1, decay*dt)
	if absf(d.LateralVelocity) < creepLateral {
		d.LateralVelocity -= d.LateralVelocity * min(1, t.LateralCreepDecay*dt)
	}
	if absf(d.LateralVelocity) < lateralSnap {
		d.LateralVelocity = 0
	}
	d.LateralVelocity = clamp(d.LateralVelocity, -t.MaxLateral, t.MaxLateral)
}

// ReverseVelocity is the collision response: bounce back at factor of the
// current speed, kill most of the slide and the spin. Tuning.Validate keeps
// the result within the speed limits.
func (d *Dynamics) ReverseVelocity(factor float32) {
	d.Velocity = -d.Velocity * factor
	d.LateralVelocity *= -0.3
	d.YawRate *= 0.2
}
