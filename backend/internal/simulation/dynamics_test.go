package simulation

import (
	"math/rand/v2"
	"testing"
)

func TestForwardThrottleClimbsTowardMaxSpeed(t *testing.T) {
	tuning := DefaultTuning()
	d := NewDynamics(&tuning)

	prev := d.Velocity
	for range int(1.0 / testDt) {
		d.Step(Input{Forward: true}, testDt, false)
		if d.Velocity > tuning.MaxSpeed {
			t.Fatalf("velocity exceeded max speed, got=%f", d.Velocity)
		}
		if d.Velocity <= prev {
			t.Fatalf("expected velocity to keep rising, prev=%f got=%f", prev, d.Velocity)
		}
		prev = d.Velocity
	}

	for range 500 {
		d.Step(Input{Forward: true}, testDt, false)
	}
	if d.Velocity != tuning.MaxSpeed {
		t.Fatalf("expected velocity to settle at max speed, got=%f", d.Velocity)
	}
}

func TestSpeedStaysWithinBounds(t *testing.T) {
	tuning := DefaultTuning()
	d := NewDynamics(&tuning)
	rng := rand.New(rand.NewPCG(1, 2))

	for i := range 5000 {
		in := Input{
			Forward:  rng.IntN(2) == 0,
			Backward: rng.IntN(3) == 0,
			Left:     rng.IntN(2) == 0,
			Right:    rng.IntN(2) == 0,
			Drift:    rng.IntN(2) == 0,
		}
		offTrack := rng.IntN(4) == 0
		dt := float32(rng.Float64()) * tuning.MaxDt
		d.Step(in, dt, offTrack)
		if rng.IntN(50) == 0 {
			d.ReverseVelocity(tuning.CollisionBounce)
		}

		if d.Velocity < tuning.MaxReverseSpeed || d.Velocity > tuning.MaxSpeedFor(offTrack) {
			t.Fatalf("step %d: velocity out of bounds, got=%f offTrack=%v", i, d.Velocity, offTrack)
		}
		if d.DriftFactor < 0 || d.DriftFactor > 1 {
			t.Fatalf("step %d: drift factor out of bounds, got=%f", i, d.DriftFactor)
		}
		if absf(d.LateralVelocity) > tuning.MaxLateral {
			t.Fatalf("step %d: lateral velocity out of bounds, got=%f", i, d.LateralVelocity)
		}
		limit := tuning.MaxSteer
		if offTrack {
			limit *= tuning.OffTrackSteerClip
		}
		if absf(d.SteeringAngle) > limit+1e-6 {
			t.Fatalf("step %d: steering out of bounds, got=%f", i, d.SteeringAngle)
		}
	}
}

func TestNaturalDecelerationNeverCrossesZero(t *testing.T) {
	tuning := DefaultTuning()
	d := NewDynamics(&tuning)

	d.Velocity = 0.05
	d.Step(Input{}, tuning.MaxDt, false)
	if d.Velocity != 0 {
		t.Fatalf("expected velocity to stop at zero, got=%f", d.Velocity)
	}

	d.Velocity = -0.05
	d.Step(Input{}, tuning.MaxDt, false)
	if d.Velocity != 0 {
		t.Fatalf("expected reverse velocity to stop at zero, got=%f", d.Velocity)
	}
}

func TestDriftFactorBuildsAndRecovers(t *testing.T) {
	tuning := DefaultTuning()
	d := NewDynamics(&tuning)
	d.Velocity = 15

	for range 100 {
		before := d.DriftFactor
		d.Step(Input{Forward: true, Drift: true}, testDt, false)
		if before < 1 && d.DriftFactor <= before {
			t.Fatalf("expected drift factor to increase, before=%f after=%f", before, d.DriftFactor)
		}
		if d.DriftFactor > 1 {
			t.Fatalf("drift factor above 1, got=%f", d.DriftFactor)
		}
	}
	if d.DriftFactor != 1 {
		t.Fatalf("expected drift factor to saturate, got=%f", d.DriftFactor)
	}

	for range 200 {
		before := d.DriftFactor
		d.Step(Input{Forward: true}, testDt, false)
		if before > 0 && d.DriftFactor >= before {
			t.Fatalf("expected drift factor to decrease, before=%f after=%f", before, d.DriftFactor)
		}
		if d.DriftFactor < 0 {
			t.Fatalf("drift factor below 0, got=%f", d.DriftFactor)
		}
	}
	if d.DriftFactor != 0 {
		t.Fatalf("expected drift factor to recover fully, got=%f", d.DriftFactor)
	}
}

func TestDriftFactorDecaysWhenTooSlow(t *testing.T) {
	tuning := DefaultTuning()
	d := NewDynamics(&tuning)
	d.Velocity = 2
	d.DriftFactor = 0.5

	d.Step(Input{Drift: true}, testDt, false)
	if d.DriftFactor >= 0.5 {
		t.Fatalf("expected drift factor to decay below drift speed, got=%f", d.DriftFactor)
	}
}

func TestRestStateIsFixedPoint(t *testing.T) {
	tuning := DefaultTuning()
	d := NewDynamics(&tuning)

	for range 1000 {
		d.Step(Input{}, testDt, false)
	}
	if *d != (Dynamics{tuning: &tuning}) {
		t.Fatalf("expected rest state to stay at rest, got=%+v", *d)
	}
}

func TestDriftLeftSlidesLeft(t *testing.T) {
	tuning := DefaultTuning()
	d := NewDynamics(&tuning)
	d.Velocity = 15

	in := Input{Drift: true, Left: true}
	for range int(0.5 / testDt) {
		d.Step(in, testDt, false)
		if absf(d.LateralVelocity) > tuning.MaxLateral {
			t.Fatalf("lateral velocity above max, got=%f", d.LateralVelocity)
		}
	}

	if want := 0.5 * tuning.DriftBuildup * 0.5; d.DriftFactor < want {
		t.Fatalf("expected drift factor >= %f, got=%f", want, d.DriftFactor)
	}
	if d.LateralVelocity >= 0 {
		t.Fatalf("expected slide to the left, got=%f", d.LateralVelocity)
	}
	if d.SlipAngle >= 0 {
		t.Fatalf("expected negative slip angle, got=%f", d.SlipAngle)
	}
}

func TestCounterSteerCatchesSlide(t *testing.T) {
	tuning := DefaultTuning()
	setup := func() *Dynamics {
		d := NewDynamics(&tuning)
		d.Velocity = 20
		d.DriftFactor = 0.8
		d.LateralVelocity = -3
		d.SteeringAngle = -tuning.MaxSteer
		d.slideDirection = -1
		return d
	}

	over := setup()
	over.Step(Input{Drift: true, Left: true}, testDt, false)

	counter := setup()
	counter.Step(Input{Drift: true, Right: true}, testDt, false)

	direct := counter.SteeringAngle * counter.Velocity
	if counter.YawRate <= direct {
		t.Fatalf("expected counter-steer to pull yaw right of direct steering, yaw=%f direct=%f", counter.YawRate, direct)
	}
	if over.YawRate >= over.SteeringAngle*over.Velocity {
		t.Fatalf("expected oversteer to add to the turn, yaw=%f", over.YawRate)
	}
	if counter.YawRate <= over.YawRate {
		t.Fatalf("expected counter-steer yaw above oversteer yaw, counter=%f over=%f", counter.YawRate, over.YawRate)
	}
}

func TestSteeringClipsOffTrack(t *testing.T) {
	tuning := DefaultTuning()
	d := NewDynamics(&tuning)

	for range 100 {
		d.Step(Input{Right: true}, testDt, true)
	}
	want := tuning.MaxSteer * tuning.OffTrackSteerClip
	if !near(d.SteeringAngle, want) {
		t.Fatalf("expected steering clipped to %f, got=%f", want, d.SteeringAngle)
	}

	for range 100 {
		d.Step(Input{}, testDt, true)
	}
	if d.SteeringAngle != 0 {
		t.Fatalf("expected steering to recentre, got=%f", d.SteeringAngle)
	}
}

func TestReverseVelocity(t *testing.T) {
	tuning := DefaultTuning()
	d := NewDynamics(&tuning)
	d.Velocity = 10
	d.LateralVelocity = 2
	d.YawRate = 1

	d.ReverseVelocity(0.5)
	if d.Velocity != -5 {
		t.Fatalf("expected velocity=-5, got=%f", d.Velocity)
	}
	if !near(d.LateralVelocity, -0.6) {
		t.Fatalf("expected lateral velocity=-0.6, got=%f", d.LateralVelocity)
	}
	if !near(d.YawRate, 0.2) {
		t.Fatalf("expected yaw rate=0.2, got=%f", d.YawRate)
	}

	d.Velocity = tuning.MaxSpeed
	d.ReverseVelocity(tuning.CollisionBounce)
	if want := -tuning.MaxSpeed * tuning.CollisionBounce; d.Velocity != want {
		t.Fatalf("expected velocity=%f, got=%f", want, d.Velocity)
	}
	if d.Velocity < tuning.MaxReverseSpeed {
		t.Fatalf("expected bounce within reverse limit %f, got=%f", tuning.MaxReverseSpeed, d.Velocity)
	}

	d.ReverseVelocity(tuning.CollisionBounce)
	if want := tuning.MaxSpeed * tuning.CollisionBounce * tuning.CollisionBounce; d.Velocity != want {
		t.Fatalf("expected second bounce velocity=%f, got=%f", want, d.Velocity)
	}
}
