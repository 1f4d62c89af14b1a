package simulation

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/xcrap/micromachines/backend/internal/terrain"
)

func TestSuspensionHeightStaysWithinLimits(t *testing.T) {
	tuning := DefaultTuning()
	s := NewSuspension(&tuning)
	ground := terrain.NewPlane(0, terrain.KindGround)
	surfaces := []terrain.Surface{ground}
	rng := rand.New(rand.NewPCG(3, 4))
	pos := mgl32.Vec3{0, tuning.RestLength, 0}

	for i := range 2000 {
		ground.Height = float32(rng.Float64()*2 - 1)
		if _, ok := s.Probe(surfaces, pos, mgl32.QuatIdent()); !ok {
			t.Fatalf("tick %d: expected ground hit at height %f", i, ground.Height)
		}
		s.Solve(float32(rng.Float64()) * tuning.MaxDt)
		for w, wheel := range s.Wheels {
			if wheel.CurrentHeight < tuning.MinSuspension || wheel.CurrentHeight > tuning.MaxSuspension {
				t.Fatalf("tick %d wheel %d: height out of limits, got=%f", i, w, wheel.CurrentHeight)
			}
		}
	}
}

func TestSuspensionLimitStopIsInelastic(t *testing.T) {
	tuning := DefaultTuning()
	s := NewSuspension(&tuning)
	ground := terrain.NewPlane(-3, terrain.KindGround)
	surfaces := []terrain.Surface{ground}
	pos := mgl32.Vec3{0, 0, 0}

	for range 200 {
		s.Probe(surfaces, pos, mgl32.QuatIdent())
		s.Solve(testDt)
	}
	for i, wheel := range s.Wheels {
		if wheel.CurrentHeight != tuning.MaxSuspension {
			t.Fatalf("wheel %d: expected full extension, got=%f", i, wheel.CurrentHeight)
		}
		if wheel.Velocity != 0 {
			t.Fatalf("wheel %d: expected velocity zeroed at the stop, got=%f", i, wheel.Velocity)
		}
	}
}

func TestWheelWithoutHitHoldsState(t *testing.T) {
	tuning := DefaultTuning()
	s := NewSuspension(&tuning)
	pos := mgl32.Vec3{0, tuning.RestLength, 0}
	rr := s.Mount(WheelRearRight, pos, mgl32.QuatIdent())
	ground := patchyGround{
		Plane:  terrain.NewPlane(0.1, terrain.KindGround),
		hole:   mgl32.Vec2{rr.X(), rr.Z()},
		radius: 0.3,
	}
	surfaces := []terrain.Surface{ground}

	s.Wheels[WheelRearRight].CurrentHeight = 0.6
	s.Wheels[WheelRearRight].Velocity = 0.3
	held := s.Wheels[WheelRearRight]

	for tick := range 10 {
		if _, ok := s.Probe(surfaces, pos, mgl32.QuatIdent()); !ok {
			t.Fatalf("tick %d: expected the other wheels to hit", tick)
		}
		s.Solve(testDt)

		got := s.Wheels[WheelRearRight]
		if got.Contact {
			t.Fatalf("tick %d: expected no contact over the hole", tick)
		}
		if got.CurrentHeight != held.CurrentHeight || got.Velocity != held.Velocity || got.Compression != held.Compression {
			t.Fatalf("tick %d: expected wheel state held, got=%+v want=%+v", tick, got, held)
		}
	}
	if !s.Wheels[WheelFrontLeft].Contact {
		t.Fatal("expected front left wheel on the ground")
	}
}

func TestProbeReportsLowestClearance(t *testing.T) {
	tuning := DefaultTuning()
	s := NewSuspension(&tuning)
	surfaces := []terrain.Surface{terrain.NewPlane(0, terrain.KindGround)}

	clearance, ok := s.Probe(surfaces, mgl32.Vec3{0, tuning.RestLength + 1, 0}, mgl32.QuatIdent())
	if !ok {
		t.Fatal("expected ground hit")
	}
	if !near(clearance, 1) {
		t.Fatalf("expected clearance=1, got=%f", clearance)
	}

	if _, ok := s.Probe(surfaces, mgl32.Vec3{0, 50, 0}, mgl32.QuatIdent()); ok {
		t.Fatal("expected no hit far above the ground")
	}
}

func TestMountFollowsHeading(t *testing.T) {
	tuning := DefaultTuning()
	s := NewSuspension(&tuning)

	// A quarter turn right points the nose down -X, so the left wheels sit at +Z.
	yaw := mgl32.QuatRotate(-mgl32.DegToRad(90), up)
	fl := s.Mount(WheelFrontLeft, mgl32.Vec3{}, yaw)
	if !near(fl.X(), -tuning.WheelBase/2) || !near(fl.Z(), tuning.TrackWidth/2) {
		t.Fatalf("unexpected front left mount, got=%v", fl)
	}
}

func TestContactNormal(t *testing.T) {
	tuning := DefaultTuning()
	s := NewSuspension(&tuning)

	setPoints := func(heights [3]float32) {
		for i := 0; i < 3; i++ {
			off := s.Wheels[i].LocalOffset
			s.Wheels[i].GroundPoint = mgl32.Vec3{off.X(), heights[i], off.Z()}
		}
	}

	setPoints([3]float32{0, 0, 0})
	n, ok := s.ContactNormal()
	if !ok || !near(n.Y(), 1) {
		t.Fatalf("expected straight up normal, got=%v ok=%v", n, ok)
	}

	// Front higher than rear tips the normal backwards.
	setPoints([3]float32{0.5, 0.5, 0})
	n, ok = s.ContactNormal()
	if !ok || n.Z() >= 0 || n.Y() <= 0 {
		t.Fatalf("expected normal leaning back, got=%v ok=%v", n, ok)
	}

	for i := 0; i < 3; i++ {
		s.Wheels[i].GroundPoint = mgl32.Vec3{1, 2, 3}
	}
	if _, ok := s.ContactNormal(); ok {
		t.Fatal("expected degenerate triangle to be rejected")
	}

	setPoints([3]float32{0, 10, 0})
	if _, ok := s.ContactNormal(); ok {
		t.Fatal("expected near vertical triangle to be rejected")
	}
}
