package game

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// farTarget never captures anything near the origin.
var farTarget = Target{Kind: TargetHole, Position: mgl64.Vec3{500, 0, 500}, CaptureRadius: HoleRadius, CaptureSpeed: HoleSpeed}

// openField returns tuning with the out-of-bounds plane pushed far away.
func openField() *Tuning {
	t := DefaultTuning()
	t.OutOfBoundsDepth = 1e6
	return &t
}

// arcPeaks steps p until it leaves flight and returns the peak height of
// each arc between bounces that rose above the rest height.
func arcPeaks(t *testing.T, sim *Simulator, p *Projectile, restHeight float64) []float64 {
	t.Helper()
	var peaks []float64
	peak := p.Position[1]
	for i := 0; i < 20000 && p.InFlight(); i++ {
		res := sim.Step(p)
		if p.Position[1] < restHeight-1e-12 {
			t.Fatalf("step %d: y=%.6f below rest height %.3f", i, p.Position[1], restHeight)
		}
		if res.Has(EventBounce) {
			if peak > restHeight+1e-9 {
				peaks = append(peaks, peak)
			}
			peak = p.Position[1]
			continue
		}
		peak = math.Max(peak, p.Position[1])
	}
	if p.InFlight() {
		t.Fatalf("projectile still in flight: %+v", *p)
	}
	return peaks
}

func TestLaunchedProjectileSettles(t *testing.T) {
	tuning := openField()
	sim := NewSimulator(tuning, farTarget)
	p := NewProjectile(mgl64.Vec3{0, tuning.RestHeight, 0}, tuning.ProjectileRadius)

	if err := sim.Launch(&p, mgl64.Vec3{0, 5, -5}); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	peaks := arcPeaks(t, sim, &p, tuning.RestHeight)

	if p.Phase != PhaseAtRest {
		t.Errorf("phase = %s, want %s", p.Phase, PhaseAtRest)
	}
	if !isZero(p.Velocity) {
		t.Errorf("velocity not zeroed at rest: %v", p.Velocity)
	}
	if len(peaks) < 3 {
		t.Fatalf("expected at least 3 arcs, got %d", len(peaks))
	}
	for i := 1; i < len(peaks); i++ {
		if peaks[i] >= peaks[i-1] {
			t.Errorf("arc %d peak %.4f not below arc %d peak %.4f", i, peaks[i], i-1, peaks[i-1])
		}
	}
}

func TestSecondBouncePeakIsLower(t *testing.T) {
	tuning := openField()
	sim := NewSimulator(tuning, farTarget)
	p := NewProjectile(mgl64.Vec3{0, tuning.RestElevation, 0}, tuning.ProjectileRadius)
	sim.Launch(&p, mgl64.Vec3{1, 2, -3})

	bounces := 0
	var peaks [3]float64
	for i := 0; i < 5000 && bounces < 3 && p.InFlight(); i++ {
		res := sim.Step(&p)
		if res.Has(EventBounce) {
			bounces++
			continue
		}
		if bounces > 0 && bounces < 3 {
			peaks[bounces] = math.Max(peaks[bounces], p.Position[1])
		}
	}

	if bounces < 3 {
		t.Fatalf("only %d bounces observed", bounces)
	}
	if peaks[2] >= peaks[1] {
		t.Errorf("second bounce peak %.4f should be below first %.4f", peaks[2], peaks[1])
	}
}

func TestRollingFrictionStopsProjectile(t *testing.T) {
	tuning := openField()
	sim := NewSimulator(tuning, farTarget)
	p := NewProjectile(mgl64.Vec3{0, tuning.RestHeight, 0}, tuning.ProjectileRadius)
	sim.Launch(&p, mgl64.Vec3{2, 0, 0})

	events, steps := sim.Simulate(&p, 10000)
	if p.InFlight() {
		t.Fatalf("projectile did not stop after %d steps", steps)
	}
	if p.Position[0] <= 0 {
		t.Errorf("projectile did not roll forward: x=%.3f", p.Position[0])
	}

	rests := 0
	for _, e := range events {
		if e.Kind == EventRest {
			rests++
		}
	}
	if rests != 1 {
		t.Errorf("expected exactly one rest event, got %d", rests)
	}
}

func TestOutOfBoundsForcesStop(t *testing.T) {
	tuning := DefaultTuning()
	sim := NewSimulator(&tuning, farTarget)
	p := NewProjectile(mgl64.Vec3{0, 5, -24.9}, tuning.ProjectileRadius)
	sim.Launch(&p, mgl64.Vec3{0, 0, -5})

	res := sim.Step(&p)
	if !res.Has(EventOutOfBounds) {
		t.Fatalf("expected out_of_bounds, got %+v", res.Events)
	}
	if p.Phase != PhaseAtRest || !isZero(p.Velocity) {
		t.Errorf("projectile not stopped: %+v", p)
	}
}

func TestZeroLaunchIsRejected(t *testing.T) {
	tuning := DefaultTuning()
	sim := NewSimulator(&tuning, farTarget)
	p := NewProjectile(mgl64.Vec3{0, 1.5, 0}, tuning.ProjectileRadius)

	if err := sim.Launch(&p, mgl64.Vec3{}); !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("err = %v, want ErrDegenerateVector", err)
	}
	if err := sim.Launch(&p, mgl64.Vec3{math.NaN(), 0, 0}); !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("NaN launch err = %v, want ErrDegenerateVector", err)
	}
	if p.InFlight() {
		t.Error("projectile should stay at rest")
	}
	if res := sim.Step(&p); len(res.Events) != 0 {
		t.Errorf("resting projectile produced events: %+v", res.Events)
	}
}

func TestHoleCaptureSinksProjectile(t *testing.T) {
	tuning := DefaultTuning()
	hole := Target{Kind: TargetHole, Position: mgl64.Vec3{0, 0, -5}, CaptureRadius: HoleRadius, CaptureSpeed: HoleSpeed}
	sim := NewSimulator(&tuning, hole)
	p := NewProjectile(mgl64.Vec3{0, tuning.RestHeight, -4.9}, tuning.ProjectileRadius)
	sim.Launch(&p, mgl64.Vec3{0, 0, -0.3})

	res := sim.Step(&p)
	if !res.Has(EventCapture) {
		t.Fatalf("expected capture, got %+v", res.Events)
	}
	if res.Has(EventRest) {
		t.Error("capture and rest reported in the same step")
	}
	if p.Phase != PhaseSinking {
		t.Fatalf("phase = %s, want %s", p.Phase, PhaseSinking)
	}

	y := p.Position[1]
	sim.Step(&p)
	if got := y - p.Position[1]; math.Abs(got-tuning.SinkRate) > 1e-12 {
		t.Errorf("sank %.4f in one step, want %.4f", got, tuning.SinkRate)
	}
	if _, ok := sim.CheckCapture(&p); ok {
		t.Error("sinking projectile captured twice")
	}
}

func TestBoardCaptureAtCrossing(t *testing.T) {
	tuning := DefaultTuning()
	board := Target{Kind: TargetBoard, Position: mgl64.Vec3{0, 2, -TargetDistance}, CaptureRadius: TargetSize}
	sim := NewSimulator(&tuning, board)
	p := NewProjectile(mgl64.Vec3{0.5, 2.5, -14.5}, tuning.ProjectileRadius)
	sim.Launch(&p, mgl64.Vec3{0, 1, -10})

	res := sim.Step(&p)
	e, ok := res.Find(EventCapture)
	if !ok {
		t.Fatalf("expected capture, got %+v", res.Events)
	}
	if math.Abs(e.Position[2]-board.Position[2]) > 1e-9 {
		t.Errorf("splat z = %.4f, want board plane %.1f", e.Position[2], board.Position[2])
	}
	if p.Phase != PhaseAtRest || p.Position != e.Position {
		t.Errorf("projectile should stop at the crossing: %+v", p)
	}
}

func TestCheckCaptureIsIdempotentOutsideRadius(t *testing.T) {
	tuning := DefaultTuning()
	hole := Target{Kind: TargetHole, Position: mgl64.Vec3{0, 0, 0}, CaptureRadius: HoleRadius, CaptureSpeed: HoleSpeed}
	sim := NewSimulator(&tuning, hole)
	p := NewProjectile(mgl64.Vec3{2, tuning.RestHeight, 0}, tuning.ProjectileRadius)
	before := p

	for i := 0; i < 10; i++ {
		if _, ok := sim.CheckCapture(&p); ok {
			t.Fatalf("call %d captured a projectile outside the radius", i)
		}
	}
	if p != before {
		t.Errorf("CheckCapture mutated projectile: %+v -> %+v", before, p)
	}
}

func TestDeterminism(t *testing.T) {
	run := func() []mgl64.Vec3 {
		tuning := openField()
		sim := NewSimulator(tuning, farTarget)
		p := NewProjectile(mgl64.Vec3{0, tuning.RestElevation, 0}, tuning.ProjectileRadius)
		sim.Launch(&p, mgl64.Vec3{1.3, 4.2, -7.7})
		var path []mgl64.Vec3
		for p.InFlight() && len(path) < 5000 {
			sim.Step(&p)
			path = append(path, p.Position)
		}
		return path
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs took %d and %d steps", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at step %d: %v vs %v", i, a[i], b[i])
		}
	}
}
