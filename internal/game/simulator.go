package game

import "github.com/go-gl/mathgl/mgl64"

type EventKind string

const (
	EventBounce      EventKind = "bounce"
	EventRest        EventKind = "rest"
	EventCapture     EventKind = "capture"
	EventOutOfBounds EventKind = "out_of_bounds"
)

// Event is something that happened to the projectile during one step.
type Event struct {
	Kind     EventKind  `json:"kind"`
	Position mgl64.Vec3 `json:"position"`
	Speed    float64    `json:"speed"` // speed going into the event
}

// StepResult lists the events of one step in the order they occurred.
type StepResult struct {
	Events []Event
}

func (r StepResult) Has(kind EventKind) bool {
	_, ok := r.Find(kind)
	return ok
}

func (r StepResult) Find(kind EventKind) (Event, bool) {
	for _, e := range r.Events {
		if e.Kind == kind {
			return e, true
		}
	}
	return Event{}, false
}

func (r *StepResult) add(kind EventKind, at mgl64.Vec3, speed float64) {
	r.Events = append(r.Events, Event{Kind: kind, Position: at, Speed: speed})
}

// Simulator advances a projectile with a fixed step. It never looks at the
// wall clock; one call to Step is one tick.
type Simulator struct {
	tuning *Tuning
	target Target
}

func NewSimulator(t *Tuning, target Target) *Simulator {
	return &Simulator{tuning: t, target: target}
}

func (s *Simulator) Target() Target { return s.target }

// Launch puts p in flight with velocity v. A zero velocity leaves p at rest.
func (s *Simulator) Launch(p *Projectile, v mgl64.Vec3) error {
	v = fix(v)
	if isZero(v) {
		p.Stop()
		return ErrDegenerateVector
	}
	p.Velocity = v
	p.Phase = PhaseInFlight
	return nil
}

// Step advances p by one tick.
func (s *Simulator) Step(p *Projectile) StepResult {
	var res StepResult
	t := s.tuning

	switch p.Phase {
	case PhaseSinking:
		p.Position[1] -= t.SinkRate
		return res
	case PhaseInFlight:
	default:
		return res
	}

	prev := p.Position
	pos, v := advance(prev, p.Velocity, t)

	if pos[1] < t.RestHeight {
		res.add(EventBounce, pos, v.Len())
		pos[1] = t.RestHeight
		v[1] *= -t.BounceDamping
		v[0] *= t.GroundFriction
		v[2] *= t.GroundFriction
	}

	v = decay(v, t)

	v = fix(v)
	pos = fix(pos)
	p.Position = pos
	p.Velocity = v

	resting := v.Len() < t.StopThreshold && pos[1] <= t.RestHeight
	if resting {
		p.Velocity = zero3
	}

	if hit, ok := s.target.Captures(prev, pos, p.Velocity); ok {
		s.capture(p, hit)
		res.add(EventCapture, hit, v.Len())
		return res
	}

	if resting {
		p.Phase = PhaseAtRest
		res.add(EventRest, pos, v.Len())
		return res
	}

	if pos[2] < -t.OutOfBoundsDepth || pos[1] < t.FloorLimit {
		p.Stop()
		res.add(EventOutOfBounds, pos, v.Len())
	}
	return res
}

// advance applies gravity and moves pos by one step.
func advance(pos, v mgl64.Vec3, t *Tuning) (mgl64.Vec3, mgl64.Vec3) {
	v[1] -= t.Gravity
	return pos.Add(v.Mul(t.StepScale)), v
}

// decay applies per-step rolling resistance to the horizontal velocity.
func decay(v mgl64.Vec3, t *Tuning) mgl64.Vec3 {
	v[0] *= t.RollingDecay
	v[2] *= t.RollingDecay
	return v
}

// CheckCapture tests a projectile against the target without moving it.
// Calling it any number of times on a resting projectile outside the capture
// radius has no effect.
func (s *Simulator) CheckCapture(p *Projectile) (mgl64.Vec3, bool) {
	if p.Phase == PhaseSinking {
		return zero3, false
	}
	hit, ok := s.target.Captures(p.Position, p.Position, p.Velocity)
	if !ok {
		return zero3, false
	}
	s.capture(p, hit)
	return hit, true
}

func (s *Simulator) capture(p *Projectile, hit mgl64.Vec3) {
	p.Velocity = zero3
	if s.target.Kind == TargetHole {
		p.Phase = PhaseSinking
		return
	}
	p.Position = hit
	p.Phase = PhaseAtRest
}

// Simulate steps p until it leaves flight or maxSteps is reached and returns
// every event seen along the way.
func (s *Simulator) Simulate(p *Projectile, maxSteps int) ([]Event, int) {
	var events []Event
	n := 0
	for n < maxSteps && p.InFlight() {
		res := s.Step(p)
		events = append(events, res.Events...)
		n++
	}
	return events, n
}
