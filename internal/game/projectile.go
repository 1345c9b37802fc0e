package game

import "github.com/go-gl/mathgl/mgl64"

// Phase is the projectile's simulation state.
type Phase string

const (
	PhaseAtRest   Phase = "AT_REST"
	PhaseInFlight Phase = "IN_FLIGHT"
	PhaseSinking  Phase = "SINKING"
)

// Projectile is the launched ball. Velocity is zero unless Phase is PhaseInFlight.
type Projectile struct {
	Position mgl64.Vec3 `json:"position"`
	Velocity mgl64.Vec3 `json:"velocity"`
	Radius   float64    `json:"radius"`
	Phase    Phase      `json:"phase"`
}

func NewProjectile(at mgl64.Vec3, radius float64) Projectile {
	return Projectile{Position: at, Radius: radius, Phase: PhaseAtRest}
}

func (p Projectile) InFlight() bool { return p.Phase == PhaseInFlight }

func (p Projectile) AtRest() bool { return p.Phase == PhaseAtRest }

// Speed is the velocity magnitude.
func (p Projectile) Speed() float64 { return p.Velocity.Len() }

// Stop zeroes velocity and leaves the projectile resting where it is.
func (p *Projectile) Stop() {
	p.Velocity = zero3
	p.Phase = PhaseAtRest
}

// Place stops the projectile and moves it to at.
func (p *Projectile) Place(at mgl64.Vec3) {
	p.Stop()
	p.Position = at
}
