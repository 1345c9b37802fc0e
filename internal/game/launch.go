package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mode selects the release formula.
type Mode string

const (
	AimingLaunch Mode = "LAUNCH"
	AimingPutt   Mode = "PUTT"
)

// PullState is an in-progress drag or pinch.
type PullState struct {
	Anchor mgl64.Vec3 `json:"anchor"`
	Offset mgl64.Vec3 `json:"offset"`
	Mode   Mode       `json:"mode"`
	Aim    mgl64.Vec2 `json:"aim"`   // putt only, unit (x, z) drag direction
	Power  float64    `json:"power"` // putt only
}

// Position is where the pulled projectile sits.
func (p PullState) Position() mgl64.Vec3 {
	return p.Anchor.Add(p.Offset)
}

// Delta is a raw gesture displacement, either screen pixels or world units.
type Delta interface {
	pull(t *Tuning, mode Mode) PullState
}

// ScreenDelta is a pointer drag in pixels measured from the press point.
type ScreenDelta struct {
	DX, DY        float64
	Width, Height float64
}

func (d ScreenDelta) pull(t *Tuning, mode Mode) PullState {
	if d.Width <= 0 || d.Height <= 0 {
		return PullState{Mode: mode}
	}

	if mode == AimingPutt {
		drag := mgl64.Vec2{d.DX, d.DY}
		power := math.Min(drag.Len()/d.Height*t.PutterPower, t.PutterPower)
		aim, err := direction2(drag)
		if err != nil {
			power = 0
		}
		return puttState(t, aim, power)
	}

	pullBack := d.DY / d.Height * t.MaxPull * 2
	pullSide := d.DX / d.Width * t.MaxPull * 2
	offset := mgl64.Vec3{
		-pullSide,
		-math.Max(pullBack*0.2, 0),
		math.Min(pullBack, t.MaxPull),
	}
	return PullState{Offset: launchOffset(t, offset), Mode: AimingLaunch}
}

// WorldDelta is a displacement from the anchor in world units.
type WorldDelta mgl64.Vec3

func (d WorldDelta) pull(t *Tuning, mode Mode) PullState {
	v := fix(mgl64.Vec3(d))
	if mode == AimingPutt {
		h := horizontal(v)
		power := math.Min(h.Len()/t.MaxPull*t.PutterPower, t.PutterPower)
		aim, err := direction2(h)
		if err != nil {
			power = 0
		}
		return puttState(t, aim, power)
	}
	return PullState{Offset: launchOffset(t, v), Mode: AimingLaunch}
}

// GripDelta is a pinch displacement from a tracked hand. Unlike WorldDelta
// it may lift the projectile; only its length is capped.
type GripDelta mgl64.Vec3

func (d GripDelta) pull(t *Tuning, _ Mode) PullState {
	return PullState{Offset: clampLength(fix(mgl64.Vec3(d)), t.MaxPull), Mode: AimingLaunch}
}

func launchOffset(t *Tuning, v mgl64.Vec3) mgl64.Vec3 {
	v[1] = math.Min(v[1], 0)
	v[2] = math.Min(v[2], t.MaxPull)
	return clampLength(v, t.MaxPull)
}

func puttState(t *Tuning, aim mgl64.Vec2, power float64) PullState {
	offset := mgl64.Vec3{aim[0], 0, aim[1]}.Mul(power / t.PutterPower * t.MaxPull)
	return PullState{Offset: offset, Mode: AimingPutt, Aim: aim, Power: power}
}

// LaunchController turns gestures into launch velocities.
type LaunchController struct {
	tuning *Tuning
	pull   *PullState
}

func NewLaunchController(t *Tuning) *LaunchController {
	return &LaunchController{tuning: t}
}

// Active reports whether a gesture is in progress.
func (lc *LaunchController) Active() bool { return lc.pull != nil }

// Pull returns a copy of the current gesture.
func (lc *LaunchController) Pull() (PullState, bool) {
	if lc.pull == nil {
		return PullState{}, false
	}
	return *lc.pull, true
}

// BeginGesture anchors a new gesture at origin.
func (lc *LaunchController) BeginGesture(origin mgl64.Vec3) error {
	if lc.pull != nil {
		return ErrInvalidGestureState
	}
	lc.pull = &PullState{Anchor: origin, Mode: AimingLaunch}
	return nil
}

// UpdateGesture replaces the current offset from a raw delta.
func (lc *LaunchController) UpdateGesture(d Delta, mode Mode) error {
	if lc.pull == nil {
		return ErrInvalidGestureState
	}
	next := d.pull(lc.tuning, mode)
	next.Anchor = lc.pull.Anchor
	*lc.pull = next
	return nil
}

// Pending is the velocity EndGesture would produce now.
func (lc *LaunchController) Pending() mgl64.Vec3 {
	if lc.pull == nil {
		return zero3
	}
	return releaseVelocity(lc.tuning, *lc.pull)
}

// PendingToward is the velocity EndGestureToward would produce now.
func (lc *LaunchController) PendingToward(fork mgl64.Vec3) mgl64.Vec3 {
	if lc.pull == nil {
		return zero3
	}
	return forkVelocity(lc.tuning, lc.pull.Position(), fork)
}

// EndGesture consumes the gesture and returns the release velocity.
func (lc *LaunchController) EndGesture() (mgl64.Vec3, error) {
	if lc.pull == nil {
		return zero3, ErrInvalidGestureState
	}
	v := releaseVelocity(lc.tuning, *lc.pull)
	lc.pull = nil
	return v, nil
}

// EndGestureToward consumes a two-hand gesture, aiming through the launcher fork.
func (lc *LaunchController) EndGestureToward(fork mgl64.Vec3) (mgl64.Vec3, error) {
	if lc.pull == nil {
		return zero3, ErrInvalidGestureState
	}
	v := forkVelocity(lc.tuning, lc.pull.Position(), fork)
	lc.pull = nil
	return v, nil
}

// Abort drops the gesture without launching.
func (lc *LaunchController) Abort() {
	lc.pull = nil
}

func releaseVelocity(t *Tuning, p PullState) mgl64.Vec3 {
	if p.Mode == AimingPutt {
		return mgl64.Vec3{-p.Aim[0] * p.Power, 0, -p.Aim[1] * p.Power}
	}

	dir, err := direction(p.Anchor.Sub(p.Position()))
	if err != nil {
		return zero3
	}
	power := math.Min(p.Offset.Len()*t.PowerScale, t.MaxPower)
	return dir.Mul(power)
}

// forkVelocity aims from the projectile through the fork centre and adds a
// lift term so a straight pull still arcs.
func forkVelocity(t *Tuning, ball, fork mgl64.Vec3) mgl64.Vec3 {
	dir, err := direction(fork.Sub(ball))
	if err != nil {
		return zero3
	}
	distance := ball.Sub(fork).Len()
	power := math.Min(distance*t.VRPowerScale, t.MaxPower)

	dir[1] = math.Min(distance*t.VRLiftFactor, t.VRLiftCap)
	dir, err = direction(dir)
	if err != nil {
		return zero3
	}
	return dir.Mul(power)
}
