package game

import "github.com/go-gl/mathgl/mgl64"

// ControllerID names a tracked VR controller. The empty id means no holder.
type ControllerID string

type HandState string

const (
	HandsIdle        HandState = "IDLE"
	HandsHeld        HandState = "HELD"
	HandsHeldPinched HandState = "HELD_PINCHED"
)

// Transition is what the caller must do after a grab or release.
type Transition int

const (
	TransitionNone Transition = iota
	// TransitionTakeLauncher: attach the frame to the grabbing controller.
	TransitionTakeLauncher
	// TransitionPinch: begin a gesture anchored at the projectile.
	TransitionPinch
	// TransitionLaunch: end the gesture toward the fork and fire.
	TransitionLaunch
	// TransitionDropLauncher: detach the frame onto the ground.
	TransitionDropLauncher
)

func (tr Transition) String() string {
	switch tr {
	case TransitionTakeLauncher:
		return "take_launcher"
	case TransitionPinch:
		return "pinch"
	case TransitionLaunch:
		return "launch"
	case TransitionDropLauncher:
		return "drop_launcher"
	}
	return "none"
}

// Reach is how far a grabbing controller is from each grabbable thing.
type Reach struct {
	Launcher   float64
	Projectile float64
}

// HandAssignment tracks which controller holds the frame and which one
// pinches the projectile. The two roles never share a controller.
type HandAssignment struct {
	SlingshotHolder ControllerID `json:"slingshot_holder,omitempty"`
	PinchHolder     ControllerID `json:"pinch_holder,omitempty"`
	// GripOffset is projectile minus controller at pinch time.
	GripOffset mgl64.Vec3 `json:"grip_offset"`
}

func (h HandAssignment) State() HandState {
	switch {
	case h.SlingshotHolder != "" && h.PinchHolder != "":
		return HandsHeldPinched
	case h.SlingshotHolder != "":
		return HandsHeld
	}
	return HandsIdle
}

// Holds reports whether id holds either role.
func (h HandAssignment) Holds(id ControllerID) bool {
	return id != "" && (id == h.SlingshotHolder || id == h.PinchHolder)
}

// Grab applies a grab event from id. busy means a gesture is already active
// or the projectile cannot be pinched right now; grip is projectile minus
// controller, recorded when the grab becomes a pinch.
func (h *HandAssignment) Grab(id ControllerID, reach Reach, busy bool, grip mgl64.Vec3, t *Tuning) Transition {
	if id == "" {
		return TransitionNone
	}

	switch h.State() {
	case HandsIdle:
		if reach.Launcher <= t.LauncherGrabDistance {
			h.SlingshotHolder = id
			return TransitionTakeLauncher
		}
	case HandsHeld:
		if id == h.SlingshotHolder || busy {
			return TransitionNone
		}
		if reach.Projectile <= t.ProjectileGrabDistance {
			h.PinchHolder = id
			h.GripOffset = fix(grip)
			return TransitionPinch
		}
	}
	return TransitionNone
}

// Release applies a release event from id.
func (h *HandAssignment) Release(id ControllerID) Transition {
	if id == "" {
		return TransitionNone
	}

	switch {
	case id == h.PinchHolder:
		h.PinchHolder = ""
		h.GripOffset = zero3
		return TransitionLaunch
	case id == h.SlingshotHolder && h.PinchHolder == "":
		h.SlingshotHolder = ""
		return TransitionDropLauncher
	}
	// Frame release while pinched is refused, anything else holds nothing.
	return TransitionNone
}

// Reset drops every role, as when tracking is lost.
func (h *HandAssignment) Reset() {
	*h = HandAssignment{}
}

// PinchTarget is where the pinched projectile should sit for a controller at
// hand: the grip point, kept within maxPull of anchor.
func (h *HandAssignment) PinchTarget(hand, anchor mgl64.Vec3, maxPull float64) mgl64.Vec3 {
	want := fix(hand).Add(h.GripOffset)
	return anchor.Add(clampLength(want.Sub(anchor), maxPull))
}
