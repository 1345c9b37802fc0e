package game

import "github.com/go-gl/mathgl/mgl64"

var (
	// Fork tips sit at (±0.14, 0.44, 0) in the frame's local space.
	forkCenterLocal = mgl64.Vec3{0, 0.44, 0}
	// Where the frame sits relative to the controller holding it.
	heldOffset = mgl64.Vec3{0, -0.1, -0.2}
)

// Pose is a tracked controller's world transform.
type Pose struct {
	Position    mgl64.Vec3 `json:"position"`
	Orientation mgl64.Quat `json:"orientation"`
}

// Launcher is the slingshot frame. It stands on the ground in world space
// unless a controller holds it.
type Launcher struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Holder      ControllerID
}

func NewLauncher(at mgl64.Vec3) Launcher {
	return Launcher{Position: ground(at), Orientation: mgl64.QuatIdent()}
}

func (l Launcher) Held() bool { return l.Holder != "" }

// ForkCenter is the midpoint between the fork tips in world space.
func (l Launcher) ForkCenter() mgl64.Vec3 {
	return l.Position.Add(orientation(l.Orientation).Rotate(forkCenterLocal))
}

// Attach parents the frame to a controller.
func (l *Launcher) Attach(id ControllerID, pose Pose) {
	l.Holder = id
	l.Follow(pose)
}

// Follow moves a held frame with its controller. Ignored when not held.
func (l *Launcher) Follow(pose Pose) {
	if !l.Held() {
		return
	}
	q := orientation(pose.Orientation)
	l.Orientation = q
	l.Position = fix(pose.Position).Add(q.Rotate(heldOffset))
}

// Detach puts the frame back on the ground below at, upright.
func (l *Launcher) Detach(at mgl64.Vec3) {
	l.Holder = ""
	l.Orientation = mgl64.QuatIdent()
	l.Position = ground(at)
}

// MoveTo relocates a grounded frame. Held frames stay with their controller.
func (l *Launcher) MoveTo(at mgl64.Vec3) {
	if l.Held() {
		return
	}
	l.Position = ground(at)
}

// Rest is where a waiting projectile sits: the fork when held, otherwise
// RestElevation above the frame.
func (l Launcher) Rest(t *Tuning) mgl64.Vec3 {
	if l.Held() {
		return l.ForkCenter()
	}
	return l.Position.Add(up.Mul(t.RestElevation))
}
