package game

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Viewport is the desktop client's canvas size in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Launch records one release, whatever the input device.
type Launch struct {
	Shot     int        `json:"shot"`
	Tick     uint64     `json:"tick"`
	Mode     Mode       `json:"mode"`
	Anchor   mgl64.Vec3 `json:"anchor"`
	Offset   mgl64.Vec3 `json:"offset"`
	Velocity mgl64.Vec3 `json:"velocity"`
	VR       bool       `json:"vr"`
}

// GameState owns everything one player's session mutates. It is not safe
// for concurrent use; Session serialises access to it.
type GameState struct {
	tuning   Tuning
	tickRate int
	course   Course

	sim        *Simulator
	launch     *LaunchController
	projectile Projectile
	launcher   Launcher
	hands      HandAssignment
	sched      Scheduler
	splats     splatRing

	// repositionTask is the pending lift after a stop, zero when none.
	repositionTask Handle

	controllers map[ControllerID]Pose
	presenting  bool
	viewport    Viewport
	press       *mgl64.Vec2

	tick     uint64
	shots    int
	launches []Launch
	events   []Event
}

func NewGameState(course Course, tuning Tuning, tickRate int) *GameState {
	g := &GameState{
		tuning:      tuning,
		tickRate:    tickRate,
		course:      course,
		launcher:    NewLauncher(course.Tee),
		splats:      splatRing{limit: tuning.SplatLimit},
		controllers: make(map[ControllerID]Pose),
	}
	g.sim = NewSimulator(&g.tuning, course.Target)
	g.launch = NewLaunchController(&g.tuning)
	g.projectile = NewProjectile(g.launcher.Rest(&g.tuning), tuning.ProjectileRadius)
	return g
}

func (g *GameState) Projectile() Projectile { return g.projectile }

func (g *GameState) Launcher() Launcher { return g.launcher }

func (g *GameState) Hands() HandAssignment { return g.hands }

func (g *GameState) Course() Course { return g.course }

func (g *GameState) Presenting() bool { return g.presenting }

func (g *GameState) Shots() int { return g.shots }

func (g *GameState) CurrentTick() uint64 { return g.tick }

// Gesturing reports whether a drag or pinch is in progress.
func (g *GameState) Gesturing() bool { return g.launch.Active() }

// Mode is the aiming mode for the projectile's rest position: the gesture
// anchor while one is active, otherwise where the projectile is now.
func (g *GameState) Mode() Mode {
	at := g.projectile.Position
	if pull, ok := g.launch.Pull(); ok {
		at = pull.Anchor
	}
	if g.course.Putting && g.course.Target.OnGreen(at, g.tuning.GreenRadius) {
		return AimingPutt
	}
	return AimingLaunch
}

func (g *GameState) SetViewport(width, height float64) {
	g.viewport = Viewport{Width: width, Height: height}
}

// SetPresenting switches between desktop and immersive input. Any gesture in
// progress and any held roles are dropped.
func (g *GameState) SetPresenting(on bool) {
	if g.presenting == on {
		return
	}
	g.AbortGesture()
	g.presenting = on
}

// PointerDown starts a desktop drag. Ignored while presenting.
func (g *GameState) PointerDown(x, y float64) error {
	if g.presenting {
		return nil
	}
	if err := g.begin(); err != nil {
		return err
	}
	g.press = &mgl64.Vec2{x, y}
	return nil
}

// PointerMove updates the drag from the pixel position of the pointer.
func (g *GameState) PointerMove(x, y float64) error {
	if g.presenting {
		return nil
	}
	if g.press == nil {
		return ErrInvalidGestureState
	}

	d := ScreenDelta{
		DX:     x - g.press[0],
		DY:     y - g.press[1],
		Width:  g.viewport.Width,
		Height: g.viewport.Height,
	}
	if err := g.launch.UpdateGesture(d, g.Mode()); err != nil {
		return err
	}
	g.followPull()
	return nil
}

// PointerUp releases the drag and launches.
func (g *GameState) PointerUp(x, y float64) error {
	if g.presenting {
		return nil
	}
	if err := g.PointerMove(x, y); err != nil {
		return err
	}

	pull, _ := g.launch.Pull()
	v, err := g.launch.EndGesture()
	g.press = nil
	if err != nil {
		return err
	}
	return g.fire(pull, v, false)
}

// GrabStart handles a controller squeeze.
func (g *GameState) GrabStart(id ControllerID, pose Pose) (Transition, error) {
	if !g.presenting || id == "" {
		return TransitionNone, nil
	}
	pose = cleanPose(pose)
	g.controllers[id] = pose

	if g.hands.State() == HandsHeld && id != g.hands.SlingshotHolder {
		g.settle()
	}

	reach := Reach{
		Launcher:   pose.Position.Sub(g.launcher.Position).Len(),
		Projectile: pose.Position.Sub(g.projectile.Position).Len(),
	}
	busy := g.launch.Active() || !g.projectile.AtRest()
	grip := g.projectile.Position.Sub(pose.Position)

	tr := g.hands.Grab(id, reach, busy, grip, &g.tuning)
	switch tr {
	case TransitionTakeLauncher:
		g.launcher.Attach(id, pose)
		g.restProjectile()
	case TransitionPinch:
		if err := g.launch.BeginGesture(g.projectile.Position); err != nil {
			g.hands.PinchHolder = ""
			return TransitionNone, err
		}
	}
	return tr, nil
}

// GrabEnd handles a controller letting go.
func (g *GameState) GrabEnd(id ControllerID) (Transition, error) {
	if !g.presenting {
		return TransitionNone, nil
	}

	tr := g.hands.Release(id)
	switch tr {
	case TransitionLaunch:
		pull, _ := g.launch.Pull()
		v, err := g.launch.EndGestureToward(g.launcher.ForkCenter())
		if err != nil {
			return tr, err
		}
		return tr, g.fire(pull, v, true)
	case TransitionDropLauncher:
		g.launcher.Detach(g.projectile.Position)
		if g.projectile.AtRest() && g.sched.Len() == 0 {
			g.projectile.Place(g.launcher.Rest(&g.tuning))
		}
	}
	return tr, nil
}

// MoveController updates a tracked controller's pose.
func (g *GameState) MoveController(id ControllerID, pose Pose) error {
	if !g.presenting || id == "" {
		return nil
	}
	pose = cleanPose(pose)
	g.controllers[id] = pose

	if id == g.hands.SlingshotHolder {
		g.launcher.Follow(pose)
		g.restProjectile()
	}
	if id == g.hands.PinchHolder {
		pull, ok := g.launch.Pull()
		if !ok {
			return ErrInvalidGestureState
		}
		at := g.hands.PinchTarget(pose.Position, pull.Anchor, g.tuning.MaxPull)
		if err := g.launch.UpdateGesture(GripDelta(at.Sub(pull.Anchor)), AimingLaunch); err != nil {
			return err
		}
		g.projectile.Position = at
	}
	return nil
}

// TrackingLost drops a controller. If it held a role the gesture is
// aborted, every role released and ErrControllerUnavailable returned.
func (g *GameState) TrackingLost(id ControllerID) error {
	delete(g.controllers, id)
	if !g.hands.Holds(id) {
		return nil
	}
	g.AbortGesture()
	return ErrControllerUnavailable
}

// AbortGesture cancels any gesture without launching, releases held roles
// and puts the projectile back where the gesture started.
func (g *GameState) AbortGesture() {
	if pull, ok := g.launch.Pull(); ok && g.projectile.AtRest() {
		g.projectile.Place(pull.Anchor)
	}
	g.launch.Abort()
	g.press = nil

	if g.launcher.Held() {
		g.launcher.Detach(g.projectile.Position)
	}
	g.hands.Reset()
	g.restProjectile()
}

// Tick advances the session by one fixed step and returns what happened.
func (g *GameState) Tick() []Event {
	g.tick++
	g.events = nil

	for _, kind := range g.sched.Advance() {
		switch kind {
		case TaskRespawn:
			g.respawn(true)
		case TaskReposition:
			g.reposition()
		}
	}

	res := g.sim.Step(&g.projectile)
	for _, e := range res.Events {
		switch e.Kind {
		case EventCapture:
			g.captured(e.Position)
		case EventRest:
			g.launcher.MoveTo(g.projectile.Position)
			g.repositionTask = g.sched.Schedule(TaskReposition, ticks(g.tuning.RepositionDelay, g.tickRate))
		case EventOutOfBounds:
			g.respawn(false)
		}
	}
	g.events = res.Events

	g.restProjectile()
	return res.Events
}

// DrainLaunches returns and forgets the launches since the last call.
func (g *GameState) DrainLaunches() []Launch {
	out := g.launches
	g.launches = nil
	return out
}

func (g *GameState) begin() error {
	g.settle()
	if !g.projectile.AtRest() {
		return ErrInvalidGestureState
	}
	return g.launch.BeginGesture(g.projectile.Position)
}

// settle performs a pending reposition now so a new gesture never races it.
func (g *GameState) settle() {
	if g.repositionTask != 0 && g.sched.Cancel(g.repositionTask) {
		g.repositionTask = 0
		g.reposition()
	}
}

// followPull drags the projectile with a launch pull. A putt only aims; the
// ball stays on its anchor.
func (g *GameState) followPull() {
	if pull, ok := g.launch.Pull(); ok && pull.Mode != AimingPutt {
		g.projectile.Position = pull.Position()
	}
}

func (g *GameState) fire(pull PullState, v mgl64.Vec3, vr bool) error {
	err := g.sim.Launch(&g.projectile, v)
	if err != nil {
		// Nothing to launch: the projectile goes back to the anchor.
		g.projectile.Place(pull.Anchor)
		return err
	}

	g.shots++
	g.launches = append(g.launches, Launch{
		Shot:     g.shots,
		Tick:     g.tick,
		Mode:     pull.Mode,
		Anchor:   pull.Anchor,
		Offset:   pull.Offset,
		Velocity: g.projectile.Velocity,
		VR:       vr,
	})
	return nil
}

func (g *GameState) captured(at mgl64.Vec3) {
	if g.course.Target.Kind == TargetHole {
		g.sched.Schedule(TaskRespawn, ticks(g.tuning.CaptureDelay, g.tickRate))
		return
	}
	g.splats.add(Splat{Position: at, Color: paintColor(g.shots)})
	g.respawn(true)
}

// respawn stops the projectile on the launcher, moving the launcher back to
// the tee first when toTee is set and nobody holds it.
func (g *GameState) respawn(toTee bool) {
	g.sched.CancelKind(TaskReposition)
	g.repositionTask = 0
	if toTee {
		g.launcher.MoveTo(g.course.Tee)
	}
	g.projectile.Place(g.launcher.Rest(&g.tuning))
}

// reposition lifts a stopped projectile onto the launcher, or leaves it on
// the ground when the next shot is a putt.
func (g *GameState) reposition() {
	if !g.projectile.AtRest() {
		return
	}
	if g.Mode() == AimingPutt && !g.launcher.Held() {
		at := ground(g.projectile.Position)
		at[1] = g.tuning.RestHeight
		g.projectile.Place(at)
		return
	}
	g.projectile.Place(g.launcher.Rest(&g.tuning))
}

// restProjectile keeps an idle projectile in the fork of a held launcher.
func (g *GameState) restProjectile() {
	if !g.launcher.Held() || !g.projectile.AtRest() || g.launch.Active() || g.sched.Len() > 0 {
		return
	}
	g.projectile.Place(g.launcher.Rest(&g.tuning))
}

func cleanPose(p Pose) Pose {
	return Pose{Position: fix(p.Position), Orientation: orientation(p.Orientation)}
}
