package game

import "github.com/go-gl/mathgl/mgl64"

// LauncherView is the launcher as clients render it.
type LauncherView struct {
	Position    mgl64.Vec3   `json:"position"`
	Orientation [4]float64   `json:"orientation"` // x, y, z, w
	ForkCenter  mgl64.Vec3   `json:"fork_center"`
	Holder      ControllerID `json:"holder,omitempty"`
}

// Frame is everything a client needs to draw one tick.
type Frame struct {
	Tick       uint64         `json:"tick"`
	Course     string         `json:"course"`
	Projectile Projectile     `json:"projectile"`
	Color      uint32         `json:"color"`
	Mode       Mode           `json:"mode"`
	Pull       *PullState     `json:"pull,omitempty"`
	Pending    *mgl64.Vec3    `json:"pending,omitempty"`
	Preview    []PreviewPoint `json:"preview,omitempty"`
	Launcher   LauncherView   `json:"launcher"`
	Hands      HandAssignment `json:"hands"`
	HandState  HandState      `json:"hand_state"`
	Target     Target         `json:"target"`
	Splats     []Splat        `json:"splats"`
	Presenting bool           `json:"presenting"`
	Shots      int            `json:"shots"`
	Respawning bool           `json:"respawning,omitempty"`
	Events     []Event        `json:"events,omitempty"`
}

// Frame snapshots the state. Aim feedback is only present while a gesture is.
func (g *GameState) Frame() Frame {
	q := orientation(g.launcher.Orientation)
	f := Frame{
		Tick:       g.tick,
		Course:     g.course.Name,
		Projectile: g.projectile,
		Color:      paintColor(g.shots),
		Mode:       g.Mode(),
		Launcher: LauncherView{
			Position:    g.launcher.Position,
			Orientation: [4]float64{q.V[0], q.V[1], q.V[2], q.W},
			ForkCenter:  g.launcher.ForkCenter(),
			Holder:      g.launcher.Holder,
		},
		Hands:      g.hands,
		HandState:  g.hands.State(),
		Target:     g.course.Target,
		Splats:     g.splats.list(),
		Presenting: g.presenting,
		Shots:      g.shots,
		Respawning: g.sched.Pending(TaskRespawn),
		Events:     append([]Event(nil), g.events...),
	}

	pull, ok := g.launch.Pull()
	if !ok {
		return f
	}
	f.Pull = &pull

	var v mgl64.Vec3
	if g.hands.PinchHolder != "" {
		v = g.launch.PendingToward(g.launcher.ForkCenter())
	} else {
		v = g.launch.Pending()
	}
	f.Pending = &v
	f.Preview = Preview(g.projectile.Position, v, &g.tuning)
	return f
}
