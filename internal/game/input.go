package game

// Input is one client event destined for a session's GameState.
type Input interface {
	Kind() string
	apply(g *GameState) error
}

type PointerDown struct{ X, Y float64 }

func (PointerDown) Kind() string { return "pointer_down" }

func (in PointerDown) apply(g *GameState) error { return g.PointerDown(in.X, in.Y) }

type PointerMove struct{ X, Y float64 }

func (PointerMove) Kind() string { return "pointer_move" }

func (in PointerMove) apply(g *GameState) error { return g.PointerMove(in.X, in.Y) }

type PointerUp struct{ X, Y float64 }

func (PointerUp) Kind() string { return "pointer_up" }

func (in PointerUp) apply(g *GameState) error { return g.PointerUp(in.X, in.Y) }

type ResizeViewport Viewport

func (ResizeViewport) Kind() string { return "viewport" }

func (in ResizeViewport) apply(g *GameState) error {
	g.SetViewport(in.Width, in.Height)
	return nil
}

type XRSession struct{ Presenting bool }

func (XRSession) Kind() string { return "xr_session" }

func (in XRSession) apply(g *GameState) error {
	g.SetPresenting(in.Presenting)
	return nil
}

type GrabStart struct {
	Controller ControllerID
	Pose       Pose
}

func (GrabStart) Kind() string { return "grab_start" }

func (in GrabStart) apply(g *GameState) error {
	_, err := g.GrabStart(in.Controller, in.Pose)
	return err
}

type ControllerPose struct {
	Controller ControllerID
	Pose       Pose
}

func (ControllerPose) Kind() string { return "controller_pose" }

func (in ControllerPose) apply(g *GameState) error { return g.MoveController(in.Controller, in.Pose) }

type GrabEnd struct{ Controller ControllerID }

func (GrabEnd) Kind() string { return "grab_end" }

func (in GrabEnd) apply(g *GameState) error {
	_, err := g.GrabEnd(in.Controller)
	return err
}

type TrackingLost struct{ Controller ControllerID }

func (TrackingLost) Kind() string { return "tracking_lost" }

func (in TrackingLost) apply(g *GameState) error { return g.TrackingLost(in.Controller) }
