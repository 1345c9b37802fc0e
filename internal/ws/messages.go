package ws

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/playmatatu/slingshot/internal/game"
)

// WSMessage is the envelope for every client and server message.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type PointerData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ViewportData struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type XRSessionData struct {
	Presenting bool `json:"presenting"`
}

// ControllerData carries a controller id and, for grabs and pose updates,
// its world pose. Orientation is a quaternion as x, y, z, w.
type ControllerData struct {
	Controller  string      `json:"controller"`
	Position    [3]float64  `json:"position"`
	Orientation *[4]float64 `json:"orientation,omitempty"`
}

func (d ControllerData) pose() game.Pose {
	q := mgl64.QuatIdent()
	if o := d.Orientation; o != nil {
		q = mgl64.Quat{W: o[3], V: mgl64.Vec3{o[0], o[1], o[2]}}
	}
	return game.Pose{Position: mgl64.Vec3(d.Position), Orientation: q}
}

const msgGetFrame = "get_frame"

// decodeInput turns a client message into a session input.
func decodeInput(msg WSMessage) (game.Input, error) {
	switch msg.Type {
	case "pointer_down", "pointer_move", "pointer_up":
		var d PointerData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return nil, fmt.Errorf("invalid pointer data: %w", err)
		}
		switch msg.Type {
		case "pointer_down":
			return game.PointerDown{X: d.X, Y: d.Y}, nil
		case "pointer_move":
			return game.PointerMove{X: d.X, Y: d.Y}, nil
		}
		return game.PointerUp{X: d.X, Y: d.Y}, nil

	case "viewport":
		var d ViewportData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return nil, fmt.Errorf("invalid viewport data: %w", err)
		}
		return game.ResizeViewport{Width: d.Width, Height: d.Height}, nil

	case "xr_session":
		var d XRSessionData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return nil, fmt.Errorf("invalid xr_session data: %w", err)
		}
		return game.XRSession{Presenting: d.Presenting}, nil

	case "grab_start", "controller_pose", "grab_end", "tracking_lost":
		var d ControllerData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return nil, fmt.Errorf("invalid controller data: %w", err)
		}
		if d.Controller == "" {
			return nil, fmt.Errorf("controller id required")
		}
		id := game.ControllerID(d.Controller)
		switch msg.Type {
		case "grab_start":
			return game.GrabStart{Controller: id, Pose: d.pose()}, nil
		case "controller_pose":
			return game.ControllerPose{Controller: id, Pose: d.pose()}, nil
		case "grab_end":
			return game.GrabEnd{Controller: id}, nil
		}
		return game.TrackingLost{Controller: id}, nil
	}
	return nil, fmt.Errorf("unknown message type %q", msg.Type)
}

func encode(kind string, data interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{"type": kind, "data": data})
}
