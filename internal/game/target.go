package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type TargetKind string

const (
	// TargetHole is a cup on the ground. Capture needs the projectile over the
	// cup and slow enough to drop.
	TargetHole TargetKind = "HOLE"
	// TargetBoard is an upright paint board facing +z. Any crossing of its
	// plane inside the radius captures, whatever the speed.
	TargetBoard TargetKind = "BOARD"
)

// boardWindow is the depth slab around a board that counts as touching it
// even without a plane crossing.
const boardWindow = 0.1

type Target struct {
	Kind          TargetKind `json:"kind"`
	Position      mgl64.Vec3 `json:"position"`
	CaptureRadius float64    `json:"capture_radius"`
	// CaptureSpeed is ignored for boards.
	CaptureSpeed float64 `json:"capture_speed,omitempty"`
}

// Captures reports whether a step from prev to cur with velocity vel lands
// in the target, and where.
func (t Target) Captures(prev, cur, vel mgl64.Vec3) (mgl64.Vec3, bool) {
	switch t.Kind {
	case TargetHole:
		if planarDistance(cur, t.Position) < t.CaptureRadius && vel.Len() < t.CaptureSpeed {
			return cur, true
		}
	case TargetBoard:
		hit, ok := t.crossing(prev, cur)
		if ok && hit.Sub(t.Position).Len() < t.CaptureRadius {
			return hit, true
		}
	}
	return zero3, false
}

// crossing finds where the segment prev→cur meets the board plane. A large
// step can jump straight over the board, so the segment is tested rather than
// only the end point.
func (t Target) crossing(prev, cur mgl64.Vec3) (mgl64.Vec3, bool) {
	z := t.Position[2]
	if math.Abs(cur[2]-z) < boardWindow {
		return cur, true
	}

	a, b := prev[2]-z, cur[2]-z
	if a == b || (a > 0) == (b > 0) {
		return zero3, false
	}
	s := a / (a - b)
	return prev.Add(cur.Sub(prev).Mul(s)), true
}

// OnGreen reports whether p is close enough to a hole to putt.
func (t Target) OnGreen(p mgl64.Vec3, greenRadius float64) bool {
	return t.Kind == TargetHole && planarDistance(p, t.Position) <= greenRadius
}

// Course is a playable layout: one target and the tee the launcher starts on.
type Course struct {
	Name    string     `json:"name"`
	Target  Target     `json:"target"`
	Tee     mgl64.Vec3 `json:"tee"`
	Putting bool       `json:"putting"`
}

var courses = map[string]Course{
	"paintball": {
		Name: "paintball",
		Target: Target{
			Kind:          TargetBoard,
			Position:      mgl64.Vec3{0, 2, -TargetDistance},
			CaptureRadius: TargetSize,
		},
	},
	"golf": {
		Name: "golf",
		Target: Target{
			Kind:          TargetHole,
			Position:      mgl64.Vec3{0, 0, -TargetDistance},
			CaptureRadius: HoleRadius,
			CaptureSpeed:  HoleSpeed,
		},
		Putting: true,
	},
}

// DefaultCourse is used when a session names none.
const DefaultCourse = "paintball"

// LookupCourse returns the named course.
func LookupCourse(name string) (Course, error) {
	if name == "" {
		name = DefaultCourse
	}
	c, ok := courses[name]
	if !ok {
		return Course{}, ErrUnknownCourse
	}
	return c, nil
}

// CourseNames lists the built-in courses.
func CourseNames() []string {
	return []string{"golf", "paintball"}
}

// Splat is a paint mark left on a board.
type Splat struct {
	Position mgl64.Vec3 `json:"position"`
	Color    uint32     `json:"color"`
}

var palette = [...]uint32{0xff0000, 0x00ff00, 0x0000ff, 0xff00ff, 0xffff00, 0x00ffff}

// paintColor picks the colour for the nth shot.
func paintColor(n int) uint32 {
	return palette[n%len(palette)]
}

// splatRing keeps the newest limit splats in insertion order.
type splatRing struct {
	limit  int
	splats []Splat
}

func (r *splatRing) add(s Splat) {
	r.splats = append(r.splats, s)
	if r.limit > 0 && len(r.splats) > r.limit {
		r.splats = append(r.splats[:0], r.splats[len(r.splats)-r.limit:]...)
	}
}

func (r *splatRing) list() []Splat {
	out := make([]Splat, len(r.splats))
	copy(out, r.splats)
	return out
}
