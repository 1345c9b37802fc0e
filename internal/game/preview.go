package game

import "github.com/go-gl/mathgl/mgl64"

// PreviewPoint is one aim-line sample.
type PreviewPoint struct {
	Position mgl64.Vec3 `json:"position"`
	Opacity  float64    `json:"opacity"`
}

// Preview samples the path a projectile launched from start with velocity v
// would follow, using the simulator's airborne step so the line matches the
// flight up to the first bounce. Samples fade out along the path and stop at
// the first one below the preview floor. Nothing is mutated.
func Preview(start, v mgl64.Vec3, t *Tuning) []PreviewPoint {
	n := t.PreviewSamples
	if n <= 0 || isZero(v) {
		return nil
	}

	pos, vel := fix(start), fix(v)
	points := make([]PreviewPoint, 0, n)
	for i := 0; i < n; i++ {
		pos, vel = advance(pos, vel, t)
		vel = decay(vel, t)

		points = append(points, PreviewPoint{
			Position: pos,
			Opacity:  1 - float64(i)/float64(n),
		})
		if pos[1] < t.PreviewFloor {
			break
		}
	}
	return points
}
