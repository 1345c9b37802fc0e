package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	zero3 = mgl64.Vec3{}
	up    = mgl64.Vec3{0, 1, 0}
)

// fix drops NaN and Inf components so a bad input can never poison state.
func fix(v mgl64.Vec3) mgl64.Vec3 {
	for i, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			v[i] = 0
		}
	}
	return v
}

func isZero(v mgl64.Vec3) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// direction normalizes v. mgl64's Normalize divides by zero on the zero
// vector, so the zero case is reported instead.
func direction(v mgl64.Vec3) (mgl64.Vec3, error) {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return zero3, ErrDegenerateVector
	}
	return v.Mul(1 / l), nil
}

func direction2(v mgl64.Vec2) (mgl64.Vec2, error) {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec2{}, ErrDegenerateVector
	}
	return v.Mul(1 / l), nil
}

// clampLength rescales v onto the sphere of radius max when it lies outside it.
func clampLength(v mgl64.Vec3, max float64) mgl64.Vec3 {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Mul(max / l)
}

// horizontal projects onto the ground plane as (x, z).
func horizontal(v mgl64.Vec3) mgl64.Vec2 {
	return mgl64.Vec2{v[0], v[2]}
}

func planarDistance(a, b mgl64.Vec3) float64 {
	return horizontal(a.Sub(b)).Len()
}

// ground returns p dropped onto y = 0.
func ground(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{p[0], 0, p[2]}
}

// orientation substitutes identity for an unset or degenerate quaternion.
func orientation(q mgl64.Quat) mgl64.Quat {
	if q.Len() == 0 {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}
