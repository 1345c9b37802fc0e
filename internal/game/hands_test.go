package game

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

var (
	near = Reach{Launcher: 0.1, Projectile: 0.1}
	far  = Reach{Launcher: 5, Projectile: 5}
)

func TestHandAssignmentTwoHandFlow(t *testing.T) {
	tuning := DefaultTuning()
	var h HandAssignment

	assert.Equal(t, TransitionTakeLauncher, h.Grab("left", near, false, zero3, &tuning))
	assert.Equal(t, HandsHeld, h.State())

	// The holding hand cannot also pinch.
	assert.Equal(t, TransitionNone, h.Grab("left", near, false, zero3, &tuning))

	grip := mgl64.Vec3{0, 0, 0.1}
	assert.Equal(t, TransitionPinch, h.Grab("right", near, false, grip, &tuning))
	assert.Equal(t, HandsHeldPinched, h.State())
	assert.Equal(t, grip, h.GripOffset)

	// Frame release while pinched is refused.
	assert.Equal(t, TransitionNone, h.Release("left"))
	assert.Equal(t, HandsHeldPinched, h.State())

	assert.Equal(t, TransitionLaunch, h.Release("right"))
	assert.Equal(t, HandsHeld, h.State())
	assert.Equal(t, zero3, h.GripOffset)

	assert.Equal(t, TransitionDropLauncher, h.Release("left"))
	assert.Equal(t, HandsIdle, h.State())
}

func TestHandAssignmentOutOfReach(t *testing.T) {
	tuning := DefaultTuning()
	var h HandAssignment

	assert.Equal(t, TransitionNone, h.Grab("left", far, false, zero3, &tuning))
	assert.Equal(t, HandsIdle, h.State())

	h.Grab("left", near, false, zero3, &tuning)
	assert.Equal(t, TransitionNone, h.Grab("right", far, false, zero3, &tuning))
	assert.Equal(t, TransitionNone, h.Grab("right", near, true, zero3, &tuning), "busy projectile")
	assert.Equal(t, TransitionNone, h.Grab("", near, false, zero3, &tuning))
}

func TestReleaseByStrangerIsIgnored(t *testing.T) {
	tuning := DefaultTuning()
	var h HandAssignment
	h.Grab("left", near, false, zero3, &tuning)

	assert.Equal(t, TransitionNone, h.Release("third"))
	assert.Equal(t, TransitionNone, h.Release(""))
	assert.Equal(t, ControllerID("left"), h.SlingshotHolder)
}

func TestHandRolesNeverOverlap(t *testing.T) {
	tuning := DefaultTuning()
	ids := []ControllerID{"a", "b", "c", ""}
	rng := rand.New(rand.NewSource(7))

	var h HandAssignment
	for i := 0; i < 5000; i++ {
		id := ids[rng.Intn(len(ids))]
		switch rng.Intn(3) {
		case 0:
			reach := Reach{Launcher: rng.Float64() * 2, Projectile: rng.Float64()}
			h.Grab(id, reach, rng.Intn(4) == 0, mgl64.Vec3{rng.Float64(), 0, 0}, &tuning)
		case 1:
			h.Release(id)
		case 2:
			if rng.Intn(20) == 0 {
				h.Reset()
			}
		}

		if h.PinchHolder != "" {
			if h.SlingshotHolder == "" {
				t.Fatalf("step %d: pinch without a frame holder: %+v", i, h)
			}
			if h.PinchHolder == h.SlingshotHolder {
				t.Fatalf("step %d: one controller holds both roles: %+v", i, h)
			}
		}
	}
}

func TestPinchTargetStaysWithinPull(t *testing.T) {
	h := HandAssignment{SlingshotHolder: "a", PinchHolder: "b", GripOffset: mgl64.Vec3{0, 0, 0.05}}
	anchor := mgl64.Vec3{0, 1.44, 0}

	got := h.PinchTarget(mgl64.Vec3{0, 1.44, 0.3}, anchor, 2)
	assert.InDelta(t, 0.35, got[2], 1e-9)

	got = h.PinchTarget(mgl64.Vec3{0, 1.44, 10}, anchor, 2)
	assert.InDelta(t, 2.0, got.Sub(anchor).Len(), 1e-9)
}

func TestTransitionNames(t *testing.T) {
	assert.Equal(t, "launch", TransitionLaunch.String())
	assert.Equal(t, "none", Transition(99).String())
}
