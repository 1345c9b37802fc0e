package game

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTuningWithoutFile(t *testing.T) {
	got, err := LoadTuning("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTuning(), got)
}

func TestLoadTuningOverridesSomeKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	body := "gravity: 0.2\nmax_power: 20\ncapture_delay: 2s\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	got, err := LoadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, 0.2, got.Gravity)
	assert.Equal(t, 20.0, got.MaxPower)
	assert.Equal(t, 2*time.Second, got.CaptureDelay)
	assert.Equal(t, DefaultTuning().MaxPull, got.MaxPull)
}

func TestLoadTuningRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bounce_damping: 1.5\n"), 0o600))

	_, err := LoadTuning(path)
	assert.Error(t, err)

	_, err = LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTicksRoundsUp(t *testing.T) {
	assert.Equal(t, 60, ticks(time.Second, 60))
	assert.Equal(t, 6, ticks(100*time.Millisecond, 60))
	assert.Equal(t, 1, ticks(time.Millisecond, 60))
	assert.Equal(t, 0, ticks(0, 60))
	assert.Equal(t, 30, ticks(500*time.Millisecond, 0))
}

func TestValidateBounds(t *testing.T) {
	tuning := DefaultTuning()
	require.NoError(t, tuning.Validate())

	huge := DefaultTuning()
	huge.PreviewSamples = 2_000_000_000
	assert.Error(t, huge.Validate())

	sticky := DefaultTuning()
	sticky.StopThreshold = 0.03
	assert.Error(t, sticky.Validate(), "chatter speed is 1/30 with default gravity and damping")

	sticky.StopThreshold = 0.04
	assert.NoError(t, sticky.Validate())
}

func TestLowestValidStopThresholdStillSettles(t *testing.T) {
	tuning := DefaultTuning()
	tuning.StopThreshold = settleSpeed(tuning) + 0.005
	tuning.OutOfBoundsDepth = 1e6
	require.NoError(t, tuning.Validate())

	sim := NewSimulator(&tuning, farTarget)
	p := NewProjectile(mgl64.Vec3{0, tuning.RestHeight, 0}, tuning.ProjectileRadius)
	require.NoError(t, sim.Launch(&p, mgl64.Vec3{2, 0, 0}))

	_, steps := sim.Simulate(&p, 20000)
	assert.True(t, p.AtRest(), "still moving after %d steps", steps)
}
