package game

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning carries every gameplay constant. Defaults are the values the
// browser game shipped with; the physics step is fixed, not time-scaled.
type Tuning struct {
	// Flight
	Gravity          float64 `yaml:"gravity" json:"gravity"`
	StepScale        float64 `yaml:"step_scale" json:"step_scale"`
	RestHeight       float64 `yaml:"rest_height" json:"rest_height"`
	BounceDamping    float64 `yaml:"bounce_damping" json:"bounce_damping"`
	GroundFriction   float64 `yaml:"ground_friction" json:"ground_friction"`
	RollingDecay     float64 `yaml:"rolling_decay" json:"rolling_decay"`
	StopThreshold    float64 `yaml:"stop_threshold" json:"stop_threshold"`
	OutOfBoundsDepth float64 `yaml:"out_of_bounds_depth" json:"out_of_bounds_depth"`
	FloorLimit       float64 `yaml:"floor_limit" json:"floor_limit"`
	ProjectileRadius float64 `yaml:"projectile_radius" json:"projectile_radius"`

	// Pull and launch
	MaxPull       float64 `yaml:"max_pull" json:"max_pull"`
	PowerScale    float64 `yaml:"power_scale" json:"power_scale"`
	MaxPower      float64 `yaml:"max_power" json:"max_power"`
	PutterPower   float64 `yaml:"putter_power" json:"putter_power"`
	GreenRadius   float64 `yaml:"green_radius" json:"green_radius"`
	RestElevation float64 `yaml:"rest_elevation" json:"rest_elevation"`

	// Two-hand release
	VRPowerScale float64 `yaml:"vr_power_scale" json:"vr_power_scale"`
	VRLiftFactor float64 `yaml:"vr_lift_factor" json:"vr_lift_factor"`
	VRLiftCap    float64 `yaml:"vr_lift_cap" json:"vr_lift_cap"`

	// Grab ranges
	LauncherGrabDistance   float64 `yaml:"launcher_grab_distance" json:"launcher_grab_distance"`
	ProjectileGrabDistance float64 `yaml:"projectile_grab_distance" json:"projectile_grab_distance"`

	// Preview
	PreviewSamples int     `yaml:"preview_samples" json:"preview_samples"`
	PreviewFloor   float64 `yaml:"preview_floor" json:"preview_floor"`

	// Capture and reset
	SinkRate        float64       `yaml:"sink_rate" json:"sink_rate"`
	CaptureDelay    time.Duration `yaml:"capture_delay" json:"capture_delay"`
	RepositionDelay time.Duration `yaml:"reposition_delay" json:"reposition_delay"`
	SplatLimit      int           `yaml:"splat_limit" json:"splat_limit"`
}

const (
	TargetDistance = 15.0
	TargetSize     = 3.0
	HoleRadius     = 0.3
	HoleSpeed      = 0.5
)

func DefaultTuning() Tuning {
	return Tuning{
		Gravity:          0.1,
		StepScale:        0.1,
		RestHeight:       0.2,
		BounceDamping:    0.5,
		GroundFriction:   0.95,
		RollingDecay:     0.99,
		StopThreshold:    0.1,
		OutOfBoundsDepth: TargetDistance + 10,
		FloorLimit:       -10,
		ProjectileRadius: 0.05,

		MaxPull:       2,
		PowerScale:    3,
		MaxPower:      15,
		PutterPower:   5,
		GreenRadius:   3,
		RestElevation: 1.5,

		VRPowerScale: 15,
		VRLiftFactor: 0.5,
		VRLiftCap:    1.0,

		LauncherGrabDistance:   1,
		ProjectileGrabDistance: 0.5,

		PreviewSamples: 10,
		PreviewFloor:   0.2,

		SinkRate:        0.02,
		CaptureDelay:    time.Second,
		RepositionDelay: 100 * time.Millisecond,
		SplatLimit:      50,
	}
}

// LoadTuning reads a YAML override on top of DefaultTuning. Keys missing
// from the file keep their defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Validate rejects values that would make the integrator diverge or never settle.
func (t Tuning) Validate() error {
	switch {
	case t.StepScale <= 0:
		return fmt.Errorf("step_scale must be positive")
	case t.BounceDamping < 0 || t.BounceDamping >= 1:
		return fmt.Errorf("bounce_damping must be in [0,1)")
	case t.RollingDecay <= 0 || t.RollingDecay >= 1:
		return fmt.Errorf("rolling_decay must be in (0,1)")
	case t.GroundFriction <= 0 || t.GroundFriction > 1:
		return fmt.Errorf("ground_friction must be in (0,1]")
	case t.MaxPull <= 0:
		return fmt.Errorf("max_pull must be positive")
	case t.PreviewSamples < 0 || t.PreviewSamples > maxPreviewSamples:
		return fmt.Errorf("preview_samples must be in [0,%d]", maxPreviewSamples)
	case t.StopThreshold <= settleSpeed(t):
		return fmt.Errorf("stop_threshold must exceed %.4f or a rolling projectile never rests", settleSpeed(t))
	}
	return nil
}

const maxPreviewSamples = 200

// settleSpeed is the vertical speed a projectile keeps while chattering on
// the ground: each bounce returns damping·(gravity − v), whose fixed point
// is damping·gravity/(1+damping).
func settleSpeed(t Tuning) float64 {
	return t.BounceDamping * t.Gravity / (1 + t.BounceDamping)
}

// ticks converts a delay into whole simulation steps, rounding up so a
// non-zero delay never fires on the step that scheduled it.
func ticks(d time.Duration, tickRate int) int {
	if d <= 0 {
		return 0
	}
	if tickRate <= 0 {
		tickRate = 60
	}
	scaled := d * time.Duration(tickRate)
	n := int(scaled / time.Second)
	if scaled%time.Second != 0 {
		n++
	}
	return n
}
