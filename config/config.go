// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

// Package config holds the single flat tunable record that every other
// package reads from. Unless there is a very good reason not to, this is THE
// way to configure the simulator.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// RewardWeights are the configurable coefficients for each reward
// component (spec.md §4.6). Every component is independently toggleable by
// setting its weight to 0.
type RewardWeights struct {
	Breadcrumb float64 `mapstructure:"breadcrumb" yaml:"breadcrumb"`
	Lap        float64 `mapstructure:"lap" yaml:"lap"`
	Progress   float64 `mapstructure:"progress" yaml:"progress"`
	Backward   float64 `mapstructure:"backward" yaml:"backward"`
	Lateral    float64 `mapstructure:"lateral" yaml:"lateral"`
	Wall       float64 `mapstructure:"wall" yaml:"wall"`
	Corner     float64 `mapstructure:"corner" yaml:"corner"`
	Time       float64 `mapstructure:"time" yaml:"time"`
	Smooth     float64 `mapstructure:"smooth" yaml:"smooth"`
	Death      float64 `mapstructure:"death" yaml:"death"`
}

// Config is the complete set of recognised, tunable simulation options
// (spec.md §6). All fields are safe to change without a code change.
type Config struct {
	// Timing
	TickRateHz float64 `mapstructure:"tick_rate_hz" yaml:"tick_rate_hz"`

	// Longitudinal dynamics
	MaxSpeed         float64 `mapstructure:"max_speed" yaml:"max_speed"`
	ReverseMaxSpeed  float64 `mapstructure:"reverse_max_speed" yaml:"reverse_max_speed"`
	Acceleration     float64 `mapstructure:"acceleration" yaml:"acceleration"`
	BrakeForce       float64 `mapstructure:"brake_force" yaml:"brake_force"`
	FrictionDecay    float64 `mapstructure:"friction_decay" yaml:"friction_decay"`

	// Rotational dynamics
	SteeringRate float64 `mapstructure:"steering_rate" yaml:"steering_rate"`
	YawDamping   float64 `mapstructure:"yaw_damping" yaml:"yaw_damping"`

	// Grip regime
	DriftGrip     float64 `mapstructure:"drift_grip" yaml:"drift_grip"`
	NormalGrip    float64 `mapstructure:"normal_grip" yaml:"normal_grip"`
	DriftYawGain  float64 `mapstructure:"drift_yaw_gain" yaml:"drift_yaw_gain"`

	// Damage model
	MaxHealth           float64 `mapstructure:"max_health" yaml:"max_health"`
	WallDamageMultiplier float64 `mapstructure:"wall_damage_multiplier" yaml:"wall_damage_multiplier"`
	MinDamageSpeed       float64 `mapstructure:"min_damage_speed" yaml:"min_damage_speed"`
	Bounce               float64 `mapstructure:"bounce" yaml:"bounce"`

	// Car dimensions
	CarLength float64 `mapstructure:"car_length" yaml:"car_length"`
	CarWidth  float64 `mapstructure:"car_width" yaml:"car_width"`

	// Track geometry and breadcrumb chain
	TrackHalfWidth                  float64 `mapstructure:"track_half_width" yaml:"track_half_width"`
	RoadEdgeWidth                   float64 `mapstructure:"road_edge_width" yaml:"road_edge_width"`
	BreadcrumbSpacing               float64 `mapstructure:"breadcrumb_spacing" yaml:"breadcrumb_spacing"`
	ZigzagMultiplier                float64 `mapstructure:"zigzag_multiplier" yaml:"zigzag_multiplier"`
	TightAngleThreshold             float64 `mapstructure:"tight_angle_threshold" yaml:"tight_angle_threshold"`
	SpawnForwardOffset               float64 `mapstructure:"spawn_forward_offset" yaml:"spawn_forward_offset"`
	BreadcrumbRadius                float64 `mapstructure:"breadcrumb_radius" yaml:"breadcrumb_radius"`
	BreadcrumbAutoAdvanceMultiplier float64 `mapstructure:"breadcrumb_auto_advance_multiplier" yaml:"breadcrumb_auto_advance_multiplier"`

	// Observation shape and physical range
	RayAngles      []float64 `mapstructure:"ray_angles" yaml:"ray_angles"`
	MaxRayDistance float64   `mapstructure:"max_ray_distance" yaml:"max_ray_distance"`
	LookaheadCount int       `mapstructure:"lookahead_count" yaml:"lookahead_count"`

	// Race control timing
	StuckSpeedThreshold  float64 `mapstructure:"stuck_speed_threshold" yaml:"stuck_speed_threshold"`
	StuckTimeoutTicks    int     `mapstructure:"stuck_timeout_ticks" yaml:"stuck_timeout_ticks"`
	RespawnFadeTicks     int     `mapstructure:"respawn_fade_ticks" yaml:"respawn_fade_ticks"`
	CountdownBeats       int     `mapstructure:"countdown_beats" yaml:"countdown_beats"`
	CountdownTicksPerBeat int    `mapstructure:"countdown_ticks_per_beat" yaml:"countdown_ticks_per_beat"`
	GraceTicks           int     `mapstructure:"grace_ticks" yaml:"grace_ticks"`
	MinCheckpointSpeed   float64 `mapstructure:"min_checkpoint_speed" yaml:"min_checkpoint_speed"`

	// Race mode
	TargetLaps int `mapstructure:"target_laps" yaml:"target_laps"`

	// Whether reset() keeps best_lap_ticks (true) or clears it (false)
	// (spec.md §9 Open Question).
	PersistBestLap bool `mapstructure:"persist_best_lap" yaml:"persist_best_lap"`

	RewardWeights RewardWeights `mapstructure:"reward_weights" yaml:"reward_weights"`
}

// Dt returns the fixed simulation timestep, in seconds.
func (c Config) Dt() float64 {
	return 1.0 / c.TickRateHz
}

// Default returns the reference configuration. Every tunable has a
// reasonable default; callers override only the fields they care about.
func Default() Config {
	return Config{
		TickRateHz: 60,

		MaxSpeed:        260,
		ReverseMaxSpeed: -80,
		Acceleration:    200,
		BrakeForce:      260,
		FrictionDecay:   0.05,

		SteeringRate: 3.2,
		YawDamping:   0.02,

		DriftGrip:    0.3,
		NormalGrip:   1.0,
		DriftYawGain: 1.05,

		MaxHealth:            100,
		WallDamageMultiplier: 0.5,
		MinDamageSpeed:       20,
		Bounce:               0.35,

		CarLength: 4.2,
		CarWidth:  1.9,

		TrackHalfWidth:                  8,
		RoadEdgeWidth:                   6,
		BreadcrumbSpacing:               6,
		ZigzagMultiplier:                0.35,
		TightAngleThreshold:             0.6,
		SpawnForwardOffset:              10,
		BreadcrumbRadius:                4,
		BreadcrumbAutoAdvanceMultiplier: 3,

		RayAngles: DefaultRayAngles(),
		MaxRayDistance: 200,
		LookaheadCount: 5,

		StuckSpeedThreshold:   5,
		StuckTimeoutTicks:     180,
		RespawnFadeTicks:      60,
		CountdownBeats:        3,
		CountdownTicksPerBeat: 60,
		GraceTicks:            30,
		MinCheckpointSpeed:    1,

		TargetLaps: 0,

		PersistBestLap: true,

		RewardWeights: RewardWeights{
			Breadcrumb: 1.0,
			Lap:        50.0,
			Progress:   0.05,
			Backward:   0.08,
			Lateral:    0.01,
			Wall:       0.2,
			Corner:     0.4,
			Time:       0.01,
			Smooth:     0.02,
			Death:      25.0,
		},
	}
}

// DefaultRayAngles returns a forward-weighted fan of ray angles (radians,
// relative to heading), packed densely near 0 and sparsely toward the
// flanks, per spec.md §4.6.
func DefaultRayAngles() []float64 {
	return []float64{
		-1.55, -1.10, -0.70, -0.45, -0.28, -0.16, -0.08, 0,
		0.08, 0.16, 0.28, 0.45, 0.70, 1.10, 1.55,
	}
}

// Validate checks the configuration for ConfigurationError conditions
// (spec.md §7): malformed values that would make the simulation meaningless
// or numerically unstable. It is called by LoadFile and track.Build;
// world.Reset does not call it, and the core otherwise never revalidates
// input.
func (c Config) Validate() error {
	if c.TickRateHz <= 0 {
		return fmt.Errorf("config: tick_rate_hz must be > 0, got %v", c.TickRateHz)
	}
	if c.TrackHalfWidth <= 0 {
		return fmt.Errorf("config: track_half_width must be > 0, got %v", c.TrackHalfWidth)
	}
	if c.BreadcrumbSpacing <= 0 {
		return fmt.Errorf("config: breadcrumb_spacing must be > 0, got %v", c.BreadcrumbSpacing)
	}
	if c.ZigzagMultiplier <= 0 || c.ZigzagMultiplier > 1 {
		return fmt.Errorf("config: zigzag_multiplier must be in (0,1], got %v", c.ZigzagMultiplier)
	}
	if c.MaxRayDistance <= 0 {
		return fmt.Errorf("config: max_ray_distance must be > 0, got %v", c.MaxRayDistance)
	}
	if c.LookaheadCount < 0 {
		return fmt.Errorf("config: lookahead_count must be >= 0, got %v", c.LookaheadCount)
	}
	if c.MaxHealth <= 0 {
		return fmt.Errorf("config: max_health must be > 0, got %v", c.MaxHealth)
	}
	if c.DriftGrip <= 0 || c.DriftGrip > 1 {
		return fmt.Errorf("config: drift_grip must be in (0,1], got %v", c.DriftGrip)
	}
	if c.NormalGrip <= 0 || c.NormalGrip > 1 {
		return fmt.Errorf("config: normal_grip must be in (0,1], got %v", c.NormalGrip)
	}
	if c.TargetLaps < 0 {
		return fmt.Errorf("config: target_laps must be >= 0 (0 = freeplay), got %v", c.TargetLaps)
	}
	return nil
}

// LoadFile reads a YAML or JSON tunables file (using viper, so either
// extension works) on top of Default(), and returns the merged, validated
// configuration.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
