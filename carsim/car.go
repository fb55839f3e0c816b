// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

// Package carsim models a single car's dynamics: bicycle-style steering with
// a drift/grip transition, and wall collision with damage. Every function
// here is a pure per-tick update: given a Car and an Input, it returns the
// next Car rather than mutating in place, so the world stepper stays a
// value-in/value-out pipeline.
package carsim

import (
	"math"

	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/geom"
)

// Surface classifies where the car's position sits relative to the track.
type Surface int

const (
	Road Surface = iota
	Runoff
)

func (s Surface) String() string {
	if s == Road {
		return "Road"
	}
	return "Runoff"
}

// Input is the control surface the car responds to each tick: continuous
// scalars for a learned policy, with a binary mapping available for
// keyboard-style collaborators.
type Input struct {
	Steer    float64 // [-1,1]
	Throttle float64 // [0,1]
	Brake    float64 // [0,1]
	Drift    bool
}

// Car is the car's full per-tick state.
type Car struct {
	Position     geom.Vec2
	PrevPosition geom.Vec2
	Heading      float64
	Velocity     geom.Vec2
	Speed        float64
	YawRate      float64
	IsDrifting   bool
	Health       float64
	Surface      Surface
	SlipAngle    float64
}

// New returns a car at rest at the given pose, with full health.
func New(position geom.Vec2, heading float64, cfg config.Config) Car {
	return Car{
		Position:     position,
		PrevPosition: position,
		Heading:      heading,
		Velocity:     geom.Vec2{},
		Speed:        0,
		YawRate:      0,
		IsDrifting:   false,
		Health:       cfg.MaxHealth,
		Surface:      Road,
		SlipAngle:    0,
	}
}

const speedEpsilon = 1e-4

// Step advances the car's dynamics by one tick, per spec.md §4.3. It does
// not touch PrevPosition (the world stepper sets that before calling Step)
// and does not resolve wall collisions (see ResolveCollisions).
func Step(c Car, in Input, cfg config.Config, dt float64) Car {
	maxSpeed := cfg.MaxSpeed

	// 1. Steering: speed fraction makes the car barely turn while stationary
	// and inverts steering feel under reverse, without a special case.
	sf := 0.0
	if maxSpeed != 0 {
		sf = c.Speed / maxSpeed
	}
	dPsi := in.Steer * cfg.SteeringRate * dt * sf
	c.YawRate += dPsi

	// 2. Drift regime.
	grip := cfg.NormalGrip
	c.IsDrifting = in.Drift
	if in.Drift {
		grip = cfg.DriftGrip
		c.YawRate *= cfg.DriftYawGain
	}

	// 3. Heading update.
	c.Heading += c.YawRate * dt
	c.Heading = geom.NormalizeAngle(c.Heading)

	// 4. Intended velocity.
	headingUnit := geom.Vec2{X: math.Cos(c.Heading), Y: math.Sin(c.Heading)}
	vIntended := headingUnit.Scale(c.Speed)

	// 5. Velocity blend: the drift mechanic. At full grip velocity snaps to
	// the facing direction; at low grip the previous velocity persists.
	c.Velocity = c.Velocity.Scale(1 - grip).Add(vIntended.Scale(grip))

	// 6. Longitudinal input.
	c.Speed += in.Throttle*cfg.Acceleration*dt - in.Brake*cfg.BrakeForce*dt
	c.Speed = clamp(c.Speed, cfg.ReverseMaxSpeed, cfg.MaxSpeed)

	// 7. Friction, only while coasting.
	if in.Throttle == 0 && in.Brake == 0 {
		c.Speed *= math.Pow(cfg.FrictionDecay, dt)
		if math.Abs(c.Speed) < speedEpsilon {
			c.Speed = 0
		}
	}

	// 8. Yaw damping.
	c.YawRate *= math.Pow(cfg.YawDamping, dt)

	// 9. Integration.
	c.Position = c.Position.Add(c.Velocity.Scale(dt))

	c.SlipAngle = math.Abs(slipAngle(c.Velocity, c.Heading))

	return c
}

// slipAngle returns atan2(v_lateral, v_longitudinal) for velocity resolved
// into the car's own forward/side frame.
func slipAngle(velocity geom.Vec2, heading float64) float64 {
	fwd := geom.Vec2{X: math.Cos(heading), Y: math.Sin(heading)}
	side := fwd.Normal()
	longitudinal := velocity.Dot(fwd)
	lateral := velocity.Dot(side)
	return math.Atan2(lateral, longitudinal)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClassifySurface derives Road vs Runoff from the car's lateral distance to
// the centerline. The road edge is nested inside the wall at
// track_half_width - road_edge_width (see track.Build); beyond that band,
// the car is off the painted lane and onto the runoff strip before it ever
// reaches the wall.
func ClassifySurface(position geom.Vec2, centerLine []geom.Vec2, cfg config.Config) Surface {
	edgeWidth := cfg.TrackHalfWidth - cfg.RoadEdgeWidth
	if edgeWidth < 0 {
		edgeWidth = 0
	}
	_, dist, _, _ := geom.ProjectPointToPolyline(position, centerLine)
	if dist > edgeWidth {
		return Runoff
	}
	return Road
}
