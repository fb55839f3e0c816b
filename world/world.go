// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

// Package world owns the fixed per-tick orchestration order: dynamics,
// collision, surface classification, then lap/checkpoint accounting. Reset
// and Step are both pure: they return a new State rather than mutating one
// in place, so a WorldState is safe to snapshot, replay, or hand to a
// parallel rollout worker.
package world

import (
	"github.com/mbriggsy/driftcircuit/carsim"
	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/geom"
	"github.com/mbriggsy/driftcircuit/observe"
	"github.com/mbriggsy/driftcircuit/timing"
	"github.com/mbriggsy/driftcircuit/track"
)

// State is the complete per-tick world state: {track, car, timing, tick}.
// Track is a shared, read-only reference; Car and Timing are owned
// exclusively by this State.
type State struct {
	Track  *track.Track
	Car    carsim.Car
	Timing timing.Timing
	Tick   int

	lastSteer float64
}

// Reset returns a fresh world at the track's spawn pose, full health, and
// zeroed timing (except best_lap_ticks, which persists across resets
// within a session per config.PersistBestLap). prev is the timing state of
// the world being replaced, or the zero value for a first-ever load.
func Reset(trk *track.Track, prev timing.Timing, cfg config.Config) State {
	return State{
		Track:  trk,
		Car:    carsim.New(trk.SpawnPosition(), trk.SpawnHeading(), cfg),
		Timing: timing.ResetPreservingBest(prev, cfg),
		Tick:   0,
	}
}

// StepResult bundles the next State with the StepInfo the caller needs to
// compute a reward, so observe.ComputeReward never has to reconstruct
// per-tick deltas from two State snapshots.
type StepResult struct {
	State State
	Info  observe.StepInfo
}

// Step advances the world by one tick, per spec.md §4.7's fixed order:
// (1) advance prev_position, (2) dynamics, (3) collision resolution,
// (4) surface classification, (5) lap/checkpoint state machine,
// (6) increment total_race_ticks/current_lap_ticks/tick.
//
// Step is a pure function of (state, input, cfg): no wall-clock or RNG
// reads, so replaying the same inputs against the same state always
// produces the same result.
func Step(state State, in carsim.Input, cfg config.Config) StepResult {
	car := state.Car
	car.PrevPosition = car.Position

	prevProgress := arcLengthProgress(state.Track, car.Position)

	car = carsim.Step(car, in, cfg, cfg.Dt())

	preCollisionHealth := car.Health
	car = carsim.ResolveCollisions(car, state.Track.WallSegments(), cfg)
	impactDamage := preCollisionHealth - car.Health

	car.Surface = carsim.ClassifySurface(car.Position, state.Track.CenterLine(), cfg)

	tm := timing.Update(state.Timing, state.Track, car.PrevPosition, car.Position, car.Speed, state.Tick, cfg)

	newProgress := arcLengthProgress(state.Track, car.Position)
	progressDelta := wrapSafeSignedDelta(prevProgress, newProgress, state.Track.Perimeter())

	_, lateralDistance, _, _ := geom.ProjectPointToPolyline(car.Position, state.Track.CenterLine())

	curvatureDev := curvatureDeviationOne(car.Position, state.Track, cfg.LookaheadCount)

	info := observe.StepInfo{
		BreadcrumbCollected:    tm.BreadcrumbCollectedThisTick,
		BreadcrumbAutoAdvanced: tm.BreadcrumbAutoAdvanced(),
		LapCompleted:           tm.LapCompletedThisTick,
		ProgressDelta:          progressDelta,
		LateralDistance:        lateralDistance,
		ImpactDamage:           impactDamage,
		SpeedFrac:              absFrac(car.Speed, cfg.MaxSpeed),
		CurvatureDeviation1:    curvatureDev,
		SteerDelta:             in.Steer - state.lastSteer,
		Died:                   car.Health <= 0,
	}

	tm.TotalRaceTicks++
	tm.CurrentLapTicks++

	next := State{
		Track:     state.Track,
		Car:       car,
		Timing:    tm,
		Tick:      state.Tick + 1,
		lastSteer: in.Steer,
	}

	return StepResult{State: next, Info: info}
}

func absFrac(v, max float64) float64 {
	if max == 0 {
		return 0
	}
	f := v / max
	if f < 0 {
		f = -f
	}
	return f
}

func arcLengthProgress(trk *track.Track, p geom.Vec2) float64 {
	centerLine := trk.CenterLine()
	_, _, segIdx, t := geom.ProjectPointToPolyline(p, centerLine)
	progress := 0.0
	for i := 0; i < segIdx; i++ {
		progress += geom.Dist(centerLine[i], centerLine[(i+1)%len(centerLine)])
	}
	segLen := geom.Dist(centerLine[segIdx], centerLine[(segIdx+1)%len(centerLine)])
	return progress + t*segLen
}

// wrapSafeSignedDelta returns how far `to` has advanced past `from` along a
// closed loop, in (-perimeter/2, perimeter/2], so a small step backward
// across the finish line reads as a small negative delta rather than
// nearly a full lap.
func wrapSafeSignedDelta(from, to, perimeter float64) float64 {
	delta := to - from
	for delta > perimeter/2 {
		delta -= perimeter
	}
	for delta <= -perimeter/2 {
		delta += perimeter
	}
	return delta
}

// curvatureDeviationOne returns |curvature_1 - 0.5| * 2: how sharply the
// very next centerline vertex ahead of the car turns, in [0,1].
func curvatureDeviationOne(position geom.Vec2, trk *track.Track, lookaheadCount int) float64 {
	centerLine := trk.CenterLine()
	n := len(centerLine)
	if n == 0 || lookaheadCount == 0 {
		return 0
	}
	_, _, projIdx, _ := geom.ProjectPointToPolyline(position, centerLine)
	idx := (projIdx + 1) % n
	prev := centerLine[(idx-1+n)%n]
	curr := centerLine[idx]
	next := centerLine[(idx+1)%n]
	normalized := geom.NormalizedCurvature(geom.SignedCurvatureAtVertex(prev, curr, next))
	dev := normalized - 0.5
	if dev < 0 {
		dev = -dev
	}
	return dev * 2
}
