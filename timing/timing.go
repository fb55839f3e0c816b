// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

// Package timing tracks lap and checkpoint progress: the sequential gate
// state machine, lap counting, and the breadcrumb auto-advance pointer that
// keeps reward shaping alive even when the car overshoots a waypoint.
package timing

import (
	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/geom"
	"github.com/mbriggsy/driftcircuit/track"
)

// Timing is the lap/checkpoint state carried in WorldState.
type Timing struct {
	CurrentLap           int
	CurrentLapTicks      int
	BestLapTicks         int // 0 = unset
	TotalRaceTicks       int
	NextCheckpointIndex  int
	CrossedCheckpoints   map[int]bool
	LastCheckpointIndex  int
	LapCompletedThisTick bool

	// BreadcrumbCollectedThisTick, set by Update, distinguishes a genuine
	// collection (reward-eligible) from an auto-advance (not eligible).
	BreadcrumbCollectedThisTick bool
	breadcrumbAutoAdvancedThisTick bool
}

// New returns fresh timing state for a just-reset world. current_lap starts
// at 1 (spec.md §3: "1-based").
func New() Timing {
	return Timing{
		CurrentLap:          1,
		NextCheckpointIndex:  0,
		CrossedCheckpoints:  make(map[int]bool),
		LastCheckpointIndex: -1,
	}
}

// ResetPreservingBest returns fresh timing state, optionally carrying over
// best_lap_ticks across a reset (spec.md §9 Open Question, resolved by
// config.PersistBestLap).
func ResetPreservingBest(prev Timing, cfg config.Config) Timing {
	t := New()
	if cfg.PersistBestLap {
		t.BestLapTicks = prev.BestLapTicks
	}
	return t
}

// BreadcrumbAutoAdvanced reports whether the most recent Update call
// advanced next_checkpoint_index without a genuine collection.
func (t Timing) BreadcrumbAutoAdvanced() bool {
	return t.breadcrumbAutoAdvancedThisTick
}

// Update runs the lap/checkpoint state machine for one tick, per spec.md
// §4.5. prevPosition/position describe the motion segment just taken.
func Update(t Timing, trk *track.Track, prevPosition, position geom.Vec2, speed float64, tick int, cfg config.Config) Timing {
	t.LapCompletedThisTick = false
	t.BreadcrumbCollectedThisTick = false
	t.breadcrumbAutoAdvancedThisTick = false

	eligible := speed > cfg.MinCheckpointSpeed && tick >= cfg.GraceTicks

	if eligible {
		t = crossIntermediateGates(t, trk, prevPosition, position)
		t = crossFinishGate(t, trk, prevPosition, position)
	}

	t = advanceBreadcrumb(t, trk, position, cfg)

	return t
}

func crossIntermediateGates(t Timing, trk *track.Track, prevPosition, position geom.Vec2) Timing {
	copied := false
	for _, g := range trk.Checkpoints() {
		if g.IsFinish {
			continue
		}
		if _, ok := geom.SegmentIntersection(prevPosition, position, g.Left, g.Right); ok {
			if !copied {
				// copy before writing so the caller's Timing is left untouched
				crossed := make(map[int]bool, len(t.CrossedCheckpoints)+1)
				for k, v := range t.CrossedCheckpoints {
					crossed[k] = v
				}
				t.CrossedCheckpoints = crossed
				copied = true
			}
			t.CrossedCheckpoints[g.Index] = true
			t.LastCheckpointIndex = g.Index
		}
	}
	return t
}

func crossFinishGate(t Timing, trk *track.Track, prevPosition, position geom.Vec2) Timing {
	finish := trk.FinishGate()
	if !allIntermediatesCrossed(t, trk) {
		return t
	}
	if _, ok := geom.SegmentIntersection(prevPosition, position, finish.Left, finish.Right); !ok {
		return t
	}
	t.CurrentLap++
	if t.BestLapTicks == 0 || t.CurrentLapTicks < t.BestLapTicks {
		t.BestLapTicks = t.CurrentLapTicks
	}
	t.CurrentLapTicks = 0
	t.CrossedCheckpoints = make(map[int]bool)
	t.LastCheckpointIndex = finish.Index
	t.LapCompletedThisTick = true
	return t
}

func allIntermediatesCrossed(t Timing, trk *track.Track) bool {
	for _, g := range trk.Checkpoints() {
		if g.IsFinish {
			continue
		}
		if !t.CrossedCheckpoints[g.Index] {
			return false
		}
	}
	return true
}

// advanceBreadcrumb handles breadcrumb collection/auto-advance, independent
// of gate logic.
func advanceBreadcrumb(t Timing, trk *track.Track, position geom.Vec2, cfg config.Config) Timing {
	breadcrumbs := trk.Breadcrumbs()
	m := len(breadcrumbs)
	if m == 0 {
		return t
	}

	target := breadcrumbs[t.NextCheckpointIndex%m]
	if geom.Dist(position, target) <= cfg.BreadcrumbRadius {
		t.NextCheckpointIndex = (t.NextCheckpointIndex + 1) % m
		t.BreadcrumbCollectedThisTick = true
		return t
	}

	carProgress := arcLengthProgress(trk, position)
	targetProgress := arcLengthProgress(trk, target)
	ahead := wrapSafeSignedDelta(targetProgress, carProgress, trk.Perimeter())
	if ahead > cfg.BreadcrumbSpacing*cfg.BreadcrumbAutoAdvanceMultiplier {
		t.NextCheckpointIndex = (t.NextCheckpointIndex + 1) % m
		t.breadcrumbAutoAdvancedThisTick = true
	}
	return t
}

// arcLengthProgress projects p onto the centerline and returns the
// cumulative arc length from center_line[0] to the projection.
func arcLengthProgress(trk *track.Track, p geom.Vec2) float64 {
	centerLine := trk.CenterLine()
	_, _, segIdx, t := geom.ProjectPointToPolyline(p, centerLine)
	progress := 0.0
	for i := 0; i < segIdx; i++ {
		progress += geom.Dist(centerLine[i], centerLine[(i+1)%len(centerLine)])
	}
	segLen := geom.Dist(centerLine[segIdx], centerLine[(segIdx+1)%len(centerLine)])
	progress += t * segLen
	return progress
}

// wrapSafeSignedDelta returns how far ahead `to` is of `from` along a closed
// loop of the given perimeter, in (-perimeter/2, perimeter/2]. A small
// negative result means `to` has not yet reached `from`; a small positive
// result means `to` has just passed it. Without this bound, a point that
// hasn't reached its target would read as almost a full lap ahead instead
// of a little behind.
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
