// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

package world

import (
	"math"
	"testing"

	"github.com/mbriggsy/driftcircuit/carsim"
	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/geom"
	"github.com/mbriggsy/driftcircuit/timing"
	"github.com/mbriggsy/driftcircuit/track"
)

func testTrack(t *testing.T) *track.Track {
	cfg := config.Default()
	cfg.TrackHalfWidth = 6
	pts := []geom.Vec2{{X: -60, Y: -60}, {X: 60, Y: -60}, {X: 60, Y: 60}, {X: -60, Y: 60}}
	tr, err := track.Build(pts, []int{0}, 0, cfg)
	if err != nil {
		t.Fatalf(err.Error())
	}
	return tr
}

func TestResetPlacesCarAtSpawn(t *testing.T) {
	cfg := config.Default()
	tr := testTrack(t)
	s := Reset(tr, timing.Timing{}, cfg)
	if s.Car.Position != tr.SpawnPosition() {
		t.Errorf("car not at spawn: got=%v want=%v", s.Car.Position, tr.SpawnPosition())
	}
	if s.Car.Health != cfg.MaxHealth {
		t.Errorf("car health=%v, want max_health=%v", s.Car.Health, cfg.MaxHealth)
	}
	if s.Timing.CurrentLap != 1 {
		t.Errorf("current_lap=%d, want 1", s.Timing.CurrentLap)
	}
}

// TestStepIsDeterministic: the same state and input produce bit-identical
// output across repeated calls (spec.md §4.7's determinism contract).
func TestStepIsDeterministic(t *testing.T) {
	cfg := config.Default()
	tr := testTrack(t)
	s := Reset(tr, timing.Timing{}, cfg)
	in := carsim.Input{Steer: 0.3, Throttle: 0.8, Brake: 0, Drift: false}

	a := Step(s, in, cfg)
	b := Step(s, in, cfg)

	if a.State.Car.Position != b.State.Car.Position || a.State.Car.Velocity != b.State.Car.Velocity {
		t.Errorf("Step was not deterministic: a=%+v b=%+v", a.State.Car, b.State.Car)
	}
}

func TestTotalRaceTicksIncrementsEveryStep(t *testing.T) {
	cfg := config.Default()
	tr := testTrack(t)
	s := Reset(tr, timing.Timing{}, cfg)
	in := carsim.Input{Throttle: 1}
	for i := 0; i < 600; i++ {
		s = Step(s, in, cfg).State
	}
	if s.Timing.TotalRaceTicks != 600 {
		t.Errorf("total_race_ticks=%d, want 600", s.Timing.TotalRaceTicks)
	}
	if s.Tick != 600 {
		t.Errorf("tick=%d, want 600", s.Tick)
	}
}

func TestPrevPositionIsSetBeforeDynamics(t *testing.T) {
	cfg := config.Default()
	tr := testTrack(t)
	s := Reset(tr, timing.Timing{}, cfg)
	start := s.Car.Position
	result := Step(s, carsim.Input{Throttle: 1}, cfg)
	if result.State.Car.PrevPosition != start {
		t.Errorf("prev_position=%v, want the pre-step position %v", result.State.Car.PrevPosition, start)
	}
}

func TestResetPersistsBestLapWhenConfigured(t *testing.T) {
	cfg := config.Default()
	cfg.PersistBestLap = true
	tr := testTrack(t)
	s := Reset(tr, timing.Timing{}, cfg)
	s.Timing.BestLapTicks = 742

	s = Reset(tr, s.Timing, cfg)
	if s.Timing.BestLapTicks != 742 {
		t.Errorf("best_lap_ticks=%d after reset with persist_best_lap=true, want 742", s.Timing.BestLapTicks)
	}
}

func TestResetClearsBestLapWhenNotConfigured(t *testing.T) {
	cfg := config.Default()
	cfg.PersistBestLap = false
	tr := testTrack(t)
	s := Reset(tr, timing.Timing{}, cfg)
	s.Timing.BestLapTicks = 742

	s = Reset(tr, s.Timing, cfg)
	if s.Timing.BestLapTicks != 0 {
		t.Errorf("best_lap_ticks=%d after reset with persist_best_lap=false, want 0 (unset)", s.Timing.BestLapTicks)
	}
}

func TestWrapSafeSignedDeltaStaysSmallNearSeam(t *testing.T) {
	perimeter := 100.0
	// crossing the seam forward by 1 unit should read as +1, not -99.
	delta := wrapSafeSignedDelta(99.5, 0.5, perimeter)
	if math.Abs(delta-1) > 1e-9 {
		t.Errorf("wrapSafeSignedDelta across seam = %v, want 1", delta)
	}
}
