// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

package race

import (
	"testing"

	"github.com/mbriggsy/driftcircuit/carsim"
	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/geom"
	"github.com/mbriggsy/driftcircuit/timing"
	"github.com/mbriggsy/driftcircuit/track"
	"github.com/mbriggsy/driftcircuit/world"
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

func newController(t *testing.T) (*Controller, config.Config) {
	cfg := config.Default()
	tr := testTrack(t)
	return New(world.Reset(tr, timing.Timing{}, cfg), cfg), cfg
}

func TestStartGameEntersCountdown(t *testing.T) {
	c, _ := newController(t)
	c.Signal(StartGame)
	if c.Phase != Countdown {
		t.Errorf("Phase=%v, want Countdown", c.Phase)
	}
}

func TestCountdownAdvancesToRacing(t *testing.T) {
	c, cfg := newController(t)
	c.Signal(StartGame)
	total := cfg.CountdownBeats * cfg.CountdownTicksPerBeat
	for i := 0; i < total; i++ {
		c.Update(carsim.Input{})
	}
	if c.Phase != Racing {
		t.Errorf("Phase=%v after %d countdown ticks, want Racing", c.Phase, total)
	}
}

func TestWorldDoesNotStepWhilePaused(t *testing.T) {
	c, cfg := newController(t)
	c.Signal(StartGame)
	for i := 0; i < cfg.CountdownBeats*cfg.CountdownTicksPerBeat; i++ {
		c.Update(carsim.Input{})
	}
	c.Signal(TogglePause)
	if c.Phase != Paused {
		t.Fatalf("Phase=%v, want Paused", c.Phase)
	}
	tickBefore := c.World.Tick
	c.Update(carsim.Input{Throttle: 1})
	if c.World.Tick != tickBefore {
		t.Errorf("world stepped while paused: tick went from %d to %d", tickBefore, c.World.Tick)
	}
	c.Signal(TogglePause)
	if c.Phase != Racing {
		t.Errorf("Phase=%v after un-pausing, want Racing", c.Phase)
	}
}

// TestStuckRespawn mirrors the "stuck respawn" golden scenario: holding the
// car stationary for stuck_timeout_ticks + respawn_fade_ticks should return
// it to its last-checkpoint (or spawn) pose with zeroed velocity.
func TestStuckRespawn(t *testing.T) {
	cfg := config.Default()
	cfg.StuckTimeoutTicks = 10
	cfg.RespawnFadeTicks = 5
	cfg.StuckSpeedThreshold = 5
	tr := testTrack(t)
	c := New(world.Reset(tr, timing.Timing{}, cfg), cfg)
	c.Signal(RestartNoCountdown)

	for i := 0; i < cfg.StuckTimeoutTicks+cfg.RespawnFadeTicks+2; i++ {
		c.Update(carsim.Input{})
	}

	if c.Phase != Racing {
		t.Errorf("Phase=%v after respawn completes, want Racing", c.Phase)
	}
	if c.World.Car.Velocity != (geom.Vec2{}) {
		t.Errorf("velocity=%v after respawn, want zero", c.World.Car.Velocity)
	}
	if c.World.Car.Speed != 0 {
		t.Errorf("speed=%v after respawn, want 0", c.World.Car.Speed)
	}
	if c.World.Car.Position != tr.SpawnPosition() {
		t.Errorf("position=%v after respawn with no checkpoint crossed, want spawn %v", c.World.Car.Position, tr.SpawnPosition())
	}
}

func TestTargetLapsFinishesRace(t *testing.T) {
	cfg := config.Default()
	cfg.TargetLaps = 1
	cfg.MinCheckpointSpeed = 0
	cfg.GraceTicks = 0
	tr := testTrack(t)
	c := New(world.Reset(tr, timing.Timing{}, cfg), cfg)
	c.Phase = Racing

	// force a lap completion directly via timing state, then run one more
	// tick so the controller observes current_lap > target_laps.
	c.World.Timing.CurrentLap = 2
	c.Update(carsim.Input{})

	if c.Phase != Finished {
		t.Errorf("Phase=%v, want Finished once current_lap exceeds target_laps", c.Phase)
	}
}

func TestRaceAgainFromFinishedRestartsWithCountdown(t *testing.T) {
	c, _ := newController(t)
	c.Phase = Finished
	c.Signal(RaceAgain)
	if c.Phase != Countdown {
		t.Errorf("Phase=%v, want Countdown", c.Phase)
	}
}
