// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

// Package race drives the race lifecycle around a world.State: countdown,
// stuck detection and respawn, pause, and target-laps finish. Unlike a
// window-driven game phase, Controller consumes one-shot Signal values
// rather than raw keystrokes or a render window, so it runs identically
// headless or embedded in a renderer.
package race

import (
	"math"

	"github.com/mbriggsy/driftcircuit/carsim"
	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/telemetry"
	"github.com/mbriggsy/driftcircuit/track"
	"github.com/mbriggsy/driftcircuit/world"
)

// Phase is one of the race controller's states.
type Phase int

const (
	Loading Phase = iota
	Countdown
	Racing
	Paused
	Respawning
	Finished
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "Loading"
	case Countdown:
		return "Countdown"
	case Racing:
		return "Racing"
	case Paused:
		return "Paused"
	case Respawning:
		return "Respawning"
	case Finished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Signal is a debounced, one-shot input event. Collaborators (keyboard,
// UI button, RL harness) are responsible for turning raw input into these;
// the controller never reads a key code or a window.
type Signal int

const (
	StartGame Signal = iota
	TogglePause
	Restart
	RestartNoCountdown
	RaceAgain
)

// Controller is the race state machine (spec.md §4.8).
type Controller struct {
	Phase Phase
	World world.State

	cfg config.Config

	phaseTicks   int
	stuckTicks   int
	prePauseFor  Phase // phase to resume into after a TogglePause toggles back
}

// New returns a controller loaded with world in the Loading phase.
func New(w world.State, cfg config.Config) *Controller {
	return &Controller{Phase: Loading, World: w, cfg: cfg}
}

// Signal applies a one-shot signal to the controller's state machine.
func (c *Controller) Signal(sig Signal) {
	switch sig {
	case StartGame:
		if c.Phase == Loading {
			c.transition(Countdown)
		}
	case TogglePause:
		if c.Phase == Racing {
			c.prePauseFor = Racing
			c.transition(Paused)
		} else if c.Phase == Paused {
			c.transition(c.prePauseFor)
		}
	case Restart:
		c.World = world.Reset(c.World.Track, c.World.Timing, c.cfg)
		c.transition(Countdown)
	case RestartNoCountdown:
		c.World = world.Reset(c.World.Track, c.World.Timing, c.cfg)
		c.transition(Racing)
	case RaceAgain:
		if c.Phase == Finished {
			c.World = world.Reset(c.World.Track, c.World.Timing, c.cfg)
			c.transition(Countdown)
		}
	}
}

// Update advances the controller and, while Racing, the world by one tick.
// input is ignored in every phase but Racing.
func (c *Controller) Update(in carsim.Input) {
	c.phaseTicks++

	switch c.Phase {
	case Loading, Paused, Finished:
		// world does not step

	case Countdown:
		if c.phaseTicks >= c.cfg.CountdownBeats*c.cfg.CountdownTicksPerBeat {
			c.transition(Racing)
		}

	case Racing:
		result := world.Step(c.World, in, c.cfg)
		c.World = result.State

		if math.Abs(c.World.Car.Speed) < c.cfg.StuckSpeedThreshold {
			c.stuckTicks++
		} else {
			c.stuckTicks = 0
		}
		if c.stuckTicks >= c.cfg.StuckTimeoutTicks {
			c.transition(Respawning)
			return
		}

		if c.cfg.TargetLaps > 0 && c.World.Timing.CurrentLap > c.cfg.TargetLaps {
			c.transition(Finished)
		}

	case Respawning:
		if c.phaseTicks >= c.cfg.RespawnFadeTicks {
			c.respawnCar()
			c.transition(Racing)
		}
	}
}

// respawnCar repositions the car at the last checkpoint crossed (or spawn,
// if none), zeroing velocity/yaw_rate/input inertia while preserving lap
// timing.
func (c *Controller) respawnCar() {
	car := c.World.Car
	tm := c.World.Timing

	if gate, ok := findCheckpoint(c.World.Track, tm.LastCheckpointIndex); ok {
		car.Position = gate.Center
		car.Heading = gate.Direction.Angle()
	} else {
		car.Position = c.World.Track.SpawnPosition()
		car.Heading = c.World.Track.SpawnHeading()
	}
	car.PrevPosition = car.Position
	car.Velocity = car.Velocity.Scale(0)
	car.Speed = 0
	car.YawRate = 0
	car.IsDrifting = false

	c.World.Car = car
	c.stuckTicks = 0
}

// findCheckpoint looks up a gate by its checkpoint index. ok is false if
// idx is negative (no checkpoint crossed yet this session).
func findCheckpoint(trk *track.Track, idx int) (track.Gate, bool) {
	if idx < 0 {
		return track.Gate{}, false
	}
	for _, g := range trk.Checkpoints() {
		if g.Index == idx {
			return g, true
		}
	}
	return track.Gate{}, false
}

func (c *Controller) transition(to Phase) {
	telemetry.PhaseTransition(c.Phase.String(), to.String(), c.World.Tick)
	c.Phase = to
	c.phaseTicks = 0
}
