// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

// circuitctl runs the headless simulator from the command line: build a
// track, drive it with one constant input taken from the flags, and print
// periodic telemetry. Unless there is a very good reason not to, this is
// THE way to smoke-test a tunables file outside of an RL harness.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mbriggsy/driftcircuit/carsim"
	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/race"
	"github.com/mbriggsy/driftcircuit/telemetry"
	"github.com/mbriggsy/driftcircuit/timing"
	"github.com/mbriggsy/driftcircuit/track"
	"github.com/mbriggsy/driftcircuit/world"
)

// maxAccumulatorDebt caps the accumulator at 200ms (spec.md §5), so a
// suspended process doesn't try to replay a huge backlog of ticks on
// resume.
const maxAccumulatorDebt = 200 * time.Millisecond

func main() {
	trackFlag := flag.String("track", "oval", "Named track to run (oval, figure_eight)")
	cfgFlag := flag.String("config", "", "Path to a YAML/JSON tunables file, layered on top of the defaults")
	ticksFlag := flag.Int("ticks", 0, "Stop after this many ticks (0 = run until the race finishes)")
	throttleFlag := flag.Float64("throttle", 0.6, "Constant throttle value in [0,1] applied every tick")
	steerFlag := flag.Float64("steer", 0, "Constant steer value in [-1,1] applied every tick")
	driftFlag := flag.Bool("drift", false, "Hold the drift input down every tick")
	summaryEveryFlag := flag.Int("summary-every", 60, "Print a telemetry summary every N ticks")
	flag.Parse()

	cfg := config.Default()
	if *cfgFlag != "" {
		loaded, err := config.LoadFile(*cfgFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	trk, err := track.NewNamedTrack(*trackFlag, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctrl := race.New(world.Reset(trk, timing.Timing{}, cfg), cfg)
	ctrl.Signal(race.StartGame)

	in := carsim.Input{Throttle: *throttleFlag, Steer: *steerFlag, Drift: *driftFlag}

	dt := time.Duration(cfg.Dt() * float64(time.Second))
	accumulated := time.Duration(0)
	last := time.Now()

	for *ticksFlag == 0 || ctrl.World.Tick < *ticksFlag {
		now := time.Now()
		accumulated += now.Sub(last)
		last = now
		if accumulated > maxAccumulatorDebt {
			accumulated = maxAccumulatorDebt
		}

		for accumulated >= dt {
			ctrl.Update(in)
			accumulated -= dt

			if ctrl.World.Tick%*summaryEveryFlag == 0 {
				telemetry.RunSummary(ctrl.World.Tick, ctrl.World.Timing.CurrentLap, ctrl.World.Timing.BestLapTicks, ctrl.World.Car.Health)
			}
		}

		if ctrl.Phase == race.Finished {
			telemetry.RunSummary(ctrl.World.Tick, ctrl.World.Timing.CurrentLap, ctrl.World.Timing.BestLapTicks, ctrl.World.Car.Health)
			return
		}

		time.Sleep(time.Millisecond)
	}
}
