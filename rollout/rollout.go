// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

// Package rollout drives many independent world.State simulations in
// parallel for RL experience collection. Each rollout owns its own
// world.State exclusively (spec.md §5: "no shared mutable state"); a
// policy function supplies the Input for every tick.
package rollout

import (
	"context"

	"github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"github.com/mbriggsy/driftcircuit/carsim"
	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/observe"
	"github.com/mbriggsy/driftcircuit/timing"
	"github.com/mbriggsy/driftcircuit/track"
	"github.com/mbriggsy/driftcircuit/world"
)

// Policy chooses an Input given the current observation vector. Policies
// must be safe to call concurrently across rollouts, since each rollout
// worker calls it independently.
type Policy func(observe.Vector) carsim.Input

// Result summarizes one completed rollout.
type Result struct {
	WorkerIndex  int
	Ticks        int
	TotalReward  float64
	LapsFinished int
	FinalHealth  float64
}

// RunBatch runs n independent rollouts of up to maxTicks ticks each,
// fanning the per-worker result channels into one merged stream via
// channerics. All n rollouts are started at once under an errgroup, which
// propagates the first error and cancels the rest; the number of rollouts
// running concurrently is not bounded.
func RunBatch(ctx context.Context, trk *track.Track, cfg config.Config, policy Policy, n, maxTicks int) ([]Result, error) {
	done := ctx.Done()
	workers := make([]<-chan Result, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		out := make(chan Result, 1)
		workers[i] = out
		g.Go(func() error {
			defer close(out)
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			out <- runOne(i, trk, cfg, policy, maxTicks, gctx.Done())
			return nil
		})
	}

	merged := channels.Merge(done, workers...)

	results := make([]Result, 0, n)
	for r := range merged {
		results = append(results, r)
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// runOne drives a single rollout, without going through race.Controller:
// a rollout worker isn't paused or counted down, it just steps until
// maxTicks, a health-exhaustion death, or (in target-laps mode) the
// configured number of laps.
func runOne(idx int, trk *track.Track, cfg config.Config, policy Policy, maxTicks int, done <-chan struct{}) Result {
	state := world.Reset(trk, timing.Timing{}, cfg)

	totalReward := 0.0
	lapsFinished := 0
	ticks := 0

	for ; ticks < maxTicks; ticks++ {
		select {
		case <-done:
			return summarize(idx, ticks, totalReward, lapsFinished, state.Car.Health)
		default:
		}

		obs := observe.Build(state.Car, state.Track, state.Timing, cfg)
		in := policy(obs)

		result := world.Step(state, in, cfg)
		state = result.State

		breakdown := observe.ComputeReward(result.Info, cfg.RewardWeights)
		totalReward += breakdown.Total
		if result.Info.LapCompleted {
			lapsFinished++
		}

		if result.Info.Died {
			ticks++
			break
		}
		if cfg.TargetLaps > 0 && state.Timing.CurrentLap > cfg.TargetLaps {
			ticks++
			break
		}
	}

	return summarize(idx, ticks, totalReward, lapsFinished, state.Car.Health)
}

func summarize(idx, ticks int, totalReward float64, laps int, finalHealth float64) Result {
	return Result{
		WorkerIndex:  idx,
		Ticks:        ticks,
		TotalReward:  totalReward,
		LapsFinished: laps,
		FinalHealth:  finalHealth,
	}
}
