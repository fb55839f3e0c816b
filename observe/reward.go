// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

package observe

import (
	"math"

	"github.com/mbriggsy/driftcircuit/config"
)

// steerSmoothThreshold bounds how much the steer input may change tick to
// tick and still earn the smoothness bonus. Not one of the spec's named
// tunables; fixed here since it is an implementation detail of the anti-
// jitter term rather than a driving characteristic.
const steerSmoothThreshold = 0.05

// StepInfo captures everything that happened during one world.Step, for the
// reward function to score. It is assembled by the world package and is
// otherwise opaque to it.
type StepInfo struct {
	BreadcrumbCollected bool
	// BreadcrumbAutoAdvanced is true when the chain pointer advanced without
	// a genuine collection (spec.md §4.5/§9): informational only, never
	// rewarded, so the policy can't learn to skip breadcrumbs.
	BreadcrumbAutoAdvanced bool
	LapCompleted           bool
	ProgressDelta          float64 // signed centerline arc-length advance, wrap-safe
	LateralDistance        float64
	ImpactDamage           float64
	SpeedFrac              float64 // |speed| / max_speed
	CurvatureDeviation1    float64
	SteerDelta             float64
	Died                   bool // health exhausted or stuck termination
}

// RewardBreakdown is the per-component score, plus the weighted total.
type RewardBreakdown struct {
	Breadcrumb float64
	Lap        float64
	Progress   float64
	Backward   float64
	Lateral    float64
	Wall       float64
	Corner     float64
	Time       float64
	Smooth     float64
	Death      float64
	Total      float64
}

// ComputeReward is a pure mapping from a StepInfo and the configured
// weights to a scalar reward plus its per-component breakdown, per
// spec.md §4.6.
func ComputeReward(info StepInfo, w config.RewardWeights) RewardBreakdown {
	var b RewardBreakdown

	if info.BreadcrumbCollected {
		b.Breadcrumb = w.Breadcrumb
	}
	if info.LapCompleted {
		b.Lap = w.Lap
	}

	b.Progress = w.Progress * info.ProgressDelta
	if info.ProgressDelta < 0 {
		b.Backward = -w.Backward * math.Abs(info.ProgressDelta)
	}

	b.Lateral = -w.Lateral * info.LateralDistance
	b.Wall = -w.Wall * info.ImpactDamage
	b.Corner = -w.Corner * info.SpeedFrac * info.CurvatureDeviation1
	b.Time = -w.Time

	if math.Abs(info.SteerDelta) < steerSmoothThreshold {
		b.Smooth = w.Smooth
	}
	if info.Died {
		b.Death = -w.Death
	}

	b.Total = b.Breadcrumb + b.Lap + b.Progress + b.Backward + b.Lateral +
		b.Wall + b.Corner + b.Time + b.Smooth + b.Death
	return b
}
