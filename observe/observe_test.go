// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

package observe

import (
	"math"
	"testing"

	"github.com/mbriggsy/driftcircuit/carsim"
	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/geom"
	"github.com/mbriggsy/driftcircuit/timing"
	"github.com/mbriggsy/driftcircuit/track"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCastRaysMissesReturnOne(t *testing.T) {
	walls := []geom.Segment{{A: geom.Vec2{X: 1000, Y: -1}, B: geom.Vec2{X: 1000, Y: 1}}}
	dists := CastRays(geom.Vec2{}, 0, []float64{0}, 50, walls)
	if len(dists) != 1 || !near(dists[0], 1.0, 1e-9) {
		t.Errorf("expected a miss to normalise to 1.0, got %v", dists)
	}
}

func TestCastRaysHitNormalizesToFraction(t *testing.T) {
	walls := []geom.Segment{{A: geom.Vec2{X: 10, Y: -10}, B: geom.Vec2{X: 10, Y: 10}}}
	dists := CastRays(geom.Vec2{}, 0, []float64{0}, 50, walls)
	if len(dists) != 1 || !near(dists[0], 10.0/50.0, 1e-6) {
		t.Errorf("expected hit distance 10/50=0.2, got %v", dists)
	}
}

func TestCastRaysOneRayPerAngle(t *testing.T) {
	walls := []geom.Segment{{A: geom.Vec2{X: 10, Y: -10}, B: geom.Vec2{X: 10, Y: 10}}}
	dists := CastRays(geom.Vec2{}, 0, []float64{0, math.Pi / 2, math.Pi}, 50, walls)
	if len(dists) != 3 {
		t.Fatalf("expected 3 distances, got %d", len(dists))
	}
	if dists[1] != 1.0 {
		t.Errorf("perpendicular ray should miss the wall, got %v", dists[1])
	}
	if dists[2] != 1.0 {
		t.Errorf("ray facing away from the wall should miss, got %v", dists[2])
	}
}

func testTrack(t *testing.T) *track.Track {
	cfg := config.Default()
	cfg.TrackHalfWidth = 4
	pts := []geom.Vec2{{X: -40, Y: -40}, {X: 40, Y: -40}, {X: 40, Y: 40}, {X: -40, Y: 40}}
	tr, err := track.Build(pts, []int{0}, 0, cfg)
	if err != nil {
		t.Fatalf(err.Error())
	}
	return tr
}

func TestBuildObservationComponentsAreBounded(t *testing.T) {
	cfg := config.Default()
	tr := testTrack(t)
	c := carsim.New(geom.Vec2{X: 0, Y: -40}, 0, cfg)
	tm := timing.New()

	v := observationFor(c, tr, tm, cfg, t)
	for i, r := range v.Rays {
		if r < 0 || r > 1 {
			t.Errorf("ray %d=%v out of [0,1]", i, r)
		}
	}
	if v.SpeedFrac < -1.1 || v.SpeedFrac > 1.1 {
		t.Errorf("speed_frac=%v out of expected range", v.SpeedFrac)
	}
	if v.HealthFrac != 1.0 {
		t.Errorf("fresh car health_frac=%v, want 1.0", v.HealthFrac)
	}
	if v.BreadcrumbBearing < 0 || v.BreadcrumbBearing > 1 {
		t.Errorf("breadcrumb_bearing=%v out of [0,1]", v.BreadcrumbBearing)
	}
	for i, k := range v.CurvatureLookahead {
		if k < 0 || k > 1 {
			t.Errorf("curvature lookahead %d=%v out of [0,1]", i, k)
		}
	}
}

func observationFor(c carsim.Car, tr *track.Track, tm timing.Timing, cfg config.Config, t *testing.T) Vector {
	t.Helper()
	return Build(c, tr, tm, cfg)
}

func TestFlattenLengthMatchesComponents(t *testing.T) {
	cfg := config.Default()
	tr := testTrack(t)
	c := carsim.New(geom.Vec2{X: 0, Y: -40}, 0, cfg)
	tm := timing.New()
	v := Build(c, tr, tm, cfg)
	want := len(v.Rays) + 5 + len(v.CurvatureLookahead)
	if len(v.Flatten()) != want {
		t.Errorf("Flatten() length=%d, want %d", len(v.Flatten()), want)
	}
}

func TestComputeRewardBreadcrumbOnlyOnGenuineCollection(t *testing.T) {
	w := config.Default().RewardWeights
	collected := ComputeReward(StepInfo{BreadcrumbCollected: true}, w)
	if collected.Breadcrumb != w.Breadcrumb {
		t.Errorf("Breadcrumb component=%v, want %v", collected.Breadcrumb, w.Breadcrumb)
	}
	notCollected := ComputeReward(StepInfo{BreadcrumbCollected: false}, w)
	if notCollected.Breadcrumb != 0 {
		t.Errorf("Breadcrumb component=%v, want 0 for auto-advance", notCollected.Breadcrumb)
	}
}

func TestComputeRewardBackwardPenaltyOnNegativeProgress(t *testing.T) {
	w := config.Default().RewardWeights
	b := ComputeReward(StepInfo{ProgressDelta: -5}, w)
	if b.Backward >= 0 {
		t.Errorf("expected a negative backward penalty, got %v", b.Backward)
	}
	if b.Progress >= 0 {
		t.Errorf("progress component should also go negative, got %v", b.Progress)
	}
}

func TestComputeRewardDeathIsNegative(t *testing.T) {
	w := config.Default().RewardWeights
	b := ComputeReward(StepInfo{Died: true}, w)
	if b.Death >= 0 {
		t.Errorf("expected a negative death penalty, got %v", b.Death)
	}
}

func TestComputeRewardSmoothBonusBelowThreshold(t *testing.T) {
	w := config.Default().RewardWeights
	smooth := ComputeReward(StepInfo{SteerDelta: 0.001}, w)
	jerky := ComputeReward(StepInfo{SteerDelta: 0.9}, w)
	if smooth.Smooth <= jerky.Smooth {
		t.Errorf("smooth steering should earn a higher smooth bonus: smooth=%v jerky=%v", smooth.Smooth, jerky.Smooth)
	}
}
