// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

package observe

import (
	"math"

	"github.com/mbriggsy/driftcircuit/carsim"
	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/geom"
	"github.com/mbriggsy/driftcircuit/timing"
	"github.com/mbriggsy/driftcircuit/track"
)

// Vector is the fixed-length, normalised observation a policy consumes.
// Every component lies in [0,1] except SpeedFrac, which is the signed
// speed/max_speed and is negative while reversing. Rays come first, then scalar car/track
// state, then the curvature lookahead.
type Vector struct {
	Rays               []float64
	SpeedFrac          float64
	YawRateFrac        float64
	Drifting           float64
	HealthFrac         float64
	BreadcrumbBearing  float64
	CurvatureLookahead []float64
}

// Flatten concatenates every component into one fixed-length slice, in a
// stable order, for callers that want a plain vector instead of the
// structured breakdown.
func (v Vector) Flatten() []float64 {
	out := make([]float64, 0, len(v.Rays)+5+len(v.CurvatureLookahead))
	out = append(out, v.Rays...)
	out = append(out, v.SpeedFrac, v.YawRateFrac, v.Drifting, v.HealthFrac, v.BreadcrumbBearing)
	out = append(out, v.CurvatureLookahead...)
	return out
}

// maxYawRate bounds the yaw-rate normalisation window. It is not a tunable
// in the spec's option table, so a fixed generous bound is used; yaw rates
// in practice stay well inside it given steering_rate and drift_yaw_gain.
const maxYawRate = 10.0

// Build assembles the observation vector for the current world state, per
// spec.md §4.6.
func Build(c carsim.Car, trk *track.Track, tm timing.Timing, cfg config.Config) Vector {
	rays := CastRays(c.Position, c.Heading, cfg.RayAngles, cfg.MaxRayDistance, trk.WallSegments())

	speedFrac := c.Speed / cfg.MaxSpeed
	yawRateFrac := (c.YawRate + maxYawRate) / (2 * maxYawRate)

	drifting := 0.0
	if c.IsDrifting {
		drifting = 1.0
	}

	healthFrac := c.Health / cfg.MaxHealth

	breadcrumbs := trk.Breadcrumbs()
	bearingFrac := 0.5
	if len(breadcrumbs) > 0 {
		target := breadcrumbs[tm.NextCheckpointIndex%len(breadcrumbs)]
		toTarget := target.Sub(c.Position)
		bearing := geom.NormalizeAngle(toTarget.Angle() - c.Heading)
		bearingFrac = (bearing + math.Pi) / (2 * math.Pi)
	}

	lookahead := curvatureLookahead(c.Position, trk, cfg.LookaheadCount)

	return Vector{
		Rays:               rays,
		SpeedFrac:          speedFrac,
		YawRateFrac:        yawRateFrac,
		Drifting:           drifting,
		HealthFrac:         healthFrac,
		BreadcrumbBearing:  bearingFrac,
		CurvatureLookahead: lookahead,
	}
}

// curvatureLookahead returns normalised signed curvature at each of the
// next `count` centerline vertices ahead of the car's projection.
func curvatureLookahead(position geom.Vec2, trk *track.Track, count int) []float64 {
	centerLine := trk.CenterLine()
	n := len(centerLine)
	if n == 0 || count == 0 {
		return nil
	}
	_, _, projIdx, _ := geom.ProjectPointToPolyline(position, centerLine)

	out := make([]float64, count)
	for k := 1; k <= count; k++ {
		idx := (projIdx + k) % n
		prev := centerLine[(idx-1+n)%n]
		curr := centerLine[idx]
		next := centerLine[(idx+1)%n]
		signed := geom.SignedCurvatureAtVertex(prev, curr, next)
		out[k-1] = geom.NormalizedCurvature(signed)
	}
	return out
}
