// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

package carsim

import (
	"math"

	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/geom"
)

// wallSlack is added to the computed penetration depth, so the car does not
// get pushed back into the exact same wall on the next tick due to floating
// point rounding.
const wallSlack = 1e-3

// ResolveCollisions tests the car's rectangle against every wall segment
// and, if any edge intersects a wall, resolves the single deepest
// penetration once (spec.md §4.4's Open Question: single-pass, not
// iterated to convergence — see SPEC_FULL.md for the rationale). Multiple
// simultaneous wall hits in one tick are rare at car scale relative to
// track_half_width, and the one-tick lag from not fully resolving a corner
// case is invisible at 60Hz.
func ResolveCollisions(c Car, wallSegments []geom.Segment, cfg config.Config) Car {
	corners := geom.RectangleCorners(c.Position, c.Heading, cfg.CarLength, cfg.CarWidth)

	bestPenetration := 0.0
	var bestNormal geom.Vec2
	hit := false

	for i := 0; i < 4; i++ {
		edgeA := corners[i]
		edgeB := corners[(i+1)%4]
		for _, wall := range wallSegments {
			hitPoint, ok := geom.SegmentIntersection(edgeA, edgeB, wall.A, wall.B)
			if !ok {
				continue
			}
			normal := wall.Vector().Normal().Normalized()
			if normal.Dot(c.Position.Sub(hitPoint)) < 0 {
				normal = normal.Scale(-1)
			}
			penetration := 0.0
			for _, corner := range corners {
				p := corner.Sub(hitPoint).Dot(normal)
				if p > penetration {
					penetration = p
				}
			}
			if penetration > bestPenetration {
				bestPenetration = penetration
				bestNormal = normal
				hit = true
			}
		}
	}

	if !hit {
		return c
	}

	c.Position = c.Position.Add(bestNormal.Scale(bestPenetration + wallSlack))

	vn := bestNormal.Scale(c.Velocity.Dot(bestNormal))
	vt := c.Velocity.Sub(vn)
	if c.Velocity.Dot(bestNormal) < 0 {
		c.Velocity = vt.Sub(vn.Scale(cfg.Bounce))
	}
	headingUnit := geom.Vec2{X: math.Cos(c.Heading), Y: math.Sin(c.Heading)}
	c.Speed = c.Velocity.Dot(headingUnit)

	impact := vn.Length()
	damage := math.Max(0, impact-cfg.MinDamageSpeed) * cfg.WallDamageMultiplier
	c.Health = math.Max(0, c.Health-damage)

	return c
}
