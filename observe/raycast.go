// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

// Package observe assembles the fixed-length, normalised observation vector
// and the multi-component reward signal a learned policy trains against.
package observe

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mbriggsy/driftcircuit/geom"
)

// CastRays fires len(rayAngles) rays from origin, each at heading+angle,
// against every wall segment, and returns the normalised hit distance for
// each ray (1.0 = no hit within maxDistance). The denominators and
// numerators for every ray/segment pair are held in R x S gonum/mat
// matrices, one row per ray; the matrices are filled element by element in
// a double loop, the divisions are whole-matrix DivElem calls, and each
// ray's nearest hit is a scalar reduction over its row.
func CastRays(origin geom.Vec2, heading float64, rayAngles []float64, maxDistance float64, wallSegments []geom.Segment) []float64 {
	r := len(rayAngles)
	s := len(wallSegments)
	distances := make([]float64, r)
	for i := range distances {
		distances[i] = maxDistance
	}
	if s == 0 {
		return normalize(distances, maxDistance)
	}

	rx := make([]float64, r)
	ry := make([]float64, r)
	for i, a := range rayAngles {
		theta := heading + a
		rx[i] = math.Cos(theta)
		ry[i] = math.Sin(theta)
	}

	sx := make([]float64, s)
	sy := make([]float64, s)
	qpx := make([]float64, s)
	qpy := make([]float64, s)
	for j, seg := range wallSegments {
		v := seg.Vector()
		sx[j] = v.X
		sy[j] = v.Y
		qpx[j] = seg.A.X - origin.X
		qpy[j] = seg.A.Y - origin.Y
	}

	denom := mat.NewDense(r, s, nil)
	tNumer := mat.NewDense(r, s, nil)
	uNumer := mat.NewDense(r, s, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < s; j++ {
			denom.Set(i, j, rx[i]*sy[j]-ry[i]*sx[j])
			tNumer.Set(i, j, qpx[j]*sy[j]-qpy[j]*sx[j])
			uNumer.Set(i, j, qpx[j]*ry[i]-qpy[j]*rx[i])
		}
	}

	t := mat.NewDense(r, s, nil)
	u := mat.NewDense(r, s, nil)
	t.DivElem(tNumer, denom)
	u.DivElem(uNumer, denom)

	for i := 0; i < r; i++ {
		best := maxDistance
		for j := 0; j < s; j++ {
			if denom.At(i, j) == 0 {
				continue // parallel ray/segment: NumericalDegeneracy, skip
			}
			tv := t.At(i, j)
			uv := u.At(i, j)
			if tv < 0 || tv > maxDistance || uv < 0 || uv > 1 {
				continue
			}
			if tv < best {
				best = tv
			}
		}
		distances[i] = best
	}

	return normalize(distances, maxDistance)
}

func normalize(distances []float64, maxDistance float64) []float64 {
	out := make([]float64, len(distances))
	for i, d := range distances {
		out[i] = d / maxDistance
	}
	return out
}
