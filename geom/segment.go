// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

package geom

import "math"

// Segment is a directed line segment from A to B.
type Segment struct {
	A, B Vec2
}

// Vector returns B - A.
func (s Segment) Vector() Vec2 {
	return s.B.Sub(s.A)
}

// SegmentIntersection solves for the intersection of segment (a1,a2) and
// segment (b1,b2). It returns the intersection point and true if the two
// segments cross within their own extents (parametric t,u both in [0,1]).
// Parallel and colinear segments report no intersection: this is a
// NumericalDegeneracy case that resolves internally rather than erroring.
func SegmentIntersection(a1, a2, b1, b2 Vec2) (Vec2, bool) {
	r := a2.Sub(a1)
	s := b2.Sub(b1)
	denom := r.Perp(s)
	if denom == 0 {
		// parallel or colinear; no single intersection point is reported
		return Vec2{}, false
	}
	qp := b1.Sub(a1)
	t := qp.Perp(s) / denom
	u := qp.Perp(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Vec2{}, false
	}
	return a1.Add(r.Scale(t)), true
}

// SegmentIntersectionParams is SegmentIntersection but also returns the
// parametric t along (a1,a2), for callers that need the crossing distance
// (eg ray casting) rather than just the point.
func SegmentIntersectionParams(a1, a2, b1, b2 Vec2) (t, u float64, ok bool) {
	r := a2.Sub(a1)
	s := b2.Sub(b1)
	denom := r.Perp(s)
	if denom == 0 {
		return 0, 0, false
	}
	qp := b1.Sub(a1)
	t = qp.Perp(s) / denom
	u = qp.Perp(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return t, u, false
	}
	return t, u, true
}

// ProjectPointToSegment returns the closest point on segment s to p, along
// with the parameter t in [0,1] of that point along the segment. Degenerate
// (zero-length) segments return the start endpoint with t=0.
func ProjectPointToSegment(p Vec2, s Segment) (closest Vec2, t float64) {
	d := s.Vector()
	lenSq := d.Dot(d)
	if lenSq == 0 {
		return s.A, 0
	}
	t = p.Sub(s.A).Dot(d) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return s.A.Add(d.Scale(t)), t
}

// ProjectPointToPolyline projects p onto every segment of a closed polyline
// (consecutive points, wrapping from the last back to the first) and
// returns the globally closest point, the distance to it, the index of the
// segment it lies on, and the parameter t in [0,1] along that segment.
func ProjectPointToPolyline(p Vec2, polyline []Vec2) (closest Vec2, distance float64, segmentIndex int, t float64) {
	n := len(polyline)
	distance = math.Inf(1)
	for i := 0; i < n; i++ {
		a := polyline[i]
		b := polyline[(i+1)%n]
		c, ct := ProjectPointToSegment(p, Segment{A: a, B: b})
		d := Dist(p, c)
		if d < distance {
			distance = d
			closest = c
			segmentIndex = i
			t = ct
		}
	}
	return closest, distance, segmentIndex, t
}

// SignedCurvatureAtVertex computes the normalized cross product of the
// incoming and outgoing unit tangents at curr. Positive means a left turn,
// negative a right turn, zero straight. The incoming tangent runs prev->curr,
// the outgoing curr->next.
func SignedCurvatureAtVertex(prev, curr, next Vec2) float64 {
	in := curr.Sub(prev).Normalized()
	out := next.Sub(curr).Normalized()
	return in.Perp(out)
}

// NormalizedCurvature maps a signed curvature value (as returned by
// SignedCurvatureAtVertex, which is bounded to [-1,1] since it is a cross
// product of unit vectors) onto [0,1], with 0.5 meaning straight.
func NormalizedCurvature(signedCurvature float64) float64 {
	return 0.5 + signedCurvature/2
}
