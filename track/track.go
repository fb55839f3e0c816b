// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

// Package track builds the frozen, read-only circuit geometry that the rest
// of the simulator drives on: a smoothed centerline, its offset inner/outer
// walls, checkpoint gates, and a dense breadcrumb chain for reward shaping.
// A Track is built once, at load time, and never mutated afterward.
package track

import (
	"fmt"
	"math"

	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/geom"
	"github.com/mbriggsy/driftcircuit/telemetry"
)

// Wall-offset sign convention (spec.md §9 Open Question, resolved here):
// the centerline is normalized to counter-clockwise winding before
// offsetting, and the smoothed normal at vertex i is perp(t_i) =
// (-t_i.y, t_i.x) (geom.Vec2.Normal, a 90-degree CCW rotation). inner_wall
// is offset by +half_width along that normal, outer_wall by -half_width.
// For a CCW-wound loop this puts inner_wall on the inside of the turn.
// Every consumer of Track.InnerWall/OuterWall relies on this fixed
// handedness; it is pinned down by TestWallOffsetConvention.

// Gate is a checkpoint or finish line: a segment from the inner wall to the
// outer wall, with the direction of travel through it.
type Gate struct {
	Index     int
	Left      geom.Vec2
	Right     geom.Vec2
	Center    geom.Vec2
	Direction geom.Vec2
	IsFinish  bool
}

// Segment returns the gate's crossing segment, left to right.
func (g Gate) Segment() geom.Segment {
	return geom.Segment{A: g.Left, B: g.Right}
}

// Track is the immutable circuit geometry produced by Build.
type Track struct {
	centerLine    []geom.Vec2
	innerWall     []geom.Vec2
	outerWall     []geom.Vec2
	innerRoadEdge []geom.Vec2
	outerRoadEdge []geom.Vec2
	wallSegments  []geom.Segment
	checkpoints   []Gate
	finishIndex   int
	breadcrumbs   []geom.Vec2
	spawnPosition geom.Vec2
	spawnHeading  float64
	perimeter     float64
	halfWidth     float64
}

// CenterLine returns the track centerline control points, in winding order.
func (t *Track) CenterLine() []geom.Vec2 { return t.centerLine }

// InnerWall returns the inner wall polyline, index-aligned with CenterLine.
func (t *Track) InnerWall() []geom.Vec2 { return t.innerWall }

// OuterWall returns the outer wall polyline, index-aligned with CenterLine.
func (t *Track) OuterWall() []geom.Vec2 { return t.outerWall }

// WallSegments returns every wall edge (inner and outer), as a flat list for
// collision and ray-cast queries.
func (t *Track) WallSegments() []geom.Segment { return t.wallSegments }

// InnerRoadEdge returns a narrower lane boundary nested inside InnerWall, by
// road_edge_width. It carries no collision or surface-classification weight
// of its own (carsim.ClassifySurface reasons about half_width/road_edge_width
// directly); it exists for a renderer collaborator that wants to draw a
// painted lane line distinct from the solid wall.
func (t *Track) InnerRoadEdge() []geom.Vec2 { return t.innerRoadEdge }

// OuterRoadEdge is OuterWall's counterpart to InnerRoadEdge.
func (t *Track) OuterRoadEdge() []geom.Vec2 { return t.outerRoadEdge }

// Checkpoints returns every gate, including the finish gate, in the order
// their indices were passed to Build (Gate.Index is that position).
func (t *Track) Checkpoints() []Gate { return t.checkpoints }

// FinishGate returns the one gate with IsFinish set.
func (t *Track) FinishGate() Gate { return t.checkpoints[t.finishIndex] }

// Breadcrumbs returns the dense arc-length waypoint chain.
func (t *Track) Breadcrumbs() []geom.Vec2 { return t.breadcrumbs }

// SpawnPosition returns the car's reset position.
func (t *Track) SpawnPosition() geom.Vec2 { return t.spawnPosition }

// SpawnHeading returns the car's reset heading, in radians.
func (t *Track) SpawnHeading() float64 { return t.spawnHeading }

// Perimeter returns the total centerline arc length.
func (t *Track) Perimeter() float64 { return t.perimeter }

// HalfWidth returns the half-width the track was built with.
func (t *Track) HalfWidth() float64 { return t.halfWidth }

// Build constructs a Track from ordered control points, per spec.md §4.2.
// Returns an error for malformed input (ConfigurationError): a cfg that
// fails Config.Validate, fewer than three control points, or a checkpoint
// index out of range. A half-width
// that exceeds the minimum local radius of curvature is not an error — it
// is a GeometryWarning, logged once, and the build proceeds with
// self-intersecting walls near the offending corner.
func Build(controlPoints []geom.Vec2, checkpointIndices []int, finishIndex int, cfg config.Config) (*Track, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := len(controlPoints)
	if n < 3 {
		return nil, fmt.Errorf("track: need at least 3 control points, got %d", n)
	}
	for _, idx := range checkpointIndices {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("track: checkpoint index %d out of range [0,%d)", idx, n)
		}
	}
	if finishIndex < 0 || finishIndex >= len(checkpointIndices) {
		return nil, fmt.Errorf("track: finish index %d out of range [0,%d)", finishIndex, len(checkpointIndices))
	}
	if cfg.TrackHalfWidth <= 0 {
		return nil, fmt.Errorf("track: half_width must be > 0, got %v", cfg.TrackHalfWidth)
	}

	centerLine := normalizeWinding(controlPoints)

	tangents := make([]geom.Vec2, n)
	normals := make([]geom.Vec2, n)
	for i := range centerLine {
		prev := centerLine[(i-1+n)%n]
		curr := centerLine[i]
		next := centerLine[(i+1)%n]
		inTangent := curr.Sub(prev).Normalized()
		outTangent := next.Sub(curr).Normalized()
		t := inTangent.Add(outTangent).Normalized()
		if t == (geom.Vec2{}) {
			// opposing tangents (a hairpin folded back on itself): fall back
			// to the outgoing tangent rather than an undefined direction.
			t = outTangent
		}
		tangents[i] = t
		normals[i] = t.Normal()
	}

	edgeWidth := cfg.TrackHalfWidth - cfg.RoadEdgeWidth
	if edgeWidth < 0 {
		edgeWidth = 0
	}

	innerWall := make([]geom.Vec2, n)
	outerWall := make([]geom.Vec2, n)
	innerRoadEdge := make([]geom.Vec2, n)
	outerRoadEdge := make([]geom.Vec2, n)
	minRadius := math.Inf(1)
	for i, c := range centerLine {
		innerWall[i] = c.Add(normals[i].Scale(cfg.TrackHalfWidth))
		outerWall[i] = c.Sub(normals[i].Scale(cfg.TrackHalfWidth))
		innerRoadEdge[i] = c.Add(normals[i].Scale(edgeWidth))
		outerRoadEdge[i] = c.Sub(normals[i].Scale(edgeWidth))

		curvature := geom.SignedCurvatureAtVertex(centerLine[(i-1+n)%n], c, centerLine[(i+1)%n])
		if math.Abs(curvature) > 1e-9 {
			// curvature is the cross product of unit tangents, ~ spacing/radius
			spacing := geom.Dist(centerLine[(i-1+n)%n], centerLine[(i+1)%n]) / 2
			radius := spacing / math.Abs(curvature)
			if radius < minRadius {
				minRadius = radius
			}
		}
	}
	if cfg.TrackHalfWidth > minRadius {
		telemetry.GeometryWarning("track half-width exceeds minimum local radius of curvature; walls may self-intersect near a tight corner", map[string]interface{}{
			"half_width": cfg.TrackHalfWidth,
			"min_radius": minRadius,
		})
	}

	wallSegments := make([]geom.Segment, 0, 2*n)
	for i := 0; i < n; i++ {
		wallSegments = append(wallSegments, geom.Segment{A: innerWall[i], B: innerWall[(i+1)%n]})
	}
	for i := 0; i < n; i++ {
		wallSegments = append(wallSegments, geom.Segment{A: outerWall[i], B: outerWall[(i+1)%n]})
	}

	checkpoints := make([]Gate, len(checkpointIndices))
	for gi, idx := range checkpointIndices {
		left := innerWall[idx]
		right := outerWall[idx]
		checkpoints[gi] = Gate{
			Index:     gi,
			Left:      left,
			Right:     right,
			Center:    left.Add(right).Scale(0.5),
			Direction: tangents[idx],
			IsFinish:  gi == finishIndex,
		}
	}

	breadcrumbs := buildBreadcrumbChain(centerLine, cfg.BreadcrumbSpacing, cfg.ZigzagMultiplier, cfg.TightAngleThreshold)

	perimeter := 0.0
	for i := 0; i < n; i++ {
		perimeter += geom.Dist(centerLine[i], centerLine[(i+1)%n])
	}

	spawnPosition := centerLine[0].Add(tangents[0].Scale(cfg.SpawnForwardOffset))
	spawnHeading := tangents[0].Angle()

	return &Track{
		centerLine:    centerLine,
		innerWall:     innerWall,
		outerWall:     outerWall,
		innerRoadEdge: innerRoadEdge,
		outerRoadEdge: outerRoadEdge,
		wallSegments:  wallSegments,
		checkpoints:   checkpoints,
		finishIndex:   finishIndex,
		breadcrumbs:   breadcrumbs,
		spawnPosition: spawnPosition,
		spawnHeading:  spawnHeading,
		perimeter:     perimeter,
		halfWidth:     cfg.TrackHalfWidth,
	}, nil
}

// normalizeWinding returns points reordered, if necessary, to counter-
// clockwise winding (positive signed area), so the normal-offset convention
// above is applied consistently regardless of input order.
func normalizeWinding(points []geom.Vec2) []geom.Vec2 {
	area := signedArea(points)
	if area >= 0 {
		out := make([]geom.Vec2, len(points))
		copy(out, points)
		return out
	}
	out := make([]geom.Vec2, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

func signedArea(points []geom.Vec2) float64 {
	n := len(points)
	area := 0.0
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		area += a.X*b.Y - b.X*a.Y
	}
	return area / 2
}

// buildBreadcrumbChain walks the closed centerline by arc length, depositing
// a breadcrumb every spacing units, contracted to spacing*zigzag within
// tight regions (successive segment angle >= tightAngleThreshold).
// center_line[0] is always included.
func buildBreadcrumbChain(centerLine []geom.Vec2, spacing, zigzag, tightAngleThreshold float64) []geom.Vec2 {
	n := len(centerLine)
	breadcrumbs := []geom.Vec2{centerLine[0]}

	segLen := func(i int) float64 {
		return geom.Dist(centerLine[i], centerLine[(i+1)%n])
	}
	isTight := func(i int) bool {
		prev := centerLine[(i-1+n)%n]
		curr := centerLine[i]
		next := centerLine[(i+1)%n]
		inTangent := curr.Sub(prev).Normalized()
		outTangent := next.Sub(curr).Normalized()
		cosAngle := inTangent.Dot(outTangent)
		angle := math.Acos(clamp(cosAngle, -1, 1))
		return angle >= tightAngleThreshold
	}

	segIdx := 0
	distIntoSeg := 0.0
	remaining := stepFor(isTight(0), spacing, zigzag)
	for {
		for remaining > segLen(segIdx)-distIntoSeg {
			remaining -= segLen(segIdx) - distIntoSeg
			distIntoSeg = 0
			segIdx = (segIdx + 1) % n
			if segIdx == 0 {
				// completed a full lap of placement
				return breadcrumbs
			}
		}
		distIntoSeg += remaining
		a := centerLine[segIdx]
		b := centerLine[(segIdx+1)%n]
		t := distIntoSeg / segLen(segIdx)
		breadcrumbs = append(breadcrumbs, a.Add(b.Sub(a).Scale(t)))
		remaining = stepFor(isTight(segIdx), spacing, zigzag)
	}
}

func stepFor(tight bool, spacing, zigzag float64) float64 {
	if tight {
		return spacing * zigzag
	}
	return spacing
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
