// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

package track

import (
	"fmt"
	"math"

	"github.com/mbriggsy/driftcircuit/config"
	"github.com/mbriggsy/driftcircuit/geom"
)

// NewOvalTrack builds a simple elongated oval: two straights joined by two
// semicircular ends. A single finish/checkpoint gate sits at the start of
// the front straight.
func NewOvalTrack(cfg config.Config, straightLen, radius float64, cornerSegments int) (*Track, error) {
	points := ovalControlPoints(straightLen, radius, cornerSegments)
	return Build(points, []int{0}, 0, cfg)
}

// NewFigureEightTrack builds a self-crossing figure-eight loop: two circular
// lobes joined through a shared crossing point. Four evenly spaced
// checkpoints are placed around the loop, with the first marked as finish.
func NewFigureEightTrack(cfg config.Config, lobeRadius float64, segmentsPerLobe int) (*Track, error) {
	points := figureEightControlPoints(lobeRadius, segmentsPerLobe)
	n := len(points)
	checkpointIndices := []int{0, n / 4, n / 2, 3 * n / 4}
	return Build(points, checkpointIndices, 0, cfg)
}

// NewNamedTrack looks up a starter track by name, using cfg's geometry
// tunables. Recognised names: "oval", "figure_eight".
func NewNamedTrack(name string, cfg config.Config) (*Track, error) {
	switch name {
	case "oval":
		return NewOvalTrack(cfg, 120, 40, 24)
	case "figure_eight":
		return NewFigureEightTrack(cfg, 45, 24)
	default:
		return nil, fmt.Errorf("track: unknown named track %q", name)
	}
}

// ovalControlPoints returns a closed "stadium" polygon: two straights of
// length straightLen, running along y=-radius and y=+radius, joined by
// semicircular turns of the given radius centered at (+-straightLen/2, 0),
// each subdivided into cornerSegments segments.
func ovalControlPoints(straightLen, radius float64, cornerSegments int) []geom.Vec2 {
	right := straightLen / 2
	left := -straightLen / 2

	var points []geom.Vec2
	points = append(points, geom.Vec2{X: left, Y: -radius})
	points = append(points, geom.Vec2{X: right, Y: -radius})
	for i := 1; i < cornerSegments; i++ {
		theta := -math.Pi/2 + math.Pi*float64(i)/float64(cornerSegments)
		points = append(points, geom.Vec2{X: right + radius*math.Cos(theta), Y: radius * math.Sin(theta)})
	}
	points = append(points, geom.Vec2{X: right, Y: radius})
	points = append(points, geom.Vec2{X: left, Y: radius})
	for i := 1; i < cornerSegments; i++ {
		theta := math.Pi/2 + math.Pi*float64(i)/float64(cornerSegments)
		points = append(points, geom.Vec2{X: left + radius*math.Cos(theta), Y: radius * math.Sin(theta)})
	}
	return points
}

func figureEightControlPoints(lobeRadius float64, segmentsPerLobe int) []geom.Vec2 {
	var points []geom.Vec2
	centerA := geom.Vec2{X: -lobeRadius, Y: 0}
	for i := 0; i < segmentsPerLobe; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segmentsPerLobe)
		points = append(points, centerA.Add(geom.Vec2{X: lobeRadius * math.Cos(theta), Y: lobeRadius * math.Sin(theta)}))
	}
	centerB := geom.Vec2{X: lobeRadius, Y: 0}
	for i := 0; i < segmentsPerLobe; i++ {
		theta := math.Pi + 2*math.Pi*float64(i)/float64(segmentsPerLobe)
		points = append(points, centerB.Add(geom.Vec2{X: lobeRadius * math.Cos(theta), Y: lobeRadius * math.Sin(theta)}))
	}
	return points
}
