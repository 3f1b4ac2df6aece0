package osm2sidewalks

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	// Geometric comparisons tolerance in planar frame units
	epsilon = 1e-9
)

// segmentIntersection returns intersection point of segments p1-p2 and p3-p4 and
// its parameters along both of them. Parallel (and collinear) segments are never reported.
func segmentIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, float64, float64, bool) {
	a1 := p2[1] - p1[1]
	b1 := p1[0] - p2[0]
	c1 := a1*p1[0] + b1*p1[1]
	a2 := p4[1] - p3[1]
	b2 := p3[0] - p4[0]
	c2 := a2*p3[0] + b2*p3[1]

	det := a1*b2 - a2*b1
	if math.Abs(det) < epsilon {
		return orb.Point{}, 0, 0, false
	}
	x := (b2*c1 - b1*c2) / det
	y := (a1*c2 - a2*c1) / det
	pt := orb.Point{x, y}

	t := segmentParam(p1, p2, pt)
	u := segmentParam(p3, p4, pt)
	if t < -epsilon || t > 1+epsilon || u < -epsilon || u > 1+epsilon {
		return orb.Point{}, 0, 0, false
	}
	return pt, clamp01(t), clamp01(u), true
}

// segmentParam returns position of pt projected on p-q as fraction of p-q length
func segmentParam(p, q, pt orb.Point) float64 {
	d := toVec(q).Sub(toVec(p))
	norm2 := d.Dot(d)
	if norm2 == 0 {
		return 0
	}
	return toVec(pt).Sub(toVec(p)).Dot(d) / norm2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// offsetCurve returns line shifted by given distance. Positive distance shifts to the left
// of the line direction, negative one to the right.
func offsetCurve(line orb.LineString, distance float64) orb.LineString {
	var result orb.LineString
	var segments [][2]orb.Point

	for i := 1; i < len(line); i++ {
		p1 := line[i-1]
		p2 := line[i]
		vec := toVec(p2).Sub(toVec(p1))
		if vec.Norm() == 0 {
			continue
		}
		offset := vec.Normalize().Ortho().Mul(distance)
		op1 := fromVec(toVec(p1).Add(offset))
		op2 := fromVec(toVec(p2).Add(offset))
		segments = append(segments, [2]orb.Point{op1, op2})
	}
	if len(segments) == 0 {
		return result
	}

	result = append(result, segments[0][0])
	for i := 1; i < len(segments); i++ {
		seg1 := segments[i-1]
		seg2 := segments[i]
		intersection, ok := lineIntersection(seg1[0], seg1[1], seg2[0], seg2[1])
		if !ok {
			// Collinear neighbours: joint point is shared
			result = append(result, seg1[1])
			continue
		}
		result = append(result, intersection)
	}
	result = append(result, segments[len(segments)-1][1])
	return result
}

// lineIntersection intersects infinite lines going through p1-p2 and p3-p4
func lineIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	a1 := p2[1] - p1[1]
	b1 := p1[0] - p2[0]
	c1 := a1*p1[0] + b1*p1[1]
	a2 := p4[1] - p3[1]
	b2 := p3[0] - p4[0]
	c2 := a2*p3[0] + b2*p3[1]
	det := a1*b2 - a2*b1
	if math.Abs(det) < epsilon {
		return orb.Point{}, false
	}
	return orb.Point{(b2*c1 - b1*c2) / det, (a1*c2 - a2*c1) / det}, true
}

func distance(p, q orb.Point) float64 {
	return toVec(q).Sub(toVec(p)).Norm()
}

// pointOnSegment returns a point on given segment using distance from p
func pointOnSegment(p, q orb.Point, dist float64) orb.Point {
	segLen := distance(p, q)
	if segLen == 0 {
		return p
	}
	fraction := dist / segLen
	return orb.Point{
		(1-fraction)*p[0] + fraction*q[0],
		(1-fraction)*p[1] + fraction*q[1],
	}
}

// pointAlong returns point located at given distance along the line.
// Distances outside [0, length] are clamped to the line ends.
func pointAlong(line orb.LineString, dist float64) orb.Point {
	if dist <= 0 {
		return line[0]
	}
	cl := 0.0
	for i := 1; i < len(line); i++ {
		segLen := distance(line[i-1], line[i])
		if cl+segLen >= dist {
			return pointOnSegment(line[i-1], line[i], dist-cl)
		}
		cl += segLen
	}
	return line[len(line)-1]
}

// projectOnLine returns distance along the line of the closest location to pt,
// the closest location itself and the distance from pt to it
func projectOnLine(line orb.LineString, pt orb.Point) (float64, orb.Point, float64) {
	bestAlong, bestDist := 0.0, math.Inf(1)
	bestPt := line[0]
	cl := 0.0
	for i := 1; i < len(line); i++ {
		p, q := line[i-1], line[i]
		segLen := distance(p, q)
		t := clamp01(segmentParam(p, q, pt))
		candidate := pointOnSegment(p, q, t*segLen)
		d := distance(candidate, pt)
		if d < bestDist {
			bestDist = d
			bestPt = candidate
			bestAlong = cl + t*segLen
		}
		cl += segLen
	}
	return bestAlong, bestPt, bestDist
}

// substring returns part of line between two distances along it
func substring(line orb.LineString, from, to float64) orb.LineString {
	if from > to {
		from, to = to, from
	}
	result := orb.LineString{pointAlong(line, from)}
	cl := 0.0
	for i := 1; i < len(line); i++ {
		cl += distance(line[i-1], line[i])
		if cl > from+epsilon && cl < to-epsilon {
			result = append(result, line[i])
		}
	}
	end := pointAlong(line, to)
	if !result[len(result)-1].Equal(end) {
		result = append(result, end)
	}
	return result
}

// splitLineAtDistances cuts line at sorted distances along it. Cuts closer than epsilon to
// line ends or to each other are ignored, so no zero-length pieces are produced.
func splitLineAtDistances(line orb.LineString, cuts []float64) []orb.LineString {
	total := planar.Length(line)
	pieces := make([]orb.LineString, 0, len(cuts)+1)
	prev := 0.0
	for _, cut := range cuts {
		if cut <= prev+epsilon || cut >= total-epsilon {
			continue
		}
		pieces = append(pieces, substring(line, prev, cut))
		prev = cut
	}
	pieces = append(pieces, substring(line, prev, total))
	return pieces
}

// reverseLine reverses order of points in given line. Returns new slice
func reverseLine(pts orb.LineString) orb.LineString {
	inputLen := len(pts)
	output := make(orb.LineString, inputLen)
	for i, n := range pts {
		output[inputLen-i-1] = n
	}
	return output
}

func toVec(pt orb.Point) r2.Point {
	return r2.Point{X: pt[0], Y: pt[1]}
}

func fromVec(v r2.Point) orb.Point {
	return orb.Point{v.X, v.Y}
}
