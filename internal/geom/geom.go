// Package geom converts between world and screen coordinates for the canvas
// camera and implements zoom-to-cursor and panning math.
package geom

import "math"

// Scale bounds and default wheel sensitivity for the canvas camera.
const (
	MinScale        = 0.6
	MaxScale        = 20.0
	ZoomSensitivity = 0.1
)

// Point is a 2D coordinate, either in world or screen space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p minus q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p multiplied by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Size is the extent of a container in screen pixels.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Empty reports whether either dimension is zero or negative.
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Bounds returns the smallest rectangle enclosing all rects.
// Returns the zero Rect when rects is empty.
func Bounds(rects []Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	minX, minY := rects[0].X, rects[0].Y
	maxX, maxY := rects[0].X+rects[0].W, rects[0].Y+rects[0].H
	for _, r := range rects[1:] {
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.X+r.W)
		maxY = math.Max(maxY, r.Y+r.H)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// View is the camera transform: a translation in screen pixels and a scale.
type View struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// DefaultView is the identity camera.
func DefaultView() View {
	return View{X: 0, Y: 0, Scale: 1}
}

// WorldToScreen maps a world point onto the screen through v.
func WorldToScreen(p Point, v View) Point {
	return Point{X: p.X*v.Scale + v.X, Y: p.Y*v.Scale + v.Y}
}

// ScreenToWorld maps a screen point back into world space through v.
func ScreenToWorld(p Point, v View) Point {
	return Point{X: (p.X - v.X) / v.Scale, Y: (p.Y - v.Y) / v.Scale}
}

// Clamp limits scale to [min, max].
func Clamp(scale, min, max float64) float64 {
	return math.Max(min, math.Min(max, scale))
}
