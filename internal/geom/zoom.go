package geom

// ZoomLimits bounds a zoom step.
type ZoomLimits struct {
	Min         float64
	Max         float64
	Sensitivity float64
}

// DefaultZoomLimits returns the stock scale range and wheel sensitivity.
func DefaultZoomLimits() ZoomLimits {
	return ZoomLimits{Min: MinScale, Max: MaxScale, Sensitivity: ZoomSensitivity}
}

// Zoom applies one wheel step at the screen position cursor.
//
// A negative deltaY (wheel up) zooms in. The scale changes by Sensitivity
// times the current scale and is clamped to the limits. When the clamped
// scale equals the current scale the view is returned unchanged with false.
// Otherwise the translation is recomputed so the world point under the
// cursor stays under the cursor.
func Zoom(v View, deltaY float64, cursor Point, lim ZoomLimits) (View, bool) {
	if deltaY == 0 {
		return v, false
	}
	dir := 1.0
	if deltaY > 0 {
		dir = -1.0
	}
	next := Clamp(v.Scale+dir*lim.Sensitivity*v.Scale, lim.Min, lim.Max)
	if next == v.Scale {
		return v, false
	}

	world := ScreenToWorld(cursor, v)
	return View{
		X:     cursor.X - world.X*next,
		Y:     cursor.Y - world.Y*next,
		Scale: next,
	}, true
}

// PanAnchor captures the offset between the pointer and the camera at drag start.
func PanAnchor(client Point, v View) Point {
	return Point{X: client.X - v.X, Y: client.Y - v.Y}
}

// Pan translates v so the anchor captured at drag start follows the pointer.
func Pan(client, anchor Point, v View) View {
	return View{X: client.X - anchor.X, Y: client.Y - anchor.Y, Scale: v.Scale}
}

// CenteredView returns a view at the given scale that centers content (in
// world units) inside viewport. It degrades to the identity view when either
// the viewport or the content has no extent.
func CenteredView(viewport Size, content Rect, scale float64) View {
	if viewport.Empty() || content.W <= 0 || content.H <= 0 || scale <= 0 {
		return DefaultView()
	}
	c := content.Center()
	return View{
		X:     viewport.W/2 - c.X*scale,
		Y:     viewport.H/2 - c.Y*scale,
		Scale: scale,
	}
}
