// Package display holds the coordinate-space math and screen capture for
// the computer tool: a fixed logical resolution the controller operates
// in, scaling to and from the physical display, and capture normalized to
// the logical space.
package display

import "math"

// The fixed logical resolution controllers operate in, independent of the
// actual display size.
const (
	LogicalWidth  = 1280
	LogicalHeight = 800
)

// Scaler converts coordinates between the logical space and the physical
// display. It is immutable after construction and safe to copy.
//
// Both directions round to the nearest integer (half away from zero), so
// composing ToPhysical with ToLogical need not reproduce the input for
// non-integral scale factors. That loss is accepted; callers must not
// rely on exact round-trips.
type Scaler struct {
	logicalW, logicalH   int
	physicalW, physicalH int
	scaleX, scaleY       float64
	enabled              bool
}

// NewScaler builds an enabled scaler mapping the fixed logical resolution
// onto a physical display of the given size.
func NewScaler(physicalW, physicalH int) Scaler {
	return Scaler{
		logicalW:  LogicalWidth,
		logicalH:  LogicalHeight,
		physicalW: physicalW,
		physicalH: physicalH,
		scaleX:    float64(physicalW) / float64(LogicalWidth),
		scaleY:    float64(physicalH) / float64(LogicalHeight),
		enabled:   true,
	}
}

// IdentityScaler builds a disabled scaler whose logical and physical
// spaces are both w×h. Used when scaling is turned off and in headless
// test environments.
func IdentityScaler(w, h int) Scaler {
	return Scaler{
		logicalW:  w,
		logicalH:  h,
		physicalW: w,
		physicalH: h,
		scaleX:    1,
		scaleY:    1,
	}
}

// Enabled reports whether coordinates are being scaled.
func (s Scaler) Enabled() bool { return s.enabled }

// LogicalSize returns the logical resolution.
func (s Scaler) LogicalSize() (w, h int) { return s.logicalW, s.logicalH }

// PhysicalSize returns the physical resolution.
func (s Scaler) PhysicalSize() (w, h int) { return s.physicalW, s.physicalH }

// ToPhysical maps a logical coordinate onto the physical display. It does
// no bounds checking; callers validate against the logical bounds first.
func (s Scaler) ToPhysical(x, y int) (int, int) {
	if !s.enabled {
		return x, y
	}
	px := int(math.Round(float64(x) * s.scaleX))
	py := int(math.Round(float64(y) * s.scaleY))
	return px, py
}

// ToLogical maps a physical display coordinate back into logical space.
func (s Scaler) ToLogical(x, y int) (int, int) {
	if !s.enabled {
		return x, y
	}
	lx := int(math.Round(float64(x) / s.scaleX))
	ly := int(math.Round(float64(y) / s.scaleY))
	return lx, ly
}
