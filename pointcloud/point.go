package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// nan is the quiet NaN written for points outside the validity range. A fixed bit pattern
// keeps repeated builds byte-identical.
var nan = math.Float32frombits(0x7fc00000)

// Point is one decoded element of a PointCloud, in the camera optical frame (z forward).
// R, G and B are zero when the cloud carries no color.
type Point struct {
	X, Y, Z float32
	R, G, B uint8
}

// IsValid reports whether the point holds a real measurement rather than the NaN sentinel.
func (p Point) IsValid() bool {
	return !math.IsNaN(float64(p.X)) && !math.IsNaN(float64(p.Y)) && !math.IsNaN(float64(p.Z))
}

// Vector returns the position of the point.
func (p Point) Vector() r3.Vector {
	return r3.Vector{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

// RGB255 returns the color of the point.
func (p Point) RGB255() (uint8, uint8, uint8) {
	return p.R, p.G, p.B
}
