package pointcloud

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidRange is returned for a validity range that cannot hold any depth.
var ErrInvalidRange = errors.New("invalid depth validity range")

// ValidityRange is the open interval of depths, in meters, that count as real measurements.
type ValidityRange struct {
	Min float64 `json:"min_depth"`
	Max float64 `json:"max_depth"`
}

// Validate checks 0 <= Min < Max with both finite.
func (r ValidityRange) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return errors.Wrapf(ErrInvalidRange, "bounds must be finite, got (%v, %v)", r.Min, r.Max)
	}
	if r.Min < 0 {
		return errors.Wrapf(ErrInvalidRange, "min depth %v is negative", r.Min)
	}
	if r.Min >= r.Max {
		return errors.Wrapf(ErrInvalidRange, "min depth %v must be less than max depth %v", r.Min, r.Max)
	}
	return nil
}

// Contains reports whether Min < d < Max. NaN is never contained.
func (r ValidityRange) Contains(d float64) bool {
	return d > r.Min && d < r.Max
}

// classify back-projects one depth sample through the tangents of its view angles. Samples
// outside the range yield the NaN sentinel and ok == false.
func classify(d, tanYaw, tanPitch float64, r ValidityRange) (x, y, z float32, ok bool) {
	if !r.Contains(d) {
		return nan, nan, nan, false
	}
	return float32(d * tanYaw), float32(d * tanPitch), float32(d), true
}
