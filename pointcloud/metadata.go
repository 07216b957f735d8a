package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	HasColor   bool
	ValidCount int

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData creates a new MetaData with bounds that any point will widen.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the bounds with a valid point.
func (meta *MetaData) Merge(v r3.Vector) {
	meta.ValidCount++

	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}
}

// MetaData computes the bounds of the valid points.
func (pc *PointCloud) MetaData() MetaData {
	meta := NewMetaData()
	meta.HasColor = pc.HasColor()
	pc.Iterate(func(_ int, p Point) bool {
		if p.IsValid() {
			meta.Merge(p.Vector())
		}
		return true
	})
	return meta
}

// Bounds returns the corners of the box around the valid points, or false when there are none.
func (meta *MetaData) Bounds() (r3.Vector, r3.Vector, bool) {
	if meta.ValidCount == 0 {
		return r3.Vector{}, r3.Vector{}, false
	}
	return r3.Vector{X: meta.MinX, Y: meta.MinY, Z: meta.MinZ},
		r3.Vector{X: meta.MaxX, Y: meta.MaxY, Z: meta.MaxZ}, true
}

// Box is an axis aligned box in the camera optical frame.
type Box struct {
	Min r3.Vector `json:"min"`
	Max r3.Vector `json:"max"`
}

// Summary describes the depth distribution of a cloud's valid points.
type Summary struct {
	Points     int     `json:"points"`
	Valid      int     `json:"valid"`
	ValidRatio float64 `json:"valid_ratio"`
	MinDepth   float64 `json:"min_depth"`
	MaxDepth   float64 `json:"max_depth"`
	MeanDepth  float64 `json:"mean_depth"`
	Median     float64 `json:"median_depth"`
	StdDev     float64 `json:"stddev_depth"`
	Bounds     *Box    `json:"bounds,omitempty"`
}

// Summarize computes depth statistics and bounds over the valid points. Both stay zero when
// no point is valid.
func Summarize(pc *PointCloud) (Summary, error) {
	summary := Summary{Points: pc.Size()}
	meta := pc.MetaData()
	summary.Valid = meta.ValidCount
	if summary.Points > 0 {
		summary.ValidRatio = float64(summary.Valid) / float64(summary.Points)
	}
	lo, hi, ok := meta.Bounds()
	if !ok {
		return summary, nil
	}
	summary.Bounds = &Box{Min: lo, Max: hi}

	depths := make(stats.Float64Data, 0, meta.ValidCount)
	pc.Iterate(func(_ int, p Point) bool {
		if p.IsValid() {
			depths = append(depths, float64(p.Z))
		}
		return true
	})

	var err error
	if summary.MinDepth, err = depths.Min(); err != nil {
		return summary, err
	}
	if summary.MaxDepth, err = depths.Max(); err != nil {
		return summary, err
	}
	if summary.MeanDepth, err = depths.Mean(); err != nil {
		return summary, err
	}
	if summary.Median, err = depths.Median(); err != nil {
		return summary, err
	}
	if summary.StdDev, err = depths.StandardDeviation(); err != nil {
		return summary, err
	}
	return summary, nil
}
