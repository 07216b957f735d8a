package rimage

import (
	"encoding/binary"
	"image"
	"math"

	"go.viam.com/depthsim/utils"
)

// DepthScaleMeters is the size in meters of one unit of Depth.
const DepthScaleMeters = 0.001

// MaxDepthMeters is the furthest distance a Depth can carry.
const MaxDepthMeters = DepthScaleMeters * math.MaxUint16

// Depth is the depth in millimeters. 0 means no reading.
type Depth uint16

// DepthMap is a row-major millimeter depth image.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns a zeroed depth map.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// MetersToDepth converts one float sample in meters to millimeters. Samples below minDepth,
// above maxDepth, negative, non-finite, or beyond what 16 bits can carry become 0.
func MetersToDepth(meters, minDepth, maxDepth float64) Depth {
	if math.IsNaN(meters) || meters < minDepth || meters > maxDepth || meters < 0 || meters > MaxDepthMeters {
		return 0
	}
	return Depth(meters / DepthScaleMeters)
}

// NewDepthMapFromFrame converts a float depth frame in meters to a millimeter depth map,
// clipping to [minDepth, maxDepth].
func NewDepthMapFromFrame(frame *DepthFrame, minDepth, maxDepth float64) (*DepthMap, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	dm := NewEmptyDepthMap(frame.Cols, frame.Rows)
	for i, d := range frame.Data {
		dm.data[i] = MetersToDepth(float64(d), minDepth, maxDepth)
	}
	return dm, nil
}

// Width returns the horizontal size of the map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical size of the map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the rectangle dimensions of the map.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// GetDepth returns the depth at the given pixel.
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[y*dm.width+x]
}

// Set sets the depth at the given pixel.
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[y*dm.width+x] = val
}

// MinMax returns the minimum and maximum non-zero depth in the map. Both are 0 when nothing
// was in range.
func (dm *DepthMap) MinMax() (Depth, Depth) {
	var lo, hi Depth = math.MaxUint16, 0
	for _, d := range dm.data {
		if d == 0 {
			continue
		}
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	if hi == 0 {
		return 0, 0
	}
	return lo, hi
}

// ToGray16 converts the map to a standard library 16 bit grayscale image.
func (dm *DepthMap) ToGray16() *image.Gray16 {
	img := image.NewGray16(dm.Bounds())
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			binary.BigEndian.PutUint16(img.Pix[img.PixOffset(x, y):], uint16(dm.GetDepth(x, y)))
		}
	}
	return img
}

// ToImageBuffer packs the map into a little-endian 16UC1 image message with step 2*width.
func (dm *DepthMap) ToImageBuffer(header utils.Header) *ImageBuffer {
	data := make([]byte, 2*len(dm.data))
	for i, d := range dm.data {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(d))
	}
	return &ImageBuffer{
		Header:   header,
		Height:   dm.height,
		Width:    dm.width,
		Encoding: Encoding16UC1,
		Step:     2 * dm.width,
		Data:     data,
	}
}
