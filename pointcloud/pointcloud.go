// Package pointcloud turns simulated depth frames into organized point clouds.
//
// A PointCloud keeps the shape of the depth frame it was built from: Width is the number of
// columns, Height the number of rows, and point i corresponds to depth sample i. Points are
// stored interleaved in a little-endian byte buffer compatible with PointCloud2 consumers.
package pointcloud

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/depthsim/rimage"
	"go.viam.com/depthsim/utils"
)

// FieldType is the datatype of a PointField, numbered as in sensor_msgs/PointField.
type FieldType uint8

// Field types.
const (
	FieldTypeUint8   FieldType = 2
	FieldTypeFloat32 FieldType = 7
)

// PointField describes one named channel of each point in the buffer.
type PointField struct {
	Name     string    `json:"name"`
	Offset   int       `json:"offset"`
	Datatype FieldType `json:"datatype"`
	Count    int       `json:"count"`
}

// Buffer layout. Positions are padded to 16 bytes; color adds a 16 byte block whose first
// three bytes are R, G and B.
const (
	offsetX   = 0
	offsetY   = 4
	offsetZ   = 8
	offsetRGB = 16

	PointStepXYZ    = 16
	PointStepXYZRGB = 32
)

var (
	fieldsXYZ = []PointField{
		{Name: "x", Offset: offsetX, Datatype: FieldTypeFloat32, Count: 1},
		{Name: "y", Offset: offsetY, Datatype: FieldTypeFloat32, Count: 1},
		{Name: "z", Offset: offsetZ, Datatype: FieldTypeFloat32, Count: 1},
	}
	fieldsXYZRGB = append(append([]PointField{}, fieldsXYZ...),
		PointField{Name: "rgb", Offset: offsetRGB, Datatype: FieldTypeFloat32, Count: 1})
)

// PointCloud is an organized cloud. A cloud returned by the builder belongs to the caller
// until it hands it off; the builder keeps no reference to it.
type PointCloud struct {
	Header    utils.Header `json:"header"`
	Height    int          `json:"height"`
	Width     int          `json:"width"`
	Fields    []PointField `json:"fields"`
	PointStep int          `json:"point_step"`
	RowStep   int          `json:"row_step"`
	// IsDense is true iff every point is valid.
	IsDense bool   `json:"is_dense"`
	Data    []byte `json:"-"`

	// per-column tangents reused between builds
	tanYaw []float64
}

// bufferSize returns the byte length of height rows of width points of pointStep bytes.
func bufferSize(width, height, pointStep int) (int, error) {
	if width < 0 || height < 0 || (width != 0 && pointStep > math.MaxInt/width) {
		return 0, errors.Wrapf(rimage.ErrSizeMismatch, "invalid point cloud size (%d, %d)", width, height)
	}
	rowStep := pointStep * width
	if rowStep != 0 && height > math.MaxInt/rowStep {
		return 0, errors.Wrapf(rimage.ErrSizeMismatch, "invalid point cloud size (%d, %d)", width, height)
	}
	return rowStep * height, nil
}

// reset shapes the cloud for a new build, reusing the capacity of its buffers. The cloud is
// left untouched when the size does not fit in memory.
func (pc *PointCloud) reset(width, height int, color bool) error {
	fields, step := fieldsXYZ, PointStepXYZ
	if color {
		fields, step = fieldsXYZRGB, PointStepXYZRGB
	}
	n, err := bufferSize(width, height, step)
	if err != nil {
		return err
	}

	pc.Header = utils.Header{}
	pc.Width = width
	pc.Height = height
	pc.Fields = fields
	pc.PointStep = step
	pc.RowStep = step * width
	pc.IsDense = true

	if cap(pc.Data) < n {
		pc.Data = make([]byte, n)
	} else {
		pc.Data = pc.Data[:n]
		clear(pc.Data)
	}
	return nil
}

// Size returns the number of points, valid or not.
func (pc *PointCloud) Size() int {
	return pc.Width * pc.Height
}

// HasColor reports whether the points carry an rgb field.
func (pc *PointCloud) HasColor() bool {
	return pc.PointStep == PointStepXYZRGB
}

// At decodes point i in row-major order.
func (pc *PointCloud) At(i int) Point {
	buf := pc.Data[i*pc.PointStep : (i+1)*pc.PointStep]
	p := Point{
		X: math.Float32frombits(binary.LittleEndian.Uint32(buf[offsetX:])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(buf[offsetY:])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(buf[offsetZ:])),
	}
	if pc.HasColor() {
		p.R, p.G, p.B = buf[offsetRGB], buf[offsetRGB+1], buf[offsetRGB+2]
	}
	return p
}

// AtRowCol decodes the point built from the depth sample at the given row and column.
func (pc *PointCloud) AtRowCol(row, col int) Point {
	return pc.At(row*pc.Width + col)
}

// Iterate calls fn for every point in row-major order until fn returns false.
func (pc *PointCloud) Iterate(fn func(i int, p Point) bool) {
	for i := 0; i < pc.Size(); i++ {
		if !fn(i, pc.At(i)) {
			return
		}
	}
}

// Clone returns a deep copy that shares nothing with pc. Transports that cannot finish with a
// cloud before the next tick must clone it.
func (pc *PointCloud) Clone() *PointCloud {
	clone := *pc
	clone.Fields = append([]PointField(nil), pc.Fields...)
	clone.Data = append([]byte(nil), pc.Data...)
	clone.tanYaw = nil
	return &clone
}

func putFloat32(buf []byte, f float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
}
