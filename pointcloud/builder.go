package pointcloud

import (
	"fmt"
	"math"

	"go.viam.com/depthsim/rimage"
	"go.viam.com/depthsim/rimage/transform"
)

// Params are the per-camera settings of a build.
type Params struct {
	Range ValidityRange
	// Focal is the depth camera focal length in pixels.
	Focal float64
	// FuseColor adds an rgb field filled from the color frame.
	FuseColor bool
}

// colorLayout is how a color buffer is read, decided once per frame from its size.
type colorLayout int

const (
	// colorAbsent means no usable buffer; points get black.
	colorAbsent colorLayout = iota
	// colorRGB reads three interleaved bytes per pixel.
	colorRGB
	// colorMono replicates one byte per pixel into R, G and B.
	colorMono
)

func (l colorLayout) String() string {
	switch l {
	case colorRGB:
		return "rgb"
	case colorMono:
		return "mono"
	default:
		return "absent"
	}
}

func resolveColorLayout(color *rimage.ColorFrame, rows, cols int) colorLayout {
	n := color.Len()
	if n == 0 {
		return colorAbsent
	}
	switch n {
	case rows * cols * 3:
		return colorRGB
	case rows * cols:
		return colorMono
	default:
		return colorAbsent
	}
}

// Build projects a depth frame into a newly allocated organized point cloud.
func Build(depth *rimage.DepthFrame, color *rimage.ColorFrame, params Params) (*PointCloud, error) {
	return BuildInto(nil, depth, color, params)
}

// BuildInto projects a depth frame into dst, reusing its buffers, and returns it. A nil dst
// allocates a new cloud. On error dst is left untouched.
//
// Point i corresponds to depth sample i. With d in the validity range it is
// (d*tan(yaw), d*tan(pitch), d) where yaw = atan2(col-(cols-1)/2, focal) and
// pitch = atan2(row-(rows-1)/2, focal), each zero along a dimension of size one. Any other
// sample becomes (NaN, NaN, NaN) and clears IsDense.
//
// With FuseColor, a color buffer of rows*cols*3 bytes is read as RGB, one of rows*cols bytes as
// mono, and anything else (including nil) as black. A mismatched color buffer is not an error.
func BuildInto(dst *PointCloud, depth *rimage.DepthFrame, color *rimage.ColorFrame, params Params) (*PointCloud, error) {
	if err := depth.Validate(); err != nil {
		return nil, err
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	focal := params.Focal
	if math.IsNaN(focal) || math.IsInf(focal, 0) || focal <= 0 {
		return nil, transform.NewInvalidIntrinsicsError(fmt.Sprintf("invalid focal length %#v", focal))
	}
	if dst == nil {
		dst = &PointCloud{}
	}

	rows, cols := depth.Rows, depth.Cols
	if err := dst.reset(cols, rows, params.FuseColor); err != nil {
		return nil, err
	}
	dst.tanYaw = columnTangents(dst.tanYaw, cols, focal)
	step := dst.PointStep

	for j := 0; j < rows; j++ {
		pAngle := 0.0
		if rows > 1 {
			pAngle = math.Atan2(float64(j)-0.5*float64(rows-1), focal)
		}
		tanPitch := math.Tan(pAngle)
		rowOffset := j * cols
		for i := 0; i < cols; i++ {
			x, y, z, ok := classify(float64(depth.Data[rowOffset+i]), dst.tanYaw[i], tanPitch, params.Range)
			if !ok {
				dst.IsDense = false
			}
			buf := dst.Data[(rowOffset+i)*step:]
			putFloat32(buf[offsetX:], x)
			putFloat32(buf[offsetY:], y)
			putFloat32(buf[offsetZ:], z)
		}
	}

	if params.FuseColor {
		fillColor(dst, color, resolveColorLayout(color, rows, cols))
	}
	return dst, nil
}

// columnTangents returns tan(yaw) for every column, reusing buf.
func columnTangents(buf []float64, cols int, focal float64) []float64 {
	if cap(buf) < cols {
		buf = make([]float64, cols)
	}
	buf = buf[:cols]
	for i := range buf {
		yAngle := 0.0
		if cols > 1 {
			yAngle = math.Atan2(float64(i)-0.5*float64(cols-1), focal)
		}
		buf[i] = math.Tan(yAngle)
	}
	return buf
}

// fillColor writes the rgb block of every point. Absent color leaves the zeroed buffer as is.
func fillColor(pc *PointCloud, color *rimage.ColorFrame, layout colorLayout) {
	step := pc.PointStep
	switch layout {
	case colorRGB:
		for i := 0; i < pc.Size(); i++ {
			copy(pc.Data[i*step+offsetRGB:i*step+offsetRGB+3], color.Data[3*i:3*i+3])
		}
	case colorMono:
		for i, v := range color.Data {
			o := i*step + offsetRGB
			pc.Data[o], pc.Data[o+1], pc.Data[o+2] = v, v, v
		}
	}
}
