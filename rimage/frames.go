package rimage

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// ErrSizeMismatch is returned when a buffer's length does not agree with its declared dimensions.
var ErrSizeMismatch = errors.New("buffer size does not match declared dimensions")

// NewSizeMismatchError wraps ErrSizeMismatch with the offending sizes.
func NewSizeMismatchError(what string, got, expected int) error {
	return errors.Wrapf(ErrSizeMismatch, "%s has %d elements, expected %d", what, got, expected)
}

// DepthFrame is a row-major buffer of depth samples in meters along the optical axis, as
// rendered by the simulator for one tick. The pipeline only ever reads it.
type DepthFrame struct {
	Rows int
	Cols int
	Data []float32
}

// NewDepthFrame returns a zeroed depth frame of the given size.
func NewDepthFrame(rows, cols int) *DepthFrame {
	return &DepthFrame{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// Validate checks that the buffer holds exactly Rows*Cols samples.
func (df *DepthFrame) Validate() error {
	if df == nil {
		return errors.Wrap(ErrSizeMismatch, "depth frame is nil")
	}
	if df.Rows < 0 || df.Cols < 0 || (df.Cols != 0 && df.Rows > math.MaxInt/df.Cols) {
		return errors.Wrapf(ErrSizeMismatch, "invalid depth frame size (%d, %d)", df.Rows, df.Cols)
	}
	if len(df.Data) != df.Rows*df.Cols {
		return NewSizeMismatchError("depth frame", len(df.Data), df.Rows*df.Cols)
	}
	return nil
}

// At returns the sample at the given row and column.
func (df *DepthFrame) At(row, col int) float32 {
	return df.Data[row*df.Cols+col]
}

// Set sets the sample at the given row and column.
func (df *DepthFrame) Set(row, col int, d float32) {
	df.Data[row*df.Cols+col] = d
}

// PixelFormat is the pixel layout a rendering camera reports for its buffer.
type PixelFormat string

// Pixel formats produced by the simulator's cameras.
const (
	PixelFormatRGB8 = PixelFormat("RGB_INT8")
	PixelFormatL8   = PixelFormat("L_INT8")
)

// Channels returns the number of bytes per pixel, or 0 for an unknown format.
func (pf PixelFormat) Channels() int {
	switch pf {
	case PixelFormatRGB8:
		return 3
	case PixelFormatL8:
		return 1
	default:
		return 0
	}
}

// ColorFrame is an interleaved 8-bit image from a color or infrared camera. Data may be
// empty or sized for a different layout; consumers decide what that means.
type ColorFrame struct {
	Width  int
	Height int
	Format PixelFormat
	Data   []byte
}

// NewColorFrame returns a zeroed frame of the given size and format.
func NewColorFrame(width, height int, format PixelFormat) *ColorFrame {
	return &ColorFrame{
		Width:  width,
		Height: height,
		Format: format,
		Data:   make([]byte, width*height*format.Channels()),
	}
}

// Len is the number of bytes in the frame, 0 for a nil frame.
func (cf *ColorFrame) Len() int {
	if cf == nil {
		return 0
	}
	return len(cf.Data)
}

// ReadDepthFrame reads rows*cols little-endian float32 samples, the layout the simulator dumps
// its depth buffer in.
func ReadDepthFrame(r io.Reader, rows, cols int) (*DepthFrame, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("bad width or height for depth frame %v %v", cols, rows)
	}
	df := NewDepthFrame(rows, cols)
	in := bufio.NewReader(r)
	buf := make([]byte, 4)
	for i := range df.Data {
		if _, err := io.ReadFull(in, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, NewSizeMismatchError("depth dump", i, rows*cols)
			}
			return nil, err
		}
		df.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
	}
	return df, nil
}

// WriteDepthFrame writes the samples in the layout ReadDepthFrame expects.
func WriteDepthFrame(w io.Writer, df *DepthFrame) error {
	if err := df.Validate(); err != nil {
		return err
	}
	out := bufio.NewWriter(w)
	buf := make([]byte, 4)
	for _, d := range df.Data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(d))
		if _, err := out.Write(buf); err != nil {
			return err
		}
	}
	return out.Flush()
}

// ReadColorFrame reads a raw interleaved image dump of the given size and format.
func ReadColorFrame(r io.Reader, width, height int, format PixelFormat) (*ColorFrame, error) {
	if format.Channels() == 0 {
		return nil, NewUnsupportedFormatError(string(format))
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("bad width or height for color frame %v %v", width, height)
	}
	cf := NewColorFrame(width, height, format)
	n, err := io.ReadFull(r, cf.Data)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, NewSizeMismatchError("color dump", n, len(cf.Data))
		}
		return nil, err
	}
	return cf, nil
}
