package rimage

import (
	"encoding/binary"
	"image"

	"github.com/pkg/errors"

	"go.viam.com/depthsim/utils"
)

// ErrUnsupportedFormat is returned for pixel formats or encodings the pipeline cannot carry.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// NewUnsupportedFormatError wraps ErrUnsupportedFormat with the format name.
func NewUnsupportedFormatError(format string) error {
	return errors.Wrapf(ErrUnsupportedFormat, "%q", format)
}

// Encodings of raw image messages.
const (
	EncodingRGB8  = "rgb8"
	Encoding8UC1  = "8UC1"
	Encoding16UC1 = "16UC1"
)

// EncodingForFormat maps a camera pixel format to the encoding of its image messages.
func EncodingForFormat(format PixelFormat) (string, error) {
	switch format {
	case PixelFormatRGB8:
		return EncodingRGB8, nil
	case PixelFormatL8:
		return Encoding8UC1, nil
	default:
		return "", NewUnsupportedFormatError(string(format))
	}
}

func bytesPerPixel(encoding string) int {
	switch encoding {
	case EncodingRGB8:
		return 3
	case Encoding8UC1:
		return 1
	case Encoding16UC1:
		return 2
	default:
		return 0
	}
}

// ImageBuffer is a raw, uncompressed image message: row-major bytes plus the layout needed to
// interpret them. Multi-byte pixels are little-endian.
type ImageBuffer struct {
	Header      utils.Header `json:"header"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Encoding    string       `json:"encoding"`
	IsBigEndian bool         `json:"is_bigendian"`
	Step        int          `json:"step"`
	Data        []byte       `json:"-"`
}

// FillImage copies data into a new image message after checking it holds height rows of step
// bytes. The caller keeps ownership of data.
func FillImage(header utils.Header, encoding string, height, width, step int, data []byte) (*ImageBuffer, error) {
	bpp := bytesPerPixel(encoding)
	if bpp == 0 {
		return nil, NewUnsupportedFormatError(encoding)
	}
	if height < 0 || width < 0 || step < width*bpp {
		return nil, errors.Wrapf(ErrSizeMismatch, "invalid image layout %dx%d step %d for %s", width, height, step, encoding)
	}
	if len(data) != height*step {
		return nil, NewSizeMismatchError(encoding+" image", len(data), height*step)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &ImageBuffer{
		Header:   header,
		Height:   height,
		Width:    width,
		Encoding: encoding,
		Step:     step,
		Data:     buf,
	}, nil
}

// ImageBufferFromColorFrame fills an image message from a camera frame.
func ImageBufferFromColorFrame(header utils.Header, frame *ColorFrame) (*ImageBuffer, error) {
	if frame == nil {
		return nil, errors.New("color frame is nil")
	}
	encoding, err := EncodingForFormat(frame.Format)
	if err != nil {
		return nil, err
	}
	step := frame.Format.Channels() * frame.Width
	return FillImage(header, encoding, frame.Height, frame.Width, step, frame.Data)
}

// Image converts the message to a standard library image for encoding.
func (ib *ImageBuffer) Image() (image.Image, error) {
	rect := image.Rect(0, 0, ib.Width, ib.Height)
	switch ib.Encoding {
	case EncodingRGB8:
		img := image.NewNRGBA(rect)
		for y := 0; y < ib.Height; y++ {
			row := ib.Data[y*ib.Step:]
			for x := 0; x < ib.Width; x++ {
				o := img.PixOffset(x, y)
				img.Pix[o+0] = row[3*x+0]
				img.Pix[o+1] = row[3*x+1]
				img.Pix[o+2] = row[3*x+2]
				img.Pix[o+3] = 255
			}
		}
		return img, nil
	case Encoding8UC1:
		img := image.NewGray(rect)
		for y := 0; y < ib.Height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+ib.Width], ib.Data[y*ib.Step:])
		}
		return img, nil
	case Encoding16UC1:
		img := image.NewGray16(rect)
		for y := 0; y < ib.Height; y++ {
			row := ib.Data[y*ib.Step:]
			for x := 0; x < ib.Width; x++ {
				v := binary.LittleEndian.Uint16(row[2*x:])
				if ib.IsBigEndian {
					v = binary.BigEndian.Uint16(row[2*x:])
				}
				// image.Gray16 stores big-endian samples.
				binary.BigEndian.PutUint16(img.Pix[img.PixOffset(x, y):], v)
			}
		}
		return img, nil
	default:
		return nil, NewUnsupportedFormatError(ib.Encoding)
	}
}
