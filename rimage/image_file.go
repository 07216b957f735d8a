package rimage

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"
	"golang.org/x/image/tiff"

	"go.viam.com/depthsim/utils"
)

// EncodeImage encodes the given image into bytes of the given mime type. PNG and TIFF keep
// 16 bit depth samples.
func EncodeImage(ctx context.Context, img image.Image, mimeType string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errors.New("cannot encode nil image")
	}
	var buf bytes.Buffer
	var err error
	switch mimeType {
	case utils.MimeTypePNG:
		err = png.Encode(&buf, img)
	case utils.MimeTypeJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case utils.MimeTypeTIFF:
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	case utils.MimeTypePPM:
		err = ppm.Encode(&buf, img)
	case utils.MimeTypeQOI:
		err = qoi.Encode(&buf, img)
	default:
		return nil, NewUnsupportedFormatError(mimeType)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not encode image with encoding %s", mimeType)
	}
	return buf.Bytes(), nil
}

// DecodeImage decodes bytes of the given mime type into an image.
func DecodeImage(ctx context.Context, data []byte, mimeType string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := bytes.NewReader(data)
	var img image.Image
	var err error
	switch mimeType {
	case utils.MimeTypePNG:
		img, err = png.Decode(r)
	case utils.MimeTypeJPEG:
		img, err = jpeg.Decode(r)
	case utils.MimeTypeTIFF:
		img, err = tiff.Decode(r)
	case utils.MimeTypePPM:
		img, err = ppm.Decode(r)
	case utils.MimeTypeQOI:
		img, err = qoi.Decode(r)
	default:
		return nil, NewUnsupportedFormatError(mimeType)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode %s image", mimeType)
	}
	return img, nil
}

// EncodeImageBuffer converts a raw image message and encodes it.
func EncodeImageBuffer(ctx context.Context, ib *ImageBuffer, mimeType string) ([]byte, error) {
	img, err := ib.Image()
	if err != nil {
		return nil, err
	}
	return EncodeImage(ctx, img, mimeType)
}
