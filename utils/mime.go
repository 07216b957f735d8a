package utils

import (
	"path/filepath"
	"strings"
)

const (
	// MimeTypeRawRGB is an uncompressed, row-major image message with its encoding carried alongside.
	MimeTypeRawRGB = "image/raw-rgb"

	// MimeTypeRawDepth is an uncompressed 16UC1 depth image message.
	MimeTypeRawDepth = "image/raw-depth"

	// MimeTypeJPEG is regular jpgs.
	MimeTypeJPEG = "image/jpeg"

	// MimeTypePNG is regular pngs.
	MimeTypePNG = "image/png"

	// MimeTypeTIFF is tiff, useful for lossless 16 bit depth.
	MimeTypeTIFF = "image/tiff"

	// MimeTypePPM is the netpbm portable pixmap format.
	MimeTypePPM = "image/x-portable-pixmap"

	// MimeTypeQOI is for .qoi "Quite OK Image" for lossless, fast encoding/decoding.
	MimeTypeQOI = "image/qoi"

	// MimeTypePCD is for .pcd pointcloud files.
	MimeTypePCD = "pointcloud/pcd"
)

var extensionMimeTypes = map[string]string{
	".jpg":  MimeTypeJPEG,
	".jpeg": MimeTypeJPEG,
	".png":  MimeTypePNG,
	".tif":  MimeTypeTIFF,
	".tiff": MimeTypeTIFF,
	".ppm":  MimeTypePPM,
	".qoi":  MimeTypeQOI,
	".pcd":  MimeTypePCD,
}

// MimeTypeFromPath guesses a mime type from a file extension. It returns the empty string when
// the extension is unknown.
func MimeTypeFromPath(path string) string {
	return extensionMimeTypes[strings.ToLower(filepath.Ext(path))]
}

// ExtensionForMimeType returns the file extension (with dot) written for the given mime type.
func ExtensionForMimeType(mimeType string) string {
	switch mimeType {
	case MimeTypeJPEG:
		return ".jpg"
	case MimeTypePNG:
		return ".png"
	case MimeTypeTIFF:
		return ".tiff"
	case MimeTypePPM:
		return ".ppm"
	case MimeTypeQOI:
		return ".qoi"
	case MimeTypePCD:
		return ".pcd"
	default:
		return ".bin"
	}
}
