package transform

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidIntrinsics is returned when dimensions or field of view cannot describe a pinhole camera.
var ErrInvalidIntrinsics = errors.New("invalid camera intrinsic parameters")

// NewInvalidIntrinsicsError wraps ErrInvalidIntrinsics with details.
func NewInvalidIntrinsicsError(msg string) error {
	return errors.Wrap(ErrInvalidIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
// Values derived by DeriveIntrinsics are never mutated afterwards.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckFOV validates image dimensions and horizontal field of view in radians.
func CheckFOV(width, height int, hfov float64) error {
	if width <= 0 || height <= 0 {
		return NewInvalidIntrinsicsError(fmt.Sprintf("invalid size (%#v, %#v)", width, height))
	}
	if math.IsNaN(hfov) || hfov <= 0 || hfov >= math.Pi {
		return NewInvalidIntrinsicsError(fmt.Sprintf("horizontal field of view %#v must be in (0, pi)", hfov))
	}
	return nil
}

// FocalLength returns the focal length in pixels of a pinhole camera with the given image
// width and horizontal field of view. Inputs are not checked.
func FocalLength(width int, hfov float64) float64 {
	return 0.5 * float64(width) / math.Tan(0.5*hfov)
}

// DeriveIntrinsics computes pinhole intrinsics with square pixels and the principal point at
// the image center from the image size and horizontal field of view in radians.
func DeriveIntrinsics(width, height int, hfov float64) (*PinholeCameraIntrinsics, error) {
	if err := CheckFOV(width, height, hfov); err != nil {
		return nil, err
	}
	focal := FocalLength(width, hfov)
	return &PinholeCameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     focal,
		Fy:     focal,
		Ppx:    float64(width) * 0.5,
		Ppy:    float64(height) * 0.5,
	}, nil
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewInvalidIntrinsicsError("intrinsics do not exist")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return NewInvalidIntrinsicsError(fmt.Sprintf("invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewInvalidIntrinsicsError(fmt.Sprintf("invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewInvalidIntrinsicsError(fmt.Sprintf("invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewInvalidIntrinsicsError(fmt.Sprintf("invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewInvalidIntrinsicsError(fmt.Sprintf("invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewPinholeCameraIntrinsicsFromJSONFile reads intrinsics of a camera calibrated outside the
// simulator, checking that they describe a pinhole camera.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading intrinsics")
	}
	intrinsics := &PinholeCameraIntrinsics{}
	if err := json.Unmarshal(data, intrinsics); err != nil {
		return nil, errors.Wrapf(err, "parsing intrinsics %q", jsonPath)
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	return intrinsics, nil
}

// CameraMatrix creates a new camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) CameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}

// ProjectionMatrix returns the 3x4 projection matrix of a monocular camera: the camera matrix
// with zero skew and a zero translation column.
// [[fx 0 ppx 0],
//
//	[0 fy ppy 0],
//	[0 0  1   0]]
func (params *PinholeCameraIntrinsics) ProjectionMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	projection := mat.NewDense(3, 4, nil)
	projection.Slice(0, 3, 0, 3).(*mat.Dense).Copy(params.CameraMatrix())
	return projection
}
