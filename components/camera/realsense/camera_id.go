package realsense

import (
	"strings"

	"github.com/pkg/errors"
)

// CameraID names one sub-camera of the rig. It is assigned when the camera is constructed so
// frames never need to be identified from their rendering names.
type CameraID int

// The sub-cameras of a rig.
const (
	ColorCamera CameraID = iota
	Infrared1Camera
	Infrared2Camera
	DepthCamera
	numCameras
)

// AllCameras lists every sub-camera in tick order.
var AllCameras = []CameraID{ColorCamera, Infrared1Camera, Infrared2Camera, DepthCamera}

// ErrUnknownCameraID is returned for frames tagged with a camera the rig does not have.
var ErrUnknownCameraID = errors.New("unknown camera id")

// NewUnknownCameraIDError wraps ErrUnknownCameraID with what the frame was tagged with.
func NewUnknownCameraIDError(tag any) error {
	return errors.Wrapf(ErrUnknownCameraID, "%v", tag)
}

// Rendering name fragments, as the simulator names the sensors of the rig.
const (
	colorCameraName = "color"
	ired1CameraName = "ired1"
	ired2CameraName = "ired2"
	depthCameraName = "depth"
)

func (id CameraID) String() string {
	switch id {
	case ColorCamera:
		return colorCameraName
	case Infrared1Camera:
		return ired1CameraName
	case Infrared2Camera:
		return ired2CameraName
	case DepthCamera:
		return depthCameraName
	default:
		return "unknown"
	}
}

// Valid reports whether id is one of the rig's cameras.
func (id CameraID) Valid() bool {
	return id >= ColorCamera && id < numCameras
}

// IsImageCamera reports whether the camera produces 8-bit images rather than depth.
func (id CameraID) IsImageCamera() bool {
	return id == ColorCamera || id == Infrared1Camera || id == Infrared2Camera
}

// CameraIDFromName identifies a camera by a fragment of the name the rendering engine gave it.
// It exists for engines that report nothing else; names matching no camera return
// ErrUnknownCameraID and the caller decides whether to drop the frame.
func CameraIDFromName(name string) (CameraID, error) {
	switch {
	case strings.Contains(name, colorCameraName):
		return ColorCamera, nil
	case strings.Contains(name, ired1CameraName):
		return Infrared1Camera, nil
	case strings.Contains(name, ired2CameraName):
		return Infrared2Camera, nil
	case strings.Contains(name, depthCameraName):
		return DepthCamera, nil
	default:
		return 0, NewUnknownCameraIDError(name)
	}
}
