package realsense

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestCameraIDFromName(t *testing.T) {
	for name, expected := range map[string]CameraID{
		"realsense::rs200::color":   ColorCamera,
		"rs_ired1":                  Infrared1Camera,
		"model::link::ired2_sensor": Infrared2Camera,
		"camera_depth":              DepthCamera,
	} {
		id, err := CameraIDFromName(name)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, id, test.ShouldEqual, expected)
	}

	_, err := CameraIDFromName("thermal")
	test.That(t, errors.Is(err, ErrUnknownCameraID), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "thermal")
}

func TestCameraIDString(t *testing.T) {
	test.That(t, ColorCamera.String(), test.ShouldEqual, "color")
	test.That(t, Infrared1Camera.String(), test.ShouldEqual, "ired1")
	test.That(t, Infrared2Camera.String(), test.ShouldEqual, "ired2")
	test.That(t, DepthCamera.String(), test.ShouldEqual, "depth")
	test.That(t, CameraID(42).String(), test.ShouldEqual, "unknown")

	test.That(t, CameraID(42).Valid(), test.ShouldBeFalse)
	test.That(t, CameraID(-1).Valid(), test.ShouldBeFalse)
	test.That(t, DepthCamera.Valid(), test.ShouldBeTrue)
	test.That(t, DepthCamera.IsImageCamera(), test.ShouldBeFalse)
	test.That(t, Infrared2Camera.IsImageCamera(), test.ShouldBeTrue)

	for _, id := range AllCameras {
		parsed, err := CameraIDFromName("sensor_" + id.String())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, id)
	}
}
