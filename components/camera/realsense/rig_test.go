package realsense

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/depthsim/pointcloud"
	"go.viam.com/depthsim/rimage"
	"go.viam.com/depthsim/rimage/transform"
	"go.viam.com/depthsim/utils"
)

func testConfig() *Config {
	conf := DefaultConfig()
	conf.Depth.HorizontalFOV = 1.047
	conf.Color.HorizontalFOV = 1.047
	conf.RangeMinDepth = 0.1
	conf.RangeMaxDepth = 10
	return conf
}

func flatDepth(rows, cols int, d float32) *rimage.DepthFrame {
	df := rimage.NewDepthFrame(rows, cols)
	for i := range df.Data {
		df.Data[i] = d
	}
	return df
}

func TestNewRig(t *testing.T) {
	_, err := NewRig(nil)
	test.That(t, err, test.ShouldNotBeNil)

	conf := testConfig()
	conf.RangeMaxDepth = 0.05
	_, err = NewRig(conf)
	test.That(t, errors.Is(err, pointcloud.ErrInvalidRange), test.ShouldBeTrue)
}

func TestRigDepthFrame(t *testing.T) {
	rig, err := NewRig(testConfig())
	test.That(t, err, test.ShouldBeNil)
	stamp := utils.Stamp{Sec: 12, Nanosec: 345}

	depth := flatDepth(3, 4, 1.5)
	depth.Set(0, 0, 0.05)
	depth.Set(2, 3, 11)

	res, err := rig.OnDepthFrame(depth, nil, stamp, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Cloud, test.ShouldBeNil)

	test.That(t, res.Image.Encoding, test.ShouldEqual, rimage.Encoding16UC1)
	test.That(t, res.Image.Width, test.ShouldEqual, 4)
	test.That(t, res.Image.Height, test.ShouldEqual, 3)
	test.That(t, res.Image.Step, test.ShouldEqual, 8)
	test.That(t, res.Image.Header.Stamp, test.ShouldResemble, stamp)
	test.That(t, res.Image.Header.FrameID, test.ShouldEqual, "camera_depth_optical_frame")
	test.That(t, binary.LittleEndian.Uint16(res.Image.Data[0:]), test.ShouldEqual, 0)
	test.That(t, binary.LittleEndian.Uint16(res.Image.Data[2:]), test.ShouldEqual, 1500)
	test.That(t, binary.LittleEndian.Uint16(res.Image.Data[22:]), test.ShouldEqual, 0)

	test.That(t, res.Info.Header, test.ShouldResemble, res.Image.Header)
	test.That(t, res.Info.Width, test.ShouldEqual, 4)
	test.That(t, res.Info.Height, test.ShouldEqual, 3)
	test.That(t, res.Info.DistortionModel, test.ShouldEqual, transform.DistortionModelPlumbBob)
	test.That(t, res.Info.K[0], test.ShouldAlmostEqual, 3.464, 1e-3)
	test.That(t, res.Info.K[2], test.ShouldEqual, 2.0)
	test.That(t, res.Info.K[5], test.ShouldEqual, 1.5)

	var scratch pointcloud.PointCloud
	res, err = rig.OnDepthFrame(depth, nil, stamp, &scratch)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Cloud, test.ShouldEqual, &scratch)
	test.That(t, res.Cloud.Header, test.ShouldResemble, res.Image.Header)
	test.That(t, res.Cloud.Width, test.ShouldEqual, 4)
	test.That(t, res.Cloud.Height, test.ShouldEqual, 3)
	test.That(t, res.Cloud.IsDense, test.ShouldBeFalse)
	test.That(t, res.Cloud.HasColor(), test.ShouldBeFalse)
	test.That(t, res.Cloud.AtRowCol(0, 0).IsValid(), test.ShouldBeFalse)
	test.That(t, res.Cloud.AtRowCol(2, 3).IsValid(), test.ShouldBeFalse)
	test.That(t, res.Cloud.AtRowCol(1, 1).Z, test.ShouldEqual, float32(1.5))
}

func TestRigColoredCloud(t *testing.T) {
	conf := testConfig()
	conf.ColorCloud = true
	rig, err := NewRig(conf)
	test.That(t, err, test.ShouldBeNil)

	color := rimage.NewColorFrame(2, 2, rimage.PixelFormatL8)
	copy(color.Data, []byte{1, 2, 3, 4})
	res, err := rig.OnDepthFrame(flatDepth(2, 2, 1), color, utils.Stamp{}, &pointcloud.PointCloud{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Cloud.HasColor(), test.ShouldBeTrue)
	r, g, b := res.Cloud.At(3).RGB255()
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{4, 4, 4})
}

func TestRigDepthErrors(t *testing.T) {
	rig, err := NewRig(testConfig())
	test.That(t, err, test.ShouldBeNil)

	bad := &rimage.DepthFrame{Rows: 2, Cols: 2, Data: make([]float32, 3)}
	_, err = rig.OnDepthFrame(bad, nil, utils.Stamp{}, &pointcloud.PointCloud{})
	test.That(t, errors.Is(err, rimage.ErrSizeMismatch), test.ShouldBeTrue)

	_, err = rig.OnDepthFrame(rimage.NewDepthFrame(0, 0), nil, utils.Stamp{}, nil)
	test.That(t, errors.Is(err, transform.ErrInvalidIntrinsics), test.ShouldBeTrue)
}

func TestRigColorFrame(t *testing.T) {
	rig, err := NewRig(testConfig())
	test.That(t, err, test.ShouldBeNil)
	stamp := utils.Stamp{Sec: 1}

	rgb := rimage.NewColorFrame(4, 3, rimage.PixelFormatRGB8)
	for i := range rgb.Data {
		rgb.Data[i] = byte(i)
	}
	res, err := rig.OnColorFrame(ColorCamera, rgb, stamp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Image.Encoding, test.ShouldEqual, rimage.EncodingRGB8)
	test.That(t, res.Image.Step, test.ShouldEqual, 12)
	test.That(t, res.Image.Data, test.ShouldResemble, rgb.Data)
	test.That(t, res.Image.Header.FrameID, test.ShouldEqual, "camera_color_optical_frame")
	test.That(t, res.Info.K[0], test.ShouldAlmostEqual, 3.464, 1e-3)
	test.That(t, res.Info.P[3], test.ShouldEqual, 0)
	test.That(t, res.Info.P[10], test.ShouldEqual, 1)

	// the message owns its bytes
	rgb.Data[0] = 200
	test.That(t, res.Image.Data[0], test.ShouldEqual, 0)

	mono := rimage.NewColorFrame(4, 3, rimage.PixelFormatL8)
	res, err = rig.OnColorFrame(Infrared1Camera, mono, stamp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Image.Encoding, test.ShouldEqual, rimage.Encoding8UC1)
	test.That(t, res.Image.Step, test.ShouldEqual, 4)
	test.That(t, res.Image.Header.FrameID, test.ShouldEqual, "camera_left_ir_optical_frame")
	test.That(t, res.Info.K[0], test.ShouldAlmostEqual, 0.5*4/math.Tan(0.5*DefaultHorizontalFOV), 1e-9)
}

func TestRigColorFrameErrors(t *testing.T) {
	rig, err := NewRig(testConfig())
	test.That(t, err, test.ShouldBeNil)
	frame := rimage.NewColorFrame(2, 2, rimage.PixelFormatRGB8)

	_, err = rig.OnColorFrame(DepthCamera, frame, utils.Stamp{})
	test.That(t, errors.Is(err, ErrUnknownCameraID), test.ShouldBeTrue)
	_, err = rig.OnColorFrame(CameraID(7), frame, utils.Stamp{})
	test.That(t, errors.Is(err, ErrUnknownCameraID), test.ShouldBeTrue)

	_, err = rig.OnColorFrame(ColorCamera, nil, utils.Stamp{})
	test.That(t, err, test.ShouldNotBeNil)

	short := &rimage.ColorFrame{Width: 2, Height: 2, Format: rimage.PixelFormatRGB8, Data: make([]byte, 5)}
	_, err = rig.OnColorFrame(ColorCamera, short, utils.Stamp{})
	test.That(t, errors.Is(err, rimage.ErrSizeMismatch), test.ShouldBeTrue)

	bayer := &rimage.ColorFrame{Width: 2, Height: 2, Format: rimage.PixelFormat("BAYER_RGGB8"), Data: make([]byte, 4)}
	_, err = rig.OnColorFrame(ColorCamera, bayer, utils.Stamp{})
	test.That(t, errors.Is(err, rimage.ErrUnsupportedFormat), test.ShouldBeTrue)

	_, err = rig.OnColorFrame(ColorCamera, rimage.NewColorFrame(0, 2, rimage.PixelFormatRGB8), utils.Stamp{})
	test.That(t, errors.Is(err, transform.ErrInvalidIntrinsics), test.ShouldBeTrue)
}
