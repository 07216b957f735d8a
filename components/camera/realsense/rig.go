// Package realsense simulates the streams of an Intel RealSense rig: a color camera, two
// infrared cameras and a depth camera sharing one body pose.
package realsense

import (
	"github.com/pkg/errors"

	"go.viam.com/depthsim/pointcloud"
	"go.viam.com/depthsim/rimage"
	"go.viam.com/depthsim/rimage/transform"
	"go.viam.com/depthsim/utils"
)

// DepthResult is everything one depth frame produces.
type DepthResult struct {
	Image *rimage.ImageBuffer
	Info  *transform.CameraInfo
	// Cloud is nil unless a cloud was requested.
	Cloud *pointcloud.PointCloud
}

// ColorResult is everything one color or infrared frame produces.
type ColorResult struct {
	Image *rimage.ImageBuffer
	Info  *transform.CameraInfo
}

// Rig turns the raw frames of each camera into published messages. Each call works only on
// its arguments and the per-camera intrinsics cache; no frame data is kept between calls.
type Rig struct {
	conf   *Config
	caches [numCameras]transform.IntrinsicsCache
}

// NewRig returns a rig for a validated config.
func NewRig(conf *Config) (*Rig, error) {
	if conf == nil {
		return nil, errors.New("realsense config is nil")
	}
	if _, err := conf.Validate(""); err != nil {
		return nil, err
	}
	return &Rig{conf: conf}, nil
}

// Intrinsics returns the pinhole parameters of a camera rendering width x height pixels.
func (r *Rig) Intrinsics(id CameraID, width, height int) (*transform.PinholeCameraIntrinsics, error) {
	if !id.Valid() {
		return nil, NewUnknownCameraIDError(id)
	}
	return r.caches[id].Get(width, height, r.conf.Camera(id).HorizontalFOV)
}

// OnDepthFrame converts a depth frame to a 16UC1 image and its calibration. When cloud is not
// nil the point cloud is built into it, reusing its buffers, and returned in the result; the
// caller owns it until it hands it off. color is only read when the config asks for a colored
// cloud, and may be nil.
func (r *Rig) OnDepthFrame(
	depth *rimage.DepthFrame,
	color *rimage.ColorFrame,
	stamp utils.Stamp,
	cloud *pointcloud.PointCloud,
) (*DepthResult, error) {
	if err := depth.Validate(); err != nil {
		return nil, err
	}
	intrinsics, err := r.Intrinsics(DepthCamera, depth.Cols, depth.Rows)
	if err != nil {
		return nil, err
	}
	header := utils.Header{Stamp: stamp, FrameID: r.conf.Depth.OpticalFrame}

	dm, err := rimage.NewDepthMapFromFrame(depth, r.conf.RangeMinDepth, r.conf.RangeMaxDepth)
	if err != nil {
		return nil, err
	}
	res := &DepthResult{
		Image: dm.ToImageBuffer(header),
		Info:  transform.NewCameraInfo(header, intrinsics),
	}
	if cloud == nil {
		return res, nil
	}

	params := pointcloud.Params{
		Range:     r.conf.ValidityRange(),
		Focal:     intrinsics.Fx,
		FuseColor: r.conf.ColorCloud,
	}
	if res.Cloud, err = pointcloud.BuildInto(cloud, depth, color, params); err != nil {
		return nil, err
	}
	res.Cloud.Header = header
	return res, nil
}

// OnColorFrame copies an image camera's frame into a raw image message and derives its
// calibration. The frame's pixel format picks the encoding.
func (r *Rig) OnColorFrame(id CameraID, frame *rimage.ColorFrame, stamp utils.Stamp) (*ColorResult, error) {
	if !id.IsImageCamera() {
		return nil, NewUnknownCameraIDError(id)
	}
	if frame == nil {
		return nil, errors.Errorf("no frame rendered by %s camera", id)
	}
	intrinsics, err := r.Intrinsics(id, frame.Width, frame.Height)
	if err != nil {
		return nil, err
	}
	header := utils.Header{Stamp: stamp, FrameID: r.conf.Camera(id).OpticalFrame}
	img, err := rimage.ImageBufferFromColorFrame(header, frame)
	if err != nil {
		return nil, err
	}
	return &ColorResult{Image: img, Info: transform.NewCameraInfo(header, intrinsics)}, nil
}
