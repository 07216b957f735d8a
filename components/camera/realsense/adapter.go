package realsense

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/depthsim/logging"
	"go.viam.com/depthsim/pointcloud"
	"go.viam.com/depthsim/rimage"
	"go.viam.com/depthsim/spatialmath"
	"go.viam.com/depthsim/utils"
)

// Engine is the rendering side of the simulator.
type Engine interface {
	// DepthFrame returns the depth camera's latest buffer in meters.
	DepthFrame(ctx context.Context) (*rimage.DepthFrame, error)
	// ColorFrame returns an image camera's latest buffer, or nil if it has not rendered one.
	ColorFrame(ctx context.Context, id CameraID) (*rimage.ColorFrame, error)
}

// A NamedEngine can serve the buffer of a camera it knows only by its rendering name. The
// unknown camera fallback reads frames through it when the engine implements it.
type NamedEngine interface {
	NamedColorFrame(ctx context.Context, name string) (*rimage.ColorFrame, error)
}

// A PoseSource reports where the rig's body is. Engines that implement it drive the pose
// output; otherwise the configured mount is published.
type PoseSource interface {
	Pose(ctx context.Context) (spatialmath.Pose, error)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock sets the clock driving Run's tickers.
func WithClock(clk clock.Clock) Option {
	return func(a *Adapter) {
		a.clock = clk
	}
}

// WithPoseSource sets where the rig's pose comes from.
func WithPoseSource(poses PoseSource) Option {
	return func(a *Adapter) {
		a.poses = poses
	}
}

// Adapter pulls frames from the engine on each camera's tick, runs them through the Rig and
// publishes the results. Ticks are handled one at a time; a failed tick publishes nothing and
// leaves the next one unaffected.
type Adapter struct {
	conf   *Config
	rig    *Rig
	engine Engine
	times  TimeSource
	sink   Sink
	poses  PoseSource
	clock  clock.Clock
	logger logging.Logger

	// scratch is lent to the builder and then the sink on every depth tick
	scratch pointcloud.PointCloud
}

// NewAdapter wires a rig to its collaborators.
func NewAdapter(
	conf *Config,
	engine Engine,
	times TimeSource,
	sink Sink,
	logger logging.Logger,
	opts ...Option,
) (*Adapter, error) {
	rig, err := NewRig(conf)
	if err != nil {
		return nil, err
	}
	if engine == nil || times == nil || sink == nil {
		return nil, errors.New("realsense adapter needs an engine, a time source and a sink")
	}
	a := &Adapter{
		conf:   conf,
		rig:    rig,
		engine: engine,
		times:  times,
		sink:   sink,
		clock:  clock.New(),
		logger: logger,
	}
	if poses, ok := engine.(PoseSource); ok {
		a.poses = poses
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// wantsCloud reports whether the depth tick should pay for a point cloud.
func (a *Adapter) wantsCloud() bool {
	return (a.conf.PointCloud && a.sink.Subscribers(a.conf.PointCloudTopic) > 0) || a.conf.ForceCloud
}

// disabled reports whether the camera is switched off, logging the skipped tick if so.
func (a *Adapter) disabled(id CameraID) bool {
	if cam := a.conf.Camera(id); cam != nil && cam.Disabled {
		a.logger.Debugw("skipping tick of disabled camera", "camera", id.String())
		return true
	}
	return false
}

// DepthTick publishes the depth image of the current frame and, when someone wants it, the
// point cloud. It does nothing when the depth camera is disabled.
func (a *Adapter) DepthTick(ctx context.Context) error {
	if a.disabled(DepthCamera) {
		return nil
	}
	err := a.depthTick(ctx)
	if err != nil {
		a.logger.Warnw("dropping frame", "camera", DepthCamera.String(), "error", err)
	}
	return err
}

func (a *Adapter) depthTick(ctx context.Context) error {
	depth, err := a.engine.DepthFrame(ctx)
	if err != nil {
		return errors.Wrap(err, "reading depth frame")
	}
	stamp := a.times.SimTime()

	var cloud *pointcloud.PointCloud
	var color *rimage.ColorFrame
	if a.wantsCloud() {
		cloud = &a.scratch
		if a.conf.ColorCloud {
			// a missing color frame only leaves the cloud black
			if color, err = a.engine.ColorFrame(ctx, ColorCamera); err != nil {
				a.logger.Debugw("no color for point cloud", "error", err)
				color = nil
			}
		}
	}

	res, err := a.rig.OnDepthFrame(depth, color, stamp, cloud)
	if err != nil {
		return err
	}
	if err := a.sink.PublishImage(ctx, a.conf.Depth.Topic, res.Image, res.Info); err != nil {
		return err
	}
	if res.Cloud == nil {
		return nil
	}
	if err := a.sink.PublishPointCloud(ctx, a.conf.PointCloudTopic, res.Cloud); err != nil {
		return err
	}
	a.logger.Debugw("published point cloud", "stamp", stamp.String(), "dense", res.Cloud.IsDense, "points", res.Cloud.Size())
	return nil
}

// ColorTick publishes the current frame of an image camera, preceded by the rig's pose when
// pose output is on. It does nothing when the camera is disabled.
func (a *Adapter) ColorTick(ctx context.Context, id CameraID) error {
	return a.imageTick(ctx, id, func() (*rimage.ColorFrame, error) {
		return a.engine.ColorFrame(ctx, id)
	})
}

func (a *Adapter) imageTick(ctx context.Context, id CameraID, read func() (*rimage.ColorFrame, error)) error {
	if !id.IsImageCamera() {
		err := NewUnknownCameraIDError(id)
		a.logger.Warnw("dropping frame", "camera", id.String(), "error", err)
		return err
	}
	if a.disabled(id) {
		return nil
	}
	err := a.colorTick(ctx, id, read)
	if err != nil {
		a.logger.Warnw("dropping frame", "camera", id.String(), "error", err)
	}
	return err
}

func (a *Adapter) colorTick(ctx context.Context, id CameraID, read func() (*rimage.ColorFrame, error)) error {
	frame, err := read()
	if err != nil {
		return errors.Wrapf(err, "reading %s frame", id)
	}
	stamp := a.times.SimTime()
	res, err := a.rig.OnColorFrame(id, frame, stamp)
	if err != nil {
		return err
	}

	if a.conf.Pose {
		if err := a.publishPose(ctx, stamp); err != nil {
			return err
		}
	}
	return a.sink.PublishImage(ctx, a.conf.Camera(id).Topic, res.Image, res.Info)
}

func (a *Adapter) publishPose(ctx context.Context, stamp utils.Stamp) error {
	pose := a.conf.Mount.Pose()
	if a.poses != nil {
		var err error
		if pose, err = a.poses.Pose(ctx); err != nil {
			return errors.Wrap(err, "reading rig pose")
		}
	}
	if err := a.sink.PublishPose(ctx, a.conf.PoseTopic, &spatialmath.PoseStamped{
		Header: utils.Header{Stamp: stamp, FrameID: a.conf.PoseFrame},
		Pose:   pose,
	}); err != nil {
		return err
	}
	ea := spatialmath.QuatToEulerAngles(pose.Orientation)
	a.logger.Debugw("published pose", "stamp", stamp.String(), "position", pose.Point(),
		"roll", ea.Roll, "pitch", ea.Pitch, "yaw", ea.Yaw)
	return nil
}

// NamedTick handles a frame from an engine that identifies cameras only by their rendering
// names. Unrecognized names are dropped unless the config opts into attributing them to the
// color camera, in which case a NamedEngine serves the unknown camera's own buffer.
func (a *Adapter) NamedTick(ctx context.Context, name string) error {
	id, err := CameraIDFromName(name)
	if err == nil {
		return a.Tick(ctx, id)
	}
	if !a.conf.UnknownCameraFallback {
		a.logger.Errorw("dropping frame", "name", name, "error", err)
		return err
	}
	a.logger.Warnw("attributing frame from unknown camera to the color camera", "name", name)
	named, ok := a.engine.(NamedEngine)
	if !ok {
		return a.ColorTick(ctx, ColorCamera)
	}
	return a.imageTick(ctx, ColorCamera, func() (*rimage.ColorFrame, error) {
		return named.NamedColorFrame(ctx, name)
	})
}

// Tick runs the tick of one camera. Ticks of disabled cameras do nothing.
func (a *Adapter) Tick(ctx context.Context, id CameraID) error {
	if id == DepthCamera {
		return a.DepthTick(ctx)
	}
	return a.ColorTick(ctx, id)
}

// Run ticks every enabled camera at its update rate until ctx is done. Ticks run one at a
// time on the calling goroutine; their errors are logged and do not stop the loop.
func (a *Adapter) Run(ctx context.Context) error {
	var tickers [numCameras]*clock.Ticker
	var chans [numCameras]<-chan time.Time
	defer func() {
		for _, t := range tickers {
			if t != nil {
				t.Stop()
			}
		}
	}()
	for _, id := range AllCameras {
		cam := a.conf.Camera(id)
		if cam.Disabled {
			continue
		}
		period := cam.Period()
		if period <= 0 {
			return errors.Errorf("%s update rate %v is too high to tick at", id, cam.UpdateRateHz)
		}
		tickers[id] = a.clock.Ticker(period)
		chans[id] = tickers[id].C
	}

	a.logger.Infow("running rig", "point_cloud", a.conf.PointCloud, "force_cloud", a.conf.ForceCloud)
	for {
		var id CameraID
		select {
		case <-ctx.Done():
			return nil
		case <-chans[ColorCamera]:
			id = ColorCamera
		case <-chans[Infrared1Camera]:
			id = Infrared1Camera
		case <-chans[Infrared2Camera]:
			id = Infrared2Camera
		case <-chans[DepthCamera]:
			id = DepthCamera
		}
		_ = a.Tick(ctx, id)
	}
}
