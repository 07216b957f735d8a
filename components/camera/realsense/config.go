package realsense

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/depthsim/pointcloud"
	"go.viam.com/depthsim/spatialmath"
)

// Defaults of a RealSense rig in the simulator.
const (
	DefaultUpdateRateHz  = 60.0
	DefaultHorizontalFOV = 1.5184
	DefaultColorFOV      = 1.211
	DefaultRangeMinDepth = 0.2
	DefaultRangeMaxDepth = 10.0

	DefaultPointCloudTopic = "camera/depth/points"
	DefaultPoseTopic       = "camera/pose"
	DefaultPoseFrame       = "odom"
)

var defaultCameras = map[CameraID]CameraConfig{
	ColorCamera: {
		Topic:         "camera/color/image_raw",
		OpticalFrame:  "camera_color_optical_frame",
		HorizontalFOV: DefaultColorFOV,
		UpdateRateHz:  DefaultUpdateRateHz,
	},
	Infrared1Camera: {
		Topic:         "camera/infra1/image_raw",
		OpticalFrame:  "camera_left_ir_optical_frame",
		HorizontalFOV: DefaultHorizontalFOV,
		UpdateRateHz:  DefaultUpdateRateHz,
	},
	Infrared2Camera: {
		Topic:         "camera/infra2/image_raw",
		OpticalFrame:  "camera_right_ir_optical_frame",
		HorizontalFOV: DefaultHorizontalFOV,
		UpdateRateHz:  DefaultUpdateRateHz,
	},
	DepthCamera: {
		Topic:         "camera/depth/image_raw",
		OpticalFrame:  "camera_depth_optical_frame",
		HorizontalFOV: DefaultHorizontalFOV,
		UpdateRateHz:  DefaultUpdateRateHz,
	},
}

// CameraConfig describes one sub-camera.
type CameraConfig struct {
	Topic         string  `json:"topic,omitempty"`
	OpticalFrame  string  `json:"optical_frame,omitempty"`
	HorizontalFOV float64 `json:"horizontal_fov,omitempty" jsonschema:"description=horizontal field of view in radians"`
	UpdateRateHz  float64 `json:"update_rate_hz,omitempty"`
	Disabled      bool    `json:"disabled,omitempty"`
}

// Period returns the time between two ticks of the camera. It is not positive for rates
// too high to tick at.
func (cam *CameraConfig) Period() time.Duration {
	return time.Duration(float64(time.Second) / cam.UpdateRateHz)
}

// MountConfig is a fixed pose of the rig in the odometry frame, used when the engine cannot
// report one.
type MountConfig struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Pose returns the mount as a pose.
func (m *MountConfig) Pose() spatialmath.Pose {
	if m == nil {
		return spatialmath.NewZeroPose()
	}
	o := spatialmath.EulerAngles{Roll: m.Roll, Pitch: m.Pitch, Yaw: m.Yaw}.Quaternion()
	return spatialmath.NewPose(r3.Vector{X: m.X, Y: m.Y, Z: m.Z}, o)
}

// Config is the configuration of a simulated RealSense rig.
type Config struct {
	Color     CameraConfig `json:"color"`
	Infrared1 CameraConfig `json:"infra1"`
	Infrared2 CameraConfig `json:"infra2"`
	Depth     CameraConfig `json:"depth"`

	RangeMinDepth float64 `json:"range_min_depth"`
	RangeMaxDepth float64 `json:"range_max_depth"`

	PointCloud      bool   `json:"point_cloud,omitempty"`
	PointCloudTopic string `json:"point_cloud_topic,omitempty"`
	ColorCloud      bool   `json:"color_cloud,omitempty"`
	ForceCloud      bool   `json:"force_cloud,omitempty"`

	Pose      bool         `json:"pose,omitempty"`
	PoseTopic string       `json:"pose_topic,omitempty"`
	PoseFrame string       `json:"pose_frame,omitempty"`
	Mount     *MountConfig `json:"mount,omitempty"`

	// UnknownCameraFallback attributes frames from unrecognized cameras to the color camera
	// instead of dropping them.
	UnknownCameraFallback bool `json:"unknown_camera_fallback,omitempty"`
}

// DefaultConfig returns a config with every field at its default.
func DefaultConfig() *Config {
	conf := &Config{}
	conf.FillDefaults()
	return conf
}

// Camera returns the config of one sub-camera.
func (conf *Config) Camera(id CameraID) *CameraConfig {
	switch id {
	case ColorCamera:
		return &conf.Color
	case Infrared1Camera:
		return &conf.Infrared1
	case Infrared2Camera:
		return &conf.Infrared2
	case DepthCamera:
		return &conf.Depth
	default:
		return nil
	}
}

// FillDefaults sets every unset field to its default.
func (conf *Config) FillDefaults() {
	for _, id := range AllCameras {
		cam := conf.Camera(id)
		def := defaultCameras[id]
		if cam.Topic == "" {
			cam.Topic = def.Topic
		}
		if cam.OpticalFrame == "" {
			cam.OpticalFrame = def.OpticalFrame
		}
		if cam.HorizontalFOV == 0 {
			cam.HorizontalFOV = def.HorizontalFOV
		}
		if cam.UpdateRateHz == 0 {
			cam.UpdateRateHz = def.UpdateRateHz
		}
	}
	if conf.RangeMinDepth == 0 && conf.RangeMaxDepth == 0 {
		conf.RangeMinDepth = DefaultRangeMinDepth
		conf.RangeMaxDepth = DefaultRangeMaxDepth
	}
	if conf.PointCloudTopic == "" {
		conf.PointCloudTopic = DefaultPointCloudTopic
	}
	if conf.PoseTopic == "" {
		conf.PoseTopic = DefaultPoseTopic
	}
	if conf.PoseFrame == "" {
		conf.PoseFrame = DefaultPoseFrame
	}
}

// ValidityRange returns the depth range points must fall in.
func (conf *Config) ValidityRange() pointcloud.ValidityRange {
	return pointcloud.ValidityRange{Min: conf.RangeMinDepth, Max: conf.RangeMaxDepth}
}

// Validate checks that the config can drive a rig. It expects defaults to have been filled.
func (conf *Config) Validate(path string) ([]string, error) {
	var errs error
	for _, id := range AllCameras {
		cam := conf.Camera(id)
		if cam.Disabled {
			continue
		}
		if cam.Topic == "" {
			errs = multierr.Append(errs, goutils.NewConfigValidationFieldRequiredError(path, id.String()+".topic"))
		}
		if hfov := cam.HorizontalFOV; math.IsNaN(hfov) || hfov <= 0 || hfov >= math.Pi {
			errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
				errors.Errorf("%s.horizontal_fov must be in (0, pi), got %v", id, hfov)))
		}
		if rate := cam.UpdateRateHz; math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
				errors.Errorf("%s.update_rate_hz must be positive, got %v", id, rate)))
		} else if cam.Period() <= 0 {
			errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
				errors.Errorf("%s.update_rate_hz %v is too high to tick at", id, rate)))
		}
	}
	if err := conf.ValidityRange().Validate(); err != nil {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path, err))
	}
	if conf.PointCloud && conf.PointCloudTopic == "" {
		errs = multierr.Append(errs, goutils.NewConfigValidationFieldRequiredError(path, "point_cloud_topic"))
	}
	if conf.Pose && conf.PoseTopic == "" {
		errs = multierr.Append(errs, goutils.NewConfigValidationFieldRequiredError(path, "pose_topic"))
	}
	return nil, errs
}

// ConfigSchema returns the JSON schema of Config.
func ConfigSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
