package transform

import (
	"math"
	"sync"

	"go.viam.com/depthsim/utils"
)

// DistortionModelPlumbBob names the five parameter radial-tangential model. Simulated lenses
// report it with no coefficients.
const DistortionModelPlumbBob = "plumb_bob"

// CameraInfo is the calibration record published next to every image.
type CameraInfo struct {
	Header          utils.Header `json:"header"`
	Height          int          `json:"height"`
	Width           int          `json:"width"`
	DistortionModel string       `json:"distortion_model"`
	D               []float64    `json:"d"`
	K               [9]float64   `json:"k"`
	R               [9]float64   `json:"r"`
	P               [12]float64  `json:"p"`
}

// NewCameraInfo fills a calibration record from derived intrinsics. The header is passed
// through unmodified.
func NewCameraInfo(header utils.Header, intrinsics *PinholeCameraIntrinsics) *CameraInfo {
	info := &CameraInfo{
		Header:          header,
		Height:          intrinsics.Height,
		Width:           intrinsics.Width,
		DistortionModel: DistortionModelPlumbBob,
		D:               []float64{},
	}
	copy(info.K[:], intrinsics.CameraMatrix().RawMatrix().Data)
	copy(info.P[:], intrinsics.ProjectionMatrix().RawMatrix().Data)
	return info
}

// Intrinsics recovers the pinhole parameters from the K matrix of a published record.
func (info *CameraInfo) Intrinsics() *PinholeCameraIntrinsics {
	return &PinholeCameraIntrinsics{
		Width:  info.Width,
		Height: info.Height,
		Fx:     info.K[0],
		Fy:     info.K[4],
		Ppx:    info.K[2],
		Ppy:    info.K[5],
	}
}

type intrinsicsKey struct {
	width, height int
	hfov          float64
}

// IntrinsicsCache memoizes DeriveIntrinsics for one camera whose dimensions and field of view
// practically never change. It is safe for concurrent use.
type IntrinsicsCache struct {
	mu     sync.Mutex
	key    intrinsicsKey
	cached *PinholeCameraIntrinsics
}

// Get returns the intrinsics for the given parameters, deriving them again only when the
// parameters differ from the previous call.
func (c *IntrinsicsCache) Get(width, height int, hfov float64) (*PinholeCameraIntrinsics, error) {
	key := intrinsicsKey{width, height, hfov}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil && c.key == key && !math.IsNaN(hfov) {
		return c.cached, nil
	}
	intrinsics, err := DeriveIntrinsics(width, height, hfov)
	if err != nil {
		return nil, err
	}
	c.key = key
	c.cached = intrinsics
	return intrinsics, nil
}
