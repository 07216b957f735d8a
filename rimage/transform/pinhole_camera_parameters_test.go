package transform

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/depthsim/utils"
)

func TestDeriveIntrinsics(t *testing.T) {
	intrinsics, err := DeriveIntrinsics(4, 3, 1.047)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, intrinsics.Fx, test.ShouldAlmostEqual, 3.464, 1e-3)
	test.That(t, intrinsics.Fy, test.ShouldEqual, intrinsics.Fx)
	test.That(t, intrinsics.Ppx, test.ShouldEqual, 2.0)
	test.That(t, intrinsics.Ppy, test.ShouldEqual, 1.5)
	test.That(t, intrinsics.CheckValid(), test.ShouldBeNil)

	// 90 degrees: the focal length is half the width
	intrinsics, err = DeriveIntrinsics(640, 480, math.Pi/2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, intrinsics.Fx, test.ShouldAlmostEqual, 320.0)
	test.That(t, FocalLength(640, math.Pi/2), test.ShouldEqual, intrinsics.Fx)
}

func TestDeriveIntrinsicsProperties(t *testing.T) {
	for _, width := range []int{1, 2, 3, 640, 1281} {
		for _, height := range []int{1, 7, 480} {
			for _, hfov := range []float64{1e-6, 0.3, 1.047, 1.5, 3.1} {
				intrinsics, err := DeriveIntrinsics(width, height, hfov)
				test.That(t, err, test.ShouldBeNil)
				test.That(t, intrinsics.Fx, test.ShouldBeGreaterThan, 0)
				test.That(t, intrinsics.Ppx, test.ShouldEqual, float64(width)/2)
				test.That(t, intrinsics.Ppy, test.ShouldEqual, float64(height)/2)
			}
		}
	}
}

func TestDeriveIntrinsicsInvalid(t *testing.T) {
	for _, tc := range []struct {
		name          string
		width, height int
		hfov          float64
	}{
		{"zero width", 0, 480, 1},
		{"negative height", 640, -1, 1},
		{"zero fov", 640, 480, 0},
		{"negative fov", 640, 480, -0.5},
		{"fov of pi", 640, 480, math.Pi},
		{"fov above pi", 640, 480, 4},
		{"nan fov", 640, 480, math.NaN()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			intrinsics, err := DeriveIntrinsics(tc.width, tc.height, tc.hfov)
			test.That(t, intrinsics, test.ShouldBeNil)
			test.That(t, errors.Is(err, ErrInvalidIntrinsics), test.ShouldBeTrue)
		})
	}
}

func TestMatrices(t *testing.T) {
	intrinsics, err := DeriveIntrinsics(4, 3, 1.047)
	test.That(t, err, test.ShouldBeNil)
	f := intrinsics.Fx

	k := intrinsics.CameraMatrix()
	expectedK := mat.NewDense(3, 3, []float64{f, 0, 2, 0, f, 1.5, 0, 0, 1})
	test.That(t, mat.Equal(k, expectedK), test.ShouldBeTrue)

	p := intrinsics.ProjectionMatrix()
	expectedP := mat.NewDense(3, 4, []float64{f, 0, 2, 0, 0, f, 1.5, 0, 0, 0, 1, 0})
	test.That(t, mat.Equal(p, expectedP), test.ShouldBeTrue)

	var nilIntrinsics *PinholeCameraIntrinsics
	test.That(t, nilIntrinsics.CameraMatrix(), test.ShouldBeNil)
	test.That(t, errors.Is(nilIntrinsics.CheckValid(), ErrInvalidIntrinsics), test.ShouldBeTrue)
}

func TestCameraInfo(t *testing.T) {
	intrinsics, err := DeriveIntrinsics(4, 3, 1.047)
	test.That(t, err, test.ShouldBeNil)
	header := utils.Header{Stamp: utils.Stamp{Sec: 12, Nanosec: 34}, FrameID: "camera_color_optical_frame"}
	info := NewCameraInfo(header, intrinsics)
	f := intrinsics.Fx

	expected := &CameraInfo{
		Header:          header,
		Height:          3,
		Width:           4,
		DistortionModel: "plumb_bob",
		D:               []float64{},
		K:               [9]float64{f, 0, 2, 0, f, 1.5, 0, 0, 1},
		P:               [12]float64{f, 0, 2, 0, 0, f, 1.5, 0, 0, 0, 1, 0},
	}
	test.That(t, cmp.Diff(expected, info), test.ShouldBeEmpty)
	test.That(t, info.Intrinsics(), test.ShouldResemble, intrinsics)

	data, err := json.Marshal(info)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, `"distortion_model":"plumb_bob"`)
	test.That(t, string(data), test.ShouldContainSubstring, `"d":[]`)
}

func TestIntrinsicsCache(t *testing.T) {
	var cache IntrinsicsCache
	first, err := cache.Get(640, 480, 1.2)
	test.That(t, err, test.ShouldBeNil)
	second, err := cache.Get(640, 480, 1.2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second, test.ShouldEqual, first)

	third, err := cache.Get(320, 240, 1.2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, third, test.ShouldNotEqual, first)
	test.That(t, third.Width, test.ShouldEqual, 320)

	_, err = cache.Get(320, 240, 0)
	test.That(t, errors.Is(err, ErrInvalidIntrinsics), test.ShouldBeTrue)
	// a failed derivation leaves the previous entry in place
	fourth, err := cache.Get(320, 240, 1.2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fourth, test.ShouldEqual, third)
}

func TestIntrinsicsFromJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intrinsics.json")
	test.That(t, os.WriteFile(path, []byte(`{"width_px":4,"height_px":3,"fx":3.5,"fy":3.5,"ppx":2,"ppy":1.5}`), 0o600),
		test.ShouldBeNil)
	intrinsics, err := NewPinholeCameraIntrinsicsFromJSONFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, intrinsics.Fx, test.ShouldEqual, 3.5)

	test.That(t, os.WriteFile(path, []byte(`{"width_px":4,"height_px":3,"fx":0}`), 0o600), test.ShouldBeNil)
	_, err = NewPinholeCameraIntrinsicsFromJSONFile(path)
	test.That(t, errors.Is(err, ErrInvalidIntrinsics), test.ShouldBeTrue)

	_, err = NewPinholeCameraIntrinsicsFromJSONFile(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}
