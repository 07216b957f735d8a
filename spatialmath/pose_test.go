package spatialmath

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestEulerRoundTrip(t *testing.T) {
	for _, ea := range []EulerAngles{
		{},
		{Roll: 0.1, Pitch: -0.2, Yaw: 0.3},
		{Roll: -1.2, Pitch: 0.7, Yaw: 2.9},
	} {
		q := ea.Quaternion()
		test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1, 1e-12)
		back := QuatToEulerAngles(q)
		test.That(t, back.Roll, test.ShouldAlmostEqual, ea.Roll, 1e-9)
		test.That(t, back.Pitch, test.ShouldAlmostEqual, ea.Pitch, 1e-9)
		test.That(t, back.Yaw, test.ShouldAlmostEqual, ea.Yaw, 1e-9)
	}
}

func TestRotatePoint(t *testing.T) {
	q := EulerAngles{Yaw: math.Pi / 2}.Quaternion()
	pt := RotatePoint(q, r3.Vector{X: 1})
	test.That(t, pt.X, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, pt.Z, test.ShouldAlmostEqual, 0, 1e-12)
}

func TestQuaternionFlip(t *testing.T) {
	q := EulerAngles{Roll: 0.4}.Quaternion()
	test.That(t, QuaternionAlmostEqual(q, Flip(q), 1e-9), test.ShouldBeTrue)
	test.That(t, Norm(quat.Number{Real: 5, Imag: 3, Jmag: 4}), test.ShouldEqual, 5)
	test.That(t, Normalize(quat.Number{}), test.ShouldResemble, quat.Number{})
}

func TestPoseJSON(t *testing.T) {
	p := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, EulerAngles{Pitch: 0.25}.Quaternion())
	data, err := json.Marshal(p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, `"position":{"x":1,"y":2,"z":3}`)

	var back Pose
	test.That(t, json.Unmarshal(data, &back), test.ShouldBeNil)
	test.That(t, back.Point().Sub(p.Point()).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, QuaternionAlmostEqual(back.Orientation, p.Orientation, 1e-9), test.ShouldBeTrue)

	var zero Pose
	test.That(t, json.Unmarshal([]byte(`{"position":{"x":4}}`), &zero), test.ShouldBeNil)
	test.That(t, zero.Orientation, test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, zero.Position.X, test.ShouldEqual, 4)
}
