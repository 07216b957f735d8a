// Package spatialmath holds the rigid body types used to report where a simulated camera is.
package spatialmath

import (
	"encoding/json"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/depthsim/utils"
)

// Pose is a position and a unit quaternion orientation.
type Pose struct {
	Position    r3.Vector
	Orientation quat.Number
}

// NewZeroPose returns the identity pose.
func NewZeroPose() Pose {
	return Pose{Orientation: quat.Number{Real: 1}}
}

// NewPose returns a pose at pt with orientation o. A zero quaternion is treated as identity.
func NewPose(pt r3.Vector, o quat.Number) Pose {
	if o == (quat.Number{}) {
		o = quat.Number{Real: 1}
	}
	return Pose{Position: pt, Orientation: Normalize(o)}
}

// Point returns the position of the pose.
func (p Pose) Point() r3.Vector {
	return p.Position
}

type poseJSON struct {
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	} `json:"position"`
	Orientation struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
		W float64 `json:"w"`
	} `json:"orientation"`
}

// MarshalJSON writes the pose as position and orientation objects.
func (p Pose) MarshalJSON() ([]byte, error) {
	var pj poseJSON
	pj.Position.X, pj.Position.Y, pj.Position.Z = p.Position.X, p.Position.Y, p.Position.Z
	o := p.Orientation
	pj.Orientation.X, pj.Orientation.Y, pj.Orientation.Z, pj.Orientation.W = o.Imag, o.Jmag, o.Kmag, o.Real
	return json.Marshal(pj)
}

// UnmarshalJSON reads a pose written by MarshalJSON.
func (p *Pose) UnmarshalJSON(data []byte) error {
	var pj poseJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	*p = NewPose(
		r3.Vector{X: pj.Position.X, Y: pj.Position.Y, Z: pj.Position.Z},
		quat.Number{Real: pj.Orientation.W, Imag: pj.Orientation.X, Jmag: pj.Orientation.Y, Kmag: pj.Orientation.Z},
	)
	return nil
}

// PoseStamped is a pose taken at a point in simulation time.
type PoseStamped struct {
	Header utils.Header `json:"header"`
	Pose   Pose         `json:"pose"`
}

// QuaternionAlmostEqual is an equality test for two quaternions, treating q and -q as equal.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := func(a, b quat.Number) bool {
		return utils.Float64AlmostEqual(a.Real, b.Real, tol) &&
			utils.Float64AlmostEqual(a.Imag, b.Imag, tol) &&
			utils.Float64AlmostEqual(a.Jmag, b.Jmag, tol) &&
			utils.Float64AlmostEqual(a.Kmag, b.Kmag, tol)
	}
	return same(a, b) || same(a, Flip(b))
}
