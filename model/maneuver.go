package model

import "gonum.org/v1/gonum/spatial/r3"

// ManeuverNode is a scheduled, instantaneous velocity change applied to
// a ship. Thrust is expressed in the local orbital frame of the origin
// body: X radial (away from the origin), Y prograde (along the velocity
// relative to the origin), Z completing the right-handed basis.
type ManeuverNode struct {
	Name   string `json:"name"`
	Thrust Vec3   `json:"thrust"`
	Origin BodyID `json:"origin"`
}

// Vec3 is the serialized form of a 3-vector. The physics core works in
// r3.Vec; this type only exists so persisted trajectories use stable
// lowercase keys.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// R3 converts to a gonum vector.
func (v Vec3) R3() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// FromR3 converts from a gonum vector.
func FromR3(v r3.Vec) Vec3 { return Vec3{X: v.X, Y: v.Y, Z: v.Z} }
