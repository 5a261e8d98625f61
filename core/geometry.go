package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SecondsPerDay converts the SI gravitational constant into the day-based
// time unit used throughout the simulation.
const SecondsPerDay = 86400.0

// G is the gravitational constant in km³·kg⁻¹·day⁻². All positions are in
// kilometres and all times in days; mixing SI units anywhere else will
// silently corrupt trajectories, so every formula in this package sticks
// to km/kg/day.
const G = 6.6743e-11 * SecondsPerDay * SecondsPerDay * 1e-9

// Rads converts degrees to radians.
func Rads(deg float64) float64 { return deg * math.Pi / 180.0 }

// Degs converts radians to degrees.
func Degs(rad float64) float64 { return rad * 180.0 / math.Pi }

// Mod180 normalizes an angle in degrees to [-180, 180].
func Mod180(x float64) float64 {
	x = math.Mod(x, 360.0)
	if x > 180 {
		x -= 360
	} else if x < -180 {
		x += 360
	}
	return x
}

// RotateToWorld rotates orbital-plane coordinates (x toward periapsis,
// y along the direction of motion at periapsis) into the host body's
// frame, given the argument of periapsis o, longitude of ascending node
// O, and inclination I, all in radians.
func RotateToWorld(x, y, o, O, I float64) r3.Vec {
	cosO, sinO := math.Cos(o), math.Sin(o)
	cosN, sinN := math.Cos(O), math.Sin(O)
	cosI, sinI := math.Cos(I), math.Sin(I)
	return r3.Vec{
		X: (cosO*cosN-sinO*sinN*cosI)*x + (-sinO*cosN-cosO*sinN*cosI)*y,
		Y: (cosO*sinN+sinO*cosN*cosI)*x + (-sinO*sinN+cosO*cosN*cosI)*y,
		Z: (sinO*sinI)*x + (cosO*sinI)*y,
	}
}

// OrbitalToGlobal transforms a radial/prograde/normal thrust vector into
// world-frame coordinates. The frame is built from the object's position
// and velocity relative to the origin body: X away from the origin, Y
// along the relative velocity, Z completing the basis. A vanishing
// relative velocity falls back to the world Z axis.
func OrbitalToGlobal(thrust, originPos, originVel, pos, vel r3.Vec) r3.Vec {
	v1 := normalizeOr(r3.Sub(pos, originPos), r3.Vec{X: 1})
	v2 := normalizeOr(r3.Sub(vel, originVel), r3.Vec{Z: 1})
	v3 := r3.Cross(v1, v2)
	out := r3.Scale(thrust.X, v1)
	out = r3.Add(out, r3.Scale(thrust.Y, v2))
	return r3.Add(out, r3.Scale(thrust.Z, v3))
}

// CircularOrbitAround returns the spawn position and velocity of an
// object on a circular orbit of the given radius around a body of the
// given mass, offset by the body's own position and velocity.
func CircularOrbitAround(radius, mass float64, bodyPos, bodyVel r3.Vec) (r3.Vec, r3.Vec) {
	speed := math.Sqrt(G * mass / radius)
	pos := r3.Add(bodyPos, r3.Vec{X: radius})
	vel := r3.Add(bodyVel, r3.Vec{Y: speed})
	return pos, vel
}

func normalizeOr(v, fallback r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return fallback
	}
	return r3.Scale(1/n, v)
}
