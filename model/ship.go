package model

import "gonum.org/v1/gonum/spatial/r3"

// ShipInfo describes a ship at spawn time. A ship's movement is governed
// by the gravitational pull of the celestial bodies that influence it,
// plus any scheduled maneuver thrusts.
type ShipInfo struct {
	ID       ShipID
	SpawnPos r3.Vec // world frame, km
	SpawnVel r3.Vec // world frame, km/day
}
