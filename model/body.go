package model

import "fmt"

// MaxIDLength bounds body and ship identifiers. Identifiers come from
// external datasets and are used as map keys, so they are validated
// before entering the knowledge base.
const MaxIDLength = 32

// BodyID identifies a celestial body. The empty string means "no body"
// (used for the primary body's host).
type BodyID string

// ShipID identifies a ship.
type ShipID string

// ValidateID checks that an identifier is non-empty and length-bounded.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("empty identifier")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("identifier %q exceeds %d bytes", id, MaxIDLength)
	}
	return nil
}

// BodyType classifies a celestial body. The declaration order matters:
// it is the order used when filtering a dataset down to "every body at
// least as large as X" (see BodiesConfig in core).
type BodyType string

const (
	Star        BodyType = "Star"
	Planet      BodyType = "Planet"
	Moon        BodyType = "Moon"
	DwarfPlanet BodyType = "Dwarf Planet"
	Asteroid    BodyType = "Asteroid"
	Comet       BodyType = "Comet"
)

var bodyTypeRank = map[BodyType]int{
	Star:        0,
	Planet:      1,
	Moon:        2,
	DwarfPlanet: 3,
	Asteroid:    4,
	Comet:       5,
}

// Rank returns the size ordering of the body type, smaller meaning a
// "bigger" class of body. Unknown types rank last.
func (t BodyType) Rank() int {
	if r, ok := bodyTypeRank[t]; ok {
		return r
	}
	return len(bodyTypeRank)
}

// BodyData is the static record of a celestial body as loaded from a
// dataset. Orbital elements are immutable after load; angles are in
// degrees, distances in kilometres, periods in days (rotation in hours),
// masses in kilograms.
type BodyData struct {
	ID       BodyID   `json:"id"`
	Name     string   `json:"name"`
	BodyType BodyType `json:"type"`

	// HostBody is empty only for the primary body. OrbitingBodies is
	// derived from the host relation at load time and is not part of
	// the serialized record.
	HostBody       BodyID   `json:"host,omitempty"`
	OrbitingBodies []BodyID `json:"-"`

	SemimajorAxis      float64 `json:"semimajor_axis"`
	Eccentricity       float64 `json:"eccentricity"`
	Inclination        float64 `json:"inclination"`
	LongAscNode        float64 `json:"long_asc_node"`
	ArgPeriapsis       float64 `json:"arg_periapsis"`
	InitialMeanAnomaly float64 `json:"initial_mean_anomaly"`

	// Periapsis and Apoapsis are derived from the semimajor axis and
	// eccentricity at load time.
	Periapsis float64 `json:"-"`
	Apoapsis  float64 `json:"-"`

	// RevolutionPeriod is the time to complete one orbit around the
	// host, in days. Zero for a non-orbiting body: the body skips
	// mean-anomaly advancement and parks at its initial position.
	RevolutionPeriod float64 `json:"revolution_period"`
	// RotationPeriod is the spin period in hours. Unused by the physics
	// core but kept for display layers.
	RotationPeriod float64 `json:"rotation_period"`

	Radius float64 `json:"radius"`
	Mass   float64 `json:"mass"`
}
