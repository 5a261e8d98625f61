package core

import "github.com/astralforge/orrery/model"

// sunEarthMoon is a three-body dataset with real elements, enough to
// exercise the hierarchy, Hill spheres, and prediction math.
func sunEarthMoon() []model.BodyData {
	return []model.BodyData{
		{
			ID: "sun", Name: "Sun", BodyType: model.Star,
			Radius: 696342, Mass: 1.989e30,
		},
		{
			ID: "earth", Name: "Earth", BodyType: model.Planet, HostBody: "sun",
			SemimajorAxis: 149598023, Eccentricity: 0.0167086,
			Inclination: 0.00005, LongAscNode: -11.26064, ArgPeriapsis: 114.20783,
			InitialMeanAnomaly: 358.617, RevolutionPeriod: 365.256,
			Radius: 6371, Mass: 5.972e24,
		},
		{
			ID: "moon", Name: "Moon", BodyType: model.Moon, HostBody: "earth",
			SemimajorAxis: 384399, Eccentricity: 0.0549,
			Inclination: 5.145, LongAscNode: 125.08, ArgPeriapsis: 318.15,
			InitialMeanAnomaly: 135.27, RevolutionPeriod: 27.3217,
			Radius: 1737.4, Mass: 7.342e22,
		},
	}
}

// parkedPrimary is a single massless body at the origin: ships around it
// coast in exact straight lines, which makes integrator and maneuver
// assertions bit-precise.
func parkedPrimary() []model.BodyData {
	return []model.BodyData{
		{ID: "hub", Name: "Hub", BodyType: model.Star, Radius: 1, Mass: 0},
	}
}
