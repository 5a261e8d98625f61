package core

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/astralforge/orrery/model"
)

// BodiesConfig filters a dataset down to bodies at least as large as a
// given class, e.g. SmallestBodyType: model.Planet drops moons and
// everything below. The zero value keeps every body.
type BodiesConfig struct {
	SmallestBodyType model.BodyType
}

func (c BodiesConfig) keep(d *model.BodyData) bool {
	if c.SmallestBodyType == "" {
		return true
	}
	return d.BodyType.Rank() <= c.SmallestBodyType.Rank()
}

// BodiesScenario summarizes a loaded dataset.
type BodiesScenario struct {
	Bodies  []model.BodyData
	Primary model.BodyID
}

type bodiesPayload struct {
	Bodies []model.BodyData `json:"bodies"`
}

// LoadBodies reads a JSON body dataset from r, applies the config
// filter, validates the host tree, and derives the per-body child lists
// and periapsis/apoapsis values.
//
// The simulation cannot start without a consistent tree, so every
// inconsistency is fatal and names the offending body: duplicate or
// over-long identifiers, a missing or duplicated primary body, dangling
// host references, host cycles, or an eccentricity outside [0, 1).
func LoadBodies(r io.Reader, cfg BodiesConfig) (*BodiesScenario, error) {
	var payload bodiesPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadBodies: decode failed: %w", err)
	}

	byID := make(map[model.BodyID]*model.BodyData, len(payload.Bodies))
	for i := range payload.Bodies {
		d := &payload.Bodies[i]
		if err := model.ValidateID(string(d.ID)); err != nil {
			return nil, fmt.Errorf("LoadBodies: %w", err)
		}
		if _, dup := byID[d.ID]; dup {
			return nil, fmt.Errorf("LoadBodies: duplicate body id %q", d.ID)
		}
		if d.Eccentricity < 0 || d.Eccentricity >= 1 {
			return nil, fmt.Errorf("LoadBodies: body %q: eccentricity %v outside [0,1)", d.ID, d.Eccentricity)
		}
		byID[d.ID] = d
	}

	var primary model.BodyID
	for _, d := range byID {
		if d.HostBody == "" {
			if primary != "" {
				return nil, fmt.Errorf("LoadBodies: multiple primary bodies: %q and %q", primary, d.ID)
			}
			primary = d.ID
			continue
		}
		if _, ok := byID[d.HostBody]; !ok {
			return nil, fmt.Errorf("LoadBodies: body %q references unknown host %q", d.ID, d.HostBody)
		}
	}
	if primary == "" {
		return nil, fmt.Errorf("LoadBodies: no primary body found")
	}

	// Cycle check: every host chain must reach the primary within the
	// body count.
	for id, d := range byID {
		cur := d
		for steps := 0; cur.HostBody != ""; steps++ {
			if steps > len(byID) {
				return nil, fmt.Errorf("LoadBodies: host cycle involving body %q", id)
			}
			cur = byID[cur.HostBody]
		}
	}

	// Apply the size filter, cascading: a body whose host was filtered
	// out is dropped with it.
	kept := make(map[model.BodyID]*model.BodyData, len(byID))
	for id, d := range byID {
		keep := true
		for cur := d; ; cur = byID[cur.HostBody] {
			if !cfg.keep(cur) {
				keep = false
				break
			}
			if cur.HostBody == "" {
				break
			}
		}
		if keep {
			kept[id] = d
		}
	}
	if _, ok := kept[primary]; !ok {
		return nil, fmt.Errorf("LoadBodies: filter removed the primary body %q", primary)
	}

	out := &BodiesScenario{Primary: primary, Bodies: make([]model.BodyData, 0, len(kept))}
	for _, d := range kept {
		d.OrbitingBodies = nil
		d.Periapsis = d.SemimajorAxis * (1 - d.Eccentricity)
		d.Apoapsis = d.SemimajorAxis * (1 + d.Eccentricity)
	}
	for id, d := range kept {
		if d.HostBody == "" {
			continue
		}
		host := kept[d.HostBody]
		host.OrbitingBodies = append(host.OrbitingBodies, id)
	}
	for _, d := range kept {
		sort.Slice(d.OrbitingBodies, func(i, j int) bool {
			return d.OrbitingBodies[i] < d.OrbitingBodies[j]
		})
		out.Bodies = append(out.Bodies, *d)
	}
	sort.Slice(out.Bodies, func(i, j int) bool { return out.Bodies[i].ID < out.Bodies[j].ID })
	return out, nil
}
