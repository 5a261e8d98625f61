package core

import (
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/astralforge/orrery/model"
)

// bodyState is the live simulation state of a celestial body: its static
// record, its orbit solver, and the derived world-frame coordinates.
type bodyState struct {
	data  model.BodyData
	orbit EllipticalOrbit

	pos        r3.Vec // world frame, km
	vel        r3.Vec // world frame, km/day
	hillRadius float64
}

// shipState is the live integration state of a ship. Each ship's state is
// exclusively owned by that ship: the engine may integrate ships in
// parallel because no ship ever reads another ship's fields.
type shipState struct {
	info model.ShipInfo

	pos r3.Vec
	vel r3.Vec
	acc Acceleration

	influence Influenced

	// trajectory is the editable node list; cursor is the dispatch
	// cursor over it. firedThrough records the simtick of the last
	// dispatched node so edits can never cause a node to re-fire.
	trajectory   *Trajectory
	cursor       *CurrentTrajectory
	firedThrough uint64
	hasFired     bool
}

// BodyRecord is a read-only snapshot of a body.
type BodyRecord struct {
	Data       model.BodyData
	Pos        r3.Vec
	Vel        r3.Vec
	HillRadius float64
}

// ShipRecord is a read-only snapshot of a ship.
type ShipRecord struct {
	Info           model.ShipInfo
	Pos            r3.Vec
	Vel            r3.Vec
	Acc            r3.Vec
	Influencers    []model.BodyID
	MainInfluencer model.BodyID
}

// KnowledgeBase is the in-memory arena of bodies and ships. Bodies and
// their orbital elements are read-only after construction; only derived
// positions, velocities, and ship state change, and only under the write
// lock held by the engine for the duration of a tick.
//
// The body hierarchy is kept as an id-keyed map with parent/child links
// by identifier, never by pointer.
type KnowledgeBase struct {
	mu sync.RWMutex

	bodies  map[model.BodyID]*bodyState
	ships   map[model.ShipID]*shipState
	primary model.BodyID
}

// NewKnowledgeBase builds the arena from a validated body list (see
// LoadBodies), computes Hill radii, and solves the initial positions at
// simulation time zero.
func NewKnowledgeBase(bodies []model.BodyData) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		bodies: make(map[model.BodyID]*bodyState, len(bodies)),
		ships:  make(map[model.ShipID]*shipState),
	}
	for _, d := range bodies {
		if _, exists := kb.bodies[d.ID]; exists {
			return nil, fmt.Errorf("body with ID %q already exists", d.ID)
		}
		if d.HostBody == "" {
			if kb.primary != "" {
				return nil, fmt.Errorf("multiple primary bodies: %q and %q", kb.primary, d.ID)
			}
			kb.primary = d.ID
		}
		kb.bodies[d.ID] = &bodyState{data: d, orbit: NewOrbit(&d)}
	}
	if kb.primary == "" {
		return nil, fmt.Errorf("no primary body found")
	}
	for id, b := range kb.bodies {
		if b.data.HostBody == "" {
			continue
		}
		if _, ok := kb.bodies[b.data.HostBody]; !ok {
			return nil, fmt.Errorf("body %q references unknown host %q", id, b.data.HostBody)
		}
	}

	// Child links are rederived from the host relation so the arena never
	// trusts a caller-supplied OrbitingBodies list.
	for _, b := range kb.bodies {
		b.data.OrbitingBodies = nil
	}
	for id, b := range kb.bodies {
		if b.data.HostBody == "" {
			continue
		}
		host := kb.bodies[b.data.HostBody]
		host.data.OrbitingBodies = append(host.data.OrbitingBodies, id)
	}
	for _, b := range kb.bodies {
		sort.Slice(b.data.OrbitingBodies, func(i, j int) bool {
			return b.data.OrbitingBodies[i] < b.data.OrbitingBodies[j]
		})
	}

	setupHillRadii(kb.bodies, kb.primary)

	// Initial solve so that queries and ship spawns see consistent
	// positions before the first engine step.
	for _, b := range kb.bodies {
		b.orbit.UpdatePos(0)
	}
	propagateAbsolute(kb.bodies, kb.primary)
	return kb, nil
}

// Primary returns the root body identifier.
func (kb *KnowledgeBase) Primary() model.BodyID {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.primary
}

// Body returns a snapshot of the body with the given id.
func (kb *KnowledgeBase) Body(id model.BodyID) (BodyRecord, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	b, ok := kb.bodies[id]
	if !ok {
		return BodyRecord{}, false
	}
	return BodyRecord{Data: b.data, Pos: b.pos, Vel: b.vel, HillRadius: b.hillRadius}, true
}

// Bodies returns snapshots of all bodies.
func (kb *KnowledgeBase) Bodies() []BodyRecord {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	res := make([]BodyRecord, 0, len(kb.bodies))
	for _, b := range kb.bodies {
		res = append(res, BodyRecord{Data: b.data, Pos: b.pos, Vel: b.vel, HillRadius: b.hillRadius})
	}
	return res
}

// Ship returns a snapshot of the ship with the given id. A missing id
// yields the zero record and false, never a panic.
func (kb *KnowledgeBase) Ship(id model.ShipID) (ShipRecord, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	s, ok := kb.ships[id]
	if !ok {
		return ShipRecord{}, false
	}
	return snapshotShip(s), true
}

// Ships returns snapshots of all ships.
func (kb *KnowledgeBase) Ships() []ShipRecord {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	res := make([]ShipRecord, 0, len(kb.ships))
	for _, s := range kb.ships {
		res = append(res, snapshotShip(s))
	}
	return res
}

func snapshotShip(s *shipState) ShipRecord {
	infl := make([]model.BodyID, len(s.influence.Influencers))
	copy(infl, s.influence.Influencers)
	return ShipRecord{
		Info:           s.info,
		Pos:            s.pos,
		Vel:            s.vel,
		Acc:            s.acc.Current,
		Influencers:    infl,
		MainInfluencer: s.influence.Main,
	}
}

// SystemSize is the largest distance of any body from the world origin,
// used by display layers to scale the map.
func (kb *KnowledgeBase) SystemSize() float64 {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	size := 0.0
	for _, b := range kb.bodies {
		if d := r3.Norm(b.pos); d > size {
			size = d
		}
	}
	return size
}

// AddShip spawns a ship at its recorded position and velocity. The
// initial influence set and gravitational acceleration are resolved
// immediately so the first leapfrog step has a valid previous state.
func (kb *KnowledgeBase) AddShip(info model.ShipInfo) error {
	if err := model.ValidateID(string(info.ID)); err != nil {
		return fmt.Errorf("invalid ship id: %w", err)
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if _, exists := kb.ships[info.ID]; exists {
		return fmt.Errorf("ship with ID %q already exists", info.ID)
	}
	s := &shipState{info: info, pos: info.SpawnPos, vel: info.SpawnVel}
	s.influence = resolveInfluence(s.pos, kb.primary, kb.bodies)
	s.acc.Current = gravityAccel(s.pos, gatherSources(s.influence.Influencers, kb.bodies))
	kb.ships[info.ID] = s
	return nil
}

// RemoveShip deletes a ship. Removing an unknown id is a no-op.
func (kb *KnowledgeBase) RemoveShip(id model.ShipID) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	delete(kb.ships, id)
}

// CreateTrajectory attaches a trajectory to a ship, replacing any
// existing one. The dispatch cursor restarts, but nodes at or before the
// ship's fired watermark will never re-fire.
func (kb *KnowledgeBase) CreateTrajectory(id model.ShipID, t *Trajectory) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	s, ok := kb.ships[id]
	if !ok {
		return fmt.Errorf("ship with ID %q not found", id)
	}
	s.trajectory = t
	s.rebuildCursor()
	return nil
}

// DeleteTrajectory detaches a ship's trajectory. Unknown ids no-op.
func (kb *KnowledgeBase) DeleteTrajectory(id model.ShipID) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if s, ok := kb.ships[id]; ok {
		s.trajectory = nil
		s.cursor = nil
	}
}

// Trajectory returns a copy of a ship's trajectory, or nil if the ship
// has none.
func (kb *KnowledgeBase) Trajectory(id model.ShipID) *Trajectory {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	s, ok := kb.ships[id]
	if !ok || s.trajectory == nil {
		return nil
	}
	return s.trajectory.Clone()
}

// AddTrajectoryNode inserts a node into a ship's trajectory at its
// chronological position, creating the trajectory if needed. Validation
// failures leave the trajectory untouched.
func (kb *KnowledgeBase) AddTrajectoryNode(id model.ShipID, simtick uint64, n model.ManeuverNode) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	s, ok := kb.ships[id]
	if !ok {
		return fmt.Errorf("ship with ID %q not found", id)
	}
	if s.trajectory == nil {
		s.trajectory = &Trajectory{}
	}
	if err := s.trajectory.Add(simtick, n); err != nil {
		return err
	}
	s.rebuildCursor()
	return nil
}

// RemoveTrajectoryNode removes the node at the given simtick from a
// ship's trajectory. It reports whether a node was removed.
func (kb *KnowledgeBase) RemoveTrajectoryNode(id model.ShipID, simtick uint64) bool {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	s, ok := kb.ships[id]
	if !ok || s.trajectory == nil {
		return false
	}
	removed := s.trajectory.Remove(simtick)
	if removed {
		s.rebuildCursor()
	}
	return removed
}

// rebuildCursor resets the dispatch cursor over the current trajectory,
// skipping everything at or before the fired watermark. Callers hold the
// write lock.
func (s *shipState) rebuildCursor() {
	if s.trajectory == nil {
		s.cursor = nil
		return
	}
	c := NewCurrentTrajectory(s.trajectory)
	if s.hasFired {
		for {
			n, ok := c.Peek()
			if !ok || n.Simtick > s.firedThrough {
				break
			}
			c.Advance()
		}
	}
	s.cursor = c
}

// gatherSources collects positions and masses for an influencer id list.
// Unknown ids are skipped quietly.
func gatherSources(ids []model.BodyID, bodies map[model.BodyID]*bodyState) []gravitySource {
	sources := make([]gravitySource, 0, len(ids))
	for _, id := range ids {
		b, ok := bodies[id]
		if !ok {
			continue
		}
		sources = append(sources, gravitySource{pos: b.pos, mass: b.data.Mass})
	}
	return sources
}
