package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/astralforge/orrery/model"
)

// Trajectory validation errors. They are returned to the caller on
// rejected edits and never corrupt the existing node list.
var (
	ErrMultipleNodesPerTime = errors.New("trajectory: a node already exists at this time")
	ErrNotSorted            = errors.New("trajectory: nodes must stay sorted by time")
	ErrIndexOutOfBounds     = errors.New("trajectory: index out of bounds")
)

// TimedNode is a maneuver node scheduled at a simtick.
type TimedNode struct {
	Simtick uint64
	Node    model.ManeuverNode
}

// Trajectory is a succession of maneuver nodes strictly ordered by
// simtick, with at most one node per simtick.
type Trajectory struct {
	nodes []TimedNode
}

// Len returns the number of nodes.
func (t *Trajectory) Len() int { return len(t.nodes) }

// Nodes returns a copy of the node list in tick order.
func (t *Trajectory) Nodes() []TimedNode {
	out := make([]TimedNode, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// NodeAt returns the node scheduled at the given simtick, if any.
func (t *Trajectory) NodeAt(simtick uint64) (model.ManeuverNode, bool) {
	i := sort.Search(len(t.nodes), func(i int) bool { return t.nodes[i].Simtick >= simtick })
	if i < len(t.nodes) && t.nodes[i].Simtick == simtick {
		return t.nodes[i].Node, true
	}
	return model.ManeuverNode{}, false
}

// Insert places a node at the given index. The index must lie within
// [0, Len()], the simtick must not collide with an existing node, and
// the insertion must keep the list chronologically ordered.
func (t *Trajectory) Insert(index int, simtick uint64, n model.ManeuverNode) error {
	if index < 0 || index > len(t.nodes) {
		return ErrIndexOutOfBounds
	}
	for _, existing := range t.nodes {
		if existing.Simtick == simtick {
			return ErrMultipleNodesPerTime
		}
	}
	if index > 0 && t.nodes[index-1].Simtick > simtick {
		return ErrNotSorted
	}
	if index < len(t.nodes) && t.nodes[index].Simtick < simtick {
		return ErrNotSorted
	}
	t.nodes = append(t.nodes, TimedNode{})
	copy(t.nodes[index+1:], t.nodes[index:])
	t.nodes[index] = TimedNode{Simtick: simtick, Node: n}
	return nil
}

// Add inserts a node at its chronological position.
func (t *Trajectory) Add(simtick uint64, n model.ManeuverNode) error {
	i := sort.Search(len(t.nodes), func(i int) bool { return t.nodes[i].Simtick >= simtick })
	return t.Insert(i, simtick, n)
}

// Remove deletes the node at the given simtick and reports whether one
// was there.
func (t *Trajectory) Remove(simtick uint64) bool {
	i := sort.Search(len(t.nodes), func(i int) bool { return t.nodes[i].Simtick >= simtick })
	if i >= len(t.nodes) || t.nodes[i].Simtick != simtick {
		return false
	}
	t.nodes = append(t.nodes[:i], t.nodes[i+1:]...)
	return true
}

// Clone returns a deep copy.
func (t *Trajectory) Clone() *Trajectory {
	return &Trajectory{nodes: t.Nodes()}
}

// nodesWithin returns the nodes with simtick in (after, through], in tick
// order. Used by the prediction engine, whose steps may span several
// simticks.
func (t *Trajectory) nodesWithin(after, through uint64) []TimedNode {
	var out []TimedNode
	for _, n := range t.nodes {
		if n.Simtick > after && n.Simtick <= through {
			out = append(out, n)
		}
	}
	return out
}

// CurrentTrajectory is a monotonic dispatch cursor over a trajectory
// snapshot. The cursor only ever moves forward; a node is dispatched at
// most once.
type CurrentTrajectory struct {
	nodes  []TimedNode
	cursor int
}

// NewCurrentTrajectory snapshots a trajectory for dispatch.
func NewCurrentTrajectory(t *Trajectory) *CurrentTrajectory {
	return &CurrentTrajectory{nodes: t.Nodes()}
}

// Peek returns the next undispatched node without advancing.
func (c *CurrentTrajectory) Peek() (TimedNode, bool) {
	if c.cursor >= len(c.nodes) {
		return TimedNode{}, false
	}
	return c.nodes[c.cursor], true
}

// Advance moves past the current node.
func (c *CurrentTrajectory) Advance() {
	if c.cursor < len(c.nodes) {
		c.cursor++
	}
}

// Remaining returns how many nodes are still undispatched.
func (c *CurrentTrajectory) Remaining() int {
	return len(c.nodes) - c.cursor
}

// Persisted trajectory format: an ordered list of maneuver nodes with
// flat fields. Storage of the encoded bytes belongs to the caller; the
// core only guarantees the round-trip.
type trajectoryJSON struct {
	Nodes []nodeJSON `json:"nodes"`
}

type nodeJSON struct {
	Simtick uint64       `json:"simtick"`
	Name    string       `json:"name"`
	Thrust  model.Vec3   `json:"thrust"`
	Origin  model.BodyID `json:"origin"`
}

// EncodeTrajectory writes a trajectory as JSON.
func EncodeTrajectory(w io.Writer, t *Trajectory) error {
	payload := trajectoryJSON{Nodes: make([]nodeJSON, 0, t.Len())}
	for _, n := range t.nodes {
		payload.Nodes = append(payload.Nodes, nodeJSON{
			Simtick: n.Simtick,
			Name:    n.Node.Name,
			Thrust:  n.Node.Thrust,
			Origin:  n.Node.Origin,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// DecodeTrajectory reads a JSON trajectory, enforcing the ordering and
// one-node-per-tick invariants of the in-memory form.
func DecodeTrajectory(r io.Reader) (*Trajectory, error) {
	var payload trajectoryJSON
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("DecodeTrajectory: %w", err)
	}
	t := &Trajectory{}
	for _, n := range payload.Nodes {
		if err := t.Add(n.Simtick, model.ManeuverNode{
			Name:   n.Name,
			Thrust: n.Thrust,
			Origin: n.Origin,
		}); err != nil {
			return nil, fmt.Errorf("DecodeTrajectory: node at simtick %d: %w", n.Simtick, err)
		}
	}
	return t, nil
}
