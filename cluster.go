package chordsim

import (
	"errors"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
)

// External ceilings on the two long-running supervisor operations. The
// per-ack and per-lookup waits inside the supervisor are much tighter; these
// only bound a fully wedged run.
const (
	initBarrierCeiling = 90 * time.Second
	simulationCeiling  = 180 * time.Second
)

// ErrNotFound is returned when a lookup names a participant the cluster does
// not have.
var ErrNotFound = errors.New("participant not found")

// Cluster is one simulated Chord ring: an actor system holding N node actors
// and the supervisor that drives them. Node IDs are assigned evenly over the
// identifier space at construction time.
type Cluster struct {
	system     *actor.ActorSystem
	supervisor *actor.PID
	registry   map[uint64]*actor.PID
	ids        []uint64
	o          options
}

// NewCluster spawns numNodes node actors and the supervisor. The ring is not
// routable until Init has run.
func NewCluster(numNodes int, opts ...Option) (*Cluster, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if numNodes < 1 {
		return nil, errors.New("cluster needs at least one node")
	}
	if uint64(numNodes) > RingSize(o.bits) {
		return nil, fmt.Errorf("%d nodes do not fit a %d-bit identifier space", numNodes, o.bits)
	}

	system := actor.NewActorSystem()
	ids := NodeIDs(numNodes, o.bits)
	registry := make(map[uint64]*actor.PID, numNodes)
	for _, id := range ids {
		props := actor.PropsFromProducer(func() actor.Actor { return newNode(id, o) })
		pid, err := system.Root.SpawnNamed(props, fmt.Sprintf("node-%d", id))
		if err != nil {
			return nil, fmt.Errorf("spawning node %d: %w", id, err)
		}
		registry[id] = pid
	}

	props := actor.PropsFromProducer(func() actor.Actor { return newSupervisor(registry, o) })
	supervisor, err := system.Root.SpawnNamed(props, "supervisor")
	if err != nil {
		return nil, fmt.Errorf("spawning supervisor: %w", err)
	}

	o.logger.Info("cluster spawned", "nodes", numNodes, "bits", o.bits)
	return &Cluster{
		system:     system,
		supervisor: supervisor,
		registry:   registry,
		ids:        ids,
		o:          o,
	}, nil
}

// Init runs the finger-table initialization barrier across all nodes.
func (c *Cluster) Init() error {
	res, err := c.request(&InitializeNodes{}, initBarrierCeiling)
	if err != nil {
		return fmt.Errorf("initialization barrier: %w", err)
	}
	switch reply := res.(type) {
	case *InitComplete:
		return nil
	case *InitFailed:
		return fmt.Errorf("initialization failed: %s", reply.Reason)
	default:
		return fmt.Errorf("unexpected initialization reply %T", res)
	}
}

// Run executes requestsPerNode lookups from every participant and returns
// the aggregated statistics.
func (c *Cluster) Run(requestsPerNode int) (*Report, error) {
	msg := &StartSimulation{NodeIDs: c.ids, RequestsPerNode: requestsPerNode}
	res, err := c.request(msg, simulationCeiling)
	if err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	switch reply := res.(type) {
	case *SimulationComplete:
		return newReport(len(c.ids), requestsPerNode, reply), nil
	case *SimulationFailed:
		return nil, fmt.Errorf("simulation failed: %s", reply.Reason)
	default:
		return nil, fmt.Errorf("unexpected simulation reply %T", res)
	}
}

// Lookup resolves a single target starting at the given participant.
func (c *Cluster) Lookup(target, fromNode uint64) (*LookupSuccess, error) {
	res, err := c.request(&Lookup{Target: target, FromNode: fromNode}, c.o.lookupTimeout+time.Second)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	switch reply := res.(type) {
	case *LookupSuccess:
		return reply, nil
	case *LookupFailure:
		return nil, fmt.Errorf("lookup failed: %s", reply.Reason)
	default:
		return nil, fmt.Errorf("unexpected lookup reply %T", res)
	}
}

// NodeIDs returns the participant identifiers in ascending order.
func (c *Cluster) NodeIDs() []uint64 {
	out := make([]uint64, len(c.ids))
	copy(out, c.ids)
	return out
}

// NodeCount asks the supervisor for the participant count.
func (c *Cluster) NodeCount() (int, error) {
	res, err := c.request(&GetNodeCount{}, c.o.queryTimeout)
	if err != nil {
		return 0, err
	}
	count, ok := res.(*NodeCount)
	if !ok {
		return 0, fmt.Errorf("unexpected node count reply %T", res)
	}
	return count.Count, nil
}

// RingBits returns the identifier bit width of this cluster.
func (c *Cluster) RingBits() int {
	return c.o.bits
}

// FingerTable reads back one node's finger table as identifiers, querying
// each entry's ID by message.
func (c *Cluster) FingerTable(nodeID uint64) ([]uint64, error) {
	node, ok := c.registry[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, nodeID)
	}

	fingers := make([]uint64, 0, c.o.bits)
	for i := 0; i < c.o.bits; i++ {
		res, err := c.system.Root.RequestFuture(node, &GetFingerEntry{Index: i}, c.o.queryTimeout).Result()
		if err != nil {
			return nil, fmt.Errorf("reading finger %d of node %d: %w", i, nodeID, err)
		}
		entry, ok := res.(*FingerEntry)
		if !ok || entry.Node == nil {
			return nil, fmt.Errorf("finger %d of node %d is unpopulated", i, nodeID)
		}
		idRes, err := c.system.Root.RequestFuture(entry.Node, &GetID{}, c.o.queryTimeout).Result()
		if err != nil {
			return nil, fmt.Errorf("resolving finger %d of node %d: %w", i, nodeID, err)
		}
		id, ok := idRes.(*NodeID)
		if !ok {
			return nil, fmt.Errorf("unexpected GetID reply %T", idRes)
		}
		fingers = append(fingers, id.ID)
	}
	return fingers, nil
}

// Shutdown stops the supervisor. Node actors are abandoned to the actor
// system, which is acceptable for a single-shot simulation process.
func (c *Cluster) Shutdown() {
	c.system.Root.Send(c.supervisor, &Shutdown{})
}

func (c *Cluster) request(msg interface{}, timeout time.Duration) (interface{}, error) {
	return c.system.Root.RequestFuture(c.supervisor, msg, timeout).Result()
}
