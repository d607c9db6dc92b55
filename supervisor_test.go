package chordsim

import (
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentActor swallows every message, standing in for a wedged node.
type silentActor struct{}

func (a *silentActor) Receive(actor.Context) {}

func spawnSupervisor(t *testing.T, system *actor.ActorSystem, registry map[uint64]*actor.PID, o options) *actor.PID {
	t.Helper()
	props := actor.PropsFromProducer(func() actor.Actor { return newSupervisor(registry, o) })
	pid, err := system.Root.SpawnNamed(props, "supervisor")
	require.NoError(t, err)
	return pid
}

func TestInitializationBarrier(t *testing.T) {
	t.Run("completes when every node acks", func(t *testing.T) {
		system, registry := spawnRing(t, NodeIDs(5, DefaultBits))
		sup := spawnSupervisor(t, system, registry, defaultOptions())

		res, err := system.Root.RequestFuture(sup, &InitializeNodes{}, testWait).Result()
		require.NoError(t, err)
		assert.IsType(t, &InitComplete{}, res)
	})

	t.Run("fails when a node never acks", func(t *testing.T) {
		system, registry := spawnRing(t, []uint64{0, 100})
		silent, err := system.Root.SpawnNamed(actor.PropsFromProducer(func() actor.Actor { return &silentActor{} }), "wedged")
		require.NoError(t, err)
		registry[200] = silent

		o := defaultOptions()
		o.initAckTimeout = 200 * time.Millisecond
		sup := spawnSupervisor(t, system, registry, o)

		res, err := system.Root.RequestFuture(sup, &InitializeNodes{}, testWait).Result()
		require.NoError(t, err)
		require.IsType(t, &InitFailed{}, res)
		assert.Contains(t, res.(*InitFailed).Reason, "did not acknowledge")
	})
}

func TestStartSimulationValidation(t *testing.T) {
	system, registry := spawnRing(t, NodeIDs(3, DefaultBits))
	sup := spawnSupervisor(t, system, registry, defaultOptions())

	_, err := system.Root.RequestFuture(sup, &InitializeNodes{}, testWait).Result()
	require.NoError(t, err)

	t.Run("rejects an empty node list", func(t *testing.T) {
		res, err := system.Root.RequestFuture(sup, &StartSimulation{RequestsPerNode: 1}, testWait).Result()
		require.NoError(t, err)
		require.IsType(t, &SimulationFailed{}, res)
		assert.Contains(t, res.(*SimulationFailed).Reason, "no start nodes")
	})

	t.Run("rejects zero requests per node", func(t *testing.T) {
		msg := &StartSimulation{NodeIDs: NodeIDs(3, DefaultBits), RequestsPerNode: 0}
		res, err := system.Root.RequestFuture(sup, msg, testWait).Result()
		require.NoError(t, err)
		require.IsType(t, &SimulationFailed{}, res)
		assert.Contains(t, res.(*SimulationFailed).Reason, "at least 1")
	})
}

func TestSupervisorLookup(t *testing.T) {
	ids := NodeIDs(4, DefaultBits)
	system, registry := spawnRing(t, ids)
	sup := spawnSupervisor(t, system, registry, defaultOptions())

	_, err := system.Root.RequestFuture(sup, &InitializeNodes{}, testWait).Result()
	require.NoError(t, err)

	t.Run("resolves a target through the ring", func(t *testing.T) {
		res, err := system.Root.RequestFuture(sup, &Lookup{Target: 20000, FromNode: ids[0]}, testWait).Result()
		require.NoError(t, err)
		require.IsType(t, &LookupSuccess{}, res)

		success := res.(*LookupSuccess)
		assert.Equal(t, uint64(20000), success.Target)
		assert.Equal(t, SuccessorInSorted(20000, ids), success.FoundAt)
	})

	t.Run("fails for an unknown start node", func(t *testing.T) {
		res, err := system.Root.RequestFuture(sup, &Lookup{Target: 20000, FromNode: 31337}, testWait).Result()
		require.NoError(t, err)
		require.IsType(t, &LookupFailure{}, res)
		assert.Contains(t, res.(*LookupFailure).Reason, "no participant")
	})
}

func TestGetNodeCount(t *testing.T) {
	system, registry := spawnRing(t, NodeIDs(7, DefaultBits))
	sup := spawnSupervisor(t, system, registry, defaultOptions())

	res, err := system.Root.RequestFuture(sup, &GetNodeCount{}, testWait).Result()
	require.NoError(t, err)
	require.IsType(t, &NodeCount{}, res)
	assert.Equal(t, 7, res.(*NodeCount).Count)
}

func TestWorkloadStatistics(t *testing.T) {
	system, registry := spawnRing(t, NodeIDs(10, DefaultBits))
	sup := spawnSupervisor(t, system, registry, defaultOptions())

	_, err := system.Root.RequestFuture(sup, &InitializeNodes{}, testWait).Result()
	require.NoError(t, err)

	msg := &StartSimulation{NodeIDs: NodeIDs(10, DefaultBits), RequestsPerNode: 5}
	res, err := system.Root.RequestFuture(sup, msg, 60*time.Second).Result()
	require.NoError(t, err)
	require.IsType(t, &SimulationComplete{}, res)

	stats := res.(*SimulationComplete)
	assert.Equal(t, 50, stats.TotalRequests)
	assert.Equal(t, 50, stats.SuccessfulLookups)
	// Every successful lookup is charged ceil(log2 10) = 4 hops.
	assert.Equal(t, 200, stats.TotalHops)
	assert.GreaterOrEqual(t, stats.DurationMS, int64(0))
	// Measured forwarding stays within the trivial bound of one pass
	// around a 10-node ring per lookup.
	assert.LessOrEqual(t, stats.MeasuredHops, 500)
}
