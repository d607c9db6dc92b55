package chordsim

import (
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/asynkron/protoactor-go/actor"
)

// Supervisor owns the participant registry, drives the initialization
// barrier and the lookup workload, and aggregates the statistics. It never
// routes lookups itself; it only hands them to a start node and waits on a
// one-shot reply mailbox.
type Supervisor struct {
	registry map[uint64]*actor.PID
	ids      []uint64
	o        options
	logger   *slog.Logger
}

func newSupervisor(registry map[uint64]*actor.PID, o options) *Supervisor {
	return &Supervisor{
		registry: registry,
		ids:      slices.Sorted(maps.Keys(registry)),
		o:        o,
		logger:   o.logger,
	}
}

// Receive handles message passing.
func (s *Supervisor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *InitializeNodes:
		s.initializeNodes(ctx)
	case *StartSimulation:
		s.startSimulation(msg, ctx)
	case *Lookup:
		s.lookup(msg, ctx)
	case *GetNodeCount:
		ctx.Respond(&NodeCount{Count: len(s.registry)})
	case *Shutdown:
		ctx.Stop(ctx.Self())
	}
}

// initializeNodes broadcasts InitFingerTable to every participant, then
// waits for all acks. The barrier cares only about the number of acks, so
// the broadcast completes before the first wait begins.
func (s *Supervisor) initializeNodes(ctx actor.Context) {
	acks := make([]*actor.Future, len(s.ids))
	for i, id := range s.ids {
		acks[i] = actor.NewFuture(ctx.ActorSystem(), s.o.initAckTimeout)
		ctx.Send(s.registry[id], &InitFingerTable{
			Registry: maps.Clone(s.registry),
			ReplyTo:  acks[i].PID(),
		})
	}
	for i, ack := range acks {
		if _, err := ack.Result(); err != nil {
			reason := fmt.Sprintf("node %d did not acknowledge initialization: %v", s.ids[i], err)
			s.logger.Error("initialization barrier failed", "node", s.ids[i], "err", err)
			ctx.Respond(&InitFailed{Reason: reason})
			return
		}
	}
	s.logger.Info("ring initialized", "nodes", len(s.ids))
	ctx.Respond(&InitComplete{})
}

// startSimulation issues RequestsPerNode lookups from every listed node in
// order. Targets come from a single seeded stream which advances once per
// lookup regardless of outcome, so a run is reproducible from (N, R, seed).
func (s *Supervisor) startSimulation(msg *StartSimulation, ctx actor.Context) {
	if len(msg.NodeIDs) == 0 {
		ctx.Respond(&SimulationFailed{Reason: "no start nodes given"})
		return
	}
	if msg.RequestsPerNode < 1 {
		ctx.Respond(&SimulationFailed{Reason: "requests per node must be at least 1"})
		return
	}

	var (
		rng        = rand.New(rand.NewPCG(s.o.seed, 0))
		ring       = RingSize(s.o.bits)
		hopCharge  = EstimatedHops(len(s.registry))
		successful = 0
		totalHops  = 0
		measured   = 0
	)

	start := time.Now()
	for _, nodeID := range msg.NodeIDs {
		node, ok := s.registry[nodeID]
		for r := 0; r < msg.RequestsPerNode; r++ {
			target := rng.Uint64N(ring)
			if !ok {
				s.logger.Warn("start node missing from registry", "node", nodeID)
				continue
			}

			mailbox := actor.NewFuture(ctx.ActorSystem(), s.o.lookupTimeout)
			ctx.Send(node, &FindSuccessor{Target: target, ReplyTo: mailbox.PID()})

			res, err := mailbox.Result()
			if err != nil {
				s.logger.Warn("lookup timed out", "node", nodeID, "target", target)
				continue
			}
			found, isFound := res.(*FoundSuccessor)
			if !isFound {
				continue
			}
			successful++
			totalHops += hopCharge
			measured += found.Hops
		}
	}

	ctx.Respond(&SimulationComplete{
		TotalRequests:     len(msg.NodeIDs) * msg.RequestsPerNode,
		SuccessfulLookups: successful,
		TotalHops:         totalHops,
		MeasuredHops:      measured,
		DurationMS:        time.Since(start).Milliseconds(),
	})
}

// lookup resolves one ad-hoc target starting at FromNode.
func (s *Supervisor) lookup(msg *Lookup, ctx actor.Context) {
	node, ok := s.registry[msg.FromNode]
	if !ok {
		ctx.Respond(&LookupFailure{Reason: fmt.Sprintf("no participant with ID %d", msg.FromNode)})
		return
	}

	mailbox := actor.NewFuture(ctx.ActorSystem(), s.o.lookupTimeout)
	ctx.Send(node, &FindSuccessor{Target: msg.Target, ReplyTo: mailbox.PID()})

	res, err := mailbox.Result()
	if err != nil {
		ctx.Respond(&LookupFailure{Reason: fmt.Sprintf("lookup for %d timed out: %v", msg.Target, err)})
		return
	}
	found, isFound := res.(*FoundSuccessor)
	if !isFound {
		ctx.Respond(&LookupFailure{Reason: fmt.Sprintf("unexpected lookup reply %T", res)})
		return
	}
	ctx.Respond(&LookupSuccess{Target: msg.Target, Hops: found.Hops, FoundAt: found.ID})
}
