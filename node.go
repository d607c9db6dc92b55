package chordsim

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/asynkron/protoactor-go/actor"
)

// Node is one Chord participant. It owns its identifier, successor,
// predecessor and finger table exclusively; everything else reaches it by
// message. A node starts uninitialized and becomes routable once it has
// processed InitFingerTable.
type Node struct {
	id          uint64
	bits        int
	successor   *actor.PID
	predecessor *actor.PID
	fingers     []*actor.PID
	registry    map[uint64]*actor.PID
	initialized bool

	fingerQueryTimeout time.Duration
	queryTimeout       time.Duration
	logger             *slog.Logger
}

func newNode(id uint64, o options) *Node {
	return &Node{
		id:                 id,
		bits:               o.bits,
		fingerQueryTimeout: o.fingerQueryTimeout,
		queryTimeout:       o.queryTimeout,
		logger:             o.logger,
	}
}

// Receive handles message passing.
func (n *Node) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *GetID:
		ctx.Respond(&NodeID{ID: n.id})
	case *GetSuccessor:
		ctx.Respond(&SuccessorIs{Node: n.successor})
	case *GetPredecessor:
		ctx.Respond(&PredecessorIs{Node: n.predecessor})
	case *SetSuccessor:
		n.successor = msg.Node
	case *SetPredecessor:
		n.predecessor = msg.Node
	case *InitFingerTable:
		n.initFingerTable(msg, ctx)
	case *GetFingerEntry:
		n.fingerEntry(msg, ctx)
	case *FindSuccessor:
		n.findSuccessor(msg, ctx)
	case *ClosestPrecedingFinger:
		n.closestPrecedingFinger(msg, ctx)
	}
}

// initFingerTable builds all finger entries from the registry snapshot.
// Every node holds the full registry, so the table is computed locally
// instead of through a live join protocol; entry i is the participant
// responsible for (id + 2^i) mod ring.
func (n *Node) initFingerTable(msg *InitFingerTable, ctx actor.Context) {
	n.registry = maps.Clone(msg.Registry)
	sorted := slices.Sorted(maps.Keys(n.registry))
	ring := RingSize(n.bits)

	n.fingers = make([]*actor.PID, n.bits)
	for i := range n.fingers {
		start := (n.id + pow2(i)) % ring
		n.fingers[i] = n.registry[SuccessorInSorted(start, sorted)]
	}
	n.successor = n.fingers[0]
	n.initialized = true

	n.logger.Debug("finger table built", "node", n.id, "entries", len(n.fingers))

	ack := &InitializationComplete{ID: n.id}
	if msg.ReplyTo != nil {
		ctx.Send(msg.ReplyTo, ack)
	} else if ctx.Sender() != nil {
		ctx.Respond(ack)
	}
}

func (n *Node) fingerEntry(msg *GetFingerEntry, ctx actor.Context) {
	entry := &FingerEntry{Index: msg.Index}
	if msg.Index >= 0 && msg.Index < len(n.fingers) {
		entry.Node = n.fingers[msg.Index]
	}
	ctx.Respond(entry)
}

// findSuccessor routes a lookup. If the target falls between this node and
// its successor the chain ends here; otherwise the successor names the
// closest preceding finger and the message is forwarded there with the
// original reply mailbox attached. Only the resolving node answers the
// requester.
func (n *Node) findSuccessor(msg *FindSuccessor, ctx actor.Context) {
	replyTo := msg.ReplyTo
	if replyTo == nil {
		replyTo = ctx.Sender()
	}
	reply := func(result *FoundSuccessor) {
		if replyTo != nil {
			ctx.Send(replyTo, result)
		}
	}

	if !n.initialized || n.successor == nil || n.successor.Equal(ctx.Self()) {
		// Uninitialized node or single-node ring: this node is responsible
		// for the whole identifier space.
		reply(&FoundSuccessor{ID: n.id, Node: ctx.Self(), Hops: msg.Hops})
		return
	}

	succID, err := n.peerID(ctx, n.successor, n.queryTimeout)
	if err != nil {
		n.logger.Warn("successor unresponsive", "node", n.id, "target", msg.Target)
		reply(&FoundSuccessor{ID: n.registryID(n.successor), Node: n.successor, Hops: msg.Hops})
		return
	}

	if InRange(msg.Target, n.id, succID) {
		reply(&FoundSuccessor{ID: succID, Node: n.successor, Hops: msg.Hops})
		return
	}

	res, err := ctx.RequestFuture(n.successor, &ClosestPrecedingFinger{Target: msg.Target}, n.queryTimeout).Result()
	if err != nil {
		reply(&FoundSuccessor{ID: succID, Node: n.successor, Hops: msg.Hops})
		return
	}
	next := n.successor
	if preceding, ok := res.(*ClosestPrecedingReply); ok && preceding.Node != nil {
		next = preceding.Node
	}
	// No finger strictly precedes the target: the successor itself is the
	// closest known node, so the chain continues there.
	ctx.Send(next, &FindSuccessor{Target: msg.Target, ReplyTo: replyTo, Hops: msg.Hops + 1})
}

// closestPrecedingFinger walks the finger table from the widest entry down
// and answers with the first finger whose ID falls in (n.id, target),
// skipping entries that do not answer GetID in time.
func (n *Node) closestPrecedingFinger(msg *ClosestPrecedingFinger, ctx actor.Context) {
	for i := len(n.fingers) - 1; i >= 0; i-- {
		finger := n.fingers[i]
		if finger == nil || finger.Equal(ctx.Self()) {
			continue
		}
		fingerID, err := n.peerID(ctx, finger, n.fingerQueryTimeout)
		if err != nil {
			continue
		}
		if InRangeExclusive(fingerID, n.id, msg.Target) {
			ctx.Respond(&ClosestPrecedingReply{Node: finger})
			return
		}
	}
	ctx.Respond(&ClosestPrecedingReply{})
}

// peerID resolves a handle's identifier with a bounded GetID round trip.
func (n *Node) peerID(ctx actor.Context, peer *actor.PID, timeout time.Duration) (uint64, error) {
	if peer.Equal(ctx.Self()) {
		return n.id, nil
	}
	res, err := ctx.RequestFuture(peer, &GetID{}, timeout).Result()
	if err != nil {
		return 0, err
	}
	reply, ok := res.(*NodeID)
	if !ok {
		return 0, fmt.Errorf("unexpected GetID reply %T", res)
	}
	return reply.ID, nil
}

// registryID reverse-maps a handle through the registry snapshot. Used only
// on the degraded path where the peer did not answer GetID.
func (n *Node) registryID(peer *actor.PID) uint64 {
	for id, pid := range n.registry {
		if pid.Equal(peer) {
			return id
		}
	}
	return n.id
}
