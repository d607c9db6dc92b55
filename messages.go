package chordsim

import "github.com/asynkron/protoactor-go/actor"

// Messages exchanged inside the ring. Node handles are protoactor PIDs and
// carry no identifier; a node's ID is always obtained with GetID.

// GetID asks a node for its identifier. Answered with NodeID.
type GetID struct{}

// NodeID is the reply to GetID.
type NodeID struct {
	ID uint64
}

// GetSuccessor asks for the current successor handle. Answered with
// SuccessorIs; the handle is nil while the node is uninitialized.
type GetSuccessor struct{}

// SuccessorIs is the reply to GetSuccessor.
type SuccessorIs struct {
	Node *actor.PID
}

// GetPredecessor asks for the current predecessor handle. Answered with
// PredecessorIs.
type GetPredecessor struct{}

// PredecessorIs is the reply to GetPredecessor.
type PredecessorIs struct {
	Node *actor.PID
}

// SetSuccessor replaces the node's successor. No reply.
type SetSuccessor struct {
	Node *actor.PID
}

// SetPredecessor replaces the node's predecessor. No reply.
type SetPredecessor struct {
	Node *actor.PID
}

// InitFingerTable hands a node the full ID-to-handle registry and asks it to
// build its finger table. The node acknowledges on ReplyTo with
// InitializationComplete once the table is in place.
type InitFingerTable struct {
	Registry map[uint64]*actor.PID
	ReplyTo  *actor.PID
}

// InitializationComplete is the finger-table ack.
type InitializationComplete struct {
	ID uint64
}

// GetFingerEntry asks for the handle stored at one finger index. Answered
// with FingerEntry; Node is nil when the slot is unpopulated.
type GetFingerEntry struct {
	Index int
}

// FingerEntry is the reply to GetFingerEntry.
type FingerEntry struct {
	Index int
	Node  *actor.PID
}

// FindSuccessor routes a lookup for Target through the ring. Whichever node
// resolves the lookup sends FoundSuccessor directly to ReplyTo; intermediate
// nodes forward the message with ReplyTo attached and Hops incremented.
type FindSuccessor struct {
	Target  uint64
	ReplyTo *actor.PID
	Hops    int
}

// FoundSuccessor is the lookup result: the responsible node's ID and handle,
// plus the number of forwarding steps the request took.
type FoundSuccessor struct {
	ID   uint64
	Node *actor.PID
	Hops int
}

// ClosestPrecedingFinger asks a node for its highest finger whose ID lies
// strictly between the node's own ID and Target. Answered with
// ClosestPrecedingReply; Node is nil when no finger qualifies.
type ClosestPrecedingFinger struct {
	Target uint64
}

// ClosestPrecedingReply is the reply to ClosestPrecedingFinger.
type ClosestPrecedingReply struct {
	Node *actor.PID
}

// Supervisor messages.

// InitializeNodes broadcasts InitFingerTable to every participant and waits
// for all acks. Answered with InitComplete or InitFailed.
type InitializeNodes struct{}

// InitComplete signals that every node acknowledged initialization.
type InitComplete struct{}

// InitFailed carries the reason the init barrier was abandoned.
type InitFailed struct {
	Reason string
}

// StartSimulation runs RequestsPerNode lookups from every listed node and
// aggregates the outcome. Answered with SimulationComplete or
// SimulationFailed.
type StartSimulation struct {
	NodeIDs         []uint64
	RequestsPerNode int
}

// SimulationComplete reports the aggregated workload outcome. TotalHops uses
// the log2 estimator; MeasuredHops sums the forwarding counters carried by
// FoundSuccessor.
type SimulationComplete struct {
	TotalRequests     int
	SuccessfulLookups int
	TotalHops         int
	MeasuredHops      int
	DurationMS        int64
}

// SimulationFailed carries the reason no workload was run.
type SimulationFailed struct {
	Reason string
}

// Lookup resolves a single target starting from a chosen node. Answered with
// LookupSuccess or LookupFailure.
type Lookup struct {
	Target   uint64
	FromNode uint64
}

// LookupSuccess reports a resolved ad-hoc lookup. Hops is measured, not
// estimated.
type LookupSuccess struct {
	Target  uint64
	Hops    int
	FoundAt uint64
}

// LookupFailure carries the reason an ad-hoc lookup produced no result.
type LookupFailure struct {
	Reason string
}

// GetNodeCount asks the supervisor how many participants it owns. Answered
// with NodeCount.
type GetNodeCount struct{}

// NodeCount is the reply to GetNodeCount.
type NodeCount struct {
	Count int
}

// Shutdown stops the supervisor. Node actors are left to the actor system.
type Shutdown struct{}
