package chordsim

import (
	"io"
	"log/slog"
	"time"
)

// options configures a simulated ring (internal only).
type options struct {
	bits               int
	seed               uint64
	fingerQueryTimeout time.Duration
	queryTimeout       time.Duration
	lookupTimeout      time.Duration
	initAckTimeout     time.Duration
	logger             *slog.Logger
}

// defaultOptions returns the timing bounds the protocol was measured with.
func defaultOptions() options {
	return options{
		bits:               DefaultBits,
		seed:               12345,
		fingerQueryTimeout: 100 * time.Millisecond,
		queryTimeout:       1 * time.Second,
		lookupTimeout:      5 * time.Second,
		initAckTimeout:     50 * time.Second,
		logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option is a functional option for configuring a Cluster.
type Option func(*options)

// WithBits sets the identifier bit width. The ring holds 2^bits identifiers.
func WithBits(bits int) Option {
	return func(o *options) {
		o.bits = bits
	}
}

// WithSeed sets the seed of the workload's target stream. Runs with the same
// seed, node count and request count reproduce the same statistics.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithFingerQueryTimeout bounds the GetID round trips a node performs while
// walking its finger table.
func WithFingerQueryTimeout(d time.Duration) Option {
	return func(o *options) {
		o.fingerQueryTimeout = d
	}
}

// WithQueryTimeout bounds the per-hop sub-queries of a lookup.
func WithQueryTimeout(d time.Duration) Option {
	return func(o *options) {
		o.queryTimeout = d
	}
}

// WithLookupTimeout bounds how long the supervisor waits for one lookup.
func WithLookupTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lookupTimeout = d
	}
}

// WithInitAckTimeout bounds how long the supervisor waits for each
// initialization ack.
func WithInitAckTimeout(d time.Duration) Option {
	return func(o *options) {
		o.initAckTimeout = d
	}
}

// WithLogger sets the logger. A nil logger silences the cluster.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		o.logger = logger
	}
}
