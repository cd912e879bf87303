// Package upstream declares the contract between the ingestion worker and
// whatever client library speaks to the external protocol stream. It never
// implements the wire protocol itself; it only describes the shape a real
// client must expose, the same way a channel-fed client wraps a lower-level
// transport behind State()/Err() channels.
package upstream

import (
	"context"

	"dexstream/core"
)

// BlockUpdate is one tick of the upstream stream: the block it was produced
// at, and every component/simulation delta observed since the previous
// tick. On the very first tick, Components/Protosims hold the full
// snapshot rather than a delta.
type BlockUpdate struct {
	Block       uint64
	Components  map[core.ComponentID]core.Component
	Protosims   map[core.ComponentID]core.Simulation
	RemovedPairs []core.ComponentID
}

// Stream is the minimum surface a connected upstream session exposes: a
// channel of block updates and a channel of terminal errors. Exactly one of
// the two fires per lifecycle event; the worker treats a closed Updates
// channel with no prior Err as the end of the stream and returns, after
// which the supervisor dials again.
type Stream interface {
	Updates() <-chan BlockUpdate
	Err() <-chan error
	Close() error
}

// TokenClient fetches the quality-screened token universe for a network,
// the one-shot call the worker makes before opening the block stream.
type TokenClient interface {
	Tokens(ctx context.Context, chainTag string) ([]core.Token, error)
}

// StreamBuilder opens a new Stream for a network. Implementations own
// reconnection at the transport level; the worker/supervisor layer only
// ever sees a Stream end (via a closed channel or a value on Err) and
// reacts by calling Dial again.
type StreamBuilder interface {
	Dial(ctx context.Context, endpoint, chainTag string) (Stream, error)
}
