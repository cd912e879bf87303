// Package ingest runs one stream worker per network: it dials the upstream
// protocol stream, feeds every tick into that network's SharedState and KV
// cache, and reports its own lifecycle as a StreamStatus the HTTP surface's
// pre-validation gate reads back out of the cache.
package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"dexstream/core"
	"dexstream/core/upstream"
	"dexstream/pkg/cache"
	"dexstream/pkg/utils"
)

// errStreamEnded is what Run returns when the upstream stream closes without
// ctx being cancelled, so the supervisor restarts it like any other failure.
var errStreamEnded = errors.New("upstream stream ended")

// Worker runs a single network's ingestion loop until ctx is cancelled or
// the upstream stream ends.
type Worker struct {
	Network core.Network
	Builder upstream.StreamBuilder
	Tokens  upstream.TokenClient
	Cache   *cache.Store
	State   *core.SharedState
	Logger  *log.Entry
}

// FetchTokens performs the one-shot token enumeration for this network. It
// is meant to run once, before the worker loop is ever started: a failure
// here skips the network for the rest of the process's lifetime rather than
// being retried by the supervisor, which only restarts the streaming loop.
func (w *Worker) FetchTokens(ctx context.Context) error {
	tokens, err := w.Tokens.Tokens(ctx, w.Network.ChainTag)
	if err != nil {
		return utils.Wrap(err, "fetch tokens")
	}
	cache.Set(ctx, w.Cache, cache.Keys.Tokens(w.Network.Name), tokens)
	return nil
}

// Run dials the upstream stream and consumes it until ctx is done or the
// stream itself ends. It returns nil on a clean shutdown (ctx cancelled)
// and a non-nil error on any other termination, which the supervisor uses
// to decide whether and how fast to restart. Callers must have already run
// FetchTokens successfully; Run does not touch the token set.
func (w *Worker) Run(ctx context.Context) error {
	logger := w.Logger
	logger.Info("launching")
	w.setStatus(ctx, core.StatusLaunching)

	stream, err := w.Builder.Dial(ctx, w.Network.UpstreamEndpoint, w.Network.ChainTag)
	if err != nil {
		w.setStatus(ctx, core.StatusError)
		return utils.Wrap(err, "dial upstream stream")
	}
	defer stream.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-stream.Err():
			if !ok {
				return errStreamEnded
			}
			w.setStatus(ctx, core.StatusError)
			return err
		case upd, ok := <-stream.Updates():
			if !ok {
				return errStreamEnded
			}
			if err := w.applyUpdate(ctx, upd); err != nil {
				logger.WithError(err).Warn("failed to apply block update")
			}
		}
	}
}

func (w *Worker) applyUpdate(ctx context.Context, upd upstream.BlockUpdate) error {
	cache.Set(ctx, w.Cache, cache.Keys.Latest(w.Network.Name), upd.Block)

	if !w.State.Initialised() {
		return w.firstSync(ctx, upd)
	}
	return w.steadyState(ctx, upd)
}

// firstSync installs the initial snapshot: every component and protosim the
// upstream stream handed us on its first tick becomes SharedState's
// baseline, and the cache's component list is seeded with everything except
// components whose id still carries the null-address sentinel (the
// upstream library emits these briefly before a pool's real address is
// known).
func (w *Worker) firstSync(ctx context.Context, upd upstream.BlockUpdate) error {
	w.setStatus(ctx, core.StatusSyncing)

	w.State.InstallSnapshot(upd.Protosims, upd.Components)

	installed := make([]core.Component, 0, len(upd.Components))
	for id, c := range upd.Components {
		if strings.Contains(strings.ToLower(string(id)), core.NullAddressSentinel) {
			continue
		}
		installed = append(installed, c)
	}
	cache.Set(ctx, w.Cache, cache.Keys.Components(w.Network.Name), installed)
	cache.Set(ctx, w.Cache, cache.Keys.Updated(w.Network.Name), []core.ComponentID{})

	w.setStatus(ctx, core.StatusRunning)
	w.Logger.WithField("components", len(installed)).Info("first sync complete")
	return nil
}

// steadyState merges a delta tick: simulations are upserted directly into
// SharedState, and the cache's authoritative component list (not
// SharedState's copy) is read back, patched with new/removed pairs and
// freshened last_updated_at timestamps, then written back.
func (w *Worker) steadyState(ctx context.Context, upd upstream.BlockUpdate) error {
	if len(upd.Protosims) > 0 {
		touched := w.State.UpsertSimulations(upd.Protosims)
		cache.Set(ctx, w.Cache, cache.Keys.Updated(w.Network.Name), touched)
	}

	if len(upd.Protosims) > 0 || len(upd.Components) > 0 || len(upd.RemovedPairs) > 0 {
		current, _ := cache.Get[[]core.Component](ctx, w.Cache, cache.Keys.Components(w.Network.Name))
		byID := make(map[core.ComponentID]core.Component, len(current))
		for _, c := range current {
			byID[c.ID] = c
		}

		now := time.Now().Unix()
		for id := range upd.Protosims {
			if c, exists := byID[id]; exists {
				c.LastUpdatedAt = now
				byID[id] = c
			}
		}
		for id, c := range upd.Components {
			c.LastUpdatedAt = now
			byID[id] = c
		}
		for _, id := range upd.RemovedPairs {
			delete(byID, id)
		}

		merged := make([]core.Component, 0, len(byID))
		for _, c := range byID {
			merged = append(merged, c)
		}
		cache.Set(ctx, w.Cache, cache.Keys.Components(w.Network.Name), merged)
	}

	// Even an empty delta with no block advance is persisted as a Running
	// heartbeat, so a quiet upstream doesn't look like a stalled worker.
	w.setStatus(ctx, core.StatusRunning)
	return nil
}

func (w *Worker) setStatus(ctx context.Context, status core.StreamStatus) {
	cache.Set(ctx, w.Cache, cache.Keys.Status(w.Network.Name), status)
}
