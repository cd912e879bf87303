package ingest

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"dexstream/core"
	"dexstream/pkg/cache"
)

// ProductionRestartDelay and TestingRestartDelay are the two fixed
// back-off durations the supervisor waits between restarts of the same
// network's worker; the service's own testing mode trades a slower-to-fail
// production default for faster iteration.
const (
	ProductionRestartDelay = 60 * time.Second
	TestingRestartDelay    = 5 * time.Second
)

// Supervise runs w.Run in a loop until ctx is cancelled, restarting it on
// any error return or panic after waiting restartDelay. A clean Run (nil
// error, i.e. ctx cancellation) ends the loop instead of restarting.
func Supervise(ctx context.Context, w *Worker, restartDelay time.Duration) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := runOnce(ctx, w)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			return
		}
		cache.Set(ctx, w.Cache, cache.Keys.Status(w.Network.Name), core.StatusError)
		w.Logger.WithError(err).WithField("retry_in", restartDelay).Warn("worker ended, restarting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(restartDelay):
		}
	}
}

// runOnce wraps w.Run with panic recovery so a single bad tick can't take
// the whole process down; a recovered panic is reported the same way an
// ordinary error return is.
func runOnce(ctx context.Context, w *Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.Logger.WithField("panic", r).Error("worker panicked")
			err = panicError{r}
		}
	}()
	return w.Run(ctx)
}

type panicError struct{ v any }

func (p panicError) Error() string {
	return "worker panic recovered"
}
