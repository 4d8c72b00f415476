package index

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/errors"
)

// Engine owns the published index. Rebuilds construct a complete Snapshot
// off to the side and publish it in a single atomic pointer swap, so
// concurrent readers always see either the fully-old or fully-new index.
// The read path takes no locks.
type Engine struct {
	current   atomic.Pointer[Snapshot]
	rebuildMu sync.Mutex
	opts      BuildOptions
	logger    *slog.Logger
}

// NewEngine creates an Engine with no published index. Queries fail with
// ErrEngineNotReady until the first Rebuild completes.
func NewEngine(opts BuildOptions) *Engine {
	return &Engine{
		opts:   opts,
		logger: slog.Default().With("component", "index-engine"),
	}
}

// Rebuild indexes the given corpus snapshot and publishes the result.
// Rebuilds are serialised; readers are never blocked.
func (e *Engine) Rebuild(ctx context.Context, docs []content.Document) (*Snapshot, error) {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	start := time.Now()
	snap, err := Build(ctx, docs, e.opts)
	if err != nil {
		return nil, err
	}
	e.current.Store(snap)
	e.logger.Info("index rebuilt",
		"documents", snap.DocCount(),
		"vocabulary", len(snap.vocabulary),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return snap, nil
}

// Snapshot returns the currently published index, or ErrEngineNotReady if no
// build has completed yet. Callers must be able to distinguish "no matches"
// from "engine not ready".
func (e *Engine) Snapshot() (*Snapshot, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, errors.ErrEngineNotReady
	}
	return snap, nil
}

// Ready reports whether an index has been published.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}
