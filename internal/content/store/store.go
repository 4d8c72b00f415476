// Package store loads the document corpus from the external content store.
// The engine treats the store as read-only input: every rebuild loads a full
// snapshot and replaces the previous index wholesale.
package store

import (
	"context"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
)

// Store supplies full corpus snapshots for indexing.
type Store interface {
	LoadAll(ctx context.Context) ([]content.Document, error)
}
