// Package memory holds map-backed implementations of the repository and
// collaborator interfaces. They enforce the same uniqueness and tenant rules as
// the Postgres repositories and back the service and job tests.
package memory

import (
	"context"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// TxManager runs fn directly; each fake guards its own state.
type TxManager struct{}

func (TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
