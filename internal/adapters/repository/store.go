// Package repository defines the session store interface and its in-memory
// implementation.
package repository

import "context"

// Store keeps live values keyed by id.
type Store[T any] interface {
	// Create stores v under id. Returns ErrExists if id is taken and
	// ErrCapacity when the store is full.
	Create(ctx context.Context, id string, v T) error

	// Get returns the value for id or ErrNotFound.
	Get(ctx context.Context, id string) (T, error)

	// Delete removes id and returns its value or ErrNotFound.
	Delete(ctx context.Context, id string) (T, error)

	// Range calls fn for every stored value until fn returns false.
	Range(ctx context.Context, fn func(id string, v T) bool)

	// Count returns the number of stored values.
	Count(ctx context.Context) int
}
