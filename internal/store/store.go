// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/jmrelampagos/pagereply/internal/domain"
)

// Repository defines the interface for persisting per-subject engagement state.
type Repository interface {
	// GetState retrieves the engagement state for a subject.
	// Returns nil (not an error) when no record exists.
	GetState(ctx context.Context, subjectID string) (*domain.EngagementState, error)

	// UpsertState creates or updates a subject's engagement state.
	UpsertState(ctx context.Context, state *domain.EngagementState) error

	// DeleteState removes a subject's engagement state.
	// Returns true if a record existed.
	DeleteState(ctx context.Context, subjectID string) (bool, error)

	// Clear removes all engagement state and returns the number of
	// records removed.
	Clear(ctx context.Context) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
