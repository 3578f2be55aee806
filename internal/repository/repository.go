package repository

import (
	"context"

	"alcyxob/material-approval/internal/domain"
)

// Error constants for repository layer
var (
	ErrInvalidTransition = RepositoryError("status transition not permitted")
	ErrPersistFailed     = RepositoryError("persist failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// MaterialStore is the contract the service layer depends on. Lookups for a
// missing id report absence through their results, never through an error.
type MaterialStore interface {
	GetAll() []domain.Material
	GetByStatus(statuses ...domain.Status) []domain.Material
	GetByID(id int) (*domain.Material, bool)
	Create(ctx context.Context, draft domain.MaterialDraft) (*domain.Material, error)
	UpdateStatus(ctx context.Context, id int, status domain.Status, approver string) (*domain.Material, error)
	PendingCount() int
}
