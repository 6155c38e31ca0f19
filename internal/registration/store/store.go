// Package store persists applicant records. InMemory backs tests and local
// development; MongoStore is the production document store.
package store

import (
	"context"

	"jesa/internal/registration/models"
)

// Store is the persistence surface used by the registration service.
// Implementations return sentinel.ErrNotFound for missing records and
// sentinel.ErrInvalidState when a base record is already linked.
type Store interface {
	CreateBase(ctx context.Context, base *models.BaseApplicant) error
	CreateExternal(ctx context.Context, detail *models.ExternalApplicant) error
	CreateInternal(ctx context.Context, detail *models.InternalApplicant) error
	LinkDetail(ctx context.Context, baseID, detailID ObjectID) error
	DeleteBase(ctx context.Context, id ObjectID) error
	DeleteDetail(ctx context.Context, variant models.Variant, id ObjectID) error

	FindBase(ctx context.Context, id ObjectID) (*models.BaseApplicant, error)
	FindDetail(ctx context.Context, variant models.Variant, id ObjectID) (models.Detail, error)
	ListBases(ctx context.Context, limit int) ([]*models.BaseApplicant, error)
}

// TxRunner runs fn atomically: either every write made through the store
// passed to fn persists, or none does.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
