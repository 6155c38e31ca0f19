package store

import (
	"context"
	"errors"
	"time"

	"jesa/internal/registration/models"
	dErrors "jesa/pkg/domain-errors"
	"jesa/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

// RunInTx journals the writes fn makes and undoes them if fn fails.
func (s *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &journalTx{InMemory: s}
	if err := fn(ctx, tx); err != nil {
		return errors.Join(err, tx.rollback())
	}
	return nil
}

type undo func() error

// journalTx records an inverse operation for every successful write.
type journalTx struct {
	*InMemory
	undos []undo
}

func (t *journalTx) CreateBase(ctx context.Context, base *models.BaseApplicant) error {
	if err := t.InMemory.CreateBase(ctx, base); err != nil {
		return err
	}
	id := base.ID
	t.undos = append(t.undos, func() error { return t.InMemory.DeleteBase(context.Background(), id) })
	return nil
}

func (t *journalTx) CreateExternal(ctx context.Context, detail *models.ExternalApplicant) error {
	if err := t.InMemory.CreateExternal(ctx, detail); err != nil {
		return err
	}
	id := detail.ID
	t.undos = append(t.undos, func() error {
		return t.InMemory.DeleteDetail(context.Background(), models.VariantExternal, id)
	})
	return nil
}

func (t *journalTx) CreateInternal(ctx context.Context, detail *models.InternalApplicant) error {
	if err := t.InMemory.CreateInternal(ctx, detail); err != nil {
		return err
	}
	id := detail.ID
	t.undos = append(t.undos, func() error {
		return t.InMemory.DeleteDetail(context.Background(), models.VariantInternal, id)
	})
	return nil
}

func (t *journalTx) LinkDetail(ctx context.Context, baseID, detailID ObjectID) error {
	if err := t.InMemory.LinkDetail(ctx, baseID, detailID); err != nil {
		return err
	}
	t.undos = append(t.undos, func() error { return t.InMemory.unlink(baseID) })
	return nil
}

func (t *journalTx) rollback() error {
	var errs []error
	for i := len(t.undos) - 1; i >= 0; i-- {
		if err := t.undos[i](); err != nil {
			errs = append(errs, err)
		}
	}
	t.undos = nil
	return errors.Join(errs...)
}

func (s *InMemory) unlink(baseID ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	base, ok := s.bases[baseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	base.DetailID = nil
	return nil
}
