package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"jesa/internal/audit"
	"jesa/internal/registration/metrics"
	"jesa/internal/registration/models"
	"jesa/internal/registration/store"
	dErrors "jesa/pkg/domain-errors"
	"jesa/pkg/requestcontext"
)

// createDetail writes the specialization record for baseID.
type createDetail func(ctx context.Context, st store.Store, baseID primitive.ObjectID) (models.Detail, error)

// stepError records which write step failed and what it had created so far.
type stepError struct {
	step   string
	base   *models.BaseApplicant
	detail models.Detail
	err    error
}

func (e *stepError) Error() string { return e.step + ": " + e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }

// write runs create base, create detail, link base in strict order.
func (s *Service) write(ctx context.Context, variant models.Variant, university string, create createDetail) (*models.Registration, error) {
	start := time.Now()
	mode := "compensate"
	if s.tx != nil {
		mode = "transaction"
	}

	var reg *models.Registration
	var err error
	if s.tx != nil {
		err = s.tx.RunInTx(ctx, func(ctx context.Context, st store.Store) error {
			var stepErr error
			reg, stepErr = s.steps(ctx, st, variant, university, create)
			return stepErr
		})
	} else {
		reg, err = s.steps(ctx, s.store, variant, university, create)
		if err != nil {
			s.compensate(ctx, err)
		}
	}
	s.metrics.ObserveWrite(string(variant), mode, time.Since(start).Seconds())

	if err != nil {
		s.metrics.IncrementRegistration(string(variant), metrics.OutcomeFailed)
		s.logger.ErrorContext(ctx, "failed to save applicant",
			"request_id", requestcontext.RequestID(ctx),
			"variant", string(variant),
			"mode", mode,
			"error", err.Error(),
		)
		s.emit(ctx, audit.Event{
			Action:     audit.ActionFailed,
			Variant:    string(variant),
			University: university,
			Reason:     err.Error(),
		})
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, MsgSaveFailed)
	}
	return reg, nil
}

func (s *Service) steps(ctx context.Context, st store.Store, variant models.Variant, university string, create createDetail) (*models.Registration, error) {
	base := &models.BaseApplicant{
		ID:         primitive.NewObjectID(),
		University: university,
		Variant:    variant,
		CreatedAt:  requestcontext.Now(ctx).UTC(),
	}

	if err := s.traced(ctx, "registration.create_base", base.ID, func(ctx context.Context) error {
		return st.CreateBase(ctx, base)
	}); err != nil {
		return nil, &stepError{step: "create base", err: err}
	}

	var detail models.Detail
	if err := s.traced(ctx, "registration.create_detail", base.ID, func(ctx context.Context) error {
		var err error
		detail, err = create(ctx, st, base.ID)
		return err
	}); err != nil {
		return nil, &stepError{step: "create detail", base: base, err: err}
	}

	if err := s.traced(ctx, "registration.link_detail", base.ID, func(ctx context.Context) error {
		return st.LinkDetail(ctx, base.ID, detail.DetailID())
	}); err != nil {
		return nil, &stepError{step: "link detail", base: base, detail: detail, err: err}
	}

	id := detail.DetailID()
	base.DetailID = &id
	return &models.Registration{Base: base, Detail: detail}, nil
}

// compensate deletes whatever a failed sequence created. If that fails too
// the orphan is logged and audited with its IDs.
func (s *Service) compensate(ctx context.Context, err error) {
	var se *stepError
	if !errors.As(err, &se) || se.base == nil {
		return
	}
	// The request may already be cancelled; cleanup must still run.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var errs []error
	if se.detail != nil {
		if derr := s.store.DeleteDetail(cctx, se.detail.Variant(), se.detail.DetailID()); derr != nil {
			errs = append(errs, fmt.Errorf("delete detail %s: %w", se.detail.DetailID().Hex(), derr))
		}
	}
	if derr := s.store.DeleteBase(cctx, se.base.ID); derr != nil {
		errs = append(errs, fmt.Errorf("delete base %s: %w", se.base.ID.Hex(), derr))
	}

	if len(errs) == 0 {
		s.metrics.IncrementCompensation("succeeded")
		s.logger.InfoContext(ctx, "compensated failed registration",
			"request_id", requestcontext.RequestID(ctx),
			"base_id", se.base.ID.Hex(),
			"failed_step", se.step,
		)
		return
	}

	s.metrics.IncrementCompensation("failed")
	cerr := errors.Join(errs...)
	e := audit.Event{
		Action:     audit.ActionOrphaned,
		Variant:    string(se.base.Variant),
		BaseID:     se.base.ID.Hex(),
		University: se.base.University,
		Reason:     cerr.Error(),
	}
	if se.detail != nil {
		e.DetailID = se.detail.DetailID().Hex()
	}
	s.logger.ErrorContext(ctx, "orphaned applicant record after failed compensation",
		"request_id", requestcontext.RequestID(ctx),
		"base_id", e.BaseID,
		"detail_id", e.DetailID,
		"failed_step", se.step,
		"error", cerr.Error(),
	)
	s.emit(ctx, e)
}

func (s *Service) traced(ctx context.Context, name string, baseID primitive.ObjectID, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()
	span.SetAttributes(attribute.String("applicant.base_id", baseID.Hex()))

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
