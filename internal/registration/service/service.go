// Package service runs the registration workflow: normalize, validate,
// check eligibility, then write the base and detail records.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"jesa/internal/audit"
	"jesa/internal/registration/catalog"
	"jesa/internal/registration/eligibility"
	"jesa/internal/registration/metrics"
	"jesa/internal/registration/models"
	"jesa/internal/registration/store"
	"jesa/internal/registration/validation"
	dErrors "jesa/pkg/domain-errors"
	"jesa/pkg/platform/sentinel"
	"jesa/pkg/requestcontext"
)

// MsgSaveFailed is the client-facing message for storage failures.
const MsgSaveFailed = "Error saving applicant"

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service orchestrates applicant registration.
type Service struct {
	store       store.Store
	tx          store.TxRunner
	catalog     *catalog.Catalog
	validator   *validation.Validator
	eligibility *eligibility.Engine

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTxRunner makes the three write steps atomic. Without it a failed
// step is undone by compensating deletes.
func WithTxRunner(tx store.TxRunner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service over st with lookup tables c.
func New(st store.Store, c *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		store:       st,
		catalog:     c,
		validator:   validation.New(c),
		eligibility: eligibility.New(c),
		logger:      slog.Default(),
		tracer:      otel.Tracer("jesa/registration"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterExternal registers a student of another university.
func (s *Service) RegisterExternal(ctx context.Context, req *models.ExternalRequest) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "registration.external")
	defer span.End()

	req.Normalize(s.catalog)
	variant := models.VariantExternal
	if err := s.validator.Struct(req); err != nil {
		return nil, s.rejected(ctx, variant, req.University, err)
	}
	if err := s.eligibility.CheckExternal(req); err != nil {
		return nil, s.rejected(ctx, variant, req.University, err)
	}

	reg, err := s.write(ctx, variant, req.University, func(ctx context.Context, st store.Store, baseID primitive.ObjectID) (models.Detail, error) {
		detail := req.ToRecord(baseID, requestcontext.Now(ctx).UTC())
		if err := st.CreateExternal(ctx, detail); err != nil {
			return nil, err
		}
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	s.registered(ctx, reg, req.Award)
	return reg, nil
}

// RegisterInternal registers a student of the host institution.
func (s *Service) RegisterInternal(ctx context.Context, req *models.InternalRequest) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "registration.internal")
	defer span.End()

	req.Normalize(s.catalog)
	variant := models.VariantInternal
	if err := s.validator.Struct(req); err != nil {
		return nil, s.rejected(ctx, variant, req.University, err)
	}
	if err := s.eligibility.CheckInternal(req); err != nil {
		return nil, s.rejected(ctx, variant, req.University, err)
	}

	reg, err := s.write(ctx, variant, req.University, func(ctx context.Context, st store.Store, baseID primitive.ObjectID) (models.Detail, error) {
		detail := req.ToRecord(baseID, requestcontext.Now(ctx).UTC())
		if err := st.CreateInternal(ctx, detail); err != nil {
			return nil, err
		}
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	s.registered(ctx, reg, req.Award1)
	return reg, nil
}

// GetRegistration loads a base record and its linked detail. An unlinked
// base is returned with a nil Detail.
func (s *Service) GetRegistration(ctx context.Context, id primitive.ObjectID) (*models.Registration, error) {
	base, err := s.store.FindBase(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "applicant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applicant")
	}
	reg := &models.Registration{Base: base}
	if !base.IsLinked() {
		return reg, nil
	}

	detail, err := s.store.FindDetail(ctx, base.Variant, *base.DetailID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "base applicant links to missing detail",
				"request_id", requestcontext.RequestID(ctx),
				"base_id", base.ID.Hex(),
				"detail_id", base.DetailID.Hex(),
			)
			return reg, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applicant detail")
	}
	reg.Detail = detail
	return reg, nil
}

// ListApplicants returns recent base records, newest first.
func (s *Service) ListApplicants(ctx context.Context, limit int) ([]*models.BaseApplicant, error) {
	if limit <= 0 || limit > 500 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 500")
	}
	bases, err := s.store.ListBases(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applicants")
	}
	return bases, nil
}

// Catalog exposes the lookup tables the service validates against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Service) rejected(ctx context.Context, variant models.Variant, university string, err error) error {
	outcome, action := metrics.OutcomeInvalid, audit.ActionInvalid
	if dErrors.HasCode(err, dErrors.CodeIneligible) {
		outcome, action = metrics.OutcomeIneligible, audit.ActionRejected
	}
	s.metrics.IncrementRegistration(string(variant), outcome)
	s.emit(ctx, audit.Event{
		Action:     action,
		Variant:    string(variant),
		University: university,
		Reason:     dErrors.MessageOf(err),
	})
	return err
}

func (s *Service) registered(ctx context.Context, reg *models.Registration, award string) {
	s.metrics.IncrementRegistration(string(reg.Base.Variant), metrics.OutcomeRegistered)
	s.logger.InfoContext(ctx, "applicant registered",
		"request_id", requestcontext.RequestID(ctx),
		"variant", string(reg.Base.Variant),
		"base_id", reg.Base.ID.Hex(),
		"detail_id", reg.Detail.DetailID().Hex(),
	)
	s.emit(ctx, audit.Event{
		Action:     audit.ActionRegistered,
		Variant:    string(reg.Base.Variant),
		BaseID:     reg.Base.ID.Hex(),
		DetailID:   reg.Detail.DetailID().Hex(),
		University: reg.Base.University,
		Award:      award,
	})
}

func (s *Service) emit(ctx context.Context, e audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", string(e.Action),
			"error", err.Error(),
		)
	}
}
