package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"jesa/internal/audit"
	"jesa/internal/registration/catalog"
	"jesa/internal/registration/eligibility"
	"jesa/internal/registration/metrics"
	"jesa/internal/registration/models"
	"jesa/internal/registration/store"
	"jesa/internal/registration/validation"
	dErrors "jesa/pkg/domain-errors"
	"jesa/pkg/requestcontext"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *recordingPublisher) Emit(_ context.Context, e audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) actions() []audit.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]audit.Action, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

// failingStore fails the named step and optionally the compensating deletes.
type failingStore struct {
	*store.InMemory
	failCreateBase   bool
	failCreateDetail bool
	failLink         bool
	failDelete       bool
}

var errStore = errors.New("write concern timeout")

func (f *failingStore) CreateBase(ctx context.Context, base *models.BaseApplicant) error {
	if f.failCreateBase {
		return errStore
	}
	return f.InMemory.CreateBase(ctx, base)
}

func (f *failingStore) CreateExternal(ctx context.Context, d *models.ExternalApplicant) error {
	if f.failCreateDetail {
		return errStore
	}
	return f.InMemory.CreateExternal(ctx, d)
}

func (f *failingStore) LinkDetail(ctx context.Context, baseID, detailID store.ObjectID) error {
	if f.failLink {
		return errStore
	}
	return f.InMemory.LinkDetail(ctx, baseID, detailID)
}

func (f *failingStore) DeleteBase(ctx context.Context, id store.ObjectID) error {
	if f.failDelete {
		return errStore
	}
	return f.InMemory.DeleteBase(ctx, id)
}

type RegistrationServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.InMemory
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	service   *Service
}

func TestRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceSuite))
}

func (s *RegistrationServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC))
	s.store = store.NewInMemory()
	s.publisher = &recordingPublisher{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = s.newService(s.store)
}

func (s *RegistrationServiceSuite) newService(st store.Store, opts ...Option) *Service {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.publisher),
		WithMetrics(s.metrics),
	}
	return New(st, catalog.Default(), append(base, opts...)...)
}

func strPtr(v string) *string { return &v }

func sonal() *models.ExternalRequest {
	return &models.ExternalRequest{
		Name:                 "Sonal Jayasinghe",
		NIC:                  "200105600352",
		Gender:               "M",
		Email:                "sonaldanindulk@gmail.com",
		Whatsapp:             "0705589209",
		University:           "peradeniya",
		UniversityRegisterID: strPtr("AS2021939"),
		AcademicYear:         "1",
		Award:                "Best Innovator",
		Faculty:              "X",
		WhichIndustry:        "Paka Banwa",
	}
}

func nimal() *models.InternalRequest {
	return &models.InternalRequest{
		Name:                 "Nimal Perera",
		Gender:               "Male",
		Email:                "nimal@sjp.ac.lk",
		Whatsapp:             "0771234567",
		UniversityRegisterID: "AS2020123",
		AcademicYear:         "3",
		Faculty:              "Faculty of Technology",
		Degree:               "BICT Information and Communication Technology",
		Award1:               "Best Innovator",
		Award2:               "BESA - Technology",
	}
}

func (s *RegistrationServiceSuite) assertCounts(bases, external, internal int) {
	s.T().Helper()
	b, e, i := s.store.Counts()
	s.Equal(bases, b, "base records")
	s.Equal(external, e, "external records")
	s.Equal(internal, i, "internal records")
}

func (s *RegistrationServiceSuite) TestRegisterExternal() {
	s.Run("writes a linked pair", func() {
		reg, err := s.service.RegisterExternal(s.ctx, sonal())
		s.Require().NoError(err)

		base, err := s.store.FindBase(s.ctx, reg.Base.ID)
		s.Require().NoError(err)
		s.Equal("peradeniya", base.University)
		s.Equal(models.VariantExternal, base.Variant)
		s.Require().NotNil(base.DetailID)
		s.Equal(reg.Detail.DetailID(), *base.DetailID)

		detail, err := s.store.FindDetail(s.ctx, models.VariantExternal, *base.DetailID)
		s.Require().NoError(err)
		s.Equal(base.ID, detail.BaseID())
		s.Equal("AS2021939", detail.(*models.ExternalApplicant).UniversityRegisterID)
		s.Equal(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), base.CreatedAt)
	})

	s.Run("host institution student is rejected before any write", func() {
		before, _, _ := s.store.Counts()
		req := sonal()
		req.University = catalog.PrimaryUniversity

		_, err := s.service.RegisterExternal(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeIneligible))
		s.Equal(eligibility.MsgNotExternal, dErrors.MessageOf(err))
		after, _, _ := s.store.Counts()
		s.Equal(before, after)
	})

	s.Run("other award is rejected before any write", func() {
		before, _, _ := s.store.Counts()
		req := sonal()
		req.Award = "Best Leader"

		_, err := s.service.RegisterExternal(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeIneligible))
		s.Equal(eligibility.MsgExternalAwardOnly, dErrors.MessageOf(err))
		after, _, _ := s.store.Counts()
		s.Equal(before, after)
	})

	s.Run("missing field is a validation error before any write", func() {
		before, _, _ := s.store.Counts()
		req := sonal()
		req.NIC = ""

		_, err := s.service.RegisterExternal(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		issues, ok := validation.IssuesOf(err)
		s.Require().True(ok)
		s.Equal("NIC", issues[0].Field)
		after, _, _ := s.store.Counts()
		s.Equal(before, after)
	})
}

func (s *RegistrationServiceSuite) TestDuplicateSubmissionsCreateTwoPairs() {
	first, err := s.service.RegisterExternal(s.ctx, sonal())
	s.Require().NoError(err)
	second, err := s.service.RegisterExternal(s.ctx, sonal())
	s.Require().NoError(err)

	s.NotEqual(first.Base.ID, second.Base.ID)
	s.NotEqual(first.Detail.DetailID(), second.Detail.DetailID())
	s.assertCounts(2, 2, 0)
}

func (s *RegistrationServiceSuite) TestRegisterInternal() {
	s.Run("defaults university and links", func() {
		reg, err := s.service.RegisterInternal(s.ctx, nimal())
		s.Require().NoError(err)
		s.Equal(catalog.PrimaryUniversity, reg.Base.University)

		detail := reg.Detail.(*models.InternalApplicant)
		s.Equal("M", detail.Gender)
		s.Equal([]string{"Best Innovator", "BESA - Technology"}, detail.Awards())
		s.Require().NotNil(reg.Base.DetailID)
		s.Equal(detail.ID, *reg.Base.DetailID)
	})

	s.Run("other degree without detail is a validation error", func() {
		req := nimal()
		req.Degree = catalog.OtherDegree
		req.OtherDegree = "  "

		_, err := s.service.RegisterInternal(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("degree from another faculty is ineligible", func() {
		req := nimal()
		req.Degree = "MBBS"

		_, err := s.service.RegisterInternal(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeIneligible))
	})
}

func (s *RegistrationServiceSuite) TestTransactionalWrite() {
	svc := s.newService(s.store, WithTxRunner(s.store))
	reg, err := svc.RegisterExternal(s.ctx, sonal())
	s.Require().NoError(err)
	s.True(reg.Base.IsLinked())
	s.assertCounts(1, 1, 0)
	s.Equal(1, testutil.CollectAndCount(s.metrics.WriterDuration, "jesa_registration_write_duration_seconds"))
}

func (s *RegistrationServiceSuite) TestTransactionRollsBackOnLinkFailure() {
	failing := &failingStore{InMemory: s.store, failLink: true}
	svc := s.newService(failing, WithTxRunner(txOver{failing}))

	_, err := svc.RegisterExternal(s.ctx, sonal())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal(MsgSaveFailed, dErrors.MessageOf(err))
	s.assertCounts(0, 0, 0)
}

func (s *RegistrationServiceSuite) TestTransactionBaseFailureWritesNothing() {
	failing := &failingStore{InMemory: s.store, failCreateBase: true}
	svc := s.newService(failing, WithTxRunner(txOver{failing}))

	_, err := svc.RegisterInternal(s.ctx, nimal())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal(MsgSaveFailed, dErrors.MessageOf(err))
	s.assertCounts(0, 0, 0)
}

func (s *RegistrationServiceSuite) TestCompensation() {
	s.Run("base failure writes nothing and needs no cleanup", func() {
		svc := s.newService(&failingStore{InMemory: s.store, failCreateBase: true})
		_, err := svc.RegisterExternal(s.ctx, sonal())
		s.ErrorIs(err, errStore)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Equal(MsgSaveFailed, dErrors.MessageOf(err))
		s.assertCounts(0, 0, 0)
		s.Zero(testutil.CollectAndCount(s.metrics.Compensations, "jesa_registration_compensations_total"))
		s.Contains(s.publisher.actions(), audit.ActionFailed)
	})

	s.Run("detail failure removes the base", func() {
		svc := s.newService(&failingStore{InMemory: s.store, failCreateDetail: true})
		_, err := svc.RegisterExternal(s.ctx, sonal())
		s.ErrorIs(err, errStore)
		s.assertCounts(0, 0, 0)
	})

	s.Run("link failure removes base and detail", func() {
		svc := s.newService(&failingStore{InMemory: s.store, failLink: true})
		_, err := svc.RegisterExternal(s.ctx, sonal())
		s.ErrorIs(err, errStore)
		s.assertCounts(0, 0, 0)
		s.Equal(float64(2), testutil.ToFloat64(s.metrics.Compensations.WithLabelValues("succeeded")))
	})

	s.Run("failed compensation leaves an audited orphan", func() {
		svc := s.newService(&failingStore{InMemory: s.store, failCreateDetail: true, failDelete: true})
		_, err := svc.RegisterExternal(s.ctx, sonal())
		s.ErrorIs(err, errStore)
		s.assertCounts(1, 0, 0)
		s.Contains(s.publisher.actions(), audit.ActionOrphaned)

		bases, err := s.store.ListBases(s.ctx, 10)
		s.Require().NoError(err)
		s.False(bases[0].IsLinked())
	})
}

func (s *RegistrationServiceSuite) TestAuditAndMetrics() {
	_, err := s.service.RegisterExternal(s.ctx, sonal())
	s.Require().NoError(err)
	bad := sonal()
	bad.Award = "Best Leader"
	_, _ = s.service.RegisterExternal(s.ctx, bad)
	invalid := sonal()
	invalid.Email = "nope"
	_, _ = s.service.RegisterExternal(s.ctx, invalid)

	s.Equal([]audit.Action{audit.ActionRegistered, audit.ActionRejected, audit.ActionInvalid}, s.publisher.actions())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Registrations.WithLabelValues("external", metrics.OutcomeRegistered)))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Registrations.WithLabelValues("external", metrics.OutcomeIneligible)))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Registrations.WithLabelValues("external", metrics.OutcomeInvalid)))
}

func (s *RegistrationServiceSuite) TestGetRegistration() {
	reg, err := s.service.RegisterInternal(s.ctx, nimal())
	s.Require().NoError(err)

	s.Run("returns base with detail", func() {
		got, err := s.service.GetRegistration(s.ctx, reg.Base.ID)
		s.Require().NoError(err)
		s.Equal(reg.Base.ID, got.Base.ID)
		s.Require().NotNil(got.Detail)
		s.Equal(reg.Detail.DetailID(), got.Detail.DetailID())
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.GetRegistration(s.ctx, primitive.NewObjectID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RegistrationServiceSuite) TestListApplicants() {
	for range 3 {
		_, err := s.service.RegisterExternal(s.ctx, sonal())
		s.Require().NoError(err)
	}

	list, err := s.service.ListApplicants(s.ctx, 2)
	s.Require().NoError(err)
	s.Len(list, 2)

	_, err = s.service.ListApplicants(s.ctx, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

// txOver runs fn against a fixed store inside the in-memory journal.
type txOver struct {
	st *failingStore
}

func (t txOver) RunInTx(ctx context.Context, fn func(ctx context.Context, s store.Store) error) error {
	return t.st.InMemory.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &failingTx{Store: tx, failCreateBase: t.st.failCreateBase, failLink: t.st.failLink})
	})
}

type failingTx struct {
	store.Store
	failCreateBase bool
	failLink       bool
}

func (f *failingTx) CreateBase(ctx context.Context, base *models.BaseApplicant) error {
	if f.failCreateBase {
		return errStore
	}
	return f.Store.CreateBase(ctx, base)
}

func (f *failingTx) LinkDetail(ctx context.Context, baseID, detailID store.ObjectID) error {
	if f.failLink {
		return errStore
	}
	return f.Store.LinkDetail(ctx, baseID, detailID)
}
