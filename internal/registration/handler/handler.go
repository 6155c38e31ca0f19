package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"jesa/internal/audit"
	"jesa/internal/platform/metrics"
	"jesa/internal/platform/middleware"
	"jesa/internal/registration/catalog"
	"jesa/internal/registration/models"
	"jesa/internal/registration/service"
	"jesa/internal/registration/validation"
	dErrors "jesa/pkg/domain-errors"
	"jesa/pkg/platform/httputil"
	"jesa/pkg/platform/middleware/admin"
	"jesa/pkg/platform/middleware/metadata"
	"jesa/pkg/platform/middleware/requesttime"
	"jesa/pkg/requestcontext"
)

// MsgSaved is returned when both records of a registration are written.
const MsgSaved = "Applicant saved successfully"

// Service defines the registration operations used by the handler.
type Service interface {
	RegisterExternal(ctx context.Context, req *models.ExternalRequest) (*models.Registration, error)
	RegisterInternal(ctx context.Context, req *models.InternalRequest) (*models.Registration, error)
	GetRegistration(ctx context.Context, id primitive.ObjectID) (*models.Registration, error)
	ListApplicants(ctx context.Context, limit int) ([]*models.BaseApplicant, error)
}

// AuditReader lists recently emitted audit events.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler serves the registration, lookup and admin endpoints.
type Handler struct {
	service        Service
	catalog        *catalog.Catalog
	logger         *slog.Logger
	metrics        *metrics.Metrics
	rateLimit      func(http.Handler) http.Handler
	auditReader    AuditReader
	adminTokenHash string
	timeout        time.Duration
}

type Option func(*Handler)

// WithRateLimit guards the two registration routes.
func WithRateLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.rateLimit = mw
	}
}

// WithAdmin enables the admin routes. An empty hash leaves them mounted but
// rejecting every request.
func WithAdmin(tokenHash string, auditReader AuditReader) Option {
	return func(h *Handler) {
		h.adminTokenHash = tokenHash
		h.auditReader = auditReader
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// New creates a registration Handler.
func New(svc Service, c *catalog.Catalog, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		service: svc,
		catalog: c,
		logger:  logger,
		metrics: m,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts every route on r.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger, h.metrics))
	router.Use(middleware.RequestID)
	router.Use(metadata.ClientMetadata)
	router.Use(requesttime.Middleware)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(h.timeout))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.LatencyMiddleware(h.metrics))

	router.Group(func(r chi.Router) {
		if h.rateLimit != nil {
			r.Use(h.rateLimit)
		}
		r.Post("/register/external", h.handleRegisterExternal)
		r.Post("/register/internal", h.handleRegisterInternal)
	})

	router.Get("/lookups", h.handleLookups)
	router.Get("/lookups/faculties/{faculty}/degrees", h.handleDegrees)
	router.Get("/lookups/awards", h.handleAwards)

	router.Route("/admin", func(r chi.Router) {
		r.Use(admin.RequireAdminToken(h.adminTokenHash, h.logger))
		r.Get("/applicants", h.handleListApplicants)
		r.Get("/applicants/{id}", h.handleGetApplicant)
		r.Get("/audit", h.handleListAudit)
	})

	r.Mount("/", router)
}

type messageResponse struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Error *validation.Error `json:"error"`
}

func (h *Handler) handleRegisterExternal(w http.ResponseWriter, r *http.Request) {
	var req models.ExternalRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.writeDecodeError(w, r, err)
		return
	}
	_, err := h.service.RegisterExternal(r.Context(), &req)
	h.writeRegistrationResult(w, r, err)
}

func (h *Handler) handleRegisterInternal(w http.ResponseWriter, r *http.Request) {
	var req models.InternalRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.writeDecodeError(w, r, err)
		return
	}
	_, err := h.service.RegisterInternal(r.Context(), &req)
	h.writeRegistrationResult(w, r, err)
}

func (h *Handler) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, "invalid registration request",
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
	httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": dErrors.MessageOf(err)})
}

// writeRegistrationResult maps the service outcome onto the registration
// envelopes: {error:{issues}} for shape failures and {message} otherwise.
func (h *Handler) writeRegistrationResult(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusCreated, messageResponse{Message: MsgSaved})
	case dErrors.HasCode(err, dErrors.CodeValidation):
		issues, _ := validation.IssuesOf(err)
		h.logger.InfoContext(ctx, "registration payload rejected",
			"request_id", requestID,
			"issues", len(issues),
		)
		httputil.WriteJSON(w, http.StatusBadRequest, validationResponse{Error: &validation.Error{Issues: issues}})
	case dErrors.HasCode(err, dErrors.CodeIneligible):
		h.logger.InfoContext(ctx, "registration not eligible",
			"request_id", requestID,
			"reason", dErrors.MessageOf(err),
		)
		httputil.WriteJSON(w, http.StatusUnauthorized, messageResponse{Message: dErrors.MessageOf(err)})
	default:
		h.logger.ErrorContext(ctx, "failed to save applicant",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, messageResponse{Message: service.MsgSaveFailed})
	}
}
