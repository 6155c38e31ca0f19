package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"jesa/internal/registration/catalog"
	dErrors "jesa/pkg/domain-errors"
	"jesa/pkg/platform/httputil"
)

type lookupsResponse struct {
	Genders       []string          `json:"genders"`
	Universities  []string          `json:"universities"`
	AcademicYears []string          `json:"academic_years"`
	Awards        []string          `json:"awards"`
	CommonAwards  []string          `json:"common_awards"`
	Faculties     []catalog.Faculty `json:"faculties"`
	Primary       string            `json:"primary_university"`
	ExternalAward string            `json:"external_award"`
}

type listResponse struct {
	Items []string `json:"items"`
}

func (h *Handler) handleLookups(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, lookupsResponse{
		Genders:       h.catalog.Genders(),
		Universities:  h.catalog.Universities(),
		AcademicYears: h.catalog.AcademicYears(),
		Awards:        h.catalog.Awards(),
		CommonAwards:  h.catalog.CommonAwards(),
		Faculties:     h.catalog.FacultyTable(),
		Primary:       catalog.PrimaryUniversity,
		ExternalAward: catalog.BestInnovator,
	})
}

func (h *Handler) handleDegrees(w http.ResponseWriter, r *http.Request) {
	faculty := chi.URLParam(r, "faculty")
	degrees, ok := h.catalog.DegreesFor(faculty)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown faculty"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Items: degrees})
}

// handleAwards lists the awards selectable for ?faculty=. Without a faculty
// only the common awards are returned.
func (h *Handler) handleAwards(w http.ResponseWriter, r *http.Request) {
	faculty := r.URL.Query().Get("faculty")
	if faculty != "" && !h.catalog.Contains("faculty", faculty) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown faculty"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Items: h.catalog.AwardsFor(faculty)})
}
