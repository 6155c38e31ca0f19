// Package eligibility applies the business rules a well-formed registration
// must satisfy before anything is written.
package eligibility

import (
	"slices"

	"jesa/internal/registration/catalog"
	"jesa/internal/registration/models"
	dErrors "jesa/pkg/domain-errors"
)

// Rejection messages are returned verbatim to clients. The external ones are
// matched by the registration site, so their spelling must not change.
const (
	MsgNotExternal        = "You are not Extenal Sudent"
	MsgExternalAwardOnly  = "You Extenal Sudent only can appliy to the Best Innovator Award"
	MsgNotInternal        = "You are not an Internal Student"
	MsgDegreeNotOffered   = "Selected degree is not offered by the selected faculty"
	MsgAwardNotForFaculty = "Selected award is not available for the selected faculty"
	MsgThirdAwardPastOnly = "Only past participants can apply for a third award"
	MsgDuplicateAward     = "Selected awards must be different"
)

// Engine evaluates eligibility against the lookup tables.
type Engine struct {
	catalog *catalog.Catalog
}

// New creates an Engine reading from c.
func New(c *catalog.Catalog) *Engine {
	return &Engine{catalog: c}
}

// CheckExternal rejects host institution students and any award other than
// Best Innovator. Rules run in that order.
func (e *Engine) CheckExternal(req *models.ExternalRequest) error {
	if req.University == catalog.PrimaryUniversity {
		return ineligible(MsgNotExternal)
	}
	if req.Award != catalog.BestInnovator {
		return ineligible(MsgExternalAwardOnly)
	}
	return nil
}

// CheckInternal narrows Degree and the award selections by Faculty.
func (e *Engine) CheckInternal(req *models.InternalRequest) error {
	if req.University != catalog.PrimaryUniversity {
		return ineligible(MsgNotInternal)
	}
	if !e.catalog.OffersDegree(req.Faculty, req.Degree) {
		return ineligible(MsgDegreeNotOffered)
	}
	if req.Award3 != "" && !req.IsPastParticipant {
		return ineligible(MsgThirdAwardPastOnly)
	}

	allowed := e.catalog.AwardsFor(req.Faculty)
	selected := req.Awards()
	for i, award := range selected {
		if !slices.Contains(allowed, award) {
			return ineligible(MsgAwardNotForFaculty)
		}
		if slices.Contains(selected[:i], award) {
			return ineligible(MsgDuplicateAward)
		}
	}
	return nil
}

func ineligible(msg string) error {
	return dErrors.New(dErrors.CodeIneligible, msg)
}
