package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"jesa/internal/registration/catalog"
)

// ExternalRequest is the POST /register/external payload. Field names match
// the registration site's form. UniversityRegisterId must be present but may
// be empty.
type ExternalRequest struct {
	Name                 string  `json:"Name" validate:"required,min=1"`
	NIC                  string  `json:"NIC" validate:"required,min=9"`
	Gender               string  `json:"Gender" validate:"required,gender"`
	Email                string  `json:"Email" validate:"required,email"`
	Whatsapp             string  `json:"Whatsapp" validate:"required,min=9"`
	University           string  `json:"University" validate:"required,university"`
	Faculty              string  `json:"Faculty" validate:"required,min=1"`
	UniversityRegisterID *string `json:"UniversityRegisterId" validate:"required"`
	AcademicYear         string  `json:"AcademicYear" validate:"required,academic_year"`
	Award                string  `json:"Award" validate:"required,award"`
	WhichIndustry        string  `json:"WhichIndustry" validate:"required,min=1"`
	// ApplicantId is accepted for compatibility and ignored; the writer sets
	// the reference itself.
	ApplicantID string `json:"ApplicantId,omitempty" validate:"-"`
}

// Normalize trims every string and maps gender labels onto codes.
func (r *ExternalRequest) Normalize(c *catalog.Catalog) {
	trim(&r.Name, &r.NIC, &r.Email, &r.Whatsapp, &r.University, &r.Faculty,
		&r.AcademicYear, &r.Award, &r.WhichIndustry)
	if r.UniversityRegisterID != nil {
		v := strings.TrimSpace(*r.UniversityRegisterID)
		r.UniversityRegisterID = &v
	}
	r.Gender = c.NormalizeGender(r.Gender)
}

// ToRecord builds the specialization record for baseID.
func (r *ExternalRequest) ToRecord(baseID primitive.ObjectID, now time.Time) *ExternalApplicant {
	var regID string
	if r.UniversityRegisterID != nil {
		regID = *r.UniversityRegisterID
	}
	return &ExternalApplicant{
		ID:                   primitive.NewObjectID(),
		ApplicantID:          baseID,
		Name:                 r.Name,
		NIC:                  r.NIC,
		Gender:               r.Gender,
		Email:                r.Email,
		Whatsapp:             r.Whatsapp,
		University:           r.University,
		Faculty:              r.Faculty,
		UniversityRegisterID: regID,
		AcademicYear:         r.AcademicYear,
		Award:                r.Award,
		WhichIndustry:        r.WhichIndustry,
		CreatedAt:            now,
	}
}

// InternalRequest is the POST /register/internal payload.
type InternalRequest struct {
	Name                 string `json:"Name" validate:"required,min=2"`
	Gender               string `json:"Gender" validate:"required,gender"`
	Email                string `json:"Email" validate:"required,email"`
	Whatsapp             string `json:"Whatsapp" validate:"required,min=10"`
	University           string `json:"University" validate:"required,university"`
	UniversityRegisterID string `json:"UniversityRegisterId" validate:"required"`
	AcademicYear         string `json:"AcademicYear" validate:"required,academic_year"`
	Faculty              string `json:"Faculty" validate:"required,faculty"`
	Degree               string `json:"Degree" validate:"required"`
	OtherDegree          string `json:"OtherDegree" validate:"required_if=Degree Other"`
	IsPastParticipant    bool   `json:"IsPastParticipant"`
	Award1               string `json:"Award1" validate:"required,award"`
	Award2               string `json:"Award2" validate:"omitempty,award"`
	Award3               string `json:"Award3" validate:"omitempty,award"`
}

// Normalize trims strings, maps gender labels and defaults University to
// the host institution as the internal form does.
func (r *InternalRequest) Normalize(c *catalog.Catalog) {
	trim(&r.Name, &r.Email, &r.Whatsapp, &r.University, &r.UniversityRegisterID,
		&r.AcademicYear, &r.Faculty, &r.Degree, &r.OtherDegree,
		&r.Award1, &r.Award2, &r.Award3)
	r.Gender = c.NormalizeGender(r.Gender)
	if r.University == "" {
		r.University = catalog.PrimaryUniversity
	}
	if r.Degree != catalog.OtherDegree {
		r.OtherDegree = ""
	}
}

// Awards returns the non-empty award selections in order.
func (r *InternalRequest) Awards() []string {
	return nonEmpty(r.Award1, r.Award2, r.Award3)
}

// ToRecord builds the specialization record for baseID.
func (r *InternalRequest) ToRecord(baseID primitive.ObjectID, now time.Time) *InternalApplicant {
	return &InternalApplicant{
		ID:                   primitive.NewObjectID(),
		ApplicantID:          baseID,
		Name:                 r.Name,
		Gender:               r.Gender,
		Email:                r.Email,
		Whatsapp:             r.Whatsapp,
		University:           r.University,
		UniversityRegisterID: r.UniversityRegisterID,
		AcademicYear:         r.AcademicYear,
		Faculty:              r.Faculty,
		Degree:               r.Degree,
		OtherDegree:          r.OtherDegree,
		IsPastParticipant:    r.IsPastParticipant,
		Award1:               r.Award1,
		Award2:               r.Award2,
		Award3:               r.Award3,
		CreatedAt:            now,
	}
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
