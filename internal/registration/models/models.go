// Package models holds the applicant records and the registration payloads.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Variant selects the specialization collection a base record links to.
type Variant string

const (
	VariantExternal Variant = "external"
	VariantInternal Variant = "internal"
)

// IsValid reports whether v is a known variant.
func (v Variant) IsValid() bool {
	return v == VariantExternal || v == VariantInternal
}

// Collection names. They match the documents already written by the
// registration site so existing data stays readable.
const (
	CollectionBase     = "baseapplicants"
	CollectionExternal = "externalapplicants"
	CollectionInternal = "internalapplicants"
)

// BaseApplicant is created first for every registrant. DetailID stays nil
// until the specialization record exists and is set exactly once.
type BaseApplicant struct {
	ID         primitive.ObjectID  `bson:"_id" json:"id"`
	University string              `bson:"University" json:"university"`
	Variant    Variant             `bson:"Variant" json:"variant"`
	DetailID   *primitive.ObjectID `bson:"DetilID,omitempty" json:"detail_id,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"created_at"`
}

// IsLinked reports whether the detail reference has been attached.
func (b *BaseApplicant) IsLinked() bool {
	return b.DetailID != nil && !b.DetailID.IsZero()
}

// ExternalApplicant is the specialization record for students of other
// universities.
type ExternalApplicant struct {
	ID                   primitive.ObjectID `bson:"_id" json:"id"`
	ApplicantID          primitive.ObjectID `bson:"ApplicantId" json:"applicant_id"`
	Name                 string             `bson:"Name" json:"name"`
	NIC                  string             `bson:"NIC" json:"nic"`
	Gender               string             `bson:"Gender" json:"gender"`
	Email                string             `bson:"Email" json:"email"`
	Whatsapp             string             `bson:"Whatsapp" json:"whatsapp"`
	University           string             `bson:"University" json:"university"`
	Faculty              string             `bson:"Faculty" json:"faculty"`
	UniversityRegisterID string             `bson:"UniversityRegisterId" json:"university_register_id"`
	AcademicYear         string             `bson:"AcademicYear" json:"academic_year"`
	Award                string             `bson:"Award" json:"award"`
	WhichIndustry        string             `bson:"WhichIndustry" json:"which_industry"`
	CreatedAt            time.Time          `bson:"createdAt" json:"created_at"`
}

// InternalApplicant is the specialization record for students of the host
// institution.
type InternalApplicant struct {
	ID                   primitive.ObjectID `bson:"_id" json:"id"`
	ApplicantID          primitive.ObjectID `bson:"ApplicantId" json:"applicant_id"`
	Name                 string             `bson:"Name" json:"name"`
	Gender               string             `bson:"Gender" json:"gender"`
	Email                string             `bson:"Email" json:"email"`
	Whatsapp             string             `bson:"Whatsapp" json:"whatsapp"`
	University           string             `bson:"University" json:"university"`
	UniversityRegisterID string             `bson:"UniversityRegisterId" json:"university_register_id"`
	AcademicYear         string             `bson:"AcademicYear" json:"academic_year"`
	Faculty              string             `bson:"Faculty" json:"faculty"`
	Degree               string             `bson:"Degree" json:"degree"`
	OtherDegree          string             `bson:"OtherDegree,omitempty" json:"other_degree,omitempty"`
	IsPastParticipant    bool               `bson:"IsPastParticipant" json:"is_past_participant"`
	Award1               string             `bson:"Award1" json:"award1"`
	Award2               string             `bson:"Award2,omitempty" json:"award2,omitempty"`
	Award3               string             `bson:"Award3,omitempty" json:"award3,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt" json:"created_at"`
}

// Awards returns the non-empty award selections in order.
func (a *InternalApplicant) Awards() []string {
	return nonEmpty(a.Award1, a.Award2, a.Award3)
}

// Detail is either an *ExternalApplicant or an *InternalApplicant.
type Detail interface {
	DetailID() primitive.ObjectID
	BaseID() primitive.ObjectID
	Variant() Variant
}

func (a *ExternalApplicant) DetailID() primitive.ObjectID { return a.ID }
func (a *ExternalApplicant) BaseID() primitive.ObjectID   { return a.ApplicantID }
func (a *ExternalApplicant) Variant() Variant             { return VariantExternal }

func (a *InternalApplicant) DetailID() primitive.ObjectID { return a.ID }
func (a *InternalApplicant) BaseID() primitive.ObjectID   { return a.ApplicantID }
func (a *InternalApplicant) Variant() Variant             { return VariantInternal }

// Registration is a base record together with its linked detail.
type Registration struct {
	Base   *BaseApplicant `json:"base"`
	Detail Detail         `json:"detail,omitempty"`
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
