package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"jesa/internal/registration/catalog"
	"jesa/internal/registration/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		lookupsFaculty = ""
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLookupsCommand(t *testing.T) {
	out, err := execute(t, "lookups")
	require.NoError(t, err)
	for _, faculty := range catalog.Default().Faculties() {
		assert.Contains(t, out, faculty)
	}
	assert.Contains(t, out, catalog.PrimaryUniversity)
}

func TestLookupsCommandForFaculty(t *testing.T) {
	out, err := execute(t, "lookups", "--faculty", "Faculty of Engineering")
	require.NoError(t, err)
	assert.Contains(t, out, "BSc Eng Civil Engineering")
	assert.Contains(t, out, "BESA - Engineering")

	_, err = execute(t, "lookups", "--faculty", "Faculty of Magic")
	assert.ErrorContains(t, err, "unknown faculty")
}

func TestHashTokenCommand(t *testing.T) {
	out, err := execute(t, "admin", "hash-token", "a-long-operator-token")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("a-long-operator-token")))

	_, err = execute(t, "admin", "hash-token", "short")
	assert.Error(t, err)
}

func TestApplicantsShowRejectsBadID(t *testing.T) {
	_, err := execute(t, "applicants", "show", "not-an-id")
	assert.Error(t, err)
}

func TestRenderRegistration(t *testing.T) {
	baseID := primitive.NewObjectID()
	reg := &models.Registration{
		Base: &models.BaseApplicant{
			ID:         baseID,
			University: catalog.PrimaryUniversity,
			Variant:    models.VariantInternal,
			CreatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		Detail: &models.InternalApplicant{
			ID:          primitive.NewObjectID(),
			ApplicantID: baseID,
			Name:        "Nimali Perera",
			Faculty:     "Faculty of Engineering",
			Degree:      catalog.OtherDegree,
			OtherDegree: "BSc Eng Mechatronics",
			Award1:      "Best Leader",
			Award2:      "BESA - Engineering",
		},
	}

	var out bytes.Buffer
	renderRegistration(&out, reg)
	s := out.String()
	assert.Contains(t, s, baseID.Hex())
	assert.Contains(t, s, "Other (BSc Eng Mechatronics)")
	assert.Contains(t, s, "BESA - Engineering")
	assert.NotContains(t, s, "Detail record missing")
}

func TestRenderApplicantsEmpty(t *testing.T) {
	var out bytes.Buffer
	renderApplicants(&out, nil)
	assert.Contains(t, out.String(), "No applicants found")
}
