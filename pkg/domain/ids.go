// Package domain holds identifier parsing shared across packages.
package domain

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "jesa/pkg/domain-errors"
)

// ParseObjectID parses a 24-character hex record identifier. Empty, malformed
// and all-zero identifiers are rejected with CodeInvalidInput.
func ParseObjectID(s string) (primitive.ObjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return primitive.NilObjectID, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a 24 character hex string")
	}
	if oid.IsZero() {
		return primitive.NilObjectID, dErrors.New(dErrors.CodeInvalidInput, "id must not be zero")
	}
	return oid, nil
}
