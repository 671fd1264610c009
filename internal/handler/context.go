package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/projectbuzz/platform/internal/auth"
	"github.com/projectbuzz/platform/internal/domain"
)

// AdminIDFromContext returns the authenticated admin's ID. Admin tokens carry
// the same subject shape as user tokens, only the realm differs.
func AdminIDFromContext(r *http.Request) (uuid.UUID, error) {
	return userIDFromContext(r)
}

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	sub := auth.SubjectFromContext(r.Context())
	if sub == "" {
		return uuid.Nil, domain.ErrUnauthorized("no subject in context")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized("invalid subject")
	}
	return id, nil
}
