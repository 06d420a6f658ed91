package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/oscodesolution-devops/gift-ginnie-server/api/middleware"
	pkgerrors "github.com/oscodesolution-devops/gift-ginnie-server/pkg/errors"
)

// currentUserID extracts the authenticated user id seeded by the auth middleware.
func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	uid, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return uid, nil
}
