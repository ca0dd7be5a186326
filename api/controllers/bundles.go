package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/bxgy-bundles-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/bxgy-bundles-backend/pkg/errors"
)

// shopFromRequest returns the authenticated shop domain or a typed error
// when the auth middleware did not run.
func shopFromRequest(r *http.Request) (string, error) {
	shop := middleware.ShopFromContext(r.Context())
	if shop == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "shop context missing")
	}
	return shop, nil
}

func bundleIDFromRequest(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bundle id")
	}
	return id, nil
}
