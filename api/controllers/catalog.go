package controllers

import (
	"net/http"

	"github.com/legacy-capsule/capsule-backend/api/responses"
	"github.com/legacy-capsule/capsule-backend/internal/catalog"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
)

// ListTemplates serves the published template catalog.
func ListTemplates(snap *catalog.Snapshot, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if snap == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		responses.WriteSuccess(w, snap.Templates())
	}
}

// ListBundles serves the published bundle catalog.
func ListBundles(snap *catalog.Snapshot, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if snap == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		responses.WriteSuccess(w, snap.Bundles())
	}
}
