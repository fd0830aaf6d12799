package controllers

import (
	"net/http"

	"github.com/legacy-capsule/capsule-backend/api/responses"
	uploadsvc "github.com/legacy-capsule/capsule-backend/internal/uploads"
	"github.com/legacy-capsule/capsule-backend/pkg/config"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
)

// Upload accepts a multipart batch of customer media files.
func Upload(svc uploadsvc.Service, cfg config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload service unavailable"))
			return
		}

		maxBytes := int64(cfg.MaxUploadMB) << 20
		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes*int64(maxInt(cfg.MaxFiles, 1)))
		}

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart request"))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		stored, err := svc.Store(r.Context(), r.MultipartForm.File["files"])
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"files": stored})
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
