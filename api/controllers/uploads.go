package controllers

import (
	"net/http"

	"github.com/nvelasquez/threadline-backend/api/responses"
	uploadsvc "github.com/nvelasquez/threadline-backend/internal/uploads"
	pkgerrors "github.com/nvelasquez/threadline-backend/pkg/errors"
	"github.com/nvelasquez/threadline-backend/pkg/logger"
)

// UploadPresign hands the caller a short-lived PUT URL for an asset object.
func UploadPresign(svc uploadsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		signed, err := svc.PresignUpload(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, signed)
	}
}
