package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/platebook/platebook-go/internal/model"
	"github.com/platebook/platebook-go/internal/service"
)

// UploadHandler vends presigned upload URLs for avatars and recipe images.
type UploadHandler struct {
	service *service.StorageService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(svc *service.StorageService) *UploadHandler {
	return &UploadHandler{service: svc}
}

// HandlePresign handles POST /api/uploads/presign.
func (h *UploadHandler) HandlePresign(w http.ResponseWriter, r *http.Request) {
	var req model.PresignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.PresignUpload(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownBucket):
			writeJSON(w, http.StatusBadRequest, errorResponse("Unknown storage bucket"))
		case errors.Is(err, service.ErrUnsupportedImageType):
			writeJSON(w, http.StatusBadRequest, errorResponse("Only images are allowed"))
		default:
			slog.Error("presign failed", "error", err, "bucket", req.Bucket)
			writeJSON(w, http.StatusInternalServerError, errorResponse("Failed to presign upload"))
		}
		return
	}

	writeJSON(w, http.StatusOK, dataResponse(resp))
}
