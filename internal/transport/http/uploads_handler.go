package http

import (
	"net/http"

	"github.com/IgorGrieder/tempqr/internal/constants"
	appvalidation "github.com/IgorGrieder/tempqr/internal/infrastructure/validation"
	"github.com/IgorGrieder/tempqr/internal/processing/links"
	"github.com/IgorGrieder/tempqr/internal/transport/http/middleware"
	"github.com/IgorGrieder/tempqr/pkg/httputils"
)

type UploadsHandler struct {
	svc     *links.Service
	enabled bool
}

func NewUploadsHandler(svc *links.Service, enabled bool) *UploadsHandler {
	return &UploadsHandler{svc: svc, enabled: enabled}
}

type presignUploadRequest struct {
	FileName    string `json:"filename" validate:"max=512"`
	ContentType string `json:"content_type" validate:"max=255"`
	Size        int64  `json:"size"`
	Folder      string `json:"folder" validate:"omitempty,oneof=files texts"`
	TierProof   string `json:"tier_proof,omitempty"`
}

type presignUploadResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
	ExpiresIn int64  `json:"expires_in"`
	Reference string `json:"reference"`
}

func (h *UploadsHandler) Presign(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		httputils.WriteAPIError(w, r, constants.ErrUploadsUnavailable)
		return
	}

	var req presignUploadRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidUpload.WithMessage("invalid filename, content_type or folder"))
		return
	}

	proof := middleware.ProofFromContext(r.Context())
	if req.TierProof != "" {
		proof.Token = req.TierProof
	}

	upload, err := h.svc.PresignUpload(r.Context(), links.UploadInput{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
		Folder:      req.Folder,
		Proof:       proof,
	})
	if err != nil {
		writeError(w, r, "presign upload", err)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessUploadPrepared, presignUploadResponse{
		Key:       upload.Key,
		UploadURL: upload.UploadURL,
		ExpiresIn: int64(upload.ExpiresIn.Seconds()),
		Reference: upload.Reference,
	})
}
