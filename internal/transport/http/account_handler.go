package http

import (
	"net/http"
	"time"

	"github.com/IgorGrieder/tempqr/internal/constants"
	appvalidation "github.com/IgorGrieder/tempqr/internal/infrastructure/validation"
	"github.com/IgorGrieder/tempqr/internal/processing/accounts"
	"github.com/IgorGrieder/tempqr/internal/transport/http/middleware"
	"github.com/IgorGrieder/tempqr/pkg/httputils"
)

type AccountHandler struct {
	svc *accounts.Service
}

func NewAccountHandler(svc *accounts.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

type proStatus struct {
	Has        bool       `json:"has"`
	Tier       *int       `json:"tier"`
	MaxMinutes *int64     `json:"max_minutes"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

type meResponse struct {
	UserID string    `json:"user_id"`
	Pro    proStatus `json:"pro"`
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.ProofFromContext(r.Context()).UserID

	status, err := h.svc.Status(r.Context(), userID)
	if err != nil {
		writeError(w, r, "account status", err)
		return
	}

	resp := meResponse{UserID: status.UserID}
	if status.Best != nil && status.Limits != nil {
		tier := status.Limits.Tier
		maxMinutes := status.Limits.MaxMinutes
		resp.Pro = proStatus{
			Has:        true,
			Tier:       &tier,
			MaxMinutes: &maxMinutes,
			ExpiresAt:  status.Best.ExpiresAt,
		}
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessAccountFound, resp)
}

type linkTokenRequest struct {
	Token string `json:"token" validate:"required,notblank,max=128"`
}

func (h *AccountHandler) LinkToken(w http.ResponseWriter, r *http.Request) {
	var req linkTokenRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidToken)
		return
	}

	userID := middleware.ProofFromContext(r.Context()).UserID
	if err := h.svc.LinkToken(r.Context(), userID, req.Token); err != nil {
		writeError(w, r, "link token", err)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessTokenLinked, map[string]bool{"linked": true})
}
