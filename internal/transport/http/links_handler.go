package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/IgorGrieder/tempqr/internal/config"
	"github.com/IgorGrieder/tempqr/internal/constants"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/logger"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/metrics"
	appvalidation "github.com/IgorGrieder/tempqr/internal/infrastructure/validation"
	"github.com/IgorGrieder/tempqr/internal/processing/links"
	"github.com/IgorGrieder/tempqr/internal/transport/http/middleware"
	"github.com/IgorGrieder/tempqr/pkg/httputils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type LinksHandler struct {
	cfg *config.Config
	svc *links.Service

	asyncRecord   bool
	recordTimeout time.Duration
}

type LinksHandlerOptions struct {
	AsyncRecord   bool
	RecordTimeout time.Duration
}

func NewLinksHandler(cfg *config.Config, svc *links.Service, opts LinksHandlerOptions) *LinksHandler {
	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = 2 * time.Second
	}

	return &LinksHandler{
		cfg:           cfg,
		svc:           svc,
		asyncRecord:   opts.AsyncRecord,
		recordTimeout: opts.RecordTimeout,
	}
}

type createLinkRequest struct {
	Destination string  `json:"destination" validate:"required,notblank,destination"`
	URL         string  `json:"url,omitempty"`
	Minutes     float64 `json:"minutes" validate:"gt=0"`
	TierProof   string  `json:"tier_proof,omitempty"`
}

type createLinkResponse struct {
	ID        string    `json:"id"`
	ShortURL  string    `json:"short_url"`
	QRURL     string    `json:"qr_url"`
	ExpiresAt time.Time `json:"expires_at"`
	Plan      string    `json:"plan"`
	Tier      *int      `json:"tier"`
	Minutes   float64   `json:"minutes"`
}

func (h *LinksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if strings.TrimSpace(req.Destination) == "" {
		req.Destination = req.URL
	}
	req.Destination = strings.TrimSpace(req.Destination)

	if err := appvalidation.Validate(req); err != nil {
		apiErr := constants.ErrInvalidRequestBody
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, e := range validationErrs {
				if e.Field() == "destination" {
					apiErr = constants.ErrInvalidDestination
					break
				}
				if e.Field() == "minutes" {
					apiErr = constants.ErrInvalidLifetime
					break
				}
			}
		}
		httputils.WriteAPIError(w, r, apiErr)
		return
	}

	proof := middleware.ProofFromContext(r.Context())
	if tp := strings.TrimSpace(req.TierProof); tp != "" {
		proof.Token = tp
	}

	link, err := h.svc.CreateLink(r.Context(), links.CreateLinkInput{
		Destination: req.Destination,
		Minutes:     req.Minutes,
		Proof:       proof,
		ClientIP:    httputils.ClientIP(r),
	})
	if err != nil {
		writeError(w, r, "create link", err)
		return
	}

	metrics.LinksCreated.WithLabelValues(string(link.Limits.Plan)).Inc()

	resp := createLinkResponse{
		ID:        link.ID,
		ShortURL:  h.svc.ShortURL(link.ID),
		QRURL:     h.cfg.Shortener.BaseURL + "/qr/" + link.ID + ".png",
		ExpiresAt: link.ExpiresAt,
		Plan:      string(link.Limits.Plan),
		Minutes:   link.Minutes,
	}
	if link.Limits.Tier > 0 {
		tier := link.Limits.Tier
		resp.Tier = &tier
	}
	httputils.WriteAPISuccess(w, r, constants.SuccessLinkCreated, resp)
}

type linkInfoResponse struct {
	DestinationKind  string    `json:"destination_kind"`
	ExpiresAt        time.Time `json:"expires_at"`
	Expired          bool      `json:"expired"`
	RemainingSeconds int64     `json:"remaining_seconds"`
}

func (h *LinksHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Inspect(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, "inspect link", err)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkFound, linkInfoResponse{
		DestinationKind:  string(info.Kind),
		ExpiresAt:        info.ExpiresAt,
		Expired:          info.Expired,
		RemainingSeconds: info.RemainingSeconds,
	})
}

type statsResponse struct {
	From  string             `json:"from"`
	To    string             `json:"to"`
	Daily []links.DailyCount `json:"daily"`
}

type statsQueryParams struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

func (h *LinksHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	if err := appvalidation.Validate(statsQueryParams{From: fromRaw, To: toRaw}); err != nil {
		apiErr := constants.ErrInvalidRequestBody
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, e := range validationErrs {
				if e.Tag() == "required" {
					apiErr = apiErr.WithMessage("from and to are required (YYYY-MM-DD)")
					break
				}
				if e.Tag() == "datetime" {
					apiErr = apiErr.WithMessage("invalid " + e.Field() + " (YYYY-MM-DD)")
					break
				}
			}
		}
		httputils.WriteAPIError(w, r, apiErr)
		return
	}

	from, _ := time.Parse(time.DateOnly, fromRaw)
	to, _ := time.Parse(time.DateOnly, toRaw)

	daily, err := h.svc.GetStats(r.Context(), id, from, to)
	if err != nil {
		writeError(w, r, "fetch stats", err)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessStatsFound, statsResponse{
		From:  from.Format(time.DateOnly),
		To:    to.Format(time.DateOnly),
		Daily: daily,
	})
}

// Redirect resolves an identifier for a browser. Failures render HTML
// pages that never include the destination.
func (h *LinksHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	res, err := h.svc.Resolve(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, links.ErrNotFound):
			metrics.LinksResolved.WithLabelValues(metrics.OutcomeNotFound).Inc()
			renderPage(w, http.StatusNotFound, invalidPage)
		case errors.Is(err, links.ErrExpired):
			metrics.LinksResolved.WithLabelValues(metrics.OutcomeExpired).Inc()
			renderPage(w, http.StatusGone, expiredPage)
		default:
			metrics.LinksResolved.WithLabelValues(metrics.OutcomeError).Inc()
			logger.Error("failed to resolve link",
				zap.Error(err),
				zap.String("correlation_id", httputils.GetCorrelationID(r)),
			)
			renderPage(w, http.StatusInternalServerError, unavailablePage)
		}
		return
	}

	metrics.LinksResolved.WithLabelValues(metrics.OutcomeLive).Inc()
	h.record(r.Context(), res.Fingerprint)

	status := http.StatusFound
	if res.Kind == links.KindURL {
		status = h.cfg.Shortener.RedirectStatus
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")
	http.Redirect(w, r, res.Target, status)
}

func (h *LinksHandler) record(ctx context.Context, fingerprint string) {
	if !h.asyncRecord {
		if err := h.svc.RecordResolution(ctx, fingerprint); err != nil {
			logger.Warn("failed to record resolution", zap.Error(err), zap.String("fp", fingerprint))
		}
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.recordTimeout)
		defer cancel()
		if err := h.svc.RecordResolution(ctx, fingerprint); err != nil {
			logger.Warn("failed to record resolution", zap.Error(err), zap.String("fp", fingerprint))
		}
	}()
}
