package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/IgorGrieder/tempqr/internal/infrastructure/metrics"
	"github.com/IgorGrieder/tempqr/internal/processing/links"
	"github.com/IgorGrieder/tempqr/internal/processing/qr"
	"github.com/IgorGrieder/tempqr/internal/transport/http/middleware"
)

const qrCacheControl = "public, max-age=0, s-maxage=300, stale-while-revalidate=600"

type QRHandler struct {
	svc      *links.Service
	renderer *qr.Renderer
}

func NewQRHandler(svc *links.Service, renderer *qr.Renderer) *QRHandler {
	return &QRHandler{svc: svc, renderer: renderer}
}

// Render draws the QR code of a live identifier's short URL. The path
// segment may carry a .png or .svg suffix; no suffix means PNG.
func (h *QRHandler) Render(w http.ResponseWriter, r *http.Request) {
	id, format := splitFormat(r.PathValue("file"))

	content, err := h.svc.QRContent(r.Context(), id, format, middleware.ProofFromContext(r.Context()))
	if err != nil {
		writeError(w, r, "qr content", err)
		return
	}

	body, err := h.renderer.Render(content, format)
	if err != nil {
		writeError(w, r, "render qr", err)
		return
	}

	metrics.QRRendered.WithLabelValues(string(format)).Inc()

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", qrCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func splitFormat(file string) (string, qr.Format) {
	file = strings.TrimSpace(file)
	if id, ok := strings.CutSuffix(file, ".svg"); ok {
		return id, qr.FormatSVG
	}
	return strings.TrimSuffix(file, ".png"), qr.FormatPNG
}
