package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/IgorGrieder/tempqr/internal/config"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/tempqr/internal/processing/accounts"
	"github.com/IgorGrieder/tempqr/internal/processing/links"
	"github.com/IgorGrieder/tempqr/internal/processing/qr"
	"github.com/IgorGrieder/tempqr/internal/transport/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var spanNames = map[string]string{
	"GET /health":               "health",
	"GET /metrics":              "metrics",
	"POST /api/links":           "links.create",
	"GET /api/links/{id}":       "links.info",
	"GET /api/links/{id}/stats": "links.stats",
	"GET /go/{id}":              "links.resolve",
	"GET /qr/{file}":            "qr.render",
	"POST /api/uploads":         "uploads.presign",
	"GET /api/me":               "account.me",
	"POST /api/tokens/link":     "account.link_token",
}

type Services struct {
	Links    *links.Service
	Accounts *accounts.Service
	QR       *qr.Renderer
	Verifier middleware.AccountVerifier

	// CreateLimiter throttles link creation and upload presigning per client.
	CreateLimiter *middleware.RateLimiter
	HealthChecks  map[string]HealthCheck
}

type RouterOptions struct {
	EnableCORS    bool
	EnableLogging bool
	EnableMetrics bool

	LinksHandlerOptions LinksHandlerOptions
}

func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		EnableCORS:    true,
		EnableLogging: true,
		EnableMetrics: true,
		LinksHandlerOptions: LinksHandlerOptions{
			AsyncRecord:   true,
			RecordTimeout: 2 * time.Second,
		},
	}
}

func NewRouter(cfg *config.Config, svcs Services) http.Handler {
	return NewRouterWithOptions(cfg, svcs, DefaultRouterOptions())
}

func NewRouterWithOptions(cfg *config.Config, svcs Services, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	healthHandler := NewHealthHandler(cfg.App.Version, svcs.HealthChecks)
	linksHandler := NewLinksHandler(cfg, svcs.Links, opts.LinksHandlerOptions)
	qrHandler := NewQRHandler(svcs.Links, svcs.QR)
	uploadsHandler := NewUploadsHandler(svcs.Links, cfg.ObjectStorage.Enabled)

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", healthHandler.Metrics())

	throttled := []func(http.Handler) http.Handler{
		middleware.RateLimitMiddleware(svcs.CreateLimiter),
	}

	mux.Handle("POST /api/links", middleware.Chain(http.HandlerFunc(linksHandler.Create), throttled...))
	mux.HandleFunc("GET /api/links/{id}", linksHandler.Info)
	mux.HandleFunc("GET /api/links/{id}/stats", linksHandler.Stats)
	mux.HandleFunc("GET /go/{id}", linksHandler.Redirect)
	mux.HandleFunc("GET /qr/{file}", qrHandler.Render)
	mux.Handle("POST /api/uploads", middleware.Chain(http.HandlerFunc(uploadsHandler.Presign), throttled...))

	if svcs.Accounts != nil {
		accountHandler := NewAccountHandler(svcs.Accounts)
		mux.Handle("GET /api/me", middleware.RequireAccount(http.HandlerFunc(accountHandler.Me)))
		mux.Handle("POST /api/tokens/link", middleware.RequireAccount(http.HandlerFunc(accountHandler.LinkToken)))
	}

	var innerHandler http.Handler = middleware.ProofMiddleware(svcs.Verifier)(mux)
	if opts.EnableCORS {
		innerHandler = middleware.CORSMiddleware(cfg.Security.AllowedOrigins)(innerHandler)
	}
	if opts.EnableLogging {
		innerHandler = middleware.LoggingMiddleware(innerHandler)
	}
	if opts.EnableMetrics {
		innerHandler = middleware.MetricsMiddleware(innerHandler)
	}

	otelOptions := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			key := r.Method + " " + r.Pattern
			if name, ok := spanNames[key]; ok {
				return name
			}
			if r.Pattern != "" {
				return r.Pattern
			}
			path := strings.TrimSpace(r.URL.Path)
			if path == "" {
				path = "/"
			}
			return path
		}),
	}

	if telemetry.TracerProvider != nil {
		otelOptions = append(otelOptions, otelhttp.WithTracerProvider(telemetry.TracerProvider))
	}

	return otelhttp.NewHandler(innerHandler, cfg.App.Name, otelOptions...)
}
