package http

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/IgorGrieder/tempqr/internal/infrastructure/logger"
	"go.uber.org/zap"
)

type statusPage struct {
	Title   string
	Heading string
	Message string
	Accent  string
}

var (
	invalidPage = statusPage{
		Title:   "Invalid link",
		Heading: "This link is not valid",
		Message: "The code you scanned was not issued by this service or has been altered.",
		Accent:  "#b42318",
	}
	expiredPage = statusPage{
		Title:   "Link expired",
		Heading: "This link has expired",
		Message: "The code was valid but its time window is over. Ask the sender for a new one.",
		Accent:  "#b54708",
	}
	unavailablePage = statusPage{
		Title:   "Temporarily unavailable",
		Heading: "Something went wrong",
		Message: "The link could not be opened right now. Try again in a moment.",
		Accent:  "#475467",
	}
)

var pageTemplate = template.Must(template.New("status").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex">
<title>{{.Title}}</title>
<style>
body{margin:0;min-height:100vh;display:flex;align-items:center;justify-content:center;font-family:system-ui,sans-serif;background:#f9fafb;color:#101828}
main{max-width:28rem;padding:2rem;border-top:6px solid {{.Accent}};background:#fff;box-shadow:0 1px 3px rgba(16,24,40,.1)}
h1{margin:0 0 .75rem;font-size:1.5rem;color:{{.Accent}}}
p{margin:0;line-height:1.5}
</style>
</head>
<body>
<main>
<h1>{{.Heading}}</h1>
<p>{{.Message}}</p>
</main>
</body>
</html>
`))

func renderPage(w http.ResponseWriter, status int, page statusPage) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		logger.Error("failed to render status page", zap.Error(err))
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
