package qr

import (
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"

	DefaultSize = 512

	// MaxContentBytes is the byte-mode capacity of a version 40 symbol at
	// low recovery.
	MaxContentBytes = 2953
)

var ErrUnsupportedFormat = errors.New("unsupported qr format")

// ContentType returns the media type of a rendered format.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "image/png"
	}
}

// Renderer draws QR codes at low error correction with the standard
// four module quiet zone.
type Renderer struct {
	size  int
	level qrcode.RecoveryLevel
}

func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Renderer{size: size, level: qrcode.Low}
}

func (r *Renderer) Render(content string, format Format) ([]byte, error) {
	code, err := qrcode.New(content, r.level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	switch format {
	case FormatPNG:
		return code.PNG(r.size)
	case FormatSVG:
		return []byte(svg(code.Bitmap(), r.size)), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

func svg(bitmap [][]bool, size int) string {
	n := len(bitmap)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, size, size, n, n)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#ffffff"/>`, n, n)
	b.WriteString(`<path fill="#000000" d="`)
	for y, row := range bitmap {
		for x := 0; x < len(row); x++ {
			if !row[x] {
				continue
			}
			run := 1
			for x+run < len(row) && row[x+run] {
				run++
			}
			fmt.Fprintf(&b, "M%d %dh%dv1h-%dz", x, y, run, run)
			x += run - 1
		}
	}
	b.WriteString(`"/></svg>`)
	return b.String()
}
