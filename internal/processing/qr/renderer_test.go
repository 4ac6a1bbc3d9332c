package qr

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"
)

func TestRender_PNG(t *testing.T) {
	r := NewRenderer(0)

	out, err := r.Render("https://tempqr.example/go/abc.def", FormatPNG)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != DefaultSize || b.Dy() != DefaultSize {
		t.Errorf("got %dx%d, want %dx%d", b.Dx(), b.Dy(), DefaultSize, DefaultSize)
	}
}

func TestRender_SVG(t *testing.T) {
	r := NewRenderer(256)

	out, err := r.Render("https://tempqr.example/go/abc.def", FormatSVG)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "<svg ") || !strings.HasSuffix(s, "</svg>") {
		t.Fatalf("unexpected svg document: %.80s", s)
	}
	if !strings.Contains(s, `width="256"`) || !strings.Contains(s, "M") {
		t.Errorf("svg missing size or modules: %.120s", s)
	}
}

func TestRender_Errors(t *testing.T) {
	r := NewRenderer(128)

	if _, err := r.Render("x", Format("gif")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
	if _, err := r.Render(strings.Repeat("a", 8000), FormatPNG); err == nil {
		t.Error("expected content too long error")
	}
}

func TestSVG_RunLength(t *testing.T) {
	got := svg([][]bool{
		{true, true, false},
		{false, true, false},
		{false, false, false},
	}, 30)
	if !strings.Contains(got, "M0 0h2v1h-2z") || !strings.Contains(got, "M1 1h1v1h-1z") {
		t.Errorf("unexpected path: %s", got)
	}
	if !strings.Contains(got, `viewBox="0 0 3 3"`) {
		t.Errorf("unexpected viewBox: %s", got)
	}
}

func TestFormat_ContentType(t *testing.T) {
	if FormatPNG.ContentType() != "image/png" || FormatSVG.ContentType() != "image/svg+xml" {
		t.Error("unexpected content types")
	}
}
