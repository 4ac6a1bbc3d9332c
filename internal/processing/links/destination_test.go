package links

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDestination_URL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"valid https", "https://example.com/path", "https://example.com/path", false},
		{"valid http", "http://example.com", "http://example.com", false},
		{"keeps fragment", "https://example.com/page#section", "https://example.com/page#section", false},
		{"empty string", "", "", true},
		{"bad scheme ftp", "ftp://example.com", "", true},
		{"javascript scheme", "javascript:alert(1)", "", true},
		{"no scheme", "example.com", "", true},
		{"missing host", "https://", "", true},
		{"whitespace trimmed", "  https://example.com  ", "https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDestination(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDestination) {
					t.Errorf("expected ErrInvalidDestination for %q, got %v", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != KindURL || got.URL != tt.want || got.Raw != tt.want {
				t.Errorf("got %+v, want url %q", got, tt.want)
			}
		})
	}
}

func TestParseDestination_Objects(t *testing.T) {
	key := "files/1700000000000_0123456789abcdef0123456789abcdef.pdf"

	ref := FileReference(key, `Q1 "report"|final.pdf`, "application/pdf")
	got, err := ParseDestination(ref)
	if err != nil {
		t.Fatalf("parse file reference: %v", err)
	}
	if got.Kind != KindFile || got.Key != key {
		t.Fatalf("unexpected destination %+v", got)
	}
	if got.FileName != `Q1 "report"|final.pdf` || got.ContentType != "application/pdf" {
		t.Fatalf("name/type not preserved: %+v", got)
	}

	text, err := ParseDestination(TextReference("texts/1_ab.txt"))
	if err != nil {
		t.Fatalf("parse text reference: %v", err)
	}
	if text.Kind != KindText || text.Key != "texts/1_ab.txt" {
		t.Fatalf("unexpected destination %+v", text)
	}
}

func TestParseDestination_RejectsUnsafeKeys(t *testing.T) {
	tests := []string{
		"file:other/x.pdf|a|b",
		"file:texts/x.pdf|a|b",
		"text:files/x.txt",
		"file:files/x.pdf|a",
		"file:files/../secret|a|b",
		"file:files/x.pdf|%zz|b",
		"text:",
		"text:/etc/passwd",
		"text:texts/" + strings.Repeat("a", 300),
		"text:texts/a\nb",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			if _, err := ParseDestination(raw); !errors.Is(err, ErrInvalidDestination) {
				t.Errorf("expected ErrInvalidDestination, got %v", err)
			}
		})
	}
}
