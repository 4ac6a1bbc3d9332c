package s3

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/IgorGrieder/tempqr/internal/processing/links"
)

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		inline   bool
		want     string
	}{
		{"attachment", "report.pdf", false, `attachment; filename="report.pdf"`},
		{"inline", "note.txt", true, `inline; filename="note.txt"`},
		{"quotes stripped", `a"b\c.txt`, false, `attachment; filename="abc.txt"`},
		{"no name", "", true, "inline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contentDisposition(tt.fileName, tt.inline); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func newTestStore(t *testing.T) *ObjectStore {
	t.Helper()
	store, err := NewObjectStore(context.Background(), Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "tempqr",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		UsePathStyle:    true,
		GetTTL:          15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewObjectStore: %v", err)
	}
	return store
}

func TestPresignGet_SignsResponseOverrides(t *testing.T) {
	store := newTestStore(t)

	raw, err := store.PresignGet(context.Background(), links.ObjectRequest{
		Key:         "files/1700000000000_abc.pdf",
		FileName:    "report.pdf",
		ContentType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.HasPrefix(u.Path, "/tempqr/files/") {
		t.Errorf("unexpected path %q", u.Path)
	}
	q := u.Query()
	if q.Get("response-content-type") != "application/pdf" {
		t.Errorf("content type = %q", q.Get("response-content-type"))
	}
	if q.Get("response-content-disposition") != `attachment; filename="report.pdf"` {
		t.Errorf("disposition = %q", q.Get("response-content-disposition"))
	}
	if q.Get("X-Amz-Expires") != "900" {
		t.Errorf("expires = %q", q.Get("X-Amz-Expires"))
	}
}

func TestPresignPut_DefaultTTL(t *testing.T) {
	store := newTestStore(t)

	raw, ttl, err := store.PresignPut(context.Background(), "texts/1700000000000_abc.txt", "text/plain")
	if err != nil {
		t.Fatalf("PresignPut: %v", err)
	}
	if ttl != 10*time.Minute {
		t.Errorf("ttl = %v", ttl)
	}
	if !strings.Contains(raw, "X-Amz-Signature=") {
		t.Errorf("url is not signed: %s", raw)
	}
}

func TestNewObjectStore_RequiresBucket(t *testing.T) {
	if _, err := NewObjectStore(context.Background(), Config{Region: "auto"}); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}
