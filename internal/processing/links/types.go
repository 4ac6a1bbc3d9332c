package links

import (
	"time"

	"github.com/IgorGrieder/tempqr/internal/processing/policy"
)

type Link struct {
	ID          string
	Destination Destination
	ExpiresAt   time.Time
	Minutes     float64
	Limits      policy.Limits
}

type CreateLinkInput struct {
	Destination string
	Minutes     float64
	Proof       policy.Proof
	ClientIP    string
}

// Resolution is what a live identifier resolves to. Target is either the
// destination URL or a presigned object URL.
type Resolution struct {
	Kind        Kind
	Target      string
	ExpiresAt   time.Time
	Fingerprint string
}

type LinkInfo struct {
	Kind             Kind
	ExpiresAt        time.Time
	Expired          bool
	RemainingSeconds int64
	Fingerprint      string
}

type ObjectRequest struct {
	Key         string
	FileName    string
	ContentType string
	Inline      bool
}

type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Folder      string
	Proof       policy.Proof
}

type Upload struct {
	Key       string
	UploadURL string
	ExpiresIn time.Duration
	Reference string
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
