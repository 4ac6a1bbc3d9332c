package links

import (
	"net/url"
	"strings"
)

type Kind string

const (
	KindURL  Kind = "url"
	KindFile Kind = "file"
	KindText Kind = "text"
)

const (
	filePrefix = "file:"
	textPrefix = "text:"

	maxObjectKeyLen   = 300
	maxFileNameLen    = 180
	maxContentTypeLen = 120
)

// Destination is the parsed form of what an identifier points at. URL is
// set for KindURL; Key, FileName and ContentType for stored objects.
type Destination struct {
	Raw         string
	Kind        Kind
	URL         string
	Key         string
	FileName    string
	ContentType string
}

// ParseDestination accepts an http(s) URL, file:<key>|<name>|<type> with
// percent-encoded name and type, or text:<key>.
func ParseDestination(raw string) (Destination, error) {
	raw = strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(raw, filePrefix):
		parts := strings.Split(strings.TrimPrefix(raw, filePrefix), "|")
		if len(parts) != 3 || !safeObjectKey(parts[0], FolderFiles) {
			return Destination{}, ErrInvalidDestination
		}
		name, err := url.PathUnescape(parts[1])
		if err != nil {
			return Destination{}, ErrInvalidDestination
		}
		ct, err := url.PathUnescape(parts[2])
		if err != nil {
			return Destination{}, ErrInvalidDestination
		}
		return Destination{
			Raw:         raw,
			Kind:        KindFile,
			Key:         parts[0],
			FileName:    truncate(name, maxFileNameLen),
			ContentType: truncate(ct, maxContentTypeLen),
		}, nil

	case strings.HasPrefix(raw, textPrefix):
		key := strings.TrimPrefix(raw, textPrefix)
		if !safeObjectKey(key, FolderTexts) {
			return Destination{}, ErrInvalidDestination
		}
		return Destination{Raw: raw, Kind: KindText, Key: key}, nil
	}

	u, err := normalizeURL(raw)
	if err != nil {
		return Destination{}, err
	}
	return Destination{Raw: u, Kind: KindURL, URL: u}, nil
}

func FileReference(key, name, contentType string) string {
	return filePrefix + key + "|" + url.PathEscape(name) + "|" + url.PathEscape(contentType)
}

func TextReference(key string) string {
	return textPrefix + key
}

func normalizeURL(raw string) (string, error) {
	if raw == "" {
		return "", ErrInvalidDestination
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidDestination
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidDestination
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", ErrInvalidDestination
	}

	return u.String(), nil
}

// safeObjectKey reports whether key names an object under folder.
func safeObjectKey(key, folder string) bool {
	if key == "" || len(key) > maxObjectKeyLen {
		return false
	}
	if !strings.HasPrefix(key, folder+"/") {
		return false
	}
	if strings.Contains(key, "..") || strings.ContainsAny(key, "|\\") {
		return false
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
