package identifier

import (
	"encoding/binary"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	VersionLegacy  uint8 = 1
	VersionCompact uint8 = 2

	// version byte plus big-endian u32 expiry
	compactHeaderSize = 5
)

// Payload is the signed content of an identifier. Only PayloadV1 and
// PayloadV2 implement it.
type Payload interface {
	Version() uint8
	Destination() string
	ExpiresAt() time.Time

	sealed()
}

// PayloadV1 is the legacy JSON form {"u": url, "e": iso8601, "v": 1}.
// It is accepted on decode and never produced.
type PayloadV1 struct {
	URL    string
	Expiry time.Time
}

func (PayloadV1) Version() uint8         { return VersionLegacy }
func (p PayloadV1) Destination() string  { return p.URL }
func (p PayloadV1) ExpiresAt() time.Time { return p.Expiry }
func (PayloadV1) sealed()                {}

// PayloadV2 is the compact binary form every new identifier uses.
type PayloadV2 struct {
	ExpiryUnix uint32
	Target     string
}

func (PayloadV2) Version() uint8         { return VersionCompact }
func (p PayloadV2) Destination() string  { return p.Target }
func (p PayloadV2) ExpiresAt() time.Time { return time.Unix(int64(p.ExpiryUnix), 0).UTC() }
func (PayloadV2) sealed()                {}

func (p PayloadV2) MarshalBinary() ([]byte, error) {
	buf := make([]byte, compactHeaderSize+len(p.Target))
	buf[0] = VersionCompact
	binary.BigEndian.PutUint32(buf[1:compactHeaderSize], p.ExpiryUnix)
	copy(buf[compactHeaderSize:], p.Target)
	return buf, nil
}

type legacyDoc struct {
	U string `json:"u"`
	E string `json:"e"`
	V int    `json:"v"`
}

func unmarshalPayload(buf []byte) (Payload, error) {
	if len(buf) < compactHeaderSize {
		return nil, ErrMalformed
	}
	if buf[0] == VersionCompact {
		return unmarshalCompact(buf)
	}
	return unmarshalLegacy(buf)
}

func unmarshalCompact(buf []byte) (Payload, error) {
	target := buf[compactHeaderSize:]
	if len(target) == 0 || !utf8.Valid(target) {
		return nil, ErrMalformed
	}
	return PayloadV2{
		ExpiryUnix: binary.BigEndian.Uint32(buf[1:compactHeaderSize]),
		Target:     string(target),
	}, nil
}

func unmarshalLegacy(buf []byte) (Payload, error) {
	var doc legacyDoc
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, ErrMalformed
	}
	if strings.TrimSpace(doc.U) == "" || doc.E == "" {
		return nil, ErrMalformed
	}
	if doc.V != 0 && doc.V != int(VersionLegacy) {
		return nil, ErrMalformed
	}
	expiry, err := time.Parse(time.RFC3339Nano, doc.E)
	if err != nil {
		return nil, ErrMalformed
	}
	return PayloadV1{URL: doc.U, Expiry: expiry.UTC()}, nil
}
