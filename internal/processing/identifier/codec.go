package identifier

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"math"
	"strings"
	"time"

	"github.com/IgorGrieder/tempqr/internal/processing/policy"
)

const (
	// GlobalHardCapMinutes bounds every lifetime regardless of plan (10 years).
	GlobalHardCapMinutes = 10 * 365 * 24 * 60

	// Identifiers at MaxDestinationBytesLimit plus a short-URL prefix still
	// fit a low recovery QR symbol.
	DefaultMaxDestinationBytes = 1800
	MaxDestinationBytesLimit   = 2048

	separator = "."
)

var b64 = base64.RawURLEncoding.Strict()

type Status int

const (
	StatusLive Status = iota + 1
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusLive:
		return "live"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Issued is the result of encoding a destination.
type Issued struct {
	ID        string
	ExpiresAt time.Time
	Minutes   float64
}

// Decoded is a verified payload. Callers must check its status before
// handing the destination to anyone.
type Decoded struct {
	Version     uint8
	Destination string
	ExpiresAt   time.Time
}

func (d *Decoded) StatusAt(now time.Time) Status {
	if now.After(d.ExpiresAt) {
		return StatusExpired
	}
	return StatusLive
}

type Codec struct {
	keys           *Keyring
	maxDestination int
	now            func() time.Time
}

type Option func(*Codec)

func WithMaxDestinationBytes(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.maxDestination = min(n, MaxDestinationBytesLimit)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCodec(keys *Keyring, opts ...Option) (*Codec, error) {
	if keys == nil {
		return nil, ErrSigningSecretMissing
	}
	c := &Codec{
		keys:           keys,
		maxDestination: DefaultMaxDestinationBytes,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) MaxDestinationBytes() int {
	return c.maxDestination
}

// EncodedLen is the length of the v2 identifier Encode would issue for
// destination.
func (c *Codec) EncodedLen(destination string) int {
	return b64.EncodedLen(compactHeaderSize+len(destination)) + len(separator) + b64.EncodedLen(ShortTagSize)
}

// Encode signs destination into a v2 identifier. The requested lifetime is
// clamped to the plan ceiling and to GlobalHardCapMinutes.
func (c *Codec) Encode(destination string, requestedMinutes float64, limits policy.Limits) (*Issued, error) {
	if strings.TrimSpace(destination) == "" || len(destination) > c.maxDestination {
		return nil, ErrInvalidDestination
	}

	allowed, err := ClampMinutes(requestedMinutes, limits.MaxMinutes)
	if err != nil {
		return nil, err
	}

	expiresAt := c.now().Add(time.Duration(allowed * float64(time.Minute))).Truncate(time.Second)
	expiryUnix := expiresAt.Unix()
	if expiryUnix <= 0 || expiryUnix > math.MaxUint32 {
		return nil, ErrInvalidLifetime
	}

	raw, err := PayloadV2{ExpiryUnix: uint32(expiryUnix), Target: destination}.MarshalBinary()
	if err != nil {
		return nil, err
	}

	payload := b64.EncodeToString(raw)
	tag := b64.EncodeToString(c.keys.sign(payload))

	return &Issued{
		ID:        payload + separator + tag,
		ExpiresAt: time.Unix(expiryUnix, 0).UTC(),
		Minutes:   allowed,
	}, nil
}

// ClampMinutes validates a requested lifetime and bounds it by the plan
// ceiling (ignored when not positive) and the global hard cap.
func ClampMinutes(requested float64, ceiling int64) (float64, error) {
	if math.IsNaN(requested) || math.IsInf(requested, 0) || requested <= 0 {
		return 0, ErrInvalidLifetime
	}

	allowed := math.Min(requested, GlobalHardCapMinutes)
	if ceiling > 0 {
		allowed = math.Min(allowed, float64(ceiling))
	}
	return allowed, nil
}

// Decode verifies the tag and parses the payload. It never consults the
// clock; use Status or Decoded.StatusAt for expiry.
func (c *Codec) Decode(id string) (*Decoded, error) {
	if len(id) > c.maxIdentifierLength() {
		return nil, ErrMalformed
	}

	i := strings.LastIndex(id, separator)
	if i <= 0 || i == len(id)-1 {
		return nil, ErrMalformed
	}
	payloadB64, tagB64 := id[:i], id[i+1:]

	tag, err := b64.DecodeString(tagB64)
	if err != nil {
		return nil, ErrMalformed
	}
	if !c.keys.verify(payloadB64, tag) {
		return nil, ErrInvalidSignature
	}

	raw, err := b64.DecodeString(payloadB64)
	if err != nil {
		return nil, ErrMalformed
	}
	p, err := unmarshalPayload(raw)
	if err != nil {
		return nil, err
	}

	return &Decoded{
		Version:     p.Version(),
		Destination: p.Destination(),
		ExpiresAt:   p.ExpiresAt(),
	}, nil
}

// Status classifies a decoded identifier against the server clock.
func (c *Codec) Status(d *Decoded) Status {
	return d.StatusAt(c.now())
}

// legacy JSON carries roughly 60 bytes of framing on top of the url
func (c *Codec) maxIdentifierLength() int {
	payload := b64.EncodedLen(c.maxDestination + 128)
	return payload + len(separator) + b64.EncodedLen(FullTagSize)
}

// Fingerprint is a stable, non-reversible handle for an identifier used as
// the key for resolution statistics.
func Fingerprint(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:16])
}
