package identifier

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"strings"
)

const (
	ShortTagSize = 12
	FullTagSize  = sha256.Size
)

// Keyring holds the signing secret and any previous secrets that are still
// honoured when verifying. Only the current secret signs.
type Keyring struct {
	current  []byte
	previous [][]byte
}

func NewKeyring(current string, previous ...string) (*Keyring, error) {
	if strings.TrimSpace(current) == "" {
		return nil, ErrSigningSecretMissing
	}

	k := &Keyring{current: []byte(current)}
	for _, secret := range previous {
		if strings.TrimSpace(secret) == "" || secret == current {
			continue
		}
		k.previous = append(k.previous, []byte(secret))
	}
	return k, nil
}

func (k *Keyring) sign(message string) []byte {
	return mac(k.current, message)[:ShortTagSize]
}

// verify checks tag against every secret and both accepted tag lengths.
// All candidates are computed so the work done does not depend on which
// secret, if any, matched.
func (k *Keyring) verify(message string, tag []byte) bool {
	if len(tag) != ShortTagSize && len(tag) != FullTagSize {
		return false
	}

	matched := 0
	for _, secret := range k.secrets() {
		full := mac(secret, message)
		matched |= subtle.ConstantTimeCompare(tag, full[:ShortTagSize])
		matched |= subtle.ConstantTimeCompare(tag, full)
	}
	return matched == 1
}

func (k *Keyring) secrets() [][]byte {
	out := make([][]byte, 0, 1+len(k.previous))
	out = append(out, k.current)
	return append(out, k.previous...)
}

func mac(secret []byte, message string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(message))
	return h.Sum(nil)
}
