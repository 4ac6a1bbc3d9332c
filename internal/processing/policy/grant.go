package policy

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

var ErrUnknownTier = errors.New("unknown tier")

// lifetimeAccess is how long a tier 3 grant lasts.
var lifetimeAccess = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

var accessDays = map[int]int{
	1: 7,
	2: 30,
}

// IssueGrant mints an unbound grant for tier with a random 128-bit token.
// sessionID, when set, makes issuance idempotent at the store.
func IssueGrant(tier int, sessionID string, now time.Time) (*Grant, error) {
	limits, ok := ForTier(tier)
	if !ok {
		return nil, ErrUnknownTier
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	expires := lifetimeAccess
	if days, ok := accessDays[tier]; ok {
		expires = now.UTC().AddDate(0, 0, days)
	}

	return &Grant{
		Token:      hex.EncodeToString(buf),
		Plan:       PlanPro,
		Tier:       tier,
		MaxMinutes: limits.MaxMinutes,
		DailyLimit: limits.DailyLimit,
		SessionID:  sessionID,
		ExpiresAt:  &expires,
		CreatedAt:  now.UTC(),
	}, nil
}
