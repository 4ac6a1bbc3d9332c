package policy

import (
	"strings"
	"time"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

const (
	DefaultFreeMaxMinutes = 60
	DefaultFreeDailyLimit = 5
)

// Limits is what a caller is allowed to do. Tier 0 means no paid tier.
// DailyLimit 0 means unlimited.
type Limits struct {
	Plan             Plan
	Tier             int
	MaxMinutes       int64
	DailyLimit       int64
	SVGExport        bool
	IndirectPayloads bool
}

func (l Limits) Unlimited() bool {
	return l.DailyLimit <= 0
}

func (l Limits) Paid() bool {
	return l.Plan == PlanPro
}

type Source string

const (
	SourceNone    Source = "none"
	SourceToken   Source = "token"
	SourceAccount Source = "account"
)

// Allowance is a resolved set of limits plus who earned them. Subject is
// the tier token or user id and is empty for the free plan.
type Allowance struct {
	Limits
	Source  Source
	Subject string
}

// Proof is what a request presented to claim a paid tier.
type Proof struct {
	Token  string
	UserID string
}

func (p Proof) Empty() bool {
	return strings.TrimSpace(p.Token) == "" && strings.TrimSpace(p.UserID) == ""
}

// Grant is a stored tier token, optionally bound to an account.
// MaxMinutes and DailyLimit override the tier defaults when positive.
type Grant struct {
	Token      string
	Plan       Plan
	Tier       int
	MaxMinutes int64
	DailyLimit int64
	UserID     string
	SessionID  string
	ExpiresAt  *time.Time
	CreatedAt  time.Time
}

func (g *Grant) Active(at time.Time) bool {
	if g.Plan != PlanPro {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(at)
}

var tiers = map[int]Limits{
	1: {Plan: PlanPro, Tier: 1, MaxMinutes: 24 * 60, DailyLimit: 5},
	2: {Plan: PlanPro, Tier: 2, MaxMinutes: 7 * 24 * 60},
	3: {Plan: PlanPro, Tier: 3, MaxMinutes: 30 * 24 * 60},
}

// ForTier returns the default limits of a paid tier.
func ForTier(tier int) (Limits, bool) {
	l, ok := tiers[tier]
	if !ok {
		return Limits{}, false
	}
	l.SVGExport = true
	l.IndirectPayloads = true
	return l, true
}

func Free(maxMinutes, dailyLimit int64) Limits {
	if maxMinutes <= 0 {
		maxMinutes = DefaultFreeMaxMinutes
	}
	return Limits{
		Plan:       PlanFree,
		MaxMinutes: maxMinutes,
		DailyLimit: dailyLimit,
	}
}

// LimitsFor merges a grant's stored overrides over its tier defaults.
func LimitsFor(g *Grant) Limits {
	l, ok := ForTier(g.Tier)
	if !ok {
		l, _ = ForTier(1)
		l.Tier = g.Tier
	}
	if g.MaxMinutes > 0 {
		l.MaxMinutes = g.MaxMinutes
	}
	if g.DailyLimit > 0 {
		l.DailyLimit = g.DailyLimit
	}
	return l
}
