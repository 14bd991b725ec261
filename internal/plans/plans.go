// Package plans defines the subscription tier taxonomy shared by the
// entitlement engine, the settings store and the HTTP layer.
package plans

import "strings"

type PlanTier string

const (
	Free  PlanTier = "FREE"
	Basic PlanTier = "BASIC"
	Pro   PlanTier = "PRO"
)

// Unlimited marks a quota without a ceiling.
const Unlimited = -1

// AllTiers lists tiers from the narrowest to the broadest entitlement.
var AllTiers = []PlanTier{Free, Basic, Pro}

// ParsePlanTier accepts any casing. Unknown values return ok=false.
func ParsePlanTier(s string) (PlanTier, bool) {
	t := PlanTier(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

func (t PlanTier) Valid() bool {
	switch t {
	case Free, Basic, Pro:
		return true
	}
	return false
}

// Paid reports whether the tier is subject to expiry.
func (t PlanTier) Paid() bool {
	return t == Basic || t == Pro
}

// Rank orders tiers by entitlement breadth. Unknown tiers rank with FREE.
func (t PlanTier) Rank() int {
	switch t {
	case Basic:
		return 1
	case Pro:
		return 2
	}
	return 0
}

func (t PlanTier) String() string { return string(t) }

// Normalize maps unrecognized values to FREE so that callers always get
// the most restrictive behaviour for garbage input.
func (t PlanTier) Normalize() PlanTier {
	if t.Valid() {
		return t
	}
	return Free
}

// Limits is the quota quadruple of a tier.
type Limits struct {
	MaxResumes int `json:"max_resumes"`
	MaxAIUsage int `json:"max_ai_usage"`
	MaxExports int `json:"max_exports"`
	MaxImports int `json:"max_imports"`
}

// For returns the limit that governs the given counter.
func (l Limits) For(c Counter) int {
	switch c {
	case CounterResumes:
		return l.MaxResumes
	case CounterAI:
		return l.MaxAIUsage
	case CounterExports:
		return l.MaxExports
	case CounterImports:
		return l.MaxImports
	}
	return 0
}

// Allows reports whether one more use is permitted at the given usage.
// A limit of 0 denies every use; Unlimited allows every use.
func Allows(limit, used int) bool {
	if limit == Unlimited {
		return true
	}
	return used < limit
}
