package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// FreeTierJarLimit is the maximum number of jars a non-pro user may own.
const FreeTierJarLimit = 3

// DefaultJarEmoji is used when a jar is created without an icon.
const DefaultJarEmoji = "💰"

// JarColors is the default palette offered to clients, in display order.
// The first entry is the fallback color for jars created without one.
var JarColors = []string{
	"#FF6B6B", "#4ECDC4", "#FFE66D", "#A78BFA",
	"#60A5FA", "#34D399", "#F472B6", "#FB923C",
}

var ErrJarNotFound = errors.New("jar not found")
var ErrInvalidName = errors.New("jar name is required")
var ErrInvalidAmount = errors.New("amount must be greater than zero")
var ErrInvalidDestination = errors.New("invalid destination jar")
var ErrTierLimitExceeded = errors.New("free tier jar limit reached")
var ErrForbidden = errors.New("access forbidden")

// Jar is an envelope holding a non-negative monetary balance.
//
// Balance is never allowed below zero: debits clamp at zero at the storage
// layer while the audit trail keeps the full requested amount. Position
// orders a user's jars; it is assigned at creation (append to end) and never
// renumbered, so gaps are expected after deletions.
type Jar struct {
	ID           string           `json:"id"`
	OwnerID      string           `json:"owner_id"`
	Name         string           `json:"name"`
	Emoji        string           `json:"emoji"`
	Color        string           `json:"color"`
	Balance      decimal.Decimal  `json:"balance"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	IsShared     bool             `json:"is_shared"`
	Position     int              `json:"position"`
	CreatedAt    time.Time        `json:"created_at"`
}

// TargetProgress returns balance/target in [0, +inf) when a target is set.
// Jars may exceed 100% of target; the value is for display only.
func (j *Jar) TargetProgress() (decimal.Decimal, bool) {
	if j.TargetAmount == nil || j.TargetAmount.IsZero() {
		return decimal.Zero, false
	}
	return j.Balance.Div(*j.TargetAmount), true
}
