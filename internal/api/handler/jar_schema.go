package handler

import (
	"time"

	"github.com/shopspring/decimal"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

// createJarRequest carries the jar creation payload. Amount-typed fields are
// validated by the service layer (validator cannot range-check a
// struct-typed decimal).
type createJarRequest struct {
	Name         string           `json:"name"          validate:"required,max=60"`
	Emoji        string           `json:"emoji"`
	Color        string           `json:"color"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
}

type inviteMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"  validate:"required,oneof=editor viewer"`
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,max=60"`
}

type upgradeRequest struct {
	BillingRef string `json:"billing_ref"`
}

// --- Response types ---
// Response-only types owned by the transport layer, intentionally separate
// from domain types so the JSON contract is not coupled to internal changes.

type jarResponse struct {
	ID           string           `json:"id"`
	OwnerID      string           `json:"owner_id"`
	Name         string           `json:"name"`
	Emoji        string           `json:"emoji"`
	Color        string           `json:"color"`
	Balance      decimal.Decimal  `json:"balance"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	// TargetProgress is Balance/TargetAmount; omitted when no target is set.
	// It may exceed 1 since jars can hold more than their goal.
	TargetProgress *decimal.Decimal `json:"target_progress,omitempty"`
	IsShared       bool             `json:"is_shared"`
	Position     int              `json:"position"`
	CreatedAt    time.Time        `json:"created_at"`
}

type listJarsResponse struct {
	Data  []jarResponse   `json:"data"`
	Total decimal.Decimal `json:"total_balance"`
}

type jarDetailResponse struct {
	Jar          jarResponse           `json:"jar"`
	Transactions []transactionResponse `json:"transactions"`
}

type memberResponse struct {
	ID         string     `json:"id"`
	JarID      string     `json:"jar_id"`
	UserID     string     `json:"user_id"`
	Role       string     `json:"role"`
	InvitedAt  time.Time  `json:"invited_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	IsPro     bool      `json:"is_pro"`
	CreatedAt time.Time `json:"created_at"`
}
