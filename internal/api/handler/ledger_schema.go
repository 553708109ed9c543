package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneyjar/jarledger/internal/core/domain"
)

// ledgerEntryRequest is the payload for fill and spend.
type ledgerEntryRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note" validate:"max=280"`
}

// transferRequest is the payload for jar-to-jar transfers. The source jar
// comes from the body rather than the path so the endpoint reads as an
// operation on the pair.
type transferRequest struct {
	FromJarID string          `json:"from_jar_id" validate:"required"`
	ToJarID   string          `json:"to_jar_id"   validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note" validate:"max=280"`
}

type transactionResponse struct {
	ID         string          `json:"id"`
	JarID      string          `json:"jar_id"`
	UserID     string          `json:"user_id"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	Date       time.Time       `json:"date"`
	CreatedAt  time.Time       `json:"created_at"`
	TransferID string          `json:"transfer_id,omitempty"`
}

type ledgerEntryResponse struct {
	Transaction transactionResponse `json:"transaction"`
	Balance     decimal.Decimal     `json:"balance"`
}

type transferResponse struct {
	Out         transactionResponse `json:"out"`
	In          transactionResponse `json:"in"`
	FromBalance decimal.Decimal     `json:"from_balance"`
	ToBalance   decimal.Decimal     `json:"to_balance"`
}

type activityResponse struct {
	Data []transactionResponse `json:"data"`
}

func toTransactionResponse(t *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:         t.ID,
		JarID:      t.JarID,
		UserID:     t.UserID,
		Type:       string(t.Type),
		Amount:     t.Amount,
		Note:       t.Note,
		Date:       t.Date,
		CreatedAt:  t.CreatedAt,
		TransferID: t.TransferID,
	}
}

func toTransactionResponses(txs []*domain.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

func toJarResponse(j *domain.Jar) jarResponse {
	resp := jarResponse{
		ID:           j.ID,
		OwnerID:      j.OwnerID,
		Name:         j.Name,
		Emoji:        j.Emoji,
		Color:        j.Color,
		Balance:      j.Balance,
		TargetAmount: j.TargetAmount,
		IsShared:     j.IsShared,
		Position:     j.Position,
		CreatedAt:    j.CreatedAt,
	}
	if p, ok := j.TargetProgress(); ok {
		resp.TargetProgress = &p
	}
	return resp
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		IsPro:     u.IsPro,
		CreatedAt: u.CreatedAt,
	}
}
