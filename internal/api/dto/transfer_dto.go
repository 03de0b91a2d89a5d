package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/transfer-service/internal/domain"
)

// CreateTransferRequest payload for the new-transfer form.
type CreateTransferRequest struct {
	TransferID string          `json:"transfer_id"`
	ToBranch   string          `json:"to_branch"`
	Value      decimal.Decimal `json:"value"`
	Notes      string          `json:"notes"`
}

// TransferResponse is the row representation returned to the dashboard.
type TransferResponse struct {
	ID          string                `json:"id"`
	TransferID  string                `json:"transfer_id"`
	FromBranch  string                `json:"from_branch"`
	ToBranch    string                `json:"to_branch"`
	Value       decimal.Decimal       `json:"value"`
	Notes       string                `json:"notes"`
	Status      domain.TransferStatus `json:"status"`
	Driver      string                `json:"driver,omitempty"`
	CreatedDate string                `json:"date"`
	PickedUpAt  *time.Time            `json:"picked_up_at,omitempty"`
	ReceivedAt  *time.Time            `json:"received_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}
