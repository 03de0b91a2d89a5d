package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/transfer-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTransferCreated       EventType = "transfer_created"
	EventTransferStatusChanged EventType = "transfer_status_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// Event represents a domain event emitted by services. TransferID carries the
// business key, not the row id.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	TransferID string      `json:"transfer_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// TransferCreatedPayload payload.
type TransferCreatedPayload struct {
	FromBranch string          `json:"from_branch"`
	ToBranch   string          `json:"to_branch"`
	Value      decimal.Decimal `json:"value"`
}

// TransferStatusChangedPayload payload.
type TransferStatusChangedPayload struct {
	OldStatus domain.TransferStatus `json:"old_status"`
	NewStatus domain.TransferStatus `json:"new_status"`
	Driver    string                `json:"driver,omitempty"`
}
