package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus enumerates lifecycle states for inter-branch transfers.
type TransferStatus string

const (
	StatusPending          TransferStatus = "PENDING"
	StatusPickedUp         TransferStatus = "PICKED_UP"
	StatusReceived         TransferStatus = "RECEIVED"
	StatusPendingWarehouse TransferStatus = "PENDING_WAREHOUSE"
	// StatusSent is a legacy state found in historical workbook rows. No
	// transition produces it; it only participates in aggregation.
	StatusSent TransferStatus = "SENT"
)

// statusLabels maps lowercased human labels from the workbook era to
// canonical statuses.
var statusLabels = map[string]TransferStatus{
	"pending":           StatusPending,
	"picked up":         StatusPickedUp,
	"picked_up":         StatusPickedUp,
	"received":          StatusReceived,
	"pending at wh":     StatusPendingWarehouse,
	"pending_warehouse": StatusPendingWarehouse,
	"sent":              StatusSent,
}

// ParseStatus resolves a status label case-insensitively, accepting both
// canonical names and the labels used in legacy spreadsheets.
func ParseStatus(label string) (TransferStatus, bool) {
	status, ok := statusLabels[strings.ToLower(strings.TrimSpace(label))]
	return status, ok
}

// Valid reports whether the status is a known enum value.
func (s TransferStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPickedUp, StatusReceived, StatusPendingWarehouse, StatusSent:
		return true
	}
	return false
}

// Transfer is the aggregate for movement of value between two branches.
// FromBranch and ToBranch are immutable after creation; Driver is set exactly
// once, at the pickup transition.
type Transfer struct {
	ID          string
	TransferID  string
	FromBranch  string
	ToBranch    string
	Value       decimal.Decimal
	Notes       string
	Status      TransferStatus
	Driver      string
	CreatedDate time.Time
	PickedUpAt  *time.Time
	ReceivedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Region returns the two-character region prefix of a branch code.
func Region(branchCode string) string {
	if len(branchCode) < 2 {
		return branchCode
	}
	return branchCode[:2]
}
