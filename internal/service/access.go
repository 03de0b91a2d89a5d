package service

import (
	"github.com/spec-kit/transfer-service/internal/domain"
)

// VisibleTo reports whether a transfer is inside the account's role scope.
// It is a pure function of the row and the session identity: drivers see the
// pickup queue plus their own in-flight transfers, branches see inbound work,
// supervisors see their region, managers and owners see everything.
func VisibleTo(transfer domain.Transfer, account domain.Account) bool {
	switch account.Role {
	case domain.RoleDriver:
		if transfer.Status == domain.StatusPending || transfer.Status == domain.StatusPendingWarehouse {
			return true
		}
		return transfer.Status == domain.StatusPickedUp && transfer.Driver == account.Username
	case domain.RoleBranch:
		if transfer.ToBranch != account.BranchCode {
			return false
		}
		return transfer.Status == domain.StatusPending || transfer.Status == domain.StatusPickedUp
	case domain.RoleSupervisor:
		return domain.Region(transfer.FromBranch) == account.Region()
	case domain.RoleManager, domain.RoleOwner:
		return true
	}
	return false
}

// scopeVisible filters rows down to the account's role scope without
// mutating the input slice.
func scopeVisible(transfers []domain.Transfer, account domain.Account) []domain.Transfer {
	visible := make([]domain.Transfer, 0, len(transfers))
	for _, transfer := range transfers {
		if VisibleTo(transfer, account) {
			visible = append(visible, transfer)
		}
	}
	return visible
}
