package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/events"
	"github.com/spec-kit/transfer-service/internal/repository"
	apperrors "github.com/spec-kit/transfer-service/pkg/util"
)

// TransferService coordinates transfer creation, listing and the status
// lifecycle.
type TransferService struct {
	transfers  repository.TransferRepository
	dispatcher events.Dispatcher
}

// TransferDependencies bundles collaborators for the transfer service.
type TransferDependencies struct {
	TransferRepo repository.TransferRepository
	Dispatcher   events.Dispatcher
}

// NewTransferService constructs the service.
func NewTransferService(deps TransferDependencies) *TransferService {
	return &TransferService{
		transfers:  deps.TransferRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateInput describes the new-transfer form payload.
type CreateInput struct {
	TransferID string
	ToBranch   string
	Value      decimal.Decimal
	Notes      string
}

// ViewQuery captures the orthogonal filters applied on top of role scoping.
type ViewQuery struct {
	Status     *domain.TransferStatus
	SearchTerm string
	// Region and Branch narrow the view by sender; only managers and
	// owners may set them.
	Region string
	Branch string
}

// ListVisible returns the role-scoped view of the transfer table with the
// query filters applied.
func (s *TransferService) ListVisible(ctx context.Context, account *domain.Account, query ViewQuery) ([]domain.Transfer, error) {
	if account == nil {
		return nil, apperrors.NewUnauthorized("account required")
	}
	if (query.Region != "" || query.Branch != "") &&
		account.Role != domain.RoleManager && account.Role != domain.RoleOwner {
		return nil, apperrors.NewValidationError("region and branch filters require manager or owner role", nil)
	}

	filter := repository.TransferFilter{Limit: 500}
	if query.Status != nil {
		filter.Statuses = []domain.TransferStatus{*query.Status}
	}
	if term := strings.TrimSpace(query.SearchTerm); term != "" {
		filter.SearchTerm = &term
	}
	if query.Region != "" {
		prefix := domain.Region(query.Region)
		filter.RegionPrefix = &prefix
	}
	if query.Branch != "" {
		branch := query.Branch
		filter.FromBranch = &branch
	}

	rows, err := s.transfers.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return scopeVisible(rows, *account), nil
}

// Create records a new transfer originating from the acting branch.
func (s *TransferService) Create(ctx context.Context, account *domain.Account, input CreateInput) (*domain.Transfer, error) {
	if account == nil || account.Role != domain.RoleBranch {
		return nil, apperrors.NewForbidden("branch role required")
	}

	transferID := strings.TrimSpace(input.TransferID)
	toBranch := strings.TrimSpace(input.ToBranch)
	if transferID == "" || toBranch == "" {
		return nil, apperrors.NewValidationError("transfer_id and to_branch required", nil)
	}
	if input.Value.IsNegative() {
		return nil, apperrors.NewValidationError("value must be non-negative", map[string]any{"value": input.Value.String()})
	}

	if _, err := s.transfers.GetByTransferID(ctx, transferID); err == nil {
		return nil, apperrors.NewConflict("transfer_id already exists", map[string]any{"transfer_id": transferID})
	} else if err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}

	transfer := &domain.Transfer{
		TransferID:  transferID,
		FromBranch:  account.BranchCode,
		ToBranch:    toBranch,
		Value:       input.Value,
		Notes:       strings.TrimSpace(input.Notes),
		Status:      domain.StatusPending,
		Driver:      "",
		CreatedDate: time.Now().Truncate(24 * time.Hour),
	}
	if err := s.transfers.Create(ctx, transfer); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTransferCreated,
		TransferID: transfer.TransferID,
		Actor:      actorFor(account),
		Payload: events.TransferCreatedPayload{
			FromBranch: transfer.FromBranch,
			ToBranch:   transfer.ToBranch,
			Value:      transfer.Value,
		},
	})
	return transfer, nil
}

// PickUp moves a pending transfer to PICKED_UP, assigning the acting driver.
// The driver field is stamped exactly once; re-picking an in-flight transfer
// is a conflict, which also resolves concurrent pickups: the first writer
// wins and the second is rejected.
func (s *TransferService) PickUp(ctx context.Context, account *domain.Account, transferID string) (*domain.Transfer, error) {
	if account == nil || account.Role != domain.RoleDriver {
		return nil, apperrors.NewForbidden("driver role required")
	}

	var oldStatus domain.TransferStatus
	updated, err := s.transfers.Transition(ctx, transferID, func(transfer *domain.Transfer) error {
		if transfer.Status != domain.StatusPending && transfer.Status != domain.StatusPendingWarehouse {
			return apperrors.NewConflict("transfer cannot be picked up in current status",
				map[string]any{"status": transfer.Status})
		}
		oldStatus = transfer.Status
		now := time.Now()
		transfer.Status = domain.StatusPickedUp
		transfer.Driver = account.Username
		transfer.PickedUpAt = &now
		return nil
	})
	if err != nil {
		return nil, s.mapTransitionError(err, transferID)
	}

	s.publishStatusChange(ctx, account, updated, oldStatus)
	return updated, nil
}

// Receive marks a transfer as received at its destination branch. Only the
// destination branch may receive; a second Receive is rejected and the first
// received_at stamp is never overwritten.
func (s *TransferService) Receive(ctx context.Context, account *domain.Account, transferID string) (*domain.Transfer, error) {
	if account == nil || account.Role != domain.RoleBranch {
		return nil, apperrors.NewForbidden("branch role required")
	}

	var oldStatus domain.TransferStatus
	updated, err := s.transfers.Transition(ctx, transferID, func(transfer *domain.Transfer) error {
		if transfer.ToBranch != account.BranchCode {
			return apperrors.NewForbidden("only the destination branch can receive this transfer")
		}
		if transfer.Status != domain.StatusPending && transfer.Status != domain.StatusPickedUp {
			return apperrors.NewConflict("transfer cannot be received in current status",
				map[string]any{"status": transfer.Status})
		}
		oldStatus = transfer.Status
		now := time.Now()
		transfer.Status = domain.StatusReceived
		transfer.ReceivedAt = &now
		return nil
	})
	if err != nil {
		return nil, s.mapTransitionError(err, transferID)
	}

	s.publishStatusChange(ctx, account, updated, oldStatus)
	return updated, nil
}

func (s *TransferService) mapTransitionError(err error, transferID string) error {
	if err == pgx.ErrNoRows {
		return apperrors.NewNotFound("transfer", map[string]any{"transfer_id": transferID})
	}
	return apperrors.MapError(err)
}

func (s *TransferService) publishStatusChange(ctx context.Context, account *domain.Account, transfer *domain.Transfer, oldStatus domain.TransferStatus) {
	s.publishEvent(ctx, events.Event{
		Type:       events.EventTransferStatusChanged,
		TransferID: transfer.TransferID,
		Actor:      actorFor(account),
		Payload: events.TransferStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: transfer.Status,
			Driver:    transfer.Driver,
		},
	})
}

func (s *TransferService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(account *domain.Account) events.Actor {
	if account == nil {
		return events.Actor{}
	}
	return events.Actor{Username: account.Username, Role: account.Role}
}
