package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/events"
	"github.com/spec-kit/transfer-service/internal/repository"
)

// fakeTransferRepo keeps transfers in memory. The mutex is held for the whole
// Transition call, mirroring the row lock semantics of the real repository.
type fakeTransferRepo struct {
	mu        sync.Mutex
	transfers map[string]*domain.Transfer
	order     []string
}

func newFakeTransferRepo() *fakeTransferRepo {
	return &fakeTransferRepo{transfers: make(map[string]*domain.Transfer)}
}

func (r *fakeTransferRepo) seed(transfers ...domain.Transfer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, transfer := range transfers {
		copied := transfer
		if copied.ID == "" {
			copied.ID = fmt.Sprintf("row-%d", len(r.order)+1)
		}
		r.transfers[copied.TransferID] = &copied
		r.order = append(r.order, copied.TransferID)
	}
}

func (r *fakeTransferRepo) Create(_ context.Context, transfer *domain.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transfers[transfer.TransferID]; ok {
		return fmt.Errorf("duplicate transfer_id %s", transfer.TransferID)
	}
	transfer.ID = fmt.Sprintf("row-%d", len(r.order)+1)
	transfer.CreatedAt = time.Now()
	transfer.UpdatedAt = transfer.CreatedAt
	copied := *transfer
	r.transfers[transfer.TransferID] = &copied
	r.order = append(r.order, transfer.TransferID)
	return nil
}

func (r *fakeTransferRepo) GetByTransferID(_ context.Context, transferID string) (*domain.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	transfer, ok := r.transfers[transferID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *transfer
	return &copied, nil
}

func (r *fakeTransferRepo) ListWithFilter(_ context.Context, filter repository.TransferFilter) ([]domain.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Transfer
	for _, transferID := range r.order {
		transfer := r.transfers[transferID]
		if !matchesFilter(*transfer, filter) {
			continue
		}
		result = append(result, *transfer)
	}
	return result, nil
}

func matchesFilter(transfer domain.Transfer, filter repository.TransferFilter) bool {
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if transfer.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.SearchTerm != nil &&
		!strings.Contains(strings.ToLower(transfer.TransferID), strings.ToLower(*filter.SearchTerm)) {
		return false
	}
	if filter.RegionPrefix != nil && !strings.HasPrefix(transfer.FromBranch, *filter.RegionPrefix) {
		return false
	}
	if filter.FromBranch != nil && transfer.FromBranch != *filter.FromBranch {
		return false
	}
	if filter.ToBranch != nil && transfer.ToBranch != *filter.ToBranch {
		return false
	}
	if filter.Driver != nil && transfer.Driver != *filter.Driver {
		return false
	}
	return true
}

func (r *fakeTransferRepo) ListAll(_ context.Context) ([]domain.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Transfer, 0, len(r.order))
	for _, transferID := range r.order {
		result = append(result, *r.transfers[transferID])
	}
	return result, nil
}

func (r *fakeTransferRepo) Transition(_ context.Context, transferID string, mutate func(*domain.Transfer) error) (*domain.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	transfer, ok := r.transfers[transferID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	working := *transfer
	if err := mutate(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()
	r.transfers[transferID] = &working
	copied := working
	return &copied, nil
}

// fakeAccountRepo keeps accounts in memory keyed by username.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.Username]; ok {
		return fmt.Errorf("duplicate username %s", account.Username)
	}
	if account.ID == "" {
		account.ID = fmt.Sprintf("acct-%d", len(r.accounts)+1)
	}
	copied := *account
	r.accounts[account.Username] = &copied
	return nil
}

func (r *fakeAccountRepo) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for username, existing := range r.accounts {
		if existing.ID == account.ID {
			copied := *account
			r.accounts[username] = &copied
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.ID == id {
			copied := *account
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAccountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *account
	return &copied, nil
}

func (r *fakeAccountRepo) ListAll(_ context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		result = append(result, *account)
	}
	return result, nil
}

// recordingDispatcher captures published events for assertion.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}
