package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/events"
	apperrors "github.com/spec-kit/transfer-service/pkg/util"
)

func newTransferFixture() (*TransferService, *fakeTransferRepo, *recordingDispatcher) {
	repo := newFakeTransferRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewTransferService(TransferDependencies{TransferRepo: repo, Dispatcher: dispatcher})
	return svc, repo, dispatcher
}

func branchAccount(branchCode string) *domain.Account {
	return &domain.Account{ID: "a1", Username: branchCode, Role: domain.RoleBranch, BranchCode: branchCode}
}

func driverAccount(username string) *domain.Account {
	return &domain.Account{ID: "a2", Username: username, Role: domain.RoleDriver}
}

func TestCreateTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("records a pending transfer from the acting branch", func(t *testing.T) {
		svc, repo, dispatcher := newTransferFixture()

		created, err := svc.Create(ctx, branchAccount("RY1"), CreateInput{
			TransferID: "  TR-100  ",
			ToBranch:   "JD2",
			Value:      decimal.RequireFromString("1250.50"),
			Notes:      "fragile",
		})
		require.NoError(t, err)
		assert.Equal(t, "TR-100", created.TransferID)
		assert.Equal(t, "RY1", created.FromBranch)
		assert.Equal(t, "JD2", created.ToBranch)
		assert.Equal(t, domain.StatusPending, created.Status)
		assert.Empty(t, created.Driver)
		assert.Nil(t, created.PickedUpAt)

		stored, err := repo.GetByTransferID(ctx, "TR-100")
		require.NoError(t, err)
		assert.True(t, stored.Value.Equal(decimal.RequireFromString("1250.50")))

		published := dispatcher.published()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventTransferCreated, published[0].Type)
		assert.Equal(t, "TR-100", published[0].TransferID)
		assert.NotEmpty(t, published[0].ID)
	})

	t.Run("rejects duplicate transfer ids", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		repo.seed(domain.Transfer{TransferID: "TR-1", FromBranch: "RY1", ToBranch: "JD2", Status: domain.StatusPending})

		_, err := svc.Create(ctx, branchAccount("RY1"), CreateInput{
			TransferID: "TR-1", ToBranch: "JD2", Value: decimal.NewFromInt(10),
		})
		assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	})

	t.Run("rejects negative values", func(t *testing.T) {
		svc, _, _ := newTransferFixture()

		_, err := svc.Create(ctx, branchAccount("RY1"), CreateInput{
			TransferID: "TR-2", ToBranch: "JD2", Value: decimal.NewFromInt(-5),
		})
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})

	t.Run("rejects blank fields", func(t *testing.T) {
		svc, _, _ := newTransferFixture()

		_, err := svc.Create(ctx, branchAccount("RY1"), CreateInput{
			TransferID: "   ", ToBranch: "JD2", Value: decimal.NewFromInt(5),
		})
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})

	t.Run("requires the branch role", func(t *testing.T) {
		svc, _, _ := newTransferFixture()

		_, err := svc.Create(ctx, driverAccount("ali"), CreateInput{
			TransferID: "TR-3", ToBranch: "JD2", Value: decimal.NewFromInt(5),
		})
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})
}

func TestPickUp(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns the driver and stamps pickup from pending", func(t *testing.T) {
		svc, repo, dispatcher := newTransferFixture()
		repo.seed(domain.Transfer{TransferID: "TR-1", FromBranch: "RY1", ToBranch: "JD2", Status: domain.StatusPending})

		updated, err := svc.PickUp(ctx, driverAccount("ali"), "TR-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPickedUp, updated.Status)
		assert.Equal(t, "ali", updated.Driver)
		require.NotNil(t, updated.PickedUpAt)

		published := dispatcher.published()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventTransferStatusChanged, published[0].Type)
		payload, ok := published[0].Payload.(events.TransferStatusChangedPayload)
		require.True(t, ok)
		assert.Equal(t, domain.StatusPending, payload.OldStatus)
		assert.Equal(t, domain.StatusPickedUp, payload.NewStatus)
	})

	t.Run("accepts transfers pending at the warehouse", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		repo.seed(domain.Transfer{TransferID: "TR-2", FromBranch: "RY1", ToBranch: "JD2", Status: domain.StatusPendingWarehouse})

		updated, err := svc.PickUp(ctx, driverAccount("ali"), "TR-2")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPickedUp, updated.Status)
	})

	t.Run("rejects a second pickup", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		repo.seed(domain.Transfer{TransferID: "TR-3", FromBranch: "RY1", ToBranch: "JD2", Status: domain.StatusPending})

		_, err := svc.PickUp(ctx, driverAccount("ali"), "TR-3")
		require.NoError(t, err)

		_, err = svc.PickUp(ctx, driverAccount("omar"), "TR-3")
		assert.True(t, apperrors.IsCode(err, "CONFLICT"))

		stored, err := repo.GetByTransferID(ctx, "TR-3")
		require.NoError(t, err)
		assert.Equal(t, "ali", stored.Driver)
	})

	t.Run("unknown transfer id is not found", func(t *testing.T) {
		svc, _, _ := newTransferFixture()

		_, err := svc.PickUp(ctx, driverAccount("ali"), "TR-404")
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})

	t.Run("requires the driver role", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		repo.seed(domain.Transfer{TransferID: "TR-4", FromBranch: "RY1", ToBranch: "JD2", Status: domain.StatusPending})

		_, err := svc.PickUp(ctx, branchAccount("JD2"), "TR-4")
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("exactly one concurrent pickup wins", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		repo.seed(domain.Transfer{TransferID: "TR-5", FromBranch: "RY1", ToBranch: "JD2", Status: domain.StatusPending})

		drivers := []string{"ali", "omar", "sara", "nora"}
		errs := make([]error, len(drivers))
		var wg sync.WaitGroup
		for idx, username := range drivers {
			wg.Add(1)
			go func(idx int, username string) {
				defer wg.Done()
				_, errs[idx] = svc.PickUp(ctx, driverAccount(username), "TR-5")
			}(idx, username)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.True(t, apperrors.IsCode(err, "CONFLICT"))
			}
		}
		assert.Equal(t, 1, succeeded)
	})
}

func TestReceive(t *testing.T) {
	ctx := context.Background()

	t.Run("destination branch completes the transfer", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		pickedUp := time.Now().Add(-time.Hour)
		repo.seed(domain.Transfer{
			TransferID: "TR-1", FromBranch: "RY1", ToBranch: "JD2",
			Status: domain.StatusPickedUp, Driver: "ali", PickedUpAt: &pickedUp,
		})

		updated, err := svc.Receive(ctx, branchAccount("JD2"), "TR-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusReceived, updated.Status)
		assert.Equal(t, "ali", updated.Driver)
		require.NotNil(t, updated.ReceivedAt)
	})

	t.Run("pending transfers may be received directly", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		repo.seed(domain.Transfer{TransferID: "TR-2", FromBranch: "RY1", ToBranch: "JD2", Status: domain.StatusPending})

		updated, err := svc.Receive(ctx, branchAccount("JD2"), "TR-2")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusReceived, updated.Status)
	})

	t.Run("only the destination branch may receive", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		repo.seed(domain.Transfer{TransferID: "TR-3", FromBranch: "RY1", ToBranch: "JD2", Status: domain.StatusPickedUp, Driver: "ali"})

		_, err := svc.Receive(ctx, branchAccount("JD9"), "TR-3")
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("a second receive keeps the first stamp", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		repo.seed(domain.Transfer{TransferID: "TR-4", FromBranch: "RY1", ToBranch: "JD2", Status: domain.StatusPickedUp, Driver: "ali"})

		first, err := svc.Receive(ctx, branchAccount("JD2"), "TR-4")
		require.NoError(t, err)

		_, err = svc.Receive(ctx, branchAccount("JD2"), "TR-4")
		assert.True(t, apperrors.IsCode(err, "CONFLICT"))

		stored, err := repo.GetByTransferID(ctx, "TR-4")
		require.NoError(t, err)
		require.NotNil(t, stored.ReceivedAt)
		assert.True(t, stored.ReceivedAt.Equal(*first.ReceivedAt))
	})

	t.Run("unknown transfer id is not found", func(t *testing.T) {
		svc, _, _ := newTransferFixture()

		_, err := svc.Receive(ctx, branchAccount("JD2"), "TR-404")
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})
}

func TestListVisible(t *testing.T) {
	ctx := context.Background()

	seedRows := func(repo *fakeTransferRepo) {
		repo.seed(
			domain.Transfer{TransferID: "TR-1", FromBranch: "RY1", ToBranch: "JD2", Status: domain.StatusPending},
			domain.Transfer{TransferID: "TR-2", FromBranch: "RY1", ToBranch: "JD2", Status: domain.StatusReceived, Driver: "ali"},
			domain.Transfer{TransferID: "TR-3", FromBranch: "JD3", ToBranch: "RY2", Status: domain.StatusPickedUp, Driver: "omar"},
		)
	}

	t.Run("branch accounts see inbound work only", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		seedRows(repo)

		rows, err := svc.ListVisible(ctx, branchAccount("JD2"), ViewQuery{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "TR-1", rows[0].TransferID)
	})

	t.Run("status filter composes with role scope", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		seedRows(repo)

		status := domain.StatusReceived
		owner := &domain.Account{Role: domain.RoleOwner, Username: "owner"}
		rows, err := svc.ListVisible(ctx, owner, ViewQuery{Status: &status})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "TR-2", rows[0].TransferID)
	})

	t.Run("search narrows by transfer id substring", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		seedRows(repo)

		owner := &domain.Account{Role: domain.RoleOwner, Username: "owner"}
		rows, err := svc.ListVisible(ctx, owner, ViewQuery{SearchTerm: "tr-3"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "TR-3", rows[0].TransferID)
	})

	t.Run("region filter is reserved for managers and owners", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		seedRows(repo)

		_, err := svc.ListVisible(ctx, branchAccount("JD2"), ViewQuery{Region: "RY"})
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

		manager := &domain.Account{Role: domain.RoleManager, Username: "mgr"}
		rows, err := svc.ListVisible(ctx, manager, ViewQuery{Region: "RY"})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("branch filter narrows by sender", func(t *testing.T) {
		svc, repo, _ := newTransferFixture()
		seedRows(repo)

		manager := &domain.Account{Role: domain.RoleManager, Username: "mgr"}
		rows, err := svc.ListVisible(ctx, manager, ViewQuery{Branch: "JD3"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "TR-3", rows[0].TransferID)
	})
}
