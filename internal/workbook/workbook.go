// Package workbook bridges the legacy spreadsheet and the transfer store.
// The workbook is an exchange format only: rows are seeded into Postgres on
// import and rebuilt from it on export.
package workbook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/transfer-service/internal/auth"
	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/repository"
)

const (
	usersSheet     = "Users"
	transfersSheet = "Transfers"

	dateLayout = "2006-01-02"
)

// ImportSummary reports what an import run did.
type ImportSummary struct {
	AccountsCreated  int
	AccountsSkipped  int
	TransfersCreated int
	TransfersSkipped int
}

// Importer seeds accounts and transfers from a workbook file.
type Importer struct {
	accounts   repository.AccountRepository
	transfers  repository.TransferRepository
	logger     *zap.Logger
	bcryptCost int
}

// NewImporter constructs an importer.
func NewImporter(accounts repository.AccountRepository, transfers repository.TransferRepository, logger *zap.Logger, bcryptCost int) *Importer {
	return &Importer{accounts: accounts, transfers: transfers, logger: logger, bcryptCost: bcryptCost}
}

// ImportFile reads the Users and Transfers sheets and seeds the store.
// Existing usernames and transfer_ids are skipped, so the import is safe to
// re-run against a populated database.
func (i *Importer) ImportFile(ctx context.Context, path string) (ImportSummary, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var summary ImportSummary
	if err := i.importUsers(ctx, f, &summary); err != nil {
		return summary, err
	}
	if err := i.importTransfers(ctx, f, &summary); err != nil {
		return summary, err
	}

	i.logger.Info("workbook import finished",
		zap.Int("accounts_created", summary.AccountsCreated),
		zap.Int("accounts_skipped", summary.AccountsSkipped),
		zap.Int("transfers_created", summary.TransfersCreated),
		zap.Int("transfers_skipped", summary.TransfersSkipped))
	return summary, nil
}

func (i *Importer) importUsers(ctx context.Context, f *excelize.File, summary *ImportSummary) error {
	rows, err := f.GetRows(usersSheet)
	if err != nil {
		return fmt.Errorf("read %s sheet: %w", usersSheet, err)
	}
	if len(rows) == 0 {
		return nil
	}

	// Users headers arrive in whatever casing and padding the operator
	// typed; normalize before lookup.
	columns := headerIndex(rows[0], normalizeHeader)

	for _, row := range rows[1:] {
		username := strings.TrimSpace(cell(row, columns, "username"))
		if username == "" {
			continue
		}
		roleLabel := cell(row, columns, "role")
		role, ok := domain.ParseRole(roleLabel)
		if !ok {
			i.logger.Warn("skipping user with unknown role",
				zap.String("username", username), zap.String("role", roleLabel))
			summary.AccountsSkipped++
			continue
		}

		if _, err := i.accounts.GetByUsername(ctx, username); err == nil {
			summary.AccountsSkipped++
			continue
		} else if err != pgx.ErrNoRows {
			return err
		}

		// The sheet carries plaintext passwords; they are hashed here
		// and never stored as-is.
		hash, err := auth.HashPassword(strings.TrimSpace(cell(row, columns, "password")), i.bcryptCost)
		if err != nil {
			return err
		}

		account := &domain.Account{
			Username:     username,
			PasswordHash: hash,
			DisplayName:  username,
			Role:         role,
			BranchCode:   strings.TrimSpace(cell(row, columns, "branch_code")),
		}
		if err := i.accounts.Create(ctx, account); err != nil {
			return err
		}
		summary.AccountsCreated++
	}
	return nil
}

func (i *Importer) importTransfers(ctx context.Context, f *excelize.File, summary *ImportSummary) error {
	rows, err := f.GetRows(transfersSheet)
	if err != nil {
		return fmt.Errorf("read %s sheet: %w", transfersSheet, err)
	}
	if len(rows) == 0 {
		return nil
	}

	columns := headerIndex(rows[0], strings.TrimSpace)

	for _, row := range rows[1:] {
		transferID := strings.TrimSpace(cell(row, columns, "transfer_id"))
		if transferID == "" {
			continue
		}

		if _, err := i.transfers.GetByTransferID(ctx, transferID); err == nil {
			summary.TransfersSkipped++
			continue
		} else if err != pgx.ErrNoRows {
			return err
		}

		statusLabel := cell(row, columns, "status")
		status, ok := domain.ParseStatus(statusLabel)
		if !ok {
			i.logger.Warn("skipping transfer with unknown status",
				zap.String("transfer_id", transferID), zap.String("status", statusLabel))
			summary.TransfersSkipped++
			continue
		}

		value := decimal.Zero
		if raw := strings.TrimSpace(cell(row, columns, "value")); raw != "" {
			parsed, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
			if err != nil {
				i.logger.Warn("skipping transfer with unreadable value",
					zap.String("transfer_id", transferID), zap.String("value", raw))
				summary.TransfersSkipped++
				continue
			}
			value = parsed
		}

		createdDate := time.Now()
		if raw := strings.TrimSpace(cell(row, columns, "date")); raw != "" {
			if parsed, err := time.Parse(dateLayout, raw); err == nil {
				createdDate = parsed
			}
		}

		transfer := &domain.Transfer{
			TransferID:  transferID,
			FromBranch:  strings.TrimSpace(cell(row, columns, "from")),
			ToBranch:    strings.TrimSpace(cell(row, columns, "to")),
			Value:       value,
			Notes:       strings.TrimSpace(cell(row, columns, "notes")),
			Status:      status,
			Driver:      strings.TrimSpace(cell(row, columns, "driver")),
			CreatedDate: createdDate,
		}
		if err := i.transfers.Create(ctx, transfer); err != nil {
			return err
		}
		summary.TransfersCreated++
	}
	return nil
}

func headerIndex(header []string, normalize func(string) string) map[string]int {
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[normalize(name)] = idx
	}
	return columns
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func cell(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Build renders accounts and transfers into a two-sheet workbook matching the
// legacy layout. Password hashes are not exported; the column stays blank.
func Build(accounts []domain.Account, transfers []domain.Transfer) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), usersSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(transfersSheet); err != nil {
		return nil, err
	}

	userHeader := []interface{}{"username", "password", "role", "branch_code"}
	if err := f.SetSheetRow(usersSheet, "A1", &userHeader); err != nil {
		return nil, err
	}
	for idx, account := range accounts {
		row := []interface{}{account.Username, "", strings.ToLower(string(account.Role)), account.BranchCode}
		if err := f.SetSheetRow(usersSheet, fmt.Sprintf("A%d", idx+2), &row); err != nil {
			return nil, err
		}
	}

	transferHeader := []interface{}{"transfer_id", "from", "to", "value", "notes", "status", "date", "driver", "picked_up_at", "received_at"}
	if err := f.SetSheetRow(transfersSheet, "A1", &transferHeader); err != nil {
		return nil, err
	}
	for idx, transfer := range transfers {
		row := []interface{}{
			transfer.TransferID,
			transfer.FromBranch,
			transfer.ToBranch,
			transfer.Value.StringFixed(2),
			transfer.Notes,
			string(transfer.Status),
			transfer.CreatedDate.Format(dateLayout),
			transfer.Driver,
			formatTimestamp(transfer.PickedUpAt),
			formatTimestamp(transfer.ReceivedAt),
		}
		if err := f.SetSheetRow(transfersSheet, fmt.Sprintf("A%d", idx+2), &row); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func formatTimestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format(time.RFC3339)
}
