package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/transfer-service/internal/domain"
)

// TransferFilter captures listing parameters. Role scoping is applied by the
// service layer; these clauses cover the orthogonal view filters.
type TransferFilter struct {
	Statuses     []domain.TransferStatus
	SearchTerm   *string
	RegionPrefix *string
	FromBranch   *string
	ToBranch     *string
	Driver       *string
	Limit        int
	Offset       int
}

// TransferRepository encapsulates transfer persistence.
type TransferRepository interface {
	Create(ctx context.Context, transfer *domain.Transfer) error
	GetByTransferID(ctx context.Context, transferID string) (*domain.Transfer, error)
	ListWithFilter(ctx context.Context, filter TransferFilter) ([]domain.Transfer, error)
	ListAll(ctx context.Context) ([]domain.Transfer, error)
	// Transition loads the row for transferID under a row lock, applies
	// mutate, and persists the result in the same transaction. Returns
	// pgx.ErrNoRows when no row matches; returns mutate's error unchanged
	// when the mutation is rejected.
	Transition(ctx context.Context, transferID string, mutate func(*domain.Transfer) error) (*domain.Transfer, error)
}

type transferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository instantiates repository.
func NewTransferRepository(pool *pgxpool.Pool) TransferRepository {
	return &transferRepository{pool: pool}
}

const transferColumns = `id, transfer_id, from_branch, to_branch, value, notes, status, driver,
               created_date, picked_up_at, received_at, created_at, updated_at`

func (r *transferRepository) Create(ctx context.Context, transfer *domain.Transfer) error {
	const query = `
        INSERT INTO transfers (transfer_id, from_branch, to_branch, value, notes, status, driver, created_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		transfer.TransferID,
		transfer.FromBranch,
		transfer.ToBranch,
		transfer.Value,
		transfer.Notes,
		transfer.Status,
		transfer.Driver,
		transfer.CreatedDate,
	).Scan(&transfer.ID, &transfer.CreatedAt, &transfer.UpdatedAt)
}

func (r *transferRepository) GetByTransferID(ctx context.Context, transferID string) (*domain.Transfer, error) {
	const query = `SELECT ` + transferColumns + ` FROM transfers WHERE transfer_id=$1`
	transfer, err := scanTransferRow(r.pool.QueryRow(ctx, query, transferID))
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func (r *transferRepository) ListWithFilter(ctx context.Context, filter TransferFilter) ([]domain.Transfer, error) {
	base := `SELECT ` + transferColumns + ` FROM transfers`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.RegionPrefix != nil {
		args = append(args, *filter.RegionPrefix+"%")
		clauses = append(clauses, fmt.Sprintf("from_branch LIKE $%d", len(args)))
	}
	if filter.FromBranch != nil {
		args = append(args, *filter.FromBranch)
		clauses = append(clauses, fmt.Sprintf("from_branch=$%d", len(args)))
	}
	if filter.ToBranch != nil {
		args = append(args, *filter.ToBranch)
		clauses = append(clauses, fmt.Sprintf("to_branch=$%d", len(args)))
	}
	if filter.Driver != nil {
		args = append(args, *filter.Driver)
		clauses = append(clauses, fmt.Sprintf("driver=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.SearchTerm)+"%")
		clauses = append(clauses, fmt.Sprintf("transfer_id ILIKE $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransfers(rows)
}

func (r *transferRepository) ListAll(ctx context.Context) ([]domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransfers(rows)
}

func (r *transferRepository) Transition(ctx context.Context, transferID string, mutate func(*domain.Transfer) error) (*domain.Transfer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `SELECT ` + transferColumns + `
        FROM transfers WHERE transfer_id=$1 ORDER BY created_at LIMIT 1 FOR UPDATE`
	transfer, err := scanTransferRow(tx.QueryRow(ctx, query, transferID))
	if err != nil {
		return nil, err
	}

	if err := mutate(transfer); err != nil {
		return nil, err
	}

	const update = `
        UPDATE transfers SET status=$1, driver=$2, picked_up_at=$3, received_at=$4, updated_at=NOW()
        WHERE id=$5`
	if _, err := tx.Exec(ctx, update,
		transfer.Status,
		transfer.Driver,
		transfer.PickedUpAt,
		transfer.ReceivedAt,
		transfer.ID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return transfer, nil
}

func scanTransferRow(row pgx.Row) (*domain.Transfer, error) {
	var transfer domain.Transfer
	if err := row.Scan(
		&transfer.ID,
		&transfer.TransferID,
		&transfer.FromBranch,
		&transfer.ToBranch,
		&transfer.Value,
		&transfer.Notes,
		&transfer.Status,
		&transfer.Driver,
		&transfer.CreatedDate,
		&transfer.PickedUpAt,
		&transfer.ReceivedAt,
		&transfer.CreatedAt,
		&transfer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func scanTransfers(rows pgx.Rows) ([]domain.Transfer, error) {
	var result []domain.Transfer
	for rows.Next() {
		transfer, err := scanTransferRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *transfer)
	}
	return result, rows.Err()
}
