package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transfer-service/internal/repository"
	"github.com/spec-kit/transfer-service/internal/workbook"
	apperrors "github.com/spec-kit/transfer-service/pkg/util"
)

// ExportHandler streams the store as a workbook download.
type ExportHandler struct {
	accounts  repository.AccountRepository
	transfers repository.TransferRepository
}

// NewExportHandler constructs handler.
func NewExportHandler(accounts repository.AccountRepository, transfers repository.TransferRepository) *ExportHandler {
	return &ExportHandler{accounts: accounts, transfers: transfers}
}

// Workbook GET /export/workbook.
func (h *ExportHandler) Workbook(c *fiber.Ctx) error {
	accounts, err := h.accounts.ListAll(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}
	transfers, err := h.transfers.ListAll(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}

	f, err := workbook.Build(accounts, transfers)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", "transfers_"+time.Now().Format("20060102")+".xlsx"))
	return c.Send(buf.Bytes())
}
