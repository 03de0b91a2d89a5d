package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transfer-service/internal/api/dto"
	"github.com/spec-kit/transfer-service/internal/auth"
	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/service"
	apperrors "github.com/spec-kit/transfer-service/pkg/util"
)

// TransfersHandler manages the transfer view and lifecycle endpoints.
type TransfersHandler struct {
	service *service.TransferService
}

// NewTransfersHandler constructs handler.
func NewTransfersHandler(transferService *service.TransferService) *TransfersHandler {
	return &TransfersHandler{service: transferService}
}

// List GET /transfers.
func (h *TransfersHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	query := service.ViewQuery{
		SearchTerm: c.Query("search"),
		Region:     c.Query("region"),
		Branch:     c.Query("branch"),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status, ok := domain.ParseStatus(statusStr)
		if !ok {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": statusStr})
		}
		query.Status = &status
	}

	transfers, err := h.service.ListVisible(c.Context(), principal.Account, query)
	if err != nil {
		return err
	}

	items := make([]dto.TransferResponse, 0, len(transfers))
	for i := range transfers {
		items = append(items, transferResponse(&transfers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /transfers.
func (h *TransfersHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	transfer, err := h.service.Create(c.Context(), principal.Account, service.CreateInput{
		TransferID: req.TransferID,
		ToBranch:   req.ToBranch,
		Value:      req.Value,
		Notes:      req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": transferResponse(transfer)})
}

// PickUp POST /transfers/:transferID/pickup.
func (h *TransfersHandler) PickUp(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	transfer, err := h.service.PickUp(c.Context(), principal.Account, c.Params("transferID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transferResponse(transfer)})
}

// Receive POST /transfers/:transferID/receive.
func (h *TransfersHandler) Receive(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	transfer, err := h.service.Receive(c.Context(), principal.Account, c.Params("transferID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transferResponse(transfer)})
}

func transferResponse(transfer *domain.Transfer) dto.TransferResponse {
	return dto.TransferResponse{
		ID:          transfer.ID,
		TransferID:  transfer.TransferID,
		FromBranch:  transfer.FromBranch,
		ToBranch:    transfer.ToBranch,
		Value:       transfer.Value,
		Notes:       transfer.Notes,
		Status:      transfer.Status,
		Driver:      transfer.Driver,
		CreatedDate: transfer.CreatedDate.Format("2006-01-02"),
		PickedUpAt:  transfer.PickedUpAt,
		ReceivedAt:  transfer.ReceivedAt,
		CreatedAt:   transfer.CreatedAt,
		UpdatedAt:   transfer.UpdatedAt,
	}
}
