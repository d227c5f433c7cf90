package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"book-search-service/internal/app/service"
	"book-search-service/internal/transport/httpserver/dto"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	indexService *service.IndexService
	logger       *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(indexSvc *service.IndexService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		indexService: indexSvc,
		logger:       logger,
	}
}

// Reindex handles POST /api/v1/admin/reindex
func (h *AdminHandler) Reindex(c *fiber.Ctx) error {
	h.logger.Info("manual reindex triggered")

	result, err := h.indexService.Sync(c.Context())
	if err != nil {
		h.logger.Error("reindex failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "REINDEX_FAILED",
		})
	}

	return c.JSON(dto.FromIndexResult(result))
}

// VectorHealth handles GET /api/v1/admin/vector/health
func (h *AdminHandler) VectorHealth(c *fiber.Ctx) error {
	if err := h.indexService.VectorHealth(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.VectorHealthResponse{
			Status: "unavailable",
			Error:  err.Error(),
		})
	}

	return c.JSON(dto.VectorHealthResponse{Status: "ok"})
}
