package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"book-search-service/internal/app/service"
	"book-search-service/internal/domain"
)

// DashboardHandler handles dashboard-related HTTP requests.
type DashboardHandler struct {
	searchService *service.SearchService
	indexService  *service.IndexService
	logger        *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(searchSvc *service.SearchService, indexSvc *service.IndexService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		searchService: searchSvc,
		indexService:  indexSvc,
		logger:        logger,
	}
}

// Render handles GET /dashboard
// Renders the ops dashboard using Fiber's template engine.
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	stats, err := h.searchService.Stats(c.Context())
	if err != nil {
		h.logger.Warn("dashboard stats unavailable", zap.Error(err))
		stats = &domain.CatalogStats{}
	}

	vectorHealthy := h.indexService.VectorHealth(c.Context()) == nil

	return c.Render("pages/dashboard", fiber.Map{
		"Title":         "Book Search Dashboard",
		"BookCount":     stats.TotalBooks,
		"ByStatus":      stats.ByStatus,
		"VectorHealthy": vectorHealthy,
	}, "layouts/base")
}
