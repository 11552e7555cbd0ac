package integrity

import (
	"guide-builder/core/logger"
	"guide-builder/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	// Force import for Swagger
	var _ = checks.DatabaseReport{}
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/structure", h.HandleStructureCheck)
	group.Get("/cache", h.HandleCacheCheck)
	group.Get("/database", h.HandleDatabaseCheck)
	group.Get("/document", h.HandleDocumentCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs all available integrity checks (Structure, Cache, Database, Document).
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.Context()
	report := make(map[string]interface{})

	if missing, err := h.service.CheckStructure(ctx); err != nil {
		report["structure"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["structure"] = map[string]interface{}{"status": "ok", "missing": missing}
	}

	report["cache"] = h.service.CheckCache()

	if dbReport, err := h.service.CheckDatabase(); err != nil {
		report["database"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["database"] = dbReport
	}

	if docReport, err := h.service.CheckDocument(ctx); err != nil {
		report["document"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["document"] = docReport
	}

	return c.JSON(report)
}

// HandleStructureCheck checks and optionally fixes structure.
// @Summary Check Structure
// @Description Checks if the required folder structure exists in the storage bucket. Optionally fixes missing folders.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Fix missing folders"
// @Success 200 {object} map[string]interface{} "Structure Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/structure [get]
func (h *Handler) HandleStructureCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.QueryBool("fix")

	missing, err := h.service.CheckStructure(c.Context())
	if err != nil {
		l.Error("Structure check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if len(missing) > 0 {
		l.Warn("Missing folders detected", zap.Strings("missing", missing))

		if fix {
			l.Info("Attempting to fix missing folders")
			if err := h.service.FixStructure(c.Context(), missing); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to fix structure",
					"details": err.Error(),
					"missing": missing,
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  missing,
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":  "checked",
		"missing": missing,
	})
}

// HandleCacheCheck parses the content cache file.
// @Summary Check Cache File
// @Description Parses the content cache file and reports entries and unreadable lines.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.CacheReport "Cache Report"
// @Router /integrity/cache [get]
func (h *Handler) HandleCacheCheck(c *fiber.Ctx) error {
	report := h.service.CheckCache()
	if report.Status == "corrupt" {
		logger.WithRayID(h.service.logger, c).Warn("Cache file has unreadable lines",
			zap.Int("dropped", report.Dropped))
	}
	return c.JSON(report)
}

// HandleDatabaseCheck validates the run history schema.
// @Summary Check Database
// @Description Validates that the run history table exists with every expected column.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.DatabaseReport "Database Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/database [get]
func (h *Handler) HandleDatabaseCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting database schema check")

	report, err := h.service.CheckDatabase()
	if err != nil {
		l.Error("Database schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}

// HandleDocumentCheck validates the last document.
// @Summary Check Document
// @Description Re-runs the service count safety check and the consistency report on the last document.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.DocumentReport "Document Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/document [get]
func (h *Handler) HandleDocumentCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckDocument(c.Context())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Document check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}
