package guide

import (
	"time"

	"guide-builder/core/errors"
	"guide-builder/core/logger"
	"guide-builder/feature/guide/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DocumentResponse is the document view without elements.
type DocumentResponse struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	Summary     models.Summary   `json:"summary"`
	Services    []models.Service `json:"services"`
}

// CacheEntryResponse is the metadata of a cached element.
type CacheEntryResponse struct {
	Key          string                    `json:"key"`
	Hash         string                    `json:"hash"`
	LastSeen     time.Time                 `json:"lastSeen"`
	HasPayload   bool                      `json:"hasPayload"`
	PayloadBytes int                       `json:"payloadBytes"`
	Images       []models.ArtworkCandidate `json:"images"`
}

// TriggerResponse acknowledges a started run.
type TriggerResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

// Handler handles HTTP requests for the guide.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the guide routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/guide")
	group.Get("/status", h.HandleStatus)
	group.Post("/runs", h.HandleTriggerRun)
	group.Get("/document", h.HandleGetDocument)
	group.Get("/elements/:id", h.HandleGetElement)
	group.Get("/cache/:id", h.HandleGetCacheEntry)
	group.Get("/history", h.HandleGetHistory)
}

// HandleStatus returns run progress.
// @Summary Get Run Status
// @Description Returns the progress of the active run and the summary of the last run.
// @Tags guide
// @Produce json
// @Success 200 {object} Status "Run Status"
// @Router /guide/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleTriggerRun starts a run in the background.
// @Summary Trigger Run
// @Description Starts a guide run. Only one run can be active at a time.
// @Tags guide
// @Produce json
// @Success 202 {object} TriggerResponse "Run Started"
// @Failure 409 {object} map[string]string "Run In Progress"
// @Router /guide/runs [post]
func (h *Handler) HandleTriggerRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	runID, err := h.service.Trigger()
	if err != nil {
		if errors.Is(err, models.ErrRunInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to trigger run", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(TriggerResponse{RunID: runID, Status: "started"})
}

// HandleGetDocument returns the last document without its elements.
// @Summary Get Document
// @Description Returns the summary and services of the last successfully assembled document.
// @Tags guide
// @Produce json
// @Success 200 {object} DocumentResponse "Document"
// @Failure 404 {object} map[string]string "No Document"
// @Router /guide/document [get]
func (h *Handler) HandleGetDocument(c *fiber.Ctx) error {
	doc, ok := h.service.Document()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no document assembled yet"})
	}
	return c.JSON(DocumentResponse{
		GeneratedAt: doc.GeneratedAt,
		Summary:     doc.Summary,
		Services:    doc.Services,
	})
}

// HandleGetElement returns one element of the last document.
// @Summary Get Element
// @Description Returns a single element of the last assembled document.
// @Tags guide
// @Produce json
// @Param id path string true "Element ID"
// @Success 200 {object} models.Element "Element"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /guide/elements/{id} [get]
func (h *Handler) HandleGetElement(c *fiber.Ctx) error {
	id := c.Params("id")
	el, ok := h.service.Element(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "element not found", "id": id})
	}
	return c.JSON(el)
}

// HandleGetCacheEntry returns cache metadata for one element.
// @Summary Get Cache Entry
// @Description Returns hash, last seen time and artwork candidates of a cached element.
// @Tags guide
// @Produce json
// @Param id path string true "Element ID"
// @Success 200 {object} CacheEntryResponse "Cache Entry"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /guide/cache/{id} [get]
func (h *Handler) HandleGetCacheEntry(c *fiber.Ctx) error {
	id := c.Params("id")
	entry, ok := h.service.CacheEntry(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "cache entry not found", "id": id})
	}
	images := entry.Images
	if images == nil {
		images = []models.ArtworkCandidate{}
	}
	return c.JSON(CacheEntryResponse{
		Key:          entry.Key,
		Hash:         entry.Hash,
		LastSeen:     entry.LastSeen,
		HasPayload:   entry.HasPayload(),
		PayloadBytes: len(entry.Payload),
		Images:       images,
	})
}

// HandleGetHistory returns recent runs.
// @Summary Get Run History
// @Description Returns recent runs, newest first. Requires a configured database.
// @Tags guide
// @Produce json
// @Param limit query int false "Maximum number of runs" default(20)
// @Success 200 {array} history.RunRecord "Runs"
// @Failure 503 {object} map[string]string "History Not Configured"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /guide/history [get]
func (h *Handler) HandleGetHistory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	runs, err := h.service.History(c.Context(), c.QueryInt("limit", 20))
	if err != nil {
		if errors.Is(err, ErrHistoryDisabled) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to read run history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(runs)
}
