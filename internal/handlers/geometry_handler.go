package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"geometry-relay/internal/models"
	"geometry-relay/internal/services"
	"geometry-relay/internal/utils"
)

const SnapshotNotFoundError = "no geometry snapshot available"

// GeometryHandler exposes ingest and conditional fetch over the snapshot store.
type GeometryHandler struct {
	Store   *services.SnapshotStore
	Export  *services.ExportService
	Metrics *utils.Metrics
}

// NewGeometryHandler creates a new GeometryHandler.
func NewGeometryHandler(store *services.SnapshotStore, export *services.ExportService, metrics *utils.Metrics) *GeometryHandler {
	return &GeometryHandler{Store: store, Export: export, Metrics: metrics}
}

// IngestSnapshot handles POST /geometry to replace the latest snapshot of a project.
// @Summary Ingest a geometry snapshot
// @Description Replaces the latest snapshot of the project. The timestamp is assigned by the relay.
// @Tags geometry
// @Accept json
// @Param snapshot body models.GeometrySnapshot true "Snapshot exported by the host"
// @Success 200 "Snapshot stored"
// @Failure 400 {object} map[string]interface{} "Missing projectName or malformed body"
// @Router /geometry [post]
func (h *GeometryHandler) IngestSnapshot(c *fiber.Ctx) error {
	var req snapshotRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Invalid snapshot body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request format",
		})
	}

	snapshot := req.toModel()
	summary, err := h.Store.Ingest(&snapshot)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": true, "message": err.Error(),
			})
		}
		log.Printf("Error ingesting snapshot: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}

	h.Metrics.RecordIngest(summary.PrimitiveCount)
	log.Printf("Ingested snapshot: Project=%s, Primitives=%d, Selected=%d, Timestamp=%s",
		summary.ProjectName, summary.PrimitiveCount, len(snapshot.SelectedElementIDs), summary.TimestampUtc.Format("15:04:05.000"))

	c.Set(fiber.HeaderETag, summary.ETag)
	c.Status(fiber.StatusOK)
	return nil
}

// GetLatest handles GET /geometry/latest with conditional-GET support.
// @Summary Fetch the latest snapshot
// @Description Returns the project's latest snapshot, or the newest of all projects when projectName is omitted.
// @Tags geometry
// @Produce json
// @Param projectName query string false "Project name (case-insensitive)"
// @Param If-None-Match header string false "ETag from a previous fetch"
// @Success 200 {object} models.GeometrySnapshot "Latest snapshot"
// @Success 304 "Not modified"
// @Failure 404 {object} map[string]interface{} "No snapshot available"
// @Router /geometry/latest [get]
func (h *GeometryHandler) GetLatest(c *fiber.Ctx) error {
	projectName := c.Query("projectName")
	result, err := h.Store.FetchIfNoneMatch(projectName, c.Get(fiber.HeaderIfNoneMatch))
	if err != nil {
		if errors.Is(err, services.ErrSnapshotNotFound) {
			h.Metrics.RecordFetch("not_found")
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": true, "message": SnapshotNotFoundError,
			})
		}
		log.Printf("Error fetching snapshot: Project=%s, Error=%v", projectName, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}

	c.Set(fiber.HeaderETag, result.ETag)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	if result.NotModified {
		h.Metrics.RecordFetch("not_modified")
		c.Status(fiber.StatusNotModified)
		return nil
	}
	h.Metrics.RecordFetch("ok")
	return c.JSON(result.Snapshot)
}

// ListProjects handles GET /geometry/projects.
// @Summary List projects with a stored snapshot
// @Tags geometry
// @Produce json
// @Success 200 {array} models.ProjectSummary "Stored snapshots"
// @Router /geometry/projects [get]
func (h *GeometryHandler) ListProjects(c *fiber.Ctx) error {
	projects := h.Store.Projects()
	if projects == nil {
		projects = []models.ProjectSummary{}
	}
	return c.JSON(projects)
}

// ExportSnapshot handles POST /geometry/export to archive the latest snapshot in object storage.
// @Summary Export the latest snapshot
// @Description Uploads the latest snapshot as gzip-compressed JSON to the configured bucket.
// @Tags geometry
// @Produce json
// @Param projectName query string false "Project name (case-insensitive)"
// @Success 200 {object} services.ExportResult "Export written"
// @Failure 404 {object} map[string]interface{} "No snapshot available"
// @Failure 503 {object} map[string]interface{} "Export not configured"
// @Router /geometry/export [post]
func (h *GeometryHandler) ExportSnapshot(c *fiber.Ctx) error {
	projectName := c.Query("projectName")
	result, err := h.Export.Export(c.UserContext(), projectName)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrExportDisabled):
			h.Metrics.RecordExport("disabled")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": true, "message": err.Error(),
			})
		case errors.Is(err, services.ErrSnapshotNotFound):
			h.Metrics.RecordExport("not_found")
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": true, "message": SnapshotNotFoundError,
			})
		}
		h.Metrics.RecordExport("failed")
		log.Printf("Snapshot export failed: Project=%s, Error=%v", projectName, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	h.Metrics.RecordExport("ok")
	return c.JSON(result)
}
