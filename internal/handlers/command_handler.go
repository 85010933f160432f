package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"geometry-relay/internal/models"
	"geometry-relay/internal/services"
	"geometry-relay/internal/utils"
)

const defaultHistoryLimit = 100

// CommandHandler exposes enqueue and dequeue over the command queue.
type CommandHandler struct {
	Queue   *services.CommandQueue
	History services.CommandHistory
	Metrics *utils.Metrics
}

// NewCommandHandler creates a new CommandHandler. history may be nil when no journal is configured.
func NewCommandHandler(queue *services.CommandQueue, history services.CommandHistory, metrics *utils.Metrics) *CommandHandler {
	return &CommandHandler{Queue: queue, History: history, Metrics: metrics}
}

// EnqueueCommand handles POST /commands.
// @Summary Queue an edit command for the host
// @Description Validates the command structurally and appends it to the project's queue. createdUtc is assigned by the relay.
// @Tags commands
// @Accept json
// @Produce json
// @Param command body models.GeometryCommand true "Command issued by the viewer"
// @Success 200 {object} models.EnqueueResponse "Command queued"
// @Failure 400 {object} map[string]interface{} "Missing required fields"
// @Router /commands [post]
func (h *CommandHandler) EnqueueCommand(c *fiber.Ctx) error {
	var req commandRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Invalid command body: %v", err)
		h.Metrics.RecordRejected()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request format",
		})
	}

	cmd := req.toModel()
	queued, err := h.Queue.Enqueue(cmd)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			h.Metrics.RecordRejected()
			log.Printf("Rejected command: Project=%s, Type=%s, Reason=%v", cmd.ProjectName, cmd.Type, err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": true, "message": err.Error(),
			})
		}
		log.Printf("Error queueing command: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}

	h.Metrics.RecordEnqueue(queued.Type)
	h.Metrics.SetPendingCommands(h.Queue.Pending(""))
	log.Printf("Queued command: ID=%s, Project=%s, Type=%s", queued.CommandID, queued.ProjectName, queued.Type)
	return c.JSON(models.EnqueueResponse{CommandID: queued.CommandID})
}

// DequeueNext handles GET /commands/next.
// @Summary Take the next pending command
// @Description Removes and returns the head of the project's queue. Without projectName the first non-empty queue is used. Delivery is at-most-once.
// @Tags commands
// @Produce json
// @Param projectName query string false "Project name (case-insensitive)"
// @Success 200 {object} models.GeometryCommand "Next command"
// @Success 204 "No pending command"
// @Router /commands/next [get]
func (h *CommandHandler) DequeueNext(c *fiber.Ctx) error {
	cmd, err := h.Queue.DequeueNext(c.Query("projectName"))
	if err != nil {
		if errors.Is(err, services.ErrQueueEmpty) {
			h.Metrics.RecordDequeue("empty")
			c.Status(fiber.StatusNoContent)
			return nil
		}
		log.Printf("Error dequeueing command: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}

	h.Metrics.RecordDequeue("delivered")
	h.Metrics.SetPendingCommands(h.Queue.Pending(""))
	log.Printf("Delivered command: ID=%s, Project=%s, Type=%s", cmd.CommandID, cmd.ProjectName, cmd.Type)
	return c.JSON(cmd)
}

// PendingCount handles GET /commands/pending.
// @Summary Count pending commands
// @Tags commands
// @Produce json
// @Param projectName query string false "Project name (case-insensitive); all projects when omitted"
// @Success 200 {object} map[string]interface{} "Pending count"
// @Router /commands/pending [get]
func (h *CommandHandler) PendingCount(c *fiber.Ctx) error {
	projectName := c.Query("projectName")
	return c.JSON(fiber.Map{
		"projectName": projectName,
		"pending":     h.Queue.Pending(projectName),
	})
}

// ListHistory handles GET /commands/history.
// @Summary List journaled command events
// @Tags commands
// @Produce json
// @Param projectName query string false "Project name (case-insensitive)"
// @Param limit query int false "Maximum number of events" default(100)
// @Success 200 {array} models.CommandEvent "Journal events, newest first"
// @Failure 400 {object} map[string]interface{} "Invalid limit"
// @Failure 503 {object} map[string]interface{} "Journal not configured"
// @Router /commands/history [get]
func (h *CommandHandler) ListHistory(c *fiber.Ctx) error {
	if h.History == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": true, "message": services.ErrJournalDisabled.Error(),
		})
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": true, "message": "limit must be a positive integer",
			})
		}
		limit = n
	}

	events, err := h.History.ListByProject(c.Query("projectName"), limit)
	if err != nil {
		log.Printf("Error reading command journal: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	if events == nil {
		events = []models.CommandEvent{}
	}
	return c.JSON(events)
}
