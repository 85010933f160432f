package repository

import (
	"strings"

	"gorm.io/gorm"

	"geometry-relay/internal/models"
)

// CommandEventRepository stores the command journal in the database.
type CommandEventRepository struct {
	db *gorm.DB
}

// NewCommandEventRepository creates a new CommandEventRepository instance with the provided GORM database connection.
func NewCommandEventRepository(db *gorm.DB) *CommandEventRepository {
	return &CommandEventRepository{db: db}
}

// Record appends one journal event.
func (r *CommandEventRepository) Record(event *models.CommandEvent) error {
	return r.db.Create(event).Error
}

// ListByProject returns the newest events first. An empty projectName lists all projects.
func (r *CommandEventRepository) ListByProject(projectName string, limit int) ([]models.CommandEvent, error) {
	var events []models.CommandEvent
	query := r.db.Order("occurred_at DESC").Order("id DESC")
	if name := strings.TrimSpace(projectName); name != "" {
		query = query.Where("LOWER(project_name) = ?", strings.ToLower(name))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&events).Error
	return events, err
}
