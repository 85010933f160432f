package services

import "geometry-relay/internal/models"

// CommandJournal receives an audit record for every queue transition.
type CommandJournal interface {
	Record(event *models.CommandEvent) error
}

// CommandHistory reads the journal back for operators.
type CommandHistory interface {
	ListByProject(projectName string, limit int) ([]models.CommandEvent, error)
}
