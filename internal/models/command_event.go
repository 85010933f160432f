package models

import "time"

const (
	CommandEventEnqueued = "enqueued"
	CommandEventDequeued = "dequeued"
)

// CommandEvent is one row of the command journal. It is an audit trail only and is never
// used to redeliver commands.
type CommandEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CommandID   string    `gorm:"index;not null" json:"commandId"`
	ProjectName string    `gorm:"index;not null" json:"projectName"`
	Type        string    `gorm:"not null" json:"type"`
	Event       string    `gorm:"not null" json:"event"`
	OccurredAt  time.Time `gorm:"index" json:"occurredAt"`
}
