package models

import "time"

// ProjectSummary describes the snapshot currently held for one project.
type ProjectSummary struct {
	ProjectName    string    `json:"projectName"`
	TimestampUtc   time.Time `json:"timestampUtc"`
	PrimitiveCount int       `json:"primitiveCount"`
	ETag           string    `json:"etag"`
}
