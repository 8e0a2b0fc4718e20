package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is an append-only discussion entry on a report. Comments cannot be
// edited or deleted; they only disappear when their report is deleted.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	ReportID  uuid.UUID `json:"report_id"`
	ProjectID uuid.UUID `json:"project_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
