package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakandloom/workshop-backend/pkg/enums"
)

// TaskNote is a free-form note on a task. Lifecycle transitions that carry a
// reason (pause, rejection, completion) also append a typed note.
type TaskNote struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TaskID    uuid.UUID          `gorm:"column:task_id;type:uuid;not null;index"`
	AuthorID  uuid.UUID          `gorm:"column:author_id;type:uuid;not null"`
	Author    *User              `gorm:"foreignKey:AuthorID"`
	NoteType  enums.TaskNoteType `gorm:"column:note_type;type:text;not null;default:'general'"`
	Body      string             `gorm:"column:body;type:text;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime;index"`
}
