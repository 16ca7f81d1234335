package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakandloom/workshop-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to a user.
type Notification struct {
	ID          uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID uuid.UUID                  `gorm:"column:recipient_id;type:uuid;not null;index"`
	Kind        enums.NotificationKind     `gorm:"column:kind;type:text;not null"`
	Priority    enums.NotificationPriority `gorm:"column:priority;type:text;not null;default:'normal'"`
	Title       string                     `gorm:"type:text;not null"`
	Message     string                     `gorm:"type:text;not null"`
	Link        *string                    `gorm:"type:text"`
	OrderID     *uuid.UUID                 `gorm:"column:order_id;type:uuid"`
	TaskID      *uuid.UUID                 `gorm:"column:task_id;type:uuid"`
	ReadAt      *time.Time                 `gorm:"column:read_at"`
	CreatedAt   time.Time                  `gorm:"column:created_at;autoCreateTime;index"`
}

// IsRead reports whether the recipient has seen the notification.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}
