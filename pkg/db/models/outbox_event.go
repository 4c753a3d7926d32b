package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxEvent is an encoded domain event whose first publish attempt failed.
// The outbox publisher drains pending rows until they are published or dead-lettered.
type OutboxEvent struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EventID      string     `gorm:"column:event_id;not null;uniqueIndex"`
	EventType    string     `gorm:"column:event_type;not null"`
	Topic        string     `gorm:"column:topic;not null"`
	AggregateID  uuid.UUID  `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload      []byte     `gorm:"column:payload;not null"`
	OccurredAt   time.Time  `gorm:"column:occurred_at;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime;index"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	AttemptCount int        `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string    `gorm:"column:last_error"`
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
