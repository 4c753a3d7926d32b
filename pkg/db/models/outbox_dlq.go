package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxDLQ captures outbox events that will not be retried.
type OutboxDLQ struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OutboxID     uuid.UUID `gorm:"column:outbox_id;type:uuid;not null;index"`
	EventID      string    `gorm:"column:event_id;not null"`
	EventType    string    `gorm:"column:event_type;not null"`
	Topic        string    `gorm:"column:topic;not null"`
	AggregateID  uuid.UUID `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload      []byte    `gorm:"column:payload;not null"`
	ErrorReason  string    `gorm:"column:error_reason;not null"`
	ErrorMessage *string   `gorm:"column:error_message"`
	AttemptCount int       `gorm:"column:attempt_count;not null;default:0"`
	FailedAt     time.Time `gorm:"column:failed_at;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (OutboxDLQ) TableName() string {
	return "outbox_dlq"
}

func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
