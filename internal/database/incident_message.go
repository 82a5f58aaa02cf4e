package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageSenderRole identifies which side of the conversation wrote a message
type MessageSenderRole string

const (
	MessageSenderStaff    MessageSenderRole = "staff"
	MessageSenderReporter MessageSenderRole = "reporter"
)

// IncidentMessage is one entry of the append-only chat log attached to a report
type IncidentMessage struct {
	ID         string            `gorm:"primaryKey;size:36" json:"id"`
	IncidentID string            `gorm:"size:36;not null;index" json:"incidentId"`
	Sender     string            `gorm:"type:varchar(255);not null" json:"sender"`
	SenderRole MessageSenderRole `gorm:"type:varchar(20);not null" json:"senderRole"`
	Body       string            `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time         `gorm:"index" json:"createdAt"`
}

// BeforeCreate hook to assign the message ID
func (m *IncidentMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

func (IncidentMessage) TableName() string {
	return "incident_messages"
}
