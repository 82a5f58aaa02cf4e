package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/events"
	"github.com/citywatch/citywatch/internal/utils"
	"gorm.io/gorm"
)

// MaxMessageLength caps a chat message body, in runes
const MaxMessageLength = 4000

// MessageService stores the staff/reporter conversation on a report
type MessageService struct {
	db     *gorm.DB
	events events.Publisher
	now    func() time.Time
}

// NewMessageService creates a new message service
func NewMessageService(db *gorm.DB, publisher events.Publisher) *MessageService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &MessageService{db: db, events: publisher, now: time.Now}
}

// List returns a report's messages, oldest first
func (s *MessageService) List(ctx context.Context, incidentID string) ([]database.IncidentMessage, error) {
	if err := s.ensureIncident(ctx, incidentID); err != nil {
		return nil, err
	}
	var messages []database.IncidentMessage
	err := s.db.WithContext(ctx).Where("incident_id = ?", incidentID).Order("created_at ASC, id ASC").Find(&messages).Error
	if err != nil {
		return nil, storeError("list messages", err)
	}
	return messages, nil
}

// Post appends a message to a report's conversation. Messages are accepted
// on terminal reports too so staff can follow up after closing.
func (s *MessageService) Post(ctx context.Context, incidentID, sender string, role database.MessageSenderRole, body string) (*database.IncidentMessage, error) {
	body = utils.SanitizeText(body)
	sender = strings.TrimSpace(sender)
	switch {
	case body == "":
		return nil, invalidInput("message body is required")
	case len([]rune(body)) > MaxMessageLength:
		return nil, invalidInput("message body exceeds %d characters", MaxMessageLength)
	case sender == "":
		return nil, invalidInput("message sender is required")
	case role != database.MessageSenderStaff && role != database.MessageSenderReporter:
		return nil, invalidInput("sender role %q is not staff or reporter", role)
	}
	if err := s.ensureIncident(ctx, incidentID); err != nil {
		return nil, err
	}

	msg := &database.IncidentMessage{
		IncidentID: incidentID,
		Sender:     sender,
		SenderRole: role,
		Body:       body,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, storeError("post message", err)
	}

	log.Printf("MessageService: %s %s posted on %s", role, utils.EscapeForLogging(sender, 64), incidentID)
	s.events.Publish(events.Event{
		Type:       events.MessagePosted,
		IncidentID: incidentID,
		Data:       map[string]interface{}{"message": msg},
		At:         msg.CreatedAt,
	})
	return msg, nil
}

func (s *MessageService) ensureIncident(ctx context.Context, incidentID string) error {
	if strings.TrimSpace(incidentID) == "" {
		return invalidInput("report id is required")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.Incident{}).Where("id = ?", incidentID).Count(&count).Error; err != nil {
		return storeError("get report", err)
	}
	if count == 0 {
		return storeError("get report "+incidentID, gorm.ErrRecordNotFound)
	}
	return nil
}
