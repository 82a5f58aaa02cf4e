package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/events"
	"github.com/citywatch/citywatch/internal/testhelpers"
)

func TestMessageService_PostAndList(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	rec := &events.Recorder{}
	svc := NewMessageService(db, rec)
	inc := testhelpers.NewIncidentBuilder().Create(t, db)

	at := testNow
	svc.now = func() time.Time { return at }
	if _, err := svc.Post(context.Background(), inc.ID, "officer.lee", database.MessageSenderStaff, "Crew scheduled for Tuesday"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	at = testNow.Add(time.Minute)
	msg, err := svc.Post(context.Background(), inc.ID, "Ana", database.MessageSenderReporter, "  Thanks!\x07 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ID == "" || msg.Body != "Thanks!" {
		t.Errorf("expected sanitized message with id, got %+v", msg)
	}

	messages, err := svc.List(context.Background(), inc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 2 || messages[0].SenderRole != database.MessageSenderStaff || messages[1].Sender != "Ana" {
		t.Errorf("expected messages oldest first, got %+v", messages)
	}
	if n := len(rec.OfType(events.MessagePosted)); n != 2 {
		t.Errorf("expected 2 message events, got %d", n)
	}
}

func TestMessageService_Post_Validation(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewMessageService(db, nil)
	inc := testhelpers.NewIncidentBuilder().Create(t, db)

	tests := []struct {
		name   string
		id     string
		sender string
		role   database.MessageSenderRole
		body   string
		want   error
	}{
		{"empty body", inc.ID, "officer.lee", database.MessageSenderStaff, "  ", ErrInvalidInput},
		{"too long", inc.ID, "officer.lee", database.MessageSenderStaff, strings.Repeat("a", MaxMessageLength+1), ErrInvalidInput},
		{"no sender", inc.ID, "", database.MessageSenderStaff, "hello", ErrInvalidInput},
		{"bad role", inc.ID, "officer.lee", "admin", "hello", ErrInvalidInput},
		{"no report id", "", "officer.lee", database.MessageSenderStaff, "hello", ErrInvalidInput},
		{"missing report", "missing", "officer.lee", database.MessageSenderStaff, "hello", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Post(context.Background(), tt.id, tt.sender, tt.role, tt.body)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMessageService_PostOnClosedReport(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewMessageService(db, nil)
	inc := testhelpers.NewIncidentBuilder().WithStatus(database.IncidentStatusCompleted).Create(t, db)

	if _, err := svc.Post(context.Background(), inc.ID, "officer.lee", database.MessageSenderStaff, "Closed as fixed"); err != nil {
		t.Errorf("expected follow-up on a completed report to be accepted, got %v", err)
	}
	if _, err := svc.List(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound listing a missing report, got %v", err)
	}
}
