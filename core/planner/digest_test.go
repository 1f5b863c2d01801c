package planner

import (
	"log"
	"os"
	"strings"
	"testing"

	"github.com/mkombe/ratiba/core"
	"github.com/mkombe/ratiba/core/event"
	"github.com/mkombe/ratiba/core/user"
)

type digestUserRepo struct {
	user.Repository
	users []user.User
}

func (r *digestUserRepo) QueryAllUsers() ([]user.User, error) { return r.users, nil }

type digestEventRepo struct {
	event.Repository
	byOwner map[string][]event.Event
}

func (r *digestEventRepo) FilterEventsByOwner(ownerID string) ([]event.Event, error) {
	return r.byOwner[ownerID], nil
}

type captureEmailService struct {
	messages []*core.EmailMessage
}

func (svc *captureEmailService) SendMessages(messages ...*core.EmailMessage) {
	svc.messages = append(svc.messages, messages...)
}

func TestDigestService_Run(t *testing.T) {
	ref := core.NewDate(2024, 6, 5) // a Wednesday; week is 06-03 .. 06-09

	userRepo := &digestUserRepo{users: []user.User{
		{ID: "u1", Name: "Amani", Email: "amani@test.cd", IsActive: true},
		{ID: "u2", Name: "Bahati", Email: "bahati@test.cd", IsActive: true},
		{ID: "u3", Name: "Chiku", Email: "chiku@test.cd", IsActive: false},
	}}
	eventRepo := &digestEventRepo{byOwner: map[string][]event.Event{
		// one event in the week, one outside of it
		"u1": {
			{ID: "a", OwnerID: "u1", Title: "Algebra", Date: "2024-06-04", StartTime: "09:00", EndTime: "10:00"},
			{ID: "b", OwnerID: "u1", Title: "History", Date: "2024-05-20", StartTime: "09:00", EndTime: "10:00"},
		},
		// nothing this week, so no digest
		"u2": {
			{ID: "c", OwnerID: "u2", Title: "Biology", Date: "2024-05-20", StartTime: "09:00", EndTime: "10:00"},
		},
		// inactive user, skipped regardless
		"u3": {
			{ID: "d", OwnerID: "u3", Title: "Physics", Date: "2024-06-04", StartTime: "09:00", EndTime: "10:00"},
		},
	}}
	mailSvc := &captureEmailService{}
	logger := core.NewStdLogger(log.New(os.Stderr, "", 0))

	svc := NewDigestService(user.NewService(userRepo), event.NewService(eventRepo), mailSvc, logger)
	if err := svc.RunFor(ref); err != nil {
		t.Fatalf("RunFor() error = %v", err)
	}

	if len(mailSvc.messages) != 1 {
		t.Fatalf("sent %d message(s); want exactly 1", len(mailSvc.messages))
	}
	msg := mailSvc.messages[0]
	if got := msg.To[0].Address; got != "amani@test.cd" {
		t.Errorf("digest recipient = %q; want amani@test.cd", got)
	}
	if !strings.Contains(msg.Subject, "2024-06-03") {
		t.Errorf("digest subject %q does not name the week start", msg.Subject)
	}
	if msg.TemplateName != "weekly-digest" {
		t.Errorf("digest template = %q; want weekly-digest", msg.TemplateName)
	}
	view, ok := msg.TemplateData.(event.WeekView)
	if !ok {
		t.Fatalf("digest data is %T; want event.WeekView", msg.TemplateData)
	}
	if view.Summary.Total != 1 {
		t.Errorf("digest summary total = %d; want only the in-week event", view.Summary.Total)
	}
}
