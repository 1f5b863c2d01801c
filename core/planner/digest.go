package planner

import (
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/mkombe/ratiba/core"
	"github.com/mkombe/ratiba/core/event"
	"github.com/mkombe/ratiba/core/user"
)

// DigestService emails every active user a summary of their current week.
// It is driven by a scheduler; each run is independent and best-effort
// per user.
type DigestService struct {
	userSvc  *user.Service
	eventSvc *event.Service
	mailSvc  core.EmailService
	logger   core.Logger
}

func NewDigestService(userSvc *user.Service, eventSvc *event.Service, mailSvc core.EmailService, logger core.Logger) *DigestService {
	return &DigestService{
		userSvc:  userSvc,
		eventSvc: eventSvc,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

// Run builds and sends the digest for the week containing today.
// Users with an empty week are skipped.
func (svc *DigestService) Run() error {
	return svc.RunFor(core.Today())
}

// RunFor sends digests for the week containing ref.
func (svc *DigestService) RunFor(ref core.Date) error {
	users, err := svc.userSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying digest recipients")
	}

	var messages []*core.EmailMessage
	for _, usr := range users {
		if !usr.IsActive {
			continue
		}
		msg, err := svc.buildMessage(usr, ref)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("building digest for %s", usr.Email), err)
			continue
		}
		if msg != nil {
			messages = append(messages, msg)
		}
	}

	if len(messages) == 0 {
		return nil
	}
	svc.mailSvc.SendMessages(messages...)
	svc.logger.Info(fmt.Sprintf("weekly digest sent to %d user(s)", len(messages)))
	return nil
}

func (svc *DigestService) buildMessage(usr user.User, ref core.Date) (*core.EmailMessage, error) {
	events, err := svc.eventSvc.QueryByOwner(usr.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}

	view := event.BuildWeekView(events, ref)
	if view.Summary.Total == 0 {
		return nil, nil
	}

	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      fmt.Sprintf("Your study plan for the week of %s", view.WeekStart),
		TemplateName: "weekly-digest",
		TemplateData: view,
	}, nil
}
