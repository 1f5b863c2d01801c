package testutil

import (
	"testing"
	"time"

	"github.com/mkombe/ratiba/core/event"
	"github.com/mkombe/ratiba/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateEvent(
	t *testing.T,
	repo event.Repository,
	owner user.User,
	title, date, startTime, endTime string,
	completed bool,
) event.Event {
	tstamp := time.Now().UTC()
	evt := event.Event{
		OwnerID:    owner.ID,
		OwnerEmail: owner.Email,
		Title:      title,
		Date:       date,
		StartTime:  startTime,
		EndTime:    endTime,
		Color:      event.DefaultColor(),
		Completed:  false,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	evt, err := repo.CreateEvent(evt)
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}
	if completed {
		if evt, err = repo.SetEventCompleted(evt.ID, true); err != nil {
			t.Fatalf("CreateEvent() failed: %v", err)
		}
	}
	return evt
}
