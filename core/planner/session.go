package planner

import (
	"strings"

	"github.com/mkombe/ratiba/core/event"
)

// User-facing messages; kept static on purpose.
const (
	MsgMissingFields = "please fill in all required fields"
	MsgSaveFailed    = "could not save, please try again later"
	MsgDeleteFailed  = "could not delete, please try again later"
	MsgPickEvent     = "pick an event from the list below to edit"
)

// EditForm mirrors the event form fields. The combined "HH:MM" times are
// decomposed into hour/minute parts, which is how the editable form binds them.
type EditForm struct {
	Title   string
	Chapter string
	Pages   string
	Notes   string
	Date    string

	StartHour   string
	StartMinute string
	EndHour     string
	EndMinute   string

	Color string
}

func (f EditForm) startTime() string { return f.StartHour + ":" + f.StartMinute }
func (f EditForm) endTime() string   { return f.EndHour + ":" + f.EndMinute }

// missingRequired reports whether any required field is empty.
// End > start is expected of the times but deliberately not enforced.
func (f EditForm) missingRequired() bool {
	for _, fld := range []string{f.Title, f.Date, f.StartHour, f.StartMinute, f.EndHour, f.EndMinute} {
		if strings.TrimSpace(fld) == "" {
			return true
		}
	}
	return false
}

func splitTime(hhmm string) (hour, minute string) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) < 2 {
		return hhmm, ""
	}
	return parts[0], parts[1]
}

// EditSession is the transient create/edit state machine: Idle (create mode,
// possibly with an open empty form) or Editing (form populated from a record).
type EditSession struct {
	editingID  string
	open       bool
	submitting bool
	form       EditForm
	status     string
}

func NewEditSession() *EditSession {
	return &EditSession{form: EditForm{Color: event.DefaultColor()}}
}

// OpenCreate opens an empty form in create mode.
func (s *EditSession) OpenCreate() {
	s.editingID = ""
	s.open = true
	s.status = ""
	s.form = EditForm{Color: event.DefaultColor()}
}

// OpenEdit populates the form from evt and transitions to Editing(evt.ID).
func (s *EditSession) OpenEdit(evt event.Event) {
	s.editingID = evt.ID
	s.open = true
	s.status = ""
	s.form = EditForm{
		Title:   evt.Title,
		Chapter: evt.Chapter,
		Pages:   evt.Pages,
		Notes:   evt.Notes,
		Date:    evt.Date,
		Color:   evt.Color,
	}
	s.form.StartHour, s.form.StartMinute = splitTime(evt.StartTime)
	s.form.EndHour, s.form.EndMinute = splitTime(evt.EndTime)
	if s.form.Color == "" {
		s.form.Color = event.DefaultColor()
	}
}

// Cancel returns to Idle and clears the form. An in-flight write, if any,
// is not aborted.
func (s *EditSession) Cancel() {
	s.editingID = ""
	s.open = false
	s.submitting = false
	s.status = ""
	s.form = EditForm{Color: event.DefaultColor()}
}

// Editing returns the id of the record being edited, if any.
func (s *EditSession) Editing() (string, bool) {
	return s.editingID, s.editingID != ""
}

func (s *EditSession) IsOpen() bool     { return s.open }
func (s *EditSession) Submitting() bool { return s.submitting }
func (s *EditSession) Status() string   { return s.status }

func (s *EditSession) Form() EditForm { return s.form }

func (s *EditSession) SetForm(form EditForm) {
	s.form = form
	if s.form.Color == "" {
		s.form.Color = event.DefaultColor()
	}
}

func (s *EditSession) PickColor(color string) {
	if event.IsPaletteColor(color) {
		s.form.Color = color
	}
}

// newEvent builds the create payload from the form.
func (s *EditSession) newEvent() event.NewEvent {
	return event.NewEvent{
		Title:     s.form.Title,
		Chapter:   s.form.Chapter,
		Pages:     s.form.Pages,
		Notes:     s.form.Notes,
		Date:      s.form.Date,
		StartTime: s.form.startTime(),
		EndTime:   s.form.endTime(),
		Color:     s.form.Color,
	}
}

// updateEvent builds the edit-save payload from the form.
func (s *EditSession) updateEvent() event.UpdateEvent {
	return event.UpdateEvent{
		Title:     s.form.Title,
		Chapter:   s.form.Chapter,
		Pages:     s.form.Pages,
		Notes:     s.form.Notes,
		Date:      s.form.Date,
		StartTime: s.form.startTime(),
		EndTime:   s.form.endTime(),
		Color:     s.form.Color,
	}
}
