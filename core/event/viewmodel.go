package event

import (
	"math"
	"sort"

	"github.com/mkombe/ratiba/core"
)

// The grid covers 06:00 to 24:00 at one pixel per minute.
const (
	GridOriginMinutes = 360 // 06:00
	GridHeight        = 1020
	MinEventHeight    = 12 // visual floor, not a data correction
)

// UnknownOwner is the roll-up bucket for events whose records carry no email.
const UnknownOwner = "unknown user"

type (
	// PositionedEvent is an event placed on its day column.
	// Overlapping events are not assigned lanes; they simply stack in order.
	PositionedEvent struct {
		Event
		Top    int `json:"top"`
		Height int `json:"height"`
	}

	DayColumn struct {
		Date   string            `json:"date"`
		Events []PositionedEvent `json:"events"`
	}

	DaySummary struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}

	Summary struct {
		Total      int          `json:"total"`
		Completed  int          `json:"completed"`
		Percentage int          `json:"percentage"`
		Days       []DaySummary `json:"days,omitempty"`
	}

	// WeekView is everything the user view paints for one week window.
	WeekView struct {
		WeekStart string       `json:"week_start"`
		Days      [7]DayColumn `json:"days"`
		Summary   Summary      `json:"summary"`
		Checklist []Event      `json:"checklist"`
	}

	OwnerProgress struct {
		Email      string  `json:"email"`
		Total      int     `json:"total"`
		Completed  int     `json:"completed"`
		Percentage float64 `json:"percentage"`
	}

	OwnerGroup struct {
		Email  string  `json:"email"`
		Events []Event `json:"events"`
	}

	// AdminView is the per-owner roll-up painted by the admin view:
	// a bar-chart series and a grouped event list, both week-scoped.
	AdminView struct {
		WeekStart string          `json:"week_start"`
		Progress  []OwnerProgress `json:"progress"`
		Groups    []OwnerGroup    `json:"groups"`
	}
)

// BuildWeekView derives the user view model from a full snapshot and a
// reference date. It is a pure function: rebuilding from the same inputs
// yields the same grid positions, summary counts and checklist order.
func BuildWeekView(events []Event, ref core.Date) WeekView {
	week := core.WeekDays(ref)
	view := WeekView{WeekStart: week[0].String()}

	for i, day := range week {
		view.Days[i] = buildDayColumn(events, day)
	}

	weekEvents := filterWeek(events, week)
	view.Summary = buildSummary(weekEvents, week)
	view.Checklist = sortChronological(weekEvents)
	return view
}

// BuildAdminView derives the per-owner roll-up from a system-wide snapshot.
func BuildAdminView(events []Event, ref core.Date) AdminView {
	week := core.WeekDays(ref)
	weekEvents := filterWeek(events, week)

	byOwner := make(map[string][]Event)
	for _, evt := range weekEvents {
		email := evt.OwnerEmail
		if email == "" {
			email = UnknownOwner
		}
		byOwner[email] = append(byOwner[email], evt)
	}

	emails := make([]string, 0, len(byOwner))
	for email := range byOwner {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	view := AdminView{
		WeekStart: week[0].String(),
		Progress:  make([]OwnerProgress, 0, len(emails)),
		Groups:    make([]OwnerGroup, 0, len(emails)),
	}
	for _, email := range emails {
		owned := byOwner[email]
		var completed int
		for _, evt := range owned {
			if evt.Completed {
				completed++
			}
		}
		view.Progress = append(view.Progress, OwnerProgress{
			Email:      email,
			Total:      len(owned),
			Completed:  completed,
			Percentage: float64(completed) / float64(len(owned)) * 100,
		})
		view.Groups = append(view.Groups, OwnerGroup{
			Email:  email,
			Events: sortChronological(owned),
		})
	}
	return view
}

func buildDayColumn(events []Event, day core.Date) DayColumn {
	key := day.String()
	col := DayColumn{Date: key, Events: []PositionedEvent{}}
	for _, evt := range events {
		if evt.Date != key {
			continue
		}
		start := evt.StartMinutes()
		top := start - GridOriginMinutes
		if top < 0 {
			top = 0
		}
		height := evt.EndMinutes() - start
		if height < MinEventHeight {
			height = MinEventHeight
		}
		col.Events = append(col.Events, PositionedEvent{Event: evt, Top: top, Height: height})
	}
	return col
}

// filterWeek restricts events to the week window. Dates are compared as
// local calendar dates, inclusive on both ends, which is exactly the
// start-of-Monday through end-of-Sunday boundary policy.
func filterWeek(events []Event, week [7]core.Date) []Event {
	first, last := week[0], week[6]
	out := make([]Event, 0, len(events))
	for _, evt := range events {
		day := evt.Day()
		if day.IsZero() {
			continue
		}
		if day.Before(first) || day.After(last) {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func buildSummary(weekEvents []Event, week [7]core.Date) Summary {
	s := Summary{Total: len(weekEvents)}
	for _, evt := range weekEvents {
		if evt.Completed {
			s.Completed++
		}
	}
	if s.Total > 0 {
		s.Percentage = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}

	for _, day := range week {
		key := day.String()
		var count int
		for _, evt := range weekEvents {
			if evt.Date == key {
				count++
			}
		}
		if count > 0 {
			s.Days = append(s.Days, DaySummary{Date: key, Count: count})
		}
	}
	return s
}

func sortChronological(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].before(sorted[j]) })
	return sorted
}
