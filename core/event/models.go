package event

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mkombe/ratiba/core"
)

// Palette is the fixed set of swatches the event form offers.
// Colors outside of it would break the picker UI, so writes are validated
// against it even though the store itself does not care.
var Palette = []string{
	"#A7F3D0", "#BBF7D0", "#FED7AA", "#FBCFE8",
	"#DDD6FE", "#BFDBFE", "#F9A8D4", "#C084FC",
}

func DefaultColor() string { return Palette[0] }

func IsPaletteColor(c string) bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

// Event is a single planner entry on a day's timeline.
// Date is a local calendar date ("YYYY-MM-DD") and StartTime/EndTime are
// 24-hour "HH:MM" times of day; none of them are instants.
type Event struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"uid"`
	OwnerEmail string    `json:"email"`
	Title      string    `json:"title"`
	Chapter    string    `json:"chapter,omitempty"`
	Pages      string    `json:"pages,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Color      string    `json:"color"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// Day returns the event's calendar date; the zero Date if malformed.
func (e Event) Day() core.Date {
	d, err := core.ParseDate(e.Date)
	if err != nil {
		return core.Date{}
	}
	return d
}

func (e Event) StartMinutes() int { return core.TimeToMinutes(e.StartTime) }
func (e Event) EndMinutes() int   { return core.TimeToMinutes(e.EndTime) }

// before orders events chronologically by (date, start time).
// Dates are canonical "YYYY-MM-DD" so string order is date order.
func (e Event) before(o Event) bool {
	if e.Date != o.Date {
		return e.Date < o.Date
	}
	return e.StartMinutes() < o.StartMinutes()
}

// NewEvent contains information needed to create a new Event.
// The owner comes from the authenticated session, never from the payload.
type NewEvent struct {
	Title     string `json:"title" validate:"required"`
	Chapter   string `json:"chapter"`
	Pages     string `json:"pages"`
	Notes     string `json:"notes"`
	Date      string `json:"date" validate:"required,caldate"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
	Color     string `json:"color" validate:"omitempty,palette"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Chapter = core.CleanString(ne.Chapter)
	ne.Pages = core.CleanString(ne.Pages)
	if ne.Color == "" {
		ne.Color = DefaultColor()
	}
	return validate.Struct(ne)
}

// UpdateEvent defines what an edit-save may modify: any field except the
// owner and the completed flag, which is toggled through its own operation.
type UpdateEvent struct {
	Title     string `json:"title" validate:"required"`
	Chapter   string `json:"chapter"`
	Pages     string `json:"pages"`
	Notes     string `json:"notes"`
	Date      string `json:"date" validate:"required,caldate"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
	Color     string `json:"color" validate:"omitempty,palette"`
}

func (ue *UpdateEvent) Validate(validate *validator.Validate) error {
	ue.Title = core.CleanString(ue.Title)
	ue.Chapter = core.CleanString(ue.Chapter)
	ue.Pages = core.CleanString(ue.Pages)
	if ue.Color == "" {
		ue.Color = DefaultColor()
	}
	return validate.Struct(ue)
}

var (
	paletteTag  = "palette"
	paletteText = "must be one of the planner color swatches"
)

// InitValidators registers event-specific validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(paletteTag, func(fl validator.FieldLevel) bool {
		return IsPaletteColor(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, paletteTag, paletteText)
}
