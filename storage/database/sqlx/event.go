package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mkombe/ratiba/core"
	"github.com/mkombe/ratiba/core/event"
)

type eventRow struct {
	ID         string    `db:"id"`
	OwnerID    string    `db:"owner_id"`
	OwnerEmail string    `db:"owner_email"`
	Title      string    `db:"title"`
	Chapter    string    `db:"chapter"`
	Pages      string    `db:"pages"`
	Notes      string    `db:"notes"`
	Date       string    `db:"date"`
	StartTime  string    `db:"start_time"`
	EndTime    string    `db:"end_time"`
	Color      string    `db:"color"`
	Completed  bool      `db:"completed"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r eventRow) toEvent() (event.Event, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return event.Event{}, errors.Wrapf(err, "event %s has invalid date %q", r.ID, r.Date)
	}
	return event.Event{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		OwnerEmail: r.OwnerEmail,
		Title:      r.Title,
		Chapter:    r.Chapter,
		Pages:      r.Pages,
		Notes:      r.Notes,
		Date:       date.String(),
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Color:      r.Color,
		Completed:  r.Completed,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func toEvents(rows []eventRow) ([]event.Event, error) {
	events := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		evt, err := row.toEvent()
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) event.Repository {
	return &eventRepository{db: db}
}

var _ event.Repository = (*eventRepository)(nil)

func (repo *eventRepository) CreateEvent(evt event.Event) (event.Event, error) {
	query := `
		INSERT INTO event (owner_id, owner_email, title, chapter, pages, notes, date, start_time, end_time, color, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := repo.db.Get(
		&evt.ID, query,
		evt.OwnerID, evt.OwnerEmail, evt.Title, evt.Chapter, evt.Pages, evt.Notes,
		evt.Date, evt.StartTime, evt.EndTime, evt.Color, evt.Completed,
		evt.CreatedAt, evt.UpdatedAt,
	)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "creating event")
	}
	return evt, nil
}

func (repo *eventRepository) QueryAllEvents() ([]event.Event, error) {
	var rows []eventRow
	if err := repo.db.Select(&rows, `SELECT * FROM event ORDER BY date DESC, start_time DESC`); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return toEvents(rows)
}

func (repo *eventRepository) FilterEventsByOwner(ownerID string) ([]event.Event, error) {
	var rows []eventRow
	query := `SELECT * FROM event WHERE owner_id = $1 ORDER BY date DESC, start_time DESC`
	if err := repo.db.Select(&rows, query, ownerID); err != nil {
		return nil, errors.Wrap(err, "querying events by owner")
	}
	return toEvents(rows)
}

func (repo *eventRepository) GetEventByID(id string) (event.Event, error) {
	var row eventRow
	if err := repo.db.Get(&row, `SELECT * FROM event WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, errors.Wrap(err, "getting event by id")
	}
	return row.toEvent()
}

func (repo *eventRepository) UpdateEvent(evt event.Event) (event.Event, error) {
	orig, err := repo.GetEventByID(evt.ID)
	if err != nil {
		return event.Event{}, err
	}

	// ownership and completion state never change through an edit
	evt.OwnerID = orig.OwnerID
	evt.OwnerEmail = orig.OwnerEmail
	evt.Completed = orig.Completed
	evt.CreatedAt = orig.CreatedAt

	query := `
		UPDATE event
		SET title = $2, chapter = $3, pages = $4, notes = $5, date = $6, start_time = $7, end_time = $8, color = $9, updated_at = $10
		WHERE id = $1`
	_, err = repo.db.Exec(
		query,
		evt.ID, evt.Title, evt.Chapter, evt.Pages, evt.Notes,
		evt.Date, evt.StartTime, evt.EndTime, evt.Color, evt.UpdatedAt,
	)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	return evt, nil
}

func (repo *eventRepository) SetEventCompleted(id string, completed bool) (event.Event, error) {
	query := `UPDATE event SET completed = $2, updated_at = $3 WHERE id = $1`
	res, err := repo.db.Exec(query, id, completed, time.Now().UTC())
	if err != nil {
		return event.Event{}, errors.Wrap(err, "setting event completion")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return event.Event{}, event.ErrNotFound
	}
	return repo.GetEventByID(id)
}

func (repo *eventRepository) DeleteEvent(id string) error {
	res, err := repo.db.Exec(`DELETE FROM event WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return event.ErrNotFound
	}
	return nil
}
