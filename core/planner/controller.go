package planner

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mkombe/ratiba/core"
	"github.com/mkombe/ratiba/core/event"
)

// WeekStartKey is the fixed session-store slot holding the reference week
// start as an ISO-8601 instant, so the week survives reloads.
const WeekStartKey = "currentWeekStart"

// SessionStore is a session-scoped key-value slot.
type SessionStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Controller owns the whole application state for one signed-in planner
// session: the latest snapshot, the week reference, the selection and the
// edit session. View models are derived from that state by pure functions;
// nothing mutates ambient globals.
type Controller struct {
	mu sync.Mutex

	svc        *event.Service
	store      SessionStore
	ownerID    string
	ownerEmail string
	admin      bool

	weekRef   core.Date
	events    []event.Event
	selection *Selection
	session   *EditSession
}

func NewController(svc *event.Service, store SessionStore, ownerID, ownerEmail string, admin bool) *Controller {
	c := &Controller{
		svc:        svc,
		store:      store,
		ownerID:    ownerID,
		ownerEmail: ownerEmail,
		admin:      admin,
		weekRef:    core.Today(),
		selection:  NewSelection(),
		session:    NewEditSession(),
	}
	if raw, ok := store.Get(WeekStartKey); ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			c.weekRef = core.DateOf(t)
		}
	}
	return c
}

// Run consumes full snapshots until ctx is done. Each received snapshot
// replaces the event list wholesale; the last one always wins.
func (c *Controller) Run(ctx context.Context, snapshots <-chan []event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			c.ApplySnapshot(snap)
		}
	}
}

// ApplySnapshot replaces the in-memory event list and reconciles the
// selection against the new checklist.
func (c *Controller) ApplySnapshot(events []event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = events
	c.selection.Reconcile(c.checklistIDs())
}

func (c *Controller) checklistIDs() []string {
	view := event.BuildWeekView(c.events, c.weekRef)
	ids := make([]string, 0, len(view.Checklist))
	for _, evt := range view.Checklist {
		ids = append(ids, evt.ID)
	}
	return ids
}

// WeekView derives the user view model from the current state.
func (c *Controller) WeekView() event.WeekView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return event.BuildWeekView(c.events, c.weekRef)
}

// AdminView derives the per-owner roll-up from the current state.
func (c *Controller) AdminView() event.AdminView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return event.BuildAdminView(c.events, c.weekRef)
}

func (c *Controller) WeekStart() core.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.WeekStart(c.weekRef)
}

// NavigateWeek moves the reference date by whole weeks and persists it.
func (c *Controller) NavigateWeek(direction int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setWeekRef(c.weekRef.AddDays(7 * direction))
}

// GoToToday resets the reference date to the current day.
func (c *Controller) GoToToday() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setWeekRef(core.Today())
}

func (c *Controller) setWeekRef(d core.Date) {
	c.weekRef = d
	c.store.Set(WeekStartKey, d.Time().Format(time.RFC3339))
	c.selection.Reconcile(c.checklistIDs())
}

// SignOut clears the persisted week reference.
func (c *Controller) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Delete(WeekStartKey)
}

// --- edit session intents ---

// OpenCreate opens an empty create form. The admin view never creates
// events, so it is a no-op there beyond the guidance message.
func (c *Controller) OpenCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.admin {
		c.session.status = MsgPickEvent
		return
	}
	c.session.OpenCreate()
}

// OpenEdit populates the form from the referenced record.
func (c *Controller) OpenEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, evt := range c.events {
		if evt.ID == id {
			c.session.OpenEdit(evt)
			return nil
		}
	}
	return event.ErrNotFound
}

func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Cancel()
}

func (c *Controller) SetForm(form EditForm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.SetForm(form)
}

func (c *Controller) PickColor(color string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.PickColor(color)
}

func (c *Controller) Session() EditSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.session
}

// SubmitEdit validates the form and issues a create (Idle) or an update
// (Editing) against the store. Validation failure and the admin Idle case
// never reach the store; a write failure keeps the form as-is so the user
// can retry.
func (c *Controller) SubmitEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.submitting {
		// the submit control is disabled while a request is outstanding
		return nil
	}

	id, editing := c.session.Editing()
	if c.admin && !editing {
		c.session.status = MsgPickEvent
		return nil
	}

	if c.session.form.missingRequired() {
		c.session.status = MsgMissingFields
		return nil
	}

	c.session.submitting = true
	c.session.status = ""
	defer func() { c.session.submitting = false }()

	var err error
	if editing {
		_, err = c.svc.Update(id, c.session.updateEvent())
	} else {
		_, err = c.svc.Create(c.ownerID, c.ownerEmail, c.session.newEvent())
	}
	if err != nil {
		c.session.status = MsgSaveFailed
		return errors.Wrap(err, "saving event")
	}

	c.session.Cancel()
	return nil
}

// ToggleComplete flips an event's completion flag.
func (c *Controller) ToggleComplete(id string) error {
	_, err := c.svc.ToggleCompleted(id)
	return errors.Wrap(err, "toggling completion")
}

// --- selection intents ---

func (c *Controller) ToggleSelect(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Toggle(id)
}

func (c *Controller) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.SelectAll(c.checklistIDs())
}

func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Clear()
}

func (c *Controller) SelectionState() TriState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.State(c.checklistIDs())
}

func (c *Controller) SelectedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.IDs()
}

// BulkDeleteEnabled reports whether the bulk action should be clickable.
func (c *Controller) BulkDeleteEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Count() > 0
}

// DeleteSelected deletes every selected event concurrently. The selection is
// cleared only when all deletes succeed; on any failure it is left untouched
// so the visible outcome is all-or-nothing.
func (c *Controller) DeleteSelected() error {
	c.mu.Lock()
	ids := c.selection.IDs()
	c.mu.Unlock()

	if err := c.svc.DeleteBatch(ids...); err != nil {
		return errors.Wrap(err, MsgDeleteFailed)
	}

	c.mu.Lock()
	c.selection.Clear()
	c.mu.Unlock()
	return nil
}
