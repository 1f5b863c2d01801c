package planner

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/mkombe/ratiba/core"
	"github.com/mkombe/ratiba/core/event"
)

// memStore is an in-memory SessionStore.
type memStore struct {
	values map[string]string
}

func newMemStore() *memStore { return &memStore{values: make(map[string]string)} }

func (s *memStore) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}
func (s *memStore) Set(key, value string) { s.values[key] = value }
func (s *memStore) Delete(key string)     { delete(s.values, key) }

// fakeRepo implements event.Repository with configurable failures.
type fakeRepo struct {
	mu         sync.Mutex
	events     map[string]event.Event
	nextID     int
	failWrites bool
	failIDs    map[string]bool
	deleted    []string
}

func newFakeRepo(events ...event.Event) *fakeRepo {
	repo := &fakeRepo{events: make(map[string]event.Event), failIDs: make(map[string]bool)}
	for _, evt := range events {
		repo.events[evt.ID] = evt
	}
	return repo
}

func (r *fakeRepo) CreateEvent(evt event.Event) (event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return event.Event{}, errFakeWrite
	}
	r.nextID++
	evt.ID = "evt" + string(rune('0'+r.nextID))
	r.events[evt.ID] = evt
	return evt, nil
}

func (r *fakeRepo) QueryAllEvents() ([]event.Event, error) { return nil, nil }

func (r *fakeRepo) FilterEventsByOwner(string) ([]event.Event, error) { return nil, nil }

func (r *fakeRepo) GetEventByID(id string) (event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evt, ok := r.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	return evt, nil
}

func (r *fakeRepo) UpdateEvent(evt event.Event) (event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return event.Event{}, errFakeWrite
	}
	orig, ok := r.events[evt.ID]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	evt.OwnerID, evt.OwnerEmail, evt.Completed = orig.OwnerID, orig.OwnerEmail, orig.Completed
	r.events[evt.ID] = evt
	return evt, nil
}

func (r *fakeRepo) SetEventCompleted(id string, completed bool) (event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evt, ok := r.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	evt.Completed = completed
	r.events[id] = evt
	return evt, nil
}

func (r *fakeRepo) DeleteEvent(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failIDs[id] {
		return errFakeWrite
	}
	delete(r.events, id)
	r.deleted = append(r.deleted, id)
	return nil
}

var errFakeWrite = errors.New("store rejected the write")

func weekEvent(id, date, start, end string) event.Event {
	return event.Event{
		ID: id, OwnerID: "u1", OwnerEmail: "u1@test.cd",
		Title: "study " + id, Date: date, StartTime: start, EndTime: end,
		Color: event.DefaultColor(),
	}
}

func newTestController(repo *fakeRepo, store SessionStore) *Controller {
	return NewController(event.NewService(repo), store, "u1", "u1@test.cd", false)
}

func TestController_ApplySnapshotReconcilesSelection(t *testing.T) {
	evts := []event.Event{
		weekEvent("a", "2024-06-03", "09:00", "10:00"),
		weekEvent("b", "2024-06-04", "09:00", "10:00"),
	}
	c := newTestController(newFakeRepo(evts...), newMemStore())
	c.weekRef = core.NewDate(2024, 6, 3)
	c.ApplySnapshot(evts)

	c.ToggleSelect("a")
	c.ToggleSelect("b")

	// "b" disappears from the store; the next snapshot must drop it from
	// the selection as well
	c.ApplySnapshot(evts[:1])

	if got, want := c.SelectedIDs(), []string{"a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SelectedIDs() = %v; want %v", got, want)
	}
}

func TestController_WeekPersistence(t *testing.T) {
	store := newMemStore()
	c := newTestController(newFakeRepo(), store)
	c.weekRef = core.NewDate(2024, 6, 5)

	c.NavigateWeek(1)
	raw, ok := store.Get(WeekStartKey)
	if !ok {
		t.Fatalf("store.Get(%q) missing after NavigateWeek", WeekStartKey)
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t.Fatalf("persisted week ref %q is not RFC3339: %v", raw, err)
	}
	if got, want := core.DateOf(parsed), core.NewDate(2024, 6, 12); got != want {
		t.Errorf("persisted week ref = %v; want %v", got, want)
	}

	// a fresh controller restores the persisted reference
	c2 := newTestController(newFakeRepo(), store)
	if got, want := c2.WeekStart(), core.NewDate(2024, 6, 10); got != want {
		t.Errorf("restored WeekStart() = %v; want %v", got, want)
	}

	c2.SignOut()
	if _, ok := store.Get(WeekStartKey); ok {
		t.Errorf("store still holds %q after SignOut", WeekStartKey)
	}
}

func TestController_SubmitEditCreate(t *testing.T) {
	repo := newFakeRepo()
	c := newTestController(repo, newMemStore())

	c.OpenCreate()
	c.SetForm(EditForm{
		Title: "Chemistry", Date: "2024-06-03",
		StartHour: "09", StartMinute: "00", EndHour: "10", EndMinute: "30",
	})
	if err := c.SubmitEdit(); err != nil {
		t.Fatalf("SubmitEdit() error = %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("store holds %d events; want 1", len(repo.events))
	}
	for _, evt := range repo.events {
		if evt.OwnerID != "u1" || evt.OwnerEmail != "u1@test.cd" {
			t.Errorf("created event owner = (%q, %q); want the session owner", evt.OwnerID, evt.OwnerEmail)
		}
		if evt.StartTime != "09:00" || evt.EndTime != "10:30" {
			t.Errorf("created event times = (%q, %q); want recomposed HH:MM", evt.StartTime, evt.EndTime)
		}
		if evt.Completed {
			t.Errorf("created event starts completed; want false")
		}
	}
	sess := c.Session()
	if sess.IsOpen() {
		t.Errorf("edit session still open after successful submit")
	}
}

func TestController_SubmitEditMissingFields(t *testing.T) {
	repo := newFakeRepo()
	c := newTestController(repo, newMemStore())

	c.OpenCreate()
	c.SetForm(EditForm{Title: "Chemistry"}) // no date, no times
	if err := c.SubmitEdit(); err != nil {
		t.Fatalf("SubmitEdit() error = %v; want nil for validation failure", err)
	}

	sess := c.Session()
	if got := sess.Status(); got != MsgMissingFields {
		t.Errorf("session status = %q; want %q", got, MsgMissingFields)
	}
	if len(repo.events) != 0 {
		t.Errorf("store holds %d events; want none written", len(repo.events))
	}
	if !sess.IsOpen() {
		t.Errorf("edit session closed after validation failure; want still open")
	}
}

func TestController_SubmitEditWriteFailureKeepsForm(t *testing.T) {
	repo := newFakeRepo()
	repo.failWrites = true
	c := newTestController(repo, newMemStore())

	form := EditForm{
		Title: "Chemistry", Date: "2024-06-03",
		StartHour: "09", StartMinute: "00", EndHour: "10", EndMinute: "30",
	}
	c.OpenCreate()
	c.SetForm(form)
	if err := c.SubmitEdit(); err == nil {
		t.Fatalf("SubmitEdit() error = nil; want write failure surfaced")
	}

	sess := c.Session()
	if got := sess.Status(); got != MsgSaveFailed {
		t.Errorf("session status = %q; want %q", got, MsgSaveFailed)
	}
	if got := sess.Form(); got.Title != form.Title || got.Date != form.Date {
		t.Errorf("form lost after write failure: %+v", got)
	}
	if !sess.IsOpen() {
		t.Errorf("edit session closed after write failure; want still open so the user can retry")
	}
}

func TestController_SubmitEditUpdate(t *testing.T) {
	evt := weekEvent("a", "2024-06-03", "09:00", "10:00")
	repo := newFakeRepo(evt)
	c := newTestController(repo, newMemStore())
	c.ApplySnapshot([]event.Event{evt})

	if err := c.OpenEdit("a"); err != nil {
		t.Fatalf("OpenEdit() error = %v", err)
	}
	sess := c.Session()
	form := sess.Form()
	form.Title = "revised"
	c.SetForm(form)
	if err := c.SubmitEdit(); err != nil {
		t.Fatalf("SubmitEdit() error = %v", err)
	}

	saved := repo.events["a"]
	if saved.Title != "revised" {
		t.Errorf("saved title = %q; want %q", saved.Title, "revised")
	}
	if saved.OwnerID != "u1" {
		t.Errorf("saved owner = %q; want preserved", saved.OwnerID)
	}
}

func TestController_AdminIdleSubmitIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	c := NewController(event.NewService(repo), newMemStore(), "admin", "admin@hotmail.com", true)

	c.OpenCreate()
	sess := c.Session()
	if sess.IsOpen() {
		t.Errorf("admin OpenCreate opened a create form; want guidance only")
	}
	if err := c.SubmitEdit(); err != nil {
		t.Fatalf("SubmitEdit() error = %v; want nil no-op", err)
	}
	sess = c.Session()
	if got := sess.Status(); got != MsgPickEvent {
		t.Errorf("session status = %q; want %q", got, MsgPickEvent)
	}
	if len(repo.events) != 0 {
		t.Errorf("store holds %d events; want no admin create", len(repo.events))
	}
}

func TestController_DeleteSelected(t *testing.T) {
	evts := []event.Event{
		weekEvent("a", "2024-06-03", "09:00", "10:00"),
		weekEvent("b", "2024-06-04", "09:00", "10:00"),
		weekEvent("c", "2024-06-05", "09:00", "10:00"),
	}

	t.Run("all succeed", func(t *testing.T) {
		repo := newFakeRepo(evts...)
		c := newTestController(repo, newMemStore())
		c.weekRef = core.NewDate(2024, 6, 3)
		c.ApplySnapshot(evts)

		c.SelectAll()
		if !c.BulkDeleteEnabled() {
			t.Fatalf("BulkDeleteEnabled() = false with a full selection")
		}
		if err := c.DeleteSelected(); err != nil {
			t.Fatalf("DeleteSelected() error = %v", err)
		}
		if len(repo.events) != 0 {
			t.Errorf("store holds %d events; want all deleted", len(repo.events))
		}
		if got := c.SelectedIDs(); len(got) != 0 {
			t.Errorf("SelectedIDs() = %v after success; want cleared", got)
		}
	})

	t.Run("one rejection keeps the selection", func(t *testing.T) {
		repo := newFakeRepo(evts...)
		repo.failIDs["b"] = true
		c := newTestController(repo, newMemStore())
		c.weekRef = core.NewDate(2024, 6, 3)
		c.ApplySnapshot(evts)

		c.SelectAll()
		if err := c.DeleteSelected(); err == nil {
			t.Fatalf("DeleteSelected() error = nil; want the rejection surfaced")
		}
		if got, want := c.SelectedIDs(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
			t.Errorf("SelectedIDs() = %v after failure; want untouched %v", got, want)
		}
	})

	t.Run("empty selection is a no-op", func(t *testing.T) {
		repo := newFakeRepo(evts...)
		c := newTestController(repo, newMemStore())
		if err := c.DeleteSelected(); err != nil {
			t.Fatalf("DeleteSelected() error = %v; want nil", err)
		}
		if len(repo.events) != len(evts) {
			t.Errorf("store holds %d events; want untouched", len(repo.events))
		}
	})
}

func TestController_ToggleComplete(t *testing.T) {
	evt := weekEvent("a", "2024-06-03", "09:00", "10:00")
	repo := newFakeRepo(evt)
	c := newTestController(repo, newMemStore())

	if err := c.ToggleComplete("a"); err != nil {
		t.Fatalf("ToggleComplete() error = %v", err)
	}
	if !repo.events["a"].Completed {
		t.Errorf("event not completed after toggle")
	}
	if err := c.ToggleComplete("a"); err != nil {
		t.Fatalf("ToggleComplete() error = %v", err)
	}
	if repo.events["a"].Completed {
		t.Errorf("event still completed after second toggle")
	}
}
