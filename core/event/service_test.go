package event

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// stubRepository fails deletes for ids in failIDs and records the rest.
type stubRepository struct {
	Repository

	mu      sync.Mutex
	events  map[string]Event
	failIDs map[string]bool
	deleted []string
}

func newStubRepository(ids ...string) *stubRepository {
	repo := &stubRepository{
		events:  make(map[string]Event, len(ids)),
		failIDs: make(map[string]bool),
	}
	for _, id := range ids {
		repo.events[id] = Event{ID: id, Title: "event " + id}
	}
	return repo
}

func (r *stubRepository) DeleteEvent(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failIDs[id] {
		return errors.New("permission denied")
	}
	delete(r.events, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubRepository) GetEventByID(id string) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evt, ok := r.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return evt, nil
}

func (r *stubRepository) SetEventCompleted(id string, completed bool) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evt, ok := r.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	evt.Completed = completed
	r.events[id] = evt
	return evt, nil
}

func (r *stubRepository) CreateEvent(evt Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evt.ID = "new"
	r.events[evt.ID] = evt
	return evt, nil
}

func TestService_DeleteBatch(t *testing.T) {
	t.Run("all succeed", func(t *testing.T) {
		repo := newStubRepository("a", "b", "c")
		svc := NewService(repo)

		if err := svc.DeleteBatch("a", "b", "c"); err != nil {
			t.Fatalf("DeleteBatch() failed: %v", err)
		}
		if len(repo.events) != 0 {
			t.Errorf("%d events left; want 0", len(repo.events))
		}
	})

	t.Run("one rejection surfaces a single error", func(t *testing.T) {
		repo := newStubRepository("a", "b", "c")
		repo.failIDs["b"] = true
		svc := NewService(repo)

		if err := svc.DeleteBatch("a", "b", "c"); err == nil {
			t.Fatal("DeleteBatch() = nil; want error")
		}
	})

	t.Run("no ids is a no-op", func(t *testing.T) {
		repo := newStubRepository("a")
		svc := NewService(repo)

		if err := svc.DeleteBatch(); err != nil {
			t.Fatalf("DeleteBatch() failed: %v", err)
		}
		if len(repo.events) != 1 {
			t.Error("empty batch must not touch the store")
		}
	})
}

func TestService_ToggleCompleted(t *testing.T) {
	repo := newStubRepository("a")
	svc := NewService(repo)

	evt, err := svc.ToggleCompleted("a")
	if err != nil {
		t.Fatalf("ToggleCompleted() failed: %v", err)
	}
	if !evt.Completed {
		t.Error("first toggle should complete the event")
	}

	evt, err = svc.ToggleCompleted("a")
	if err != nil {
		t.Fatalf("ToggleCompleted() failed: %v", err)
	}
	if evt.Completed {
		t.Error("second toggle should un-complete the event")
	}

	if _, err = svc.ToggleCompleted("nope"); err != ErrNotFound {
		t.Errorf("ToggleCompleted(unknown) = %v; want ErrNotFound", err)
	}
}

func TestService_Create_defaults(t *testing.T) {
	repo := newStubRepository()
	svc := NewService(repo)

	evt, err := svc.Create("uid1", "awe@test.cd", NewEvent{
		Title:     "algebra",
		Date:      "2024-06-03",
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if evt.Completed {
		t.Error("new events must start out not completed")
	}
	if evt.Color != DefaultColor() {
		t.Errorf("color = %s; want palette default %s", evt.Color, DefaultColor())
	}
	if evt.OwnerID != "uid1" || evt.OwnerEmail != "awe@test.cd" {
		t.Errorf("owner = (%s, %s); want from session", evt.OwnerID, evt.OwnerEmail)
	}
	if evt.CreatedAt.IsZero() || evt.CreatedAt.Location() != time.UTC {
		t.Error("CreatedAt must be a UTC timestamp")
	}
}
