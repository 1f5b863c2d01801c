package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mkombe/ratiba/core/event"
)

type eventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) event.Repository {
	return &eventRepository{db: db}
}

// NewEventWatcher exposes the realtime side of the same store.
func NewEventWatcher(db *DB) event.Watcher {
	return &eventRepository{db: db}
}

var (
	_ event.Repository = (*eventRepository)(nil)
	_ event.Watcher    = (*eventRepository)(nil)
)

func (repo *eventRepository) CreateEvent(evt event.Event) (event.Event, error) {
	repo.db.mutex.Lock()
	evt.ID = uuid.New().String() // the store assigns the opaque id
	repo.db.events[evt.ID] = &evt
	repo.db.mutex.Unlock()

	repo.db.notify()
	return evt, nil
}

func (repo *eventRepository) QueryAllEvents() ([]event.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.snapshot(""), nil
}

func (repo *eventRepository) FilterEventsByOwner(ownerID string) ([]event.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.snapshot(ownerID), nil
}

func (repo *eventRepository) GetEventByID(id string) (event.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if evt, ok := repo.db.events[id]; ok {
		return *evt, nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) UpdateEvent(evt event.Event) (event.Event, error) {
	repo.db.mutex.Lock()

	// owner and completed are kept as-is
	origEvt, ok := repo.db.events[evt.ID]
	if !ok {
		repo.db.mutex.Unlock()
		return event.Event{}, event.ErrNotFound
	}
	origEvt.Title = evt.Title
	origEvt.Chapter = evt.Chapter
	origEvt.Pages = evt.Pages
	origEvt.Notes = evt.Notes
	origEvt.Date = evt.Date
	origEvt.StartTime = evt.StartTime
	origEvt.EndTime = evt.EndTime
	origEvt.Color = evt.Color
	origEvt.UpdatedAt = evt.UpdatedAt

	updated := *origEvt
	repo.db.mutex.Unlock()

	repo.db.notify()
	return updated, nil
}

func (repo *eventRepository) SetEventCompleted(id string, completed bool) (event.Event, error) {
	repo.db.mutex.Lock()

	evt, ok := repo.db.events[id]
	if !ok {
		repo.db.mutex.Unlock()
		return event.Event{}, event.ErrNotFound
	}
	evt.Completed = completed

	updated := *evt
	repo.db.mutex.Unlock()

	repo.db.notify()
	return updated, nil
}

func (repo *eventRepository) DeleteEvent(id string) error {
	repo.db.mutex.Lock()
	delete(repo.db.events, id)
	repo.db.mutex.Unlock()

	repo.db.notify()
	return nil
}

// WatchOwnerEvents subscribes to full snapshots of one owner's events.
// The current snapshot is delivered immediately; the subscription ends
// when ctx is done.
func (repo *eventRepository) WatchOwnerEvents(ctx context.Context, ownerID string) <-chan []event.Event {
	return repo.watch(ctx, ownerID)
}

// WatchAllEvents subscribes to system-wide snapshots, newest date first.
func (repo *eventRepository) WatchAllEvents(ctx context.Context) <-chan []event.Event {
	return repo.watch(ctx, "")
}

func (repo *eventRepository) watch(ctx context.Context, ownerID string) <-chan []event.Event {
	db := repo.db

	db.mutex.RLock()
	initial := db.snapshot(ownerID)
	db.mutex.RUnlock()

	w := &watcher{ownerID: ownerID, ch: make(chan []event.Event, 1)}
	w.ch <- initial

	db.watcherMu.Lock()
	db.watcherID++
	id := db.watcherID
	db.watchers[id] = w
	db.watcherMu.Unlock()

	go func() {
		<-ctx.Done()
		db.watcherMu.Lock()
		delete(db.watchers, id)
		db.watcherMu.Unlock()
	}()

	return w.ch
}

func sortEventsByDateDesc(events []event.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date > events[j].Date
		}
		return events[i].StartTime > events[j].StartTime
	})
}
