package inmemdb

import (
	"sync"

	"github.com/mkombe/ratiba/core/event"
	"github.com/mkombe/ratiba/core/user"
)

// DB is a mutex-guarded in-memory store. It doubles as the realtime store:
// every mutation of the events table pushes a fresh full snapshot to each
// registered watcher, never a diff.
type DB struct {
	mutex  sync.RWMutex
	users  map[string]*user.User
	events map[string]*event.Event

	watcherMu sync.Mutex
	watchers  map[int]*watcher
	watcherID int
}

type watcher struct {
	ownerID string // empty means all events (admin scope)
	ch      chan []event.Event
}

func NewDB() *DB {
	return &DB{
		users:    make(map[string]*user.User),
		events:   make(map[string]*event.Event),
		watchers: make(map[int]*watcher),
	}
}

// notify pushes the current snapshot to every watcher. Delivery is
// last-wins: a stale undelivered snapshot is replaced, never queued behind.
func (db *DB) notify() {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	db.watcherMu.Lock()
	defer db.watcherMu.Unlock()

	for _, w := range db.watchers {
		snap := db.snapshot(w.ownerID)
		select {
		case w.ch <- snap:
		default:
			select {
			case <-w.ch:
			default:
			}
			w.ch <- snap
		}
	}
}

// snapshot must be called with at least a read lock held.
func (db *DB) snapshot(ownerID string) []event.Event {
	events := make([]event.Event, 0, len(db.events))
	for _, evt := range db.events {
		if ownerID != "" && evt.OwnerID != ownerID {
			continue
		}
		events = append(events, *evt)
	}
	sortEventsByDateDesc(events)
	return events
}
