package event

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("event not found")
)

type (
	Repository interface {
		CreateEvent(evt Event) (Event, error)
		// QueryAllEvents returns every event in the store, newest date first.
		QueryAllEvents() ([]Event, error)
		FilterEventsByOwner(ownerID string) ([]Event, error)
		GetEventByID(id string) (Event, error)
		// UpdateEvent saves evt's editable fields; owner and completed are kept.
		UpdateEvent(evt Event) (Event, error)
		SetEventCompleted(id string, completed bool) (Event, error)
		DeleteEvent(id string) error
	}

	// Watcher is the realtime side of the store: each subscription delivers a
	// full snapshot of the matching events whenever anything changes, never a
	// diff. The latest snapshot always supersedes earlier ones.
	Watcher interface {
		WatchOwnerEvents(ctx context.Context, ownerID string) <-chan []Event
		WatchAllEvents(ctx context.Context) <-chan []Event
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new event owned by (ownerID, ownerEmail).
// New events always start out not completed.
func (svc *Service) Create(ownerID, ownerEmail string, ne NewEvent) (Event, error) {
	now := time.Now().UTC()
	evt := Event{
		OwnerID:    ownerID,
		OwnerEmail: ownerEmail,
		Title:      ne.Title,
		Chapter:    ne.Chapter,
		Pages:      ne.Pages,
		Notes:      ne.Notes,
		Date:       ne.Date,
		StartTime:  ne.StartTime,
		EndTime:    ne.EndTime,
		Color:      ne.Color,
		Completed:  false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if evt.Color == "" {
		evt.Color = DefaultColor()
	}
	return svc.repo.CreateEvent(evt)
}

func (svc *Service) QueryAll() ([]Event, error) {
	return svc.repo.QueryAllEvents()
}

func (svc *Service) QueryByOwner(ownerID string) ([]Event, error) {
	return svc.repo.FilterEventsByOwner(ownerID)
}

func (svc *Service) GetByID(id string) (Event, error) {
	return svc.repo.GetEventByID(id)
}

func (svc *Service) Update(id string, ue UpdateEvent) (Event, error) {
	evt := Event{
		ID:        id,
		Title:     ue.Title,
		Chapter:   ue.Chapter,
		Pages:     ue.Pages,
		Notes:     ue.Notes,
		Date:      ue.Date,
		StartTime: ue.StartTime,
		EndTime:   ue.EndTime,
		Color:     ue.Color,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateEvent(evt)
}

func (svc *Service) SetCompleted(id string, completed bool) (Event, error) {
	return svc.repo.SetEventCompleted(id, completed)
}

// ToggleCompleted flips the completion flag, leaving every other field alone.
func (svc *Service) ToggleCompleted(id string) (Event, error) {
	evt, err := svc.repo.GetEventByID(id)
	if err != nil {
		return Event{}, err
	}
	return svc.repo.SetEventCompleted(id, !evt.Completed)
}

func (svc *Service) Delete(id string) error {
	return svc.repo.DeleteEvent(id)
}

// DeleteBatch issues one delete per id concurrently and waits for all of them.
// The outcome is all-or-nothing: any rejection yields a single error, even
// though other deletes may already have succeeded in the store.
func (svc *Service) DeleteBatch(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	errc := make(chan error, len(ids))
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			errc <- svc.repo.DeleteEvent(id)
		}(id)
	}
	wg.Wait()
	close(errc)

	for err := range errc {
		if err != nil {
			return pkgerrors.Wrap(err, "deleting selected events")
		}
	}
	return nil
}
