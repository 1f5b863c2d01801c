package database

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/mkombe/ratiba/core"
	"github.com/mkombe/ratiba/core/event"
)

const defaultPollInterval = 2 * time.Second

// PollingWatcher adapts a plain event.Repository into the realtime
// event.Watcher contract by polling and emitting a fresh snapshot whenever
// the result set changes. Delivery is last-wins: a slow consumer only ever
// misses intermediate snapshots, never the latest one.
type PollingWatcher struct {
	repo     event.Repository
	logger   core.Logger
	interval time.Duration
}

var _ event.Watcher = (*PollingWatcher)(nil)

func NewPollingWatcher(repo event.Repository, logger core.Logger, interval ...time.Duration) *PollingWatcher {
	ivl := defaultPollInterval
	if len(interval) > 0 {
		ivl = interval[0]
	}
	return &PollingWatcher{repo: repo, logger: logger, interval: ivl}
}

func (w *PollingWatcher) WatchOwnerEvents(ctx context.Context, ownerID string) <-chan []event.Event {
	return w.watch(ctx, func() ([]event.Event, error) {
		return w.repo.FilterEventsByOwner(ownerID)
	})
}

func (w *PollingWatcher) WatchAllEvents(ctx context.Context) <-chan []event.Event {
	return w.watch(ctx, w.repo.QueryAllEvents)
}

func (w *PollingWatcher) watch(ctx context.Context, query func() ([]event.Event, error)) <-chan []event.Event {
	out := make(chan []event.Event, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		var last []event.Event
		var delivered bool
		for {
			snap, err := query()
			if err != nil {
				w.logger.Error(fmt.Sprintf("polling events: %v", err), err)
			} else if !delivered || !reflect.DeepEqual(snap, last) {
				last = snap
				delivered = true
				w.send(out, snap)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

// send replaces any undelivered snapshot with the latest one.
func (w *PollingWatcher) send(out chan []event.Event, snap []event.Event) {
	for {
		select {
		case out <- snap:
			return
		default:
			select {
			case <-out: // drop the stale one
			default:
			}
		}
	}
}
