package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mkombe/ratiba/core"
	"github.com/mkombe/ratiba/core/event"
	"github.com/mkombe/ratiba/core/planner"
)

// adminApi exposes the all-users planner surface. It can inspect, edit and
// delete anyone's events but never creates new ones.
type adminApi struct {
	conf     *core.Config
	svc      *event.Service
	watcher  event.Watcher
	validate *validator.Validate
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := adminApi{
		conf:     deps.Conf,
		svc:      deps.EventSvc,
		watcher:  deps.EventWatcher,
		validate: deps.Validate,
	}

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/planner/week", api.weekRollup)
	ag.GET("/events", api.query)
	ag.POST("/events", api.create)
	ag.GET("/events/watch", api.watch)
	ag.PUT("/events/:id", api.update)
	ag.DELETE("/events/:id", api.destroy)
}

// weekRollup returns the per-owner progress roll-up for one week.
func (api *adminApi) weekRollup(ctx echo.Context) error {
	ref, err := weekRefParam(ctx)
	if err != nil {
		return err
	}

	events, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return ctx.JSON(http.StatusOK, event.BuildAdminView(events, ref))
}

func (api *adminApi) query(ctx echo.Context) error {
	events, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

// create is deliberately unsupported: the admin surface edits existing
// records only, so the response just carries the guidance message.
func (api *adminApi) create(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"message": planner.MsgPickEvent})
}

func (api *adminApi) update(ctx echo.Context) error {
	var data event.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *adminApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// watch streams snapshots of every user's events as server-sent events.
func (api *adminApi) watch(ctx echo.Context) error {
	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	reqCtx := ctx.Request().Context()
	snapshots := api.watcher.WatchAllEvents(reqCtx)
	for {
		select {
		case <-reqCtx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			data, err := json.Marshal(snap)
			if err != nil {
				return errors.Wrap(err, "encoding snapshot")
			}
			if _, err = fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
				return nil // client gone
			}
			res.Flush()
		}
	}
}
