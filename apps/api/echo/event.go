package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mkombe/ratiba/core"
	"github.com/mkombe/ratiba/core/event"
)

type eventApi struct {
	conf       *core.Config
	svc        *event.Service
	watcher    event.Watcher
	validate   *validator.Validate
	translator ut.Translator
}

func registerEventAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := eventApi{
		conf:       deps.Conf,
		svc:        deps.EventSvc,
		watcher:    deps.EventWatcher,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	eg := g.Group("/events", jwt)
	eg.GET("", api.query)
	eg.POST("", api.create)
	eg.DELETE("", api.destroyMultiple)
	eg.GET("/watch", api.watch)

	dg := eg.Group("/:id", api.ownedEventMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/toggle", api.toggleCompleted)

	g.GET("/planner/week", api.weekView, jwt)
}

// ownedEventMiddleware loads the referenced event and rejects access unless
// it belongs to the caller or the caller is the admin.
func (api *eventApi) ownedEventMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}

		evt, err := api.svc.GetByID(ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == event.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding event by ID")
		}
		if evt.OwnerID != claims.Subject && !claims.IsAdmin {
			return errHttpNotFound
		}

		ctx.Set("object", evt)
		return next(ctx)
	}
}

// Handlers

func (api *eventApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Create(claims.Subject, claims.Email, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *eventApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	events, err := api.svc.QueryByOwner(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	evt, ok := ctx.Get("object").(event.Event)
	if !ok {
		return errors.New("event object not found in echo.Context")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) update(ctx echo.Context) error {
	evt, ok := ctx.Get("object").(event.Event)
	if !ok {
		return errors.New("event object not found in echo.Context")
	}

	var data event.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Update(evt.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) toggleCompleted(ctx echo.Context) error {
	evt, ok := ctx.Get("object").(event.Event)
	if !ok {
		return errors.New("event object not found in echo.Context")
	}

	evt, err := api.svc.ToggleCompleted(evt.ID)
	if err != nil {
		return errors.Wrap(err, "toggling completion")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	evt, ok := ctx.Get("object").(event.Event)
	if !ok {
		return errors.New("event object not found in echo.Context")
	}

	if err := api.svc.Delete(evt.ID); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// destroyMultiple deletes the referenced events in one shot. Any rejection
// fails the whole request even though other deletes may already have landed.
func (api *eventApi) destroyMultiple(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// every referenced event must belong to the caller
	for _, id := range query.IDs {
		evt, err := api.svc.GetByID(id)
		if err != nil {
			if errors.Cause(err) == event.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding event by ID")
		}
		if evt.OwnerID != claims.Subject && !claims.IsAdmin {
			return errHttpNotFound
		}
	}

	if err := api.svc.DeleteBatch(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting events")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// weekView returns the caller's built week view model. "start" defaults to
// the week containing today.
func (api *eventApi) weekView(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ref, err := weekRefParam(ctx)
	if err != nil {
		return err
	}

	events, err := api.svc.QueryByOwner(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return ctx.JSON(http.StatusOK, event.BuildWeekView(events, ref))
}

// watch streams the caller's event snapshots as server-sent events until the
// client goes away. Each message is the full new snapshot, never a diff.
func (api *eventApi) watch(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	reqCtx := ctx.Request().Context()
	snapshots := api.watcher.WatchOwnerEvents(reqCtx, claims.Subject)
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

type DestroyMultipleRequest struct {
	IDs []string `query:"id"`
}

func weekRefParam(ctx echo.Context) (core.Date, error) {
	start := ctx.QueryParam("start")
	if start == "" {
		return core.Today(), nil
	}
	ref, err := core.ParseDate(start)
	if err != nil {
		return core.Date{}, core.NewValidationError(nil, core.FieldError{Field: "start", Error: "must be a valid date (YYYY-MM-DD)"})
	}
	return ref, nil
}
