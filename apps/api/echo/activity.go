package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aranzadi/pictotea/core/activity"
)

var errInvalidID = echo.NewHTTPError(http.StatusBadRequest, "invalid identifier")

func intParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

type activityApi struct {
	svc *activity.Service
}

func registerActivityAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *activity.Service) {
	api := activityApi{svc: svc}

	ag := g.Group("/activities", jwt, therapistMiddleware())
	ag.POST("", api.create)
	ag.GET("/:id", api.retrieve)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *activityApi) create(ctx echo.Context) error {
	var data activity.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	act, err := api.svc.Create(ctx.Request().Context(), claims.AccessContext(), data)
	if err != nil {
		return errors.Wrap(err, "creating activity")
	}
	return ctx.JSON(http.StatusCreated, act)
}

func (api *activityApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	act, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, act)
}

// destroy soft-deletes the activity; all its live patient links are
// force-unassigned in the same transaction.
func (api *activityApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), claims.AccessContext(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
