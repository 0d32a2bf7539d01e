package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aranzadi/pictotea/core/achievement"
	"github.com/aranzadi/pictotea/core/activity"
	"github.com/aranzadi/pictotea/core/patient"
)

type patientApi struct {
	svc     *patient.Service
	actSvc  *activity.Service
	achvSvc *achievement.Service
}

func registerPatientAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *patient.Service,
	actSvc *activity.Service,
	achvSvc *achievement.Service,
) {
	api := patientApi{svc: svc, actSvc: actSvc, achvSvc: achvSvc}

	pg := g.Group("/patients", jwt)
	pg.GET("/:id/progress", api.progress)

	pg.POST("/:id/activities/:activityID", api.assign, therapistMiddleware())
	pg.DELETE("/:id/activities/:activityID", api.unassign, therapistMiddleware())
	pg.PUT("/:id/activities/:activityID/reassign", api.reassign, therapistMiddleware())
	pg.POST("/:id/activities/:activityID/answers", api.submitAnswer)

	pg.GET("/:id/achievements", api.achievements)
	pg.POST("/:id/achievements/:achievementID", api.grant, therapistMiddleware())
	pg.DELETE("/:id/achievements/:achievementID", api.ungrant, therapistMiddleware())
}

// Handlers

func (api *patientApi) progress(ctx echo.Context) error {
	patientID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	prog, err := api.svc.Progress(ctx.Request().Context(), claims.AccessContext(), patientID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *patientApi) assign(ctx echo.Context) error {
	patientID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	activityID, err := intParam(ctx, "activityID")
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	asg, err := api.actSvc.Assign(ctx.Request().Context(), claims.AccessContext(), activityID, patientID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *patientApi) unassign(ctx echo.Context) error {
	patientID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	activityID, err := intParam(ctx, "activityID")
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if _, err = api.actSvc.Unassign(ctx.Request().Context(), claims.AccessContext(), activityID, patientID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *patientApi) reassign(ctx echo.Context) error {
	patientID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	activityID, err := intParam(ctx, "activityID")
	if err != nil {
		return err
	}

	var data ReassignRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReassignRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	asg, err := api.actSvc.Reassign(ctx.Request().Context(), claims.AccessContext(), activityID, patientID, data.Restore)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *patientApi) submitAnswer(ctx echo.Context) error {
	patientID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	activityID, err := intParam(ctx, "activityID")
	if err != nil {
		return err
	}

	var attempt activity.AnswerAttempt
	if err = ctx.Bind(&attempt); err != nil {
		return errors.Wrap(err, "binding to AnswerAttempt")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	asg, err := api.actSvc.SubmitAnswer(ctx.Request().Context(), claims.AccessContext(), activityID, patientID, attempt)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *patientApi) achievements(ctx echo.Context) error {
	patientID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	grants, err := api.achvSvc.QueryByPatient(ctx.Request().Context(), claims.AccessContext(), patientID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grants)
}

func (api *patientApi) grant(ctx echo.Context) error {
	patientID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	achievementID, err := intParam(ctx, "achievementID")
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	grant, err := api.achvSvc.Grant(ctx.Request().Context(), claims.AccessContext(), patientID, achievementID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grant)
}

func (api *patientApi) ungrant(ctx echo.Context) error {
	patientID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	achievementID, err := intParam(ctx, "achievementID")
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if err = api.achvSvc.Ungrant(ctx.Request().Context(), claims.AccessContext(), patientID, achievementID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
