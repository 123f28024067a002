package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core/studygroup"
)

type studyGroupApi struct {
	svc      studygroup.Service
	validate *validator.Validate
}

func registerStudyGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc studygroup.Service, validate *validator.Validate) {
	api := studyGroupApi{svc: svc, validate: validate}

	sg := g.Group("/study-groups", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.POST("/:id/join", api.join)
	sg.POST("/:id/leave", api.leave)
	sg.DELETE("/:id", api.destroy)
}

func (api *studyGroupApi) query(ctx echo.Context) error {
	groups, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"groups": groups})
}

func (api *studyGroupApi) create(ctx echo.Context) error {
	var data studygroup.NewGroup
	if err := bind(ctx, &data, api.validate); err != nil {
		return err
	}

	grp, err := api.svc.Create(ctx.Request().Context(), contextUserID(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Study group created successfully", "group": grp})
}

func (api *studyGroupApi) join(ctx echo.Context) error {
	if err := api.svc.Join(ctx.Request().Context(), ctx.Param("id"), contextUserID(ctx)); err != nil {
		return errors.Wrap(err, "joining group")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Joined group successfully"})
}

func (api *studyGroupApi) leave(ctx echo.Context) error {
	if err := api.svc.Leave(ctx.Request().Context(), ctx.Param("id"), contextUserID(ctx)); err != nil {
		return errors.Wrap(err, "leaving group")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Left group successfully"})
}

func (api *studyGroupApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), contextUserID(ctx)); err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Group deleted successfully"})
}
