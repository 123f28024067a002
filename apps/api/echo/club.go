package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core/club"
	"github.com/trezcool/campusconnect/core/user"
)

type clubApi struct {
	svc      club.Service
	validate *validator.Validate
}

func registerClubAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc club.Service, validate *validator.Validate) {
	api := clubApi{svc: svc, validate: validate}

	cg := g.Group("/clubs", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, roleMiddleware(user.RoleClubOwner))
	cg.POST("/join", api.join)
	cg.POST("/leave", api.leave)
}

func (api *clubApi) query(ctx echo.Context) error {
	clubs, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying clubs")
	}
	return ctx.JSON(http.StatusOK, clubs)
}

func (api *clubApi) create(ctx echo.Context) error {
	var data club.NewClub
	if err := bind(ctx, &data, api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), contextUserID(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating club")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *clubApi) join(ctx echo.Context) error {
	var data club.Membership
	if err := bind(ctx, &data, api.validate); err != nil {
		return err
	}

	if err := api.svc.Join(ctx.Request().Context(), data.ClubID, contextUserID(ctx)); err != nil {
		return errors.Wrap(err, "joining club")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Joined club successfully"})
}

func (api *clubApi) leave(ctx echo.Context) error {
	var data club.Membership
	if err := bind(ctx, &data, api.validate); err != nil {
		return err
	}

	if err := api.svc.Leave(ctx.Request().Context(), data.ClubID, contextUserID(ctx)); err != nil {
		return errors.Wrap(err, "leaving club")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Left club successfully"})
}
