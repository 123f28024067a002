package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core/lostfound"
)

type lostFoundApi struct {
	svc      *lostfound.Service
	validate *validator.Validate
}

func registerLostFoundAPI(
	g *echo.Group,
	jwt, optionalJWT echo.MiddlewareFunc,
	svc *lostfound.Service,
	validate *validator.Validate,
) {
	api := lostFoundApi{svc: svc, validate: validate}

	lg := g.Group("/lost-found")
	lg.GET("", api.query, optionalJWT)
	lg.POST("", api.create, jwt)
	lg.PUT("/:id/status", api.updateStatus, jwt)
	lg.DELETE("/:id", api.destroy, jwt)
}

func (api *lostFoundApi) query(ctx echo.Context) error {
	items, err := api.svc.List(ctx.Request().Context(), contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "querying items")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"items": items})
}

func (api *lostFoundApi) create(ctx echo.Context) error {
	var data lostfound.NewItem
	if err := bind(ctx, &data, api.validate); err != nil {
		return err
	}

	userID := contextUserID(ctx)
	it, err := api.svc.Create(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "creating item")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Item reported successfully", "item": it.ViewFor(userID)})
}

func (api *lostFoundApi) updateStatus(ctx echo.Context) error {
	var data lostfound.StatusUpdate
	if err := bind(ctx, &data, api.validate); err != nil {
		return err
	}

	userID := contextUserID(ctx)
	it, err := api.svc.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), userID, data)
	if err != nil {
		return errors.Wrap(err, "updating item status")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Status updated successfully", "item": it.ViewFor(userID)})
}

func (api *lostFoundApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), contextUserID(ctx)); err != nil {
		return errors.Wrap(err, "deleting item")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Item deleted successfully"})
}
