package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core/market"
)

type marketApi struct {
	svc      *market.Service
	validate *validator.Validate
}

func registerMarketAPI(
	g *echo.Group,
	jwt, optionalJWT echo.MiddlewareFunc,
	svc *market.Service,
	validate *validator.Validate,
) {
	api := marketApi{svc: svc, validate: validate}

	mg := g.Group("/smart-sell")
	mg.GET("", api.query, optionalJWT)
	mg.POST("", api.create, jwt)
	mg.PUT("/:id", api.update, jwt)
	mg.POST("/:id/images", api.addImages, jwt)
	mg.DELETE("/:id", api.destroy, jwt)
}

func (api *marketApi) query(ctx echo.Context) error {
	listings, err := api.svc.List(ctx.Request().Context(), contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "querying listings")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"items": listings})
}

func (api *marketApi) create(ctx echo.Context) error {
	var data market.NewListing
	if err := bind(ctx, &data, api.validate); err != nil {
		return err
	}

	userID := contextUserID(ctx)
	l, err := api.svc.Create(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "creating listing")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Item listed successfully", "item": l.ViewFor(userID)})
}

func (api *marketApi) update(ctx echo.Context) error {
	var data market.UpdateListing
	if err := bind(ctx, &data, api.validate); err != nil {
		return err
	}

	userID := contextUserID(ctx)
	l, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), userID, data)
	if err != nil {
		return errors.Wrap(err, "updating listing")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Item updated successfully", "item": l.ViewFor(userID)})
}

func (api *marketApi) addImages(ctx echo.Context) error {
	headers, err := formFiles(ctx, "images")
	if err != nil {
		return err
	}
	images, closeImages, err := openImages(headers)
	if err != nil {
		return err
	}
	defer closeImages()

	userID := contextUserID(ctx)
	l, err := api.svc.AddImages(ctx.Request().Context(), ctx.Param("id"), userID, images)
	if err != nil {
		return errors.Wrap(err, "adding images")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Images uploaded successfully", "item": l.ViewFor(userID)})
}

func (api *marketApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), contextUserID(ctx)); err != nil {
		return errors.Wrap(err, "deleting listing")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Item deleted successfully"})
}
