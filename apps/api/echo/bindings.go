package echoapi

import (
	"io"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/market"
)

type validatable interface {
	Validate(validate *validator.Validate) error
}

// bind decodes the request body into data then validates it.
func bind(ctx echo.Context, data validatable, validate *validator.Validate) error {
	if err := ctx.Bind(data); err != nil {
		return errors.Wrapf(err, "binding to %T", data)
	}
	return data.Validate(validate)
}

// formFiles returns the files uploaded under field, at least one.
func formFiles(ctx echo.Context, field string) ([]*multipart.FileHeader, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, core.NewFieldValidationError(field, "a multipart form is expected")
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, core.NewFieldValidationError(field, "no file provided")
	}
	return files, nil
}

// openImages opens the uploaded images; the returned function closes them all.
func openImages(headers []*multipart.FileHeader) ([]market.Image, func(), error) {
	images := make([]market.Image, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	for _, fh := range headers {
		if fh.Filename == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, errors.Wrapf(err, "opening %q", fh.Filename)
		}
		closers = append(closers, f)
		images = append(images, market.Image{Filename: fh.Filename, Content: f})
	}
	return images, closeAll, nil
}
