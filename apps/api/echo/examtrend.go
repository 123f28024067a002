package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/examtrend"
	metricsvc "github.com/trezcool/campusconnect/services/metrics"
	sheetsvc "github.com/trezcool/campusconnect/services/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type examTrendApi struct {
	svc        *examtrend.Service
	validate   *validator.Validate
	translator ut.Translator
	metrics    *metricsvc.Manager
}

func registerExamTrendAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *examtrend.Service,
	validate *validator.Validate,
	translator ut.Translator,
	metrics *metricsvc.Manager,
) {
	api := examTrendApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
		metrics:    metrics,
	}

	eg := g.Group("/exam-trends", jwt)
	eg.GET("", api.query)
	eg.POST("", api.create)
	eg.GET("/analysis", api.analysis)
	eg.POST("/import", api.importRecords)
	eg.GET("/export", api.exportRecords)
}

func (api *examTrendApi) query(ctx echo.Context) error {
	recs, err := api.svc.List(ctx.Request().Context(), contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *examTrendApi) create(ctx echo.Context) error {
	var data examtrend.NewRecord
	if err := bind(ctx, &data, api.validate); err != nil {
		return err
	}

	rec, insights, err := api.svc.Create(ctx.Request().Context(), contextUserID(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating record")
	}
	return ctx.JSON(http.StatusCreated, CreateRecordResponse{Trend: rec, Insights: insights})
}

func (api *examTrendApi) analysis(ctx echo.Context) error {
	insights, err := api.svc.Insights(ctx.Request().Context(), contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "analyzing records")
	}
	return ctx.JSON(http.StatusOK, AnalysisResponse{Insights: insights})
}

// importRecords stores every record of an uploaded xlsx file, or none when a row is invalid.
func (api *examTrendApi) importRecords(ctx echo.Context) error {
	headers, err := formFiles(ctx, "file")
	if err != nil {
		return err
	}
	f, err := headers[0].Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	nrs, err := sheetsvc.ReadExamRecords(f, func(nr *examtrend.NewRecord) error {
		return nr.Validate(api.validate)
	})
	if err != nil {
		return api.importError(err)
	}

	recs, insights, err := api.svc.Import(ctx.Request().Context(), contextUserID(ctx), nrs)
	if err != nil {
		return errors.Wrap(err, "importing records")
	}
	if api.metrics != nil {
		api.metrics.ObserveImport(len(recs))
	}
	return ctx.JSON(http.StatusCreated, ImportResponse{Imported: len(recs), Insights: insights})
}

// importError reports a rejected file as a validation error on the "file" field.
func (api *examTrendApi) importError(err error) error {
	var rowErr *sheetsvc.RowError
	switch {
	case errors.As(err, &rowErr):
		return core.NewFieldValidationError("file", fmt.Sprintf("row %d: %s", rowErr.Row, api.describe(rowErr.Err)))
	case errors.Is(err, sheetsvc.ErrNoSheet), errors.Is(err, sheetsvc.ErrNoRows), errors.Is(err, sheetsvc.ErrMissingColumn):
		return core.NewFieldValidationError("file", err.Error())
	}
	return err
}

// describe turns a record validation error into a single line message.
func (api *examTrendApi) describe(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		return fmt.Sprintf("%s: %s", vErrs[0].Field(), vErrs[0].Translate(api.translator))
	}
	var vErr *core.ValidationError
	if errors.As(err, &vErr) && len(vErr.Fields) > 0 {
		return fmt.Sprintf("%s: %s", vErr.Fields[0].Field, vErr.Fields[0].Error)
	}
	return err.Error()
}

func (api *examTrendApi) exportRecords(ctx echo.Context) error {
	recs, err := api.svc.List(ctx.Request().Context(), contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "querying records")
	}

	var buf bytes.Buffer
	if err = sheetsvc.WriteExamRecords(&buf, recs); err != nil {
		return errors.Wrap(err, "writing records")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="exam_records.xlsx"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

type (
	CreateRecordResponse struct {
		Trend    examtrend.Record    `json:"trend"`
		Insights []examtrend.Insight `json:"insights"`
	}

	AnalysisResponse struct {
		Insights []examtrend.Insight `json:"insights"`
	}

	ImportResponse struct {
		Imported int                 `json:"imported"`
		Insights []examtrend.Insight `json:"insights"`
	}
)
