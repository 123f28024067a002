package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/club"
	"github.com/trezcool/campusconnect/core/lostfound"
	"github.com/trezcool/campusconnect/core/market"
	"github.com/trezcool/campusconnect/core/studygroup"
	"github.com/trezcool/campusconnect/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
)

// domainErrCodes maps the domain sentinel errors to their HTTP status code; the error text is the message.
var domainErrCodes = map[error]int{
	user.ErrNotFound: http.StatusNotFound,

	club.ErrNotFound:         http.StatusNotFound,
	club.ErrAlreadyMember:    http.StatusBadRequest,
	club.ErrNotMember:        http.StatusBadRequest,
	club.ErrOwnerCannotLeave: http.StatusBadRequest,

	studygroup.ErrNotFound:         http.StatusNotFound,
	studygroup.ErrNotOwned:         http.StatusNotFound,
	studygroup.ErrAlreadyMember:    http.StatusBadRequest,
	studygroup.ErrNotMember:        http.StatusBadRequest,
	studygroup.ErrFull:             http.StatusBadRequest,
	studygroup.ErrOwnerCannotLeave: http.StatusBadRequest,

	lostfound.ErrNotFound: http.StatusNotFound,

	market.ErrNotFound:  http.StatusNotFound,
	market.ErrNoChanges: http.StatusBadRequest,

	core.ErrPermissionDenied: http.StatusForbidden,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		origErr := errors.Cause(err)
		if c, ok := domainErrCodes[origErr]; ok {
			code = c
			message = origErr.Error()
		} else {
			switch origErr := origErr.(type) {
			case *echo.HTTPError:
				if origErr == middleware.ErrJWTMissing {
					code = http.StatusUnauthorized
					message = origErr.Message
					break
				}
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				fldErrs := make(map[string]string, len(origErr))
				for _, vErr := range origErr {
					fldErrs[vErr.Field()] = vErr.Translate(translator)
				}
				code = http.StatusBadRequest
				message = fldErrs
			case *core.ValidationError:
				if origErr.Fields != nil {
					fldErrs := make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = origErr.Error()
				}
				code = http.StatusBadRequest
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Name = claims.Name
					usr.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
