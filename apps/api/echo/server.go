package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/club"
	"github.com/trezcool/campusconnect/core/examtrend"
	"github.com/trezcool/campusconnect/core/lostfound"
	"github.com/trezcool/campusconnect/core/market"
	"github.com/trezcool/campusconnect/core/studygroup"
	"github.com/trezcool/campusconnect/core/user"
	metricsvc "github.com/trezcool/campusconnect/services/metrics"
	uploadsvc "github.com/trezcool/campusconnect/services/upload"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Metrics    *metricsvc.Manager // optional

		UserSvc       user.Service
		ClubSvc       club.Service
		StudyGroupSvc studygroup.Service
		LostFoundSvc  *lostfound.Service
		MarketSvc     *market.Service
		ExamSvc       *examtrend.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		srv      *http.Server
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.srv = &http.Server{
		Addr:         deps.Conf.Server.Address(),
		ReadTimeout:  deps.Conf.Server.ReadTimeout,
		WriteTimeout: deps.Conf.Server.WriteTimeout,
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if s.deps.Metrics != nil && s.deps.Metrics.Enabled() {
		s.app.Use(metricsMiddleware(s.deps.Metrics))
	}
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     conf.Server.CORSOrigins,
		AllowCredentials: true,
	}))
	s.app.Use(middleware.BodyLimit(conf.Server.MaxUploadSize))

	s.app.Static(uploadsvc.URLPrefix, conf.Server.UploadDir)
	s.app.GET("/", s.home)

	api := s.app.Group("/api")
	jwtConf := newJWTConfig(conf)
	jwt := middleware.JWTWithConfig(jwtConf)
	optionalJWT := middleware.JWTWithConfig(optionalJWTConfig(jwtConf))

	registerUserAPI(api, jwt, s.deps.UserSvc, conf, s.deps.Validate)
	registerClubAPI(api, jwt, s.deps.ClubSvc, s.deps.Validate)
	registerStudyGroupAPI(api, jwt, s.deps.StudyGroupSvc, s.deps.Validate)
	registerLostFoundAPI(api, jwt, optionalJWT, s.deps.LostFoundSvc, s.deps.Validate)
	registerMarketAPI(api, jwt, optionalJWT, s.deps.MarketSvc, s.deps.Validate)
	registerExamTrendAPI(api, jwt, s.deps.ExamSvc, s.deps.Validate, s.deps.Translator, s.deps.Metrics)
}

// Start listens until the server is shut down. Listening errors are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.StartServer(s.srv); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal receives OS interrupts and shutdown requests raised by handlers.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
