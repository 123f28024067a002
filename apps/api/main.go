package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/campusconnect/apps/api/echo"
	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/club"
	"github.com/trezcool/campusconnect/core/examtrend"
	"github.com/trezcool/campusconnect/core/lostfound"
	"github.com/trezcool/campusconnect/core/market"
	"github.com/trezcool/campusconnect/core/studygroup"
	"github.com/trezcool/campusconnect/core/user"
	appfs "github.com/trezcool/campusconnect/fs"
	emailsvc "github.com/trezcool/campusconnect/services/email"
	logsvc "github.com/trezcool/campusconnect/services/logger"
	metricsvc "github.com/trezcool/campusconnect/services/metrics"
	uploadsvc "github.com/trezcool/campusconnect/services/upload"
	"github.com/trezcool/campusconnect/storage"
	"github.com/trezcool/campusconnect/storage/cache"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	repos, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s database: %v", conf.Database.Engine, err), err)
	}
	defer func() {
		if err = repos.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridAPIKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	images, err := uploadsvc.NewDiskStore(conf.Server.UploadDir)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up uploads: %v", err), err)
	}

	metrics := metricsvc.NewManager(
		metricsvc.WithNamespace(conf.Metrics.Namespace),
		metricsvc.WithEnabled(conf.Metrics.Enabled),
	)

	examOpts := []examtrend.ServiceOption{examtrend.WithObserver(metrics)}
	if conf.Redis.Addr != "" {
		client, err := cache.Open(context.Background(), conf)
		if err != nil {
			// insights are recomputed on every read without the cache
			logger.Error(fmt.Sprintf("setting up redis cache: %v", err), err)
		} else {
			defer func() { _ = client.Close() }()
			examOpts = append(examOpts, examtrend.WithCache(cache.NewInsightCache(client, conf.Redis.InsightsTTL)))
		}
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus scrape endpoint.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Engine)

	http.Handle("/metrics", metrics.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			Metrics:       metrics,
			UserSvc:       user.NewService(repos.Users, mailSvc, conf),
			ClubSvc:       club.NewService(repos.Clubs),
			StudyGroupSvc: studygroup.NewService(repos.StudyGroups),
			LostFoundSvc:  lostfound.NewService(repos.LostFound),
			MarketSvc:     market.NewService(repos.Listings, images),
			ExamSvc:       examtrend.NewService(repos.ExamRecords, examOpts...),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
