package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/campusconnect/core"
	appfs "github.com/trezcool/campusconnect/fs"
	emailsvc "github.com/trezcool/campusconnect/services/email"
	logsvc "github.com/trezcool/campusconnect/services/logger"
	"github.com/trezcool/campusconnect/storage"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	repos, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s database: %v", conf.Database.Engine, err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridAPIKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	core.ParseEmailTemplates(appfs.FS, conf, logger)

	// start CLI
	cli := commandLine{
		conf:    conf,
		repos:   repos,
		mailSvc: mailSvc,
	}
	err = cli.run(os.Args)
	if w, ok := mailSvc.(interface{ Wait() }); ok {
		w.Wait()
	}
	_ = repos.Close()
	logger.Close()
	if err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
