package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"

	echoapi "github.com/mkombe/ratiba/apps/api/echo"
	"github.com/mkombe/ratiba/core"
	"github.com/mkombe/ratiba/core/event"
	"github.com/mkombe/ratiba/core/planner"
	"github.com/mkombe/ratiba/core/user"
	emailsvc "github.com/mkombe/ratiba/services/email"
	logsvc "github.com/mkombe/ratiba/services/logger"
	"github.com/mkombe/ratiba/storage/database"
	inmemdb "github.com/mkombe/ratiba/storage/database/inmem"
	sqlxrepos "github.com/mkombe/ratiba/storage/database/sqlx"
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
	logger.Enable(!conf.Debug)

	// set up storage
	var (
		usrRepo    user.Repository
		evtRepo    event.Repository
		evtWatcher event.Watcher
	)
	if conf.Debug {
		// the realtime in-memory store; data does not survive restarts
		memDB := inmemdb.NewDB()
		usrRepo = inmemdb.NewUserRepository(memDB)
		evtRepo = inmemdb.NewEventRepository(memDB)
		evtWatcher = inmemdb.NewEventWatcher(memDB)
	} else {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				logger.Error("closing database", err)
			}
		}()

		sdb := sqlx.NewDb(db, "postgres")
		usrRepo = sqlxrepos.NewUserRepository(sdb)
		evtRepo = sqlxrepos.NewEventRepository(sdb)
		evtWatcher = database.NewPollingWatcher(evtRepo, logger)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(usrRepo)
	evtSvc := event.NewService(evtRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	event.InitValidators(validate, translator)

	// =========================================================================
	// Start Weekly Digest Schedule

	if conf.Digest.Enabled {
		digestSvc := planner.NewDigestService(usrSvc, evtSvc, mailSvc, logger)
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(conf.Digest.Schedule, func() {
			if err := digestSvc.Run(); err != nil {
				logger.Error(fmt.Sprintf("weekly digest run: %v", err), err)
			}
		}); err != nil {
			logger.Fatal(fmt.Sprintf("scheduling weekly digest: %v", err), err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			UserSvc:      usrSvc,
			EventSvc:     evtSvc,
			EventWatcher: evtWatcher,
			Validate:     validate,
			Translator:   translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
