package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	echoapi "github.com/aranzadi/pictotea/apps/api/echo"
	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/achievement"
	"github.com/aranzadi/pictotea/core/activity"
	"github.com/aranzadi/pictotea/core/patient"
	"github.com/aranzadi/pictotea/core/user"
	logsvc "github.com/aranzadi/pictotea/services/logger"
	"github.com/aranzadi/pictotea/storage/database"
	sqlxrepos "github.com/aranzadi/pictotea/storage/database/sqlx"
)

// build is the git version of this app. It is set using build flags.
var build = "develop"

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	if err := run(std); err != nil {
		std.Fatalf("main : error : %+v", err)
	}
}

func run(std *log.Logger) error {
	conf := core.NewConfig(build)

	var logger core.Logger
	if conf.Debug || conf.TestMode {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}
	logger.Enable(!conf.TestMode)

	core.InitValidators()

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer db.Close()

	// set up services
	usrRepo := sqlxrepos.NewUserRepository(db)
	patRepo := sqlxrepos.NewPatientRepository(db)
	actRepo := sqlxrepos.NewActivityRepository(db)
	achvRepo := sqlxrepos.NewAchievementRepository(db)

	usrSvc := user.NewService(usrRepo, logger)
	patSvc := patient.NewService(patRepo, actRepo, logger)
	actSvc := activity.NewService(db, actRepo, patRepo, logger)
	achvSvc := achievement.NewService(db, achvRepo, patRepo, usrRepo, logger)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Conf:           conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			ActivitySvc:    actSvc,
			PatientSvc:     patSvc,
			AchievementSvc: achvSvc,
		},
		shutdown,
	)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening on " + conf.Server.Address())
		serverErrors <- app.Start()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server error")
		}
		return nil

	case sig := <-shutdown:
		logger.Info("starting shutdown on " + sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := app.Stop(ctx); err != nil {
			return errors.Wrapf(err, "graceful shutdown did not complete in %v", conf.Server.ShutdownTimeout)
		}
	}
	return nil
}
