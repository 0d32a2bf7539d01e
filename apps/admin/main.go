package main

import (
	"log"
	"os"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/user"
	logsvc "github.com/aranzadi/pictotea/services/logger"
	"github.com/aranzadi/pictotea/storage/database"
	sqlxrepos "github.com/aranzadi/pictotea/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig("cli")
	core.InitValidators()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// start CLI
	cli := commandLine{
		db:       db,
		usrSvc:   user.NewService(sqlxrepos.NewUserRepository(db), logsvc.NewConsoleLogger(logger)),
		patRepo:  sqlxrepos.NewPatientRepository(db),
		achvRepo: sqlxrepos.NewAchievementRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
