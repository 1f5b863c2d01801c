package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/mkombe/ratiba/core"
	"github.com/mkombe/ratiba/core/user"
	"github.com/mkombe/ratiba/storage/database"
	sqlxrepos "github.com/mkombe/ratiba/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	var usrRepo user.Repository = sqlxrepos.NewUserRepository(sqlx.NewDb(db, "postgres"))

	// start CLI
	cli := commandLine{
		db:      db,
		conf:    conf,
		usrRepo: usrRepo,
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
