package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/achievement"
	"github.com/aranzadi/pictotea/core/patient"
	"github.com/aranzadi/pictotea/core/user"
	"github.com/aranzadi/pictotea/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	migrateFunc      = database.Migrate  // mockable

	errHelp = errors.New("help provided")
)

type (
	phaseRepository interface {
		CreatePhase(ctx context.Context, ph patient.Phase, exec ...core.DBExecutor) (patient.Phase, error)
	}
	achievementRepository interface {
		CreateAchievement(ctx context.Context, ach achievement.Achievement, exec ...core.DBExecutor) (achievement.Achievement, error)
	}

	commandLine struct {
		db       *database.DB
		usrSvc   *user.Service
		patRepo  phaseRepository
		achvRepo achievementRepository
	}
)

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate - apply pending database migrations")
	fmt.Println("  seed - load the phase and reserved achievement fixtures")
	fmt.Println("  adduser -name NAME -username USERNAME -email EMAIL [-admin] - create a user; the password will be prompted next")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserIsAdmin := addUserCmd.Bool("admin", false, "Grant the super admin role instead of therapist.")

	switch args[1] {
	case "migrate":
		return migrateFunc(cli.db)
	case "seed":
		return cli.seed()
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || (*addUserUname == "" && *addUserEmail == "") {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, string(pwd), *addUserIsAdmin)
	default:
		cli.printUsage()
		return errHelp
	}
}
