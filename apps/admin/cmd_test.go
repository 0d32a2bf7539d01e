package main

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/user"
	logsvc "github.com/aranzadi/pictotea/services/logger"
	"github.com/aranzadi/pictotea/storage/database"
	dummydb "github.com/aranzadi/pictotea/storage/database/dummy"
)

func setup(t *testing.T) (*commandLine, *dummydb.DB) {
	t.Helper()

	logger = log.New(os.Stdout, "ADMIN-TEST : ", log.LstdFlags)
	core.InitValidators()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	cli := &commandLine{
		usrSvc:   user.NewService(dummydb.NewUserRepository(db), logsvc.NewConsoleLogger(logger)),
		patRepo:  dummydb.NewPatientRepository(db),
		achvRepo: dummydb.NewAchievementRepository(db),
	}
	return cli, db
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	var called bool
	migrateFunc = func(db *database.DB) error {
		called = true
		return nil
	}
	defer func() { migrateFunc = database.Migrate }()

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	if !called {
		t.Error("migrate subcommand did not run migrations")
	}
}

func Test_commandLine_seed(t *testing.T) {
	cli, db := setup(t)

	// reruns must not error
	for i := 0; i < 2; i++ {
		if err := cli.run([]string{"admin", "seed"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
	}

	ctx := context.Background()
	phases, err := dummydb.NewPatientRepository(db).QueryAllPhases(ctx)
	if err != nil {
		t.Fatalf("QueryAllPhases() failed: %v", err)
	}
	if len(phases) != 6 {
		t.Errorf("seeded %d phases, want 6", len(phases))
	}
	achvRepo := dummydb.NewAchievementRepository(db)
	for id := 1; id <= 6; id++ {
		if _, err := achvRepo.GetAchievementByID(ctx, id); err != nil {
			t.Errorf("reserved achievement %d not seeded: %v", id, err)
		}
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, db := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "name but no password", args: []string{"adduser", "-name", "Awe Some", "-username", "awesome"}, wantErr: errHelp},
		{name: "create therapist", args: []string{"adduser", "-name", "Awe Some", "-username", "awesome", "-email", "awe@test.cd"}, pwd: "s3cr3t"},
		{name: "create admin", args: []string{"adduser", "-name", "Big Boss", "-username", "bigboss", "-admin"}, pwd: "s3cr3t"},
		{name: "duplicate username", args: []string{"adduser", "-name", "Awe Some", "-username", "awesome"}, pwd: "s3cr3t", wantErr: user.ErrUsernameExists},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("cli.run() expected an error")
				}
				var vErr *core.ValidationError
				if !(err == tt.wantErr || errors.As(err, &vErr)) {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("cli.run() unexpected error = %v", err)
			}
		})
	}

	usr, err := dummydb.NewUserRepository(db).GetUserByUsernameOrEmail(context.Background(), "bigboss")
	if err != nil {
		t.Fatalf("GetUserByUsernameOrEmail() failed: %v", err)
	}
	if !usr.RoleStartsWith(user.RoleAdmin) {
		t.Errorf("admin user roles = %v, want the admin role", usr.Roles)
	}
	if err := usr.CheckPassword("s3cr3t"); err != nil {
		t.Error("admin user password was not set")
	}
}
