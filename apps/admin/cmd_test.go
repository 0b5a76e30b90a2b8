package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/pkg/errors"

	"github.com/tsakani/alama/core/user"
	inmemdb "github.com/tsakani/alama/storage/database/inmem"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()
	usrRepo = inmemdb.NewUserRepository(inmemdb.NewDB())
	return &commandLine{usrRepo: usrRepo}
}

func createTestUser(t *testing.T, uname, email, pwd string) user.User {
	t.Helper()
	isActive := true
	usr := user.User{
		Name:     uname,
		Username: uname,
		Email:    email,
		IsActive: &isActive,
		Roles:    []string{user.RoleStudent},
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("createTestUser() failed: %v", err)
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createTestUser() failed: %v", err)
	}
	return usr
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotCommand string
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		gotCommand = command
		switch command {
		case "up", "down", "status", "version", "reset": // pass
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("cli.run() unexpected error = %v", err)
			}
			if want := tt.args[1]; gotCommand != want {
				t.Errorf("gooseRunFunc command = %q, want %q", gotCommand, want)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := createTestUser(t, "awe", "awe@test.cd", "0ldpassword")

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, pwd: "newpwd1"},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, pwd: "newpwd2"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if errors.Cause(err) != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cr3tpwd"), nil }

	// creates a new user
	if err := cli.run([]string{"admin", "adduser", "-username", "newbie", "-email", "newbie@test.cd"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	usr, err := usrRepo.GetUser(ctx, user.GetFilter{Username: "newbie"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if usr.IsAdmin() {
		t.Error("expected a non-admin user")
	}

	// updates an existing user, promoting to admin
	if err := cli.run([]string{"admin", "adduser", "-username", "newbie", "-email", "newbie@test.cd", "-admin"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	usr, err = usrRepo.GetUser(ctx, user.GetFilter{Username: "newbie"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if !usr.IsAdmin() {
		t.Error("expected an admin user")
	}
}
