package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/examtrend"
	"github.com/trezcool/campusconnect/core/user"
	appfs "github.com/trezcool/campusconnect/fs"
	emailsvc "github.com/trezcool/campusconnect/services/email"
	logsvc "github.com/trezcool/campusconnect/services/logger"
	sheetsvc "github.com/trezcool/campusconnect/services/spreadsheet"
	"github.com/trezcool/campusconnect/storage"
	"github.com/trezcool/campusconnect/tests"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	conf := testutil.NewConfig(t)
	conf.Database.Engine = core.EngineMemory
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "ADMIN : ", log.LstdFlags), conf)
	core.ParseEmailTemplates(appfs.FS, conf, logger)
	emailsvc.ResetSentMessages()

	repos, err := storage.Open(context.Background(), conf)
	require.NoError(t, err)

	// start CLI
	return &commandLine{
		conf:    conf,
		repos:   repos,
		mailSvc: emailsvc.NewConsoleServiceMock(conf, logger),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	t.Run("not postgres", func(t *testing.T) {
		err := cli.run([]string{"admin", "migrate", "up"})
		assert.Equal(t, errMigrateEngine, err)
	})

	cli.conf.Database.Engine = core.EnginePostgres
	openDBFunc = func(*core.Config) (*sql.DB, error) {
		// lazily connects, never used by the mocked migrations
		return sql.Open("postgres", "postgres://localhost/campus_connect")
	}
	runMigrationsFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-name", "Awe"}, extra: "pwd12345", wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Awe", "-email", "awe@test.cd"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"adduser", "-name", "Awe", "-email", "awe@test.cd", "-role", "admin"}, extra: "pwd12345", wantErr: errInvalidRole},
		{name: "create", args: []string{"adduser", "-name", "Awe", "-email", " AWE@test.cd "}, extra: "pwd12345"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	usr, err := cli.repos.Users.GetUser(ctx, user.GetFilter{Email: "awe@test.cd"})
	require.NoError(t, err)
	assert.Equal(t, "Awe", usr.Name)
	assert.Equal(t, []string{user.RoleStudent}, usr.Roles)
	assert.NoError(t, usr.CheckPassword("pwd12345"))

	t.Run("update existing user", func(t *testing.T) {
		mockPassword("newpwd123")
		err := cli.run([]string{"admin", "adduser", "-name", "Awe Admin", "-email", "awe@test.cd", "-admin"})
		require.NoError(t, err)

		updated, err := cli.repos.Users.GetUser(ctx, user.GetFilter{Email: "awe@test.cd"})
		require.NoError(t, err)
		assert.Equal(t, usr.ID, updated.ID)
		assert.Equal(t, "Awe Admin", updated.Name)
		assert.True(t, updated.IsAdmin())
		assert.NoError(t, updated.CheckPassword("newpwd123"))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, cli.repos.Users, "User", "awe@test.cd", "mdr", nil, true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "AWE@test.cd"}, extra: "lmao"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			tt.check(t, err)
			if err != nil {
				return
			}
			refreshedUsr, err := cli.repos.Users.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash), "failed to update new password")
			assert.NoError(t, refreshedUsr.CheckPassword(tt.extra.(string)))
		})
	}
}

func Test_commandLine_exportExams(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, cli.repos.Users, "User", "awe@test.cd", "", nil, true)
	for i, grade := range []float64{70, 85} {
		_, err := cli.repos.ExamRecords.CreateRecord(ctx, examtrend.Record{
			UserID:     usr.ID,
			Subject:    "Math",
			Topic:      "Algebra",
			Difficulty: "easy",
			StudyHours: float64(i + 1),
			Grade:      grade,
			Date:       time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC),
			CreatedAt:  time.Now().UTC(),
		})
		require.NoError(t, err)
	}
	out := filepath.Join(t.TempDir(), "exams.xlsx")

	tests := []cliTest{
		{name: "no args", args: []string{"exportexams"}, wantErr: errHelp},
		{name: "user not found", args: []string{"exportexams", "-email", "lol@test.cd", "-out", out}, wantErr: user.ErrNotFound},
		{name: "export", args: []string{"exportexams", "-email", "awe@test.cd", "-out", out}},
		{name: "export and send", args: []string{"exportexams", "-email", "awe@test.cd", "-out", out, "-send"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	nrs, err := sheetsvc.ReadExamRecords(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, nrs, 2)
	assert.Equal(t, "2024-01-02", nrs[0].Date)

	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, "awe@test.cd", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "(2 records)")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "exams.xlsx", msg.Attachments[0].Filename)
	assert.Equal(t, xlsxContentType, msg.Attachments[0].ContentType)
}
