package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/user"
)

var errInvalidRole = errors.New("role must be one of: student, clubowner")

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, email, role, pwd string, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)
	if !core.ContainsString(user.SignupRoles, role) {
		return errInvalidRole
	}

	usr, err := cli.repos.Users.GetUser(ctx, user.GetFilter{Email: email})
	found := err == nil
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		return err
	}

	now := time.Now().UTC()
	if !found {
		usr = user.User{Email: email, CreatedAt: now}
	}
	usr.Name = name
	usr.Roles = []string{role}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.UpdatedAt = now
	usr.SetActive(true)
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if found {
		_, err = cli.repos.Users.UpdateUser(ctx, usr)
	} else {
		_, err = cli.repos.Users.CreateUser(ctx, usr)
	}
	return err
}
