package main

import (
	"context"
	"time"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.repos.Users.GetUser(ctx, user.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := cli.repos.Users.UpdateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
