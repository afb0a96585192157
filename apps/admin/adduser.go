package main

import (
	"fmt"

	"github.com/trezcool/classportal/core/user"
)

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	usr := user.User{
		Name:     name,
		Username: uname,
		Email:    email,
		IsActive: true,
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr, err := cli.usrSvc.Save(cli.ctx, usr, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "saved user %s (%s)\n", usr.DisplayName(), usr.ID)
	return nil
}
