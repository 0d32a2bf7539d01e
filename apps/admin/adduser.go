package main

import (
	"context"

	"github.com/aranzadi/pictotea/core/user"
)

// addUser creates a verified, active user.User. New accounts default to the
// therapist role; -admin grants the super admin role instead.
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	roles := []string{user.RoleTherapist}
	if isAdmin {
		roles = []string{user.RoleAdminSuper}
	}

	nu := user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		Roles:           roles,
	}
	if err := nu.Validate(cli.usrSvc); err != nil {
		return err
	}

	_, err := cli.usrSvc.Create(context.Background(), nu)
	return err
}
