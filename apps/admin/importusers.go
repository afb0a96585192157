package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/user"
)

var rosterColumns = []string{"name", "username", "email", "password", "roles"}

// importUsers saves every row of the first sheet of a roster. The first row names the columns;
// roles are separated by commas and default to defaultRole.
func (cli *commandLine) importUsers(path, defaultRole string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return errors.Wrap(err, "opening roster")
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return errors.Wrap(err, "reading roster")
	}
	if len(rows) == 0 {
		return errors.New("empty roster")
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[core.CleanString(h, true /* lower */)] = i
	}
	if _, ok := cols["username"]; !ok {
		if _, ok := cols["email"]; !ok {
			return errors.New("roster has neither a username nor an email column")
		}
	}
	cell := func(row []string, col string) string {
		if i, ok := cols[col]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var saved int
	for n, row := range rows[1:] {
		usr := user.User{
			Name:     cell(row, "name"),
			Username: cell(row, "username"),
			Email:    cell(row, "email"),
			IsActive: true,
			Roles:    core.CleanStrings(strings.Split(cell(row, "roles"), ","), true /* lower */),
		}
		if usr.Username == "" && usr.Email == "" {
			continue // blank line
		}
		if len(usr.Roles) == 0 {
			usr.Roles = []string{defaultRole}
		}
		if _, err := cli.usrSvc.Save(cli.ctx, usr, cell(row, "password")); err != nil {
			return errors.Wrapf(err, "row %d", n+2)
		}
		saved++
	}
	fmt.Fprintf(cli.out, "imported %d users\n", saved)
	return nil
}
