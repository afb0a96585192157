package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/classportal/core/report"
	"github.com/trezcool/classportal/core/store"
	"github.com/trezcool/classportal/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp                = errors.New("help provided")
	errMigrateUnsupported  = errors.New("migrations only apply to the postgres storage")
	errPasswordsDoNotMatch = errors.New("passwords do not match")
)

type commandLine struct {
	ctx     context.Context
	out     io.Writer
	storage store.Storage
	usrSvc  *user.Service
	reports *report.Generator

	// migrateFunc runs a goose command; nil unless the storage is postgres.
	migrateFunc func(command string, args ...string) error
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-name NAME] [-admin] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  importusers -file ROSTER.xlsx [-role ROLE] - create or update the users of a roster")
	fmt.Fprintln(cli.out, "  exportreport -file REPORT.xlsx - write the class report")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose migration command (postgres only)")
	fmt.Fprintln(cli.out, "  slots - list the storage slots")
}

// promptPassword reads a password, twice when confirm is set. An empty password is reported as errHelp.
func (cli *commandLine) promptPassword(confirm bool, usage func()) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		usage()
		return "", errHelp
	}
	if confirm {
		fmt.Fprint(cli.out, "Confirm password:")
		again, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return "", err
		}
		if string(again) != string(pwd) {
			return "", errPasswordsDoNotMatch
		}
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant every role to the user.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	importUsersCmd := flag.NewFlagSet("importusers", flag.ContinueOnError)
	importUsersFile := importUsersCmd.String("file", "", "The roster spreadsheet: name, username, email, password and roles columns.")
	importUsersRole := importUsersCmd.String("role", user.RoleStudent, "The role of the users whose roles column is empty.")

	exportReportCmd := flag.NewFlagSet("exportreport", flag.ContinueOnError)
	exportReportFile := exportReportCmd.String("file", "", "The spreadsheet to write.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, importUsersCmd, exportReportCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(true, addUserCmd.Usage)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(false, resetPasswordCmd.Usage)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "importusers":
		if err := importUsersCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importUsersFile == "" {
			importUsersCmd.Usage()
			return errHelp
		}
		return cli.importUsers(*importUsersFile, *importUsersRole)

	case "exportreport":
		if err := exportReportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *exportReportFile == "" {
			exportReportCmd.Usage()
			return errHelp
		}
		return cli.exportReport(*exportReportFile)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "slots":
		return cli.listSlots()

	default:
		cli.printUsage()
		return errHelp
	}
}
