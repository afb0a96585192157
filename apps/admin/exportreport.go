package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/classportal/core/report"
)

func (cli *commandLine) exportReport(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating report file")
	}
	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
	}()

	reports := cli.reports.Class()
	if err := report.ExportXLSX(f, reports); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "exported %d students to %s\n", len(reports), path)
	return nil
}
