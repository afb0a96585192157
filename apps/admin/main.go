package main

import (
	"context"
	"fmt"
	"log"
	"os"

	dig_container "github.com/trezcool/classportal/apps/api/di/dig"
	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/report"
	"github.com/trezcool/classportal/core/store"
	logsvc "github.com/trezcool/classportal/services/logger"
	"github.com/trezcool/classportal/storage/kv"
	"github.com/trezcool/classportal/storage/kv/postgres"
)

func main() {
	c := dig_container.New()

	var code int
	err := c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		storage store.Storage,
		stores dig_container.Stores,
		reports *report.Generator,
	) {
		defer logsvc.Close(logger)
		defer func() {
			if err := storage.Close(); err != nil {
				logger.Error("Failed to close storage", err)
			}
		}()

		ctx := context.Background()
		if err := stores.Load(ctx); err != nil {
			logger.Error(fmt.Sprintf("loading stores: %v", err), err)
			code = 1
			return
		}

		cli := commandLine{
			ctx:     ctx,
			out:     os.Stdout,
			storage: storage,
			usrSvc:  stores.Users,
			reports: reports,
		}
		if conf.Storage.Driver == kv.DriverPostgres {
			cli.migrateFunc = func(command string, args ...string) error {
				db, err := postgres.Connect(ctx, conf.Storage.PostgresDSN)
				if err != nil {
					return err
				}
				defer db.Close()
				return postgres.Migrate(db.DB, command, args...)
			}
		}

		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
			}
			code = 1
		}
	})
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}
