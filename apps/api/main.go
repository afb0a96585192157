package main

import (
	"context"
	"fmt"
	"log"
	"time"

	dig_container "github.com/trezcool/classportal/apps/api/di/dig"
	echoapi "github.com/trezcool/classportal/apps/api/echo"
	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/store"
	logsvc "github.com/trezcool/classportal/services/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		storage store.Storage,
		stores dig_container.Stores,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		logger.Info(fmt.Sprintf("Application initializing : version %q, storage %q", conf.Build, conf.Storage.Driver))
		defer logsvc.Close(logger)
		defer logger.Info("Application stopped")
		defer func() {
			if err := storage.Close(); err != nil {
				logger.Error("Failed to close storage", err)
			}
		}()

		loadCtx, cancelLoad := context.WithTimeout(context.Background(), time.Minute)
		defer cancelLoad()
		if err := stores.Load(loadCtx); err != nil {
			logger.Fatal(fmt.Sprintf("loading stores: %v", err), err)
		}

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
