package main

import (
	"context"
	stdos "os"
	"time"

	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/config"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/coordinator"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/logger"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/os"
)

var Version = "?"

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := config.NewConfig(stdos.Args[1:])
	if err != nil {
		logger.Default().Fatal().Err(err).Msg("couldn't load the config")
	}

	log := logger.NewConsole(conf.Coordinator.Debug, "c", false)

	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}
	c, err := coordinator.New(conf.Coordinator, log)
	if err != nil {
		log.Fatal().Err(err).Msg("couldn't start the coordinator")
	}
	c.Start()

	sig := <-os.ExpectTermination()
	log.Info().Msgf("%v received, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("service shutdown errors")
	}
}
