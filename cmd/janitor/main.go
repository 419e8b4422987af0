package main

import (
	"context"
	"os"
	"os/signal"
	"recoverme/internal/app/deps"
	"recoverme/internal/app/services"
	"recoverme/internal/core/domain/logging"
	purgeresettokens "recoverme/internal/core/services/purge_reset_tokens"
	"syscall"
	"time"
)

func main() {
	deps, shutdownDeps := deps.InitDeps()
	log := deps.Logger
	defer shutdownDeps()

	services := services.InitServices(deps)

	ticker := time.NewTicker(deps.Config.JanitorPeriod)
	defer ticker.Stop()

	stopCh, closeCh := createChannel()
	defer closeCh()

	log.Info(
		context.Background(),
		"Starting password reset janitor.",
		logging.Entry("periodMinutes", deps.Config.JanitorPeriod.Minutes()),
		logging.Entry("retentionDays", deps.Config.TokenRetentionDays),
	)

loop:
	for {
		select {
		case <-stopCh:
			log.Info(context.Background(), "Stopping password reset janitor.")
			break loop
		case <-ticker.C:
			log.Info(context.Background(), "Launching reset token purge.")
			_, err := services.PurgeResetTokens.Run(context.Background(), purgeresettokens.Input{})
			if err != nil {
				log.Error(context.Background(), "Purge service returned an error.", logging.Entry("err", err))
			}
		}
	}
}

func createChannel() (chan os.Signal, func()) {
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	return stopCh, func() {
		close(stopCh)
	}
}
