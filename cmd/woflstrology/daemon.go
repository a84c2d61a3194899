package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"woflstrology/internal/notifier"
	"woflstrology/internal/scheduler"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Deliver scheduled readings to Telegram and answer chat commands",
	Long: `Runs until interrupted. Subscribed profiles get a daily horoscope and a
weekly transit digest on the configured cron schedules. Chat commands such as
/daily ada or /natal ada are answered through Telegram long polling.

Set RUN_ON_START=true to deliver the daily readings immediately.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if err := cfg.ValidateDaemon(); err != nil {
		return err
	}
	logger.Info("woflstrology daemon starting")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)

	sched := scheduler.NewScheduler(ctx, service, profiles, tn, history, stats, logger)
	sched.ChatID = cfg.Telegram.ChatID
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.WeeklyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	logger.Info("telegram polling started")

	if addr := cfg.Metrics.ListenAddr; addr != "" {
		go func() {
			if err := stats.Serve(ctx, addr, logger); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, executing daily task now")
		go sched.RunDailyNow()
	}

	logger.Info("woflstrology is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Info("shutdown signal received, stopping")
	case <-ctx.Done():
	}
	cancel()
	return nil
}
