// Package main is the entry point for the pingmond daemon.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pingmon/internal/config"
	"pingmon/internal/httpapi"
	"pingmon/internal/logging"
	"pingmon/internal/notify"
	"pingmon/internal/probe"
	"pingmon/internal/sched"
	"pingmon/internal/store"
)

// Set by ldflags at release time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pingmond",
		Short:         "Scheduled ping probes reported to an operator channel",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), startCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("pingmond %s (commit: %s)\n", version, commit)
		},
	}
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler and the job API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return run(cfg)
		},
	}
	cmd.Flags().String("config", "pingmon.yaml", "path to config file")
	return cmd
}

func run(cfg config.Config) error {
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		return err
	}
	defer logger.Sync()

	notifier, recipient, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	jobs := store.NewFileStore(cfg.JobsPath, logger)
	scheduler := sched.New(jobs, probe.NewExecutor(), notifier, recipient, logger, cfg.TickPeriod())
	if err := scheduler.Start(); err != nil {
		return err
	}

	api := httpapi.NewServer(logger, jobs, scheduler, cfg.OperatorToken, cfg.IntervalSec, cfg.Count)
	srv := &http.Server{Addr: cfg.APIAddr, Handler: api.Router()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.APIAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting_down", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("api_error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	return scheduler.Stop(ctx)
}

func buildNotifier(cfg config.Config) (notify.Notifier, string, error) {
	var channels notify.Multi
	recipient := ""
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token)
		if err != nil {
			return nil, "", err
		}
		channels = append(channels, tg)
		recipient = cfg.Telegram.ChatID
	}
	if s := notify.NewSlack(cfg.Slack.Webhook); s != nil {
		channels = append(channels, s)
	}
	if len(channels) == 1 {
		return channels[0], recipient, nil
	}
	return channels, recipient, nil
}
