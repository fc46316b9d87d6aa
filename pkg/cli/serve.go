package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/hazop/pkg/cli/config"
	httpctrl "github.com/secmon-lab/hazop/pkg/controller/http"
	"github.com/secmon-lab/hazop/pkg/service/slack"
	"github.com/secmon-lab/hazop/pkg/service/worker"
	"github.com/secmon-lab/hazop/pkg/usecase"
	"github.com/secmon-lab/hazop/pkg/utils/async"
	"github.com/secmon-lab/hazop/pkg/utils/logging"
	"github.com/secmon-lab/hazop/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var refreshInterval time.Duration
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var slackCfg config.Slack
	var authCfg config.Auth

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("HAZOP_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "employee-refresh-interval",
			Usage:       "Interval of the employee directory sync",
			Value:       10 * time.Minute,
			Sources:     cli.EnvVars("HAZOP_EMPLOYEE_REFRESH_INTERVAL"),
			Destination: &refreshInterval,
		},
	}

	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			hazopCfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			authUC, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}
			if authCfg.IsNoAuthMode() {
				logging.Default().Warn("Running in no-auth mode (development only)")
			}

			ucOpts := []usecase.Option{
				usecase.WithHazopConfig(hazopCfg),
				usecase.WithAsyncNotify(),
			}

			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return err
			}
			if slackSvc != nil {
				ucOpts = append(ucOpts,
					usecase.WithNotifier(slack.NewNotifier(slackSvc)),
					usecase.WithDirectory(slack.NewDirectory(slackSvc)),
				)
				logging.Default().Info("Slack notifications and employee directory enabled", "slack", slackCfg)
			} else {
				logging.Default().Info("Slack Bot Token not configured, notifications are disabled")
			}

			uc := usecase.New(repo, ucOpts...)

			// Employee sync replaces the whole cache with DeleteAll then SaveMany
			var refreshWorker *worker.EmployeeRefreshWorker
			if slackSvc != nil {
				refreshWorker = worker.NewEmployeeRefreshWorker(uc.Employee, refreshInterval)
				refreshWorker.Start(ctx)
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithAuth(authUC),
			}
			if slackCfg.IsInteractionConfigured() {
				httpOpts = append(httpOpts, httpctrl.WithSlackInteraction(slackCfg.SigningSecret()))
				logging.Default().Info("Slack interaction handler enabled")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "repository", repoCfg)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if refreshWorker != nil {
					refreshWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// Pending notifications are sent before the repository closes
				if err := async.Wait(shutdownCtx); err != nil {
					logging.Default().Warn("pending notifications were not delivered", "error", err)
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
