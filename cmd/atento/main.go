// Atento CLI — проверка и выполнение chain, просмотр архива запусков
// и событий.
//
// Использование:
//
//	atento [--api-url URL] [--json] [-v] <command> [flags]
//
// Команды:
//
//	run           Проверить и выполнить chain
//	validate      Проверить chain без выполнения
//	interpreters  Реестр интерпретаторов
//	schedules     Файл расписаний
//	runs          Архив запусков (через API)
//	events        События chain.completed (RabbitMQ)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Atento/internal/cli"
	"github.com/shaiso/Atento/internal/runner"
	"github.com/shaiso/Atento/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "atento",
		Short:         "Atento — validate and run chains of scripts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultAPI := os.Getenv("ATENTO_API_URL")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:8080"
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultAPI, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log step execution to stderr")

	loggerFn := sync.OnceValue(func() *slog.Logger {
		return telemetry.SetupCLILogger(os.Stderr, verbose)
	})
	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	depsFn := func() cli.Deps {
		logger := loggerFn()
		return cli.Deps{
			Logger:       logger,
			Runner:       runner.NewSystemRunner(runner.Config{Logger: logger}),
			OpenRecorder: cli.OpenRecorder(logger),
		}
	}

	rootCmd.AddCommand(
		cli.NewRunCmd(depsFn, outputFn),
		cli.NewValidateCmd(outputFn),
		cli.NewInterpretersCmd(outputFn),
		cli.NewSchedulesCmd(outputFn),
		cli.NewRunsCmd(clientFn, outputFn),
		cli.NewEventsCmd(loggerFn, outputFn),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if errors.Is(err, cli.ErrChainFailed) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
