package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-dispatch/internal/config"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// assessAction runs the risk pipeline on one proposal file without dispatching it.
func assessAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a := newAssessApp(cfg, log)
	defer a.close()

	proposal, snapshot, err := a.loadProposal(cmd.String("proposal"))
	if err != nil {
		return err
	}

	assessment, err := a.risk.Assess(ctx, proposal, snapshot, types.PortfolioFromProposal(proposal))
	if err != nil {
		return err
	}

	fmt.Print(RenderAssessment(proposal, assessment))

	return nil
}

// executeAction dispatches every proposal file through the executor, optionally waits for the
// orders to settle, then stops the executor and prints the session.
func executeAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a, err := newExecuteApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.executor.Start(ctx); err != nil {
		return err
	}

	a.started = true

	paths := cmd.StringSlice("proposal")
	bar := progressbar.Default(int64(len(paths)))

	for _, path := range paths {
		bar.Describe(fmt.Sprintf("Dispatching %s", filepath.Base(path)))

		proposal, _, err := a.loadProposal(path)
		if err != nil {
			log.Error("Failed to load proposal", zap.String("path", path), zap.Error(err))
			_ = bar.Add(1)

			continue
		}

		trade, err := a.executor.Execute(ctx, proposal)
		if err != nil {
			log.Error("Trade was not executed", zap.String("path", path), zap.Error(err))
		} else {
			log.Info("Trade dispatched", zap.String("id", trade.ID), zap.String("status", string(trade.Status)))
		}

		_ = bar.Add(1)
	}

	waitForSettlement(ctx, a, cmd.Duration("wait"))

	if err := a.executor.Stop(context.WithoutCancel(ctx)); err != nil {
		log.Warn("Executor stopped with errors", zap.Error(err))
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Trades"))

	for _, trade := range a.executor.ListHistory() {
		fmt.Println(RenderTrade(trade))
	}

	for _, trade := range a.executor.ListActive() {
		fmt.Println(RenderTrade(trade))
	}

	if statsPath := cmd.String("stats"); statsPath != "" {
		if err := types.WriteExecutorStats(statsPath, a.executor.Stats()); err != nil {
			return err
		}
	}

	return nil
}

// waitForSettlement polls active trades until none remain, the wait elapses or ctx is done.
func waitForSettlement(ctx context.Context, a *app, wait time.Duration) {
	if wait <= 0 {
		return
	}

	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		a.executor.RefreshActive(ctx)

		if len(a.executor.ListActive()) == 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-ticker.C:
		}
	}
}

func schemaAction(_ context.Context, _ *cli.Command) error {
	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

// configAction prints the effective configuration after defaults and environment are applied.
func configAction(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	cfg.Backend.Binance.SecretKey = redact(cfg.Backend.Binance.SecretKey)
	cfg.Advisory.HTTP.APIKey = redact(cfg.Advisory.HTTP.APIKey)

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	fmt.Print(string(data))

	return nil
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}

	return "********"
}

func main() {
	cmd := &cli.Command{
		Name:    "dispatch",
		Usage:   "Risk-gated trade dispatch",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file. Defaults run against the simulator",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "assess",
				Usage: "Run the risk assessment for a proposal without dispatching it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "proposal",
						Aliases:  []string{"p"},
						Usage:    "Path to the proposal YAML file",
						Required: true,
					},
				},
				Action: assessAction,
			},
			{
				Name:  "execute",
				Usage: "Assess and dispatch proposals to the configured backends",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "proposal",
						Aliases:  []string{"p"},
						Usage:    "Path to a proposal YAML file, may be repeated",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "wait",
						Usage: "How long to poll open orders before stopping the executor",
						Value: 0,
					},
					&cli.StringFlag{
						Name:  "stats",
						Usage: "Write the session statistics to this YAML file",
					},
				},
				Action: executeAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the configuration file",
				Action: schemaAction,
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration",
				Action: configAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		stop()
		log.Fatal(err)
	}
}
