package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"autonomous_spa_agent/config"
	"autonomous_spa_agent/cycle"
	"autonomous_spa_agent/generator"
	"autonomous_spa_agent/publisher"
	"autonomous_spa_agent/scheduler"
	"autonomous_spa_agent/server"
	"autonomous_spa_agent/validator"
)

var (
	runOnce bool
	runAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run generation cycles",
	Long: `Run an initial generation cycle, then one per day at the configured time.
With --once, run exactly one cycle and exit non-zero if it failed.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single cycle and exit")
	runCmd.Flags().StringVar(&runAddr, "addr", "", "status server listen address (overrides server_addr)")
	rootCmd.AddCommand(runCmd)
}

type pipeline struct {
	orchestrator *cycle.Orchestrator
	publisher    *publisher.Publisher
}

func buildPipeline(ctx context.Context, cfg config.Config, logger *log.Logger) (*pipeline, error) {
	llm, err := buildLLM(ctx, cfg.Backend)
	if err != nil {
		return nil, err
	}
	mirror, err := buildMirror(cfg.Mirror)
	if err != nil {
		return nil, err
	}
	pub, err := publisher.New(cfg.Git, mirror, verbose, logger)
	if err != nil {
		return nil, err
	}

	ideas, err := generator.NewIdeaGenerator(llm, pub.Catalog(), generator.IdeaOptions{
		Categories:  cfg.Categories,
		Temperature: cfg.Generation.IdeaTemperature,
		MaxTokens:   cfg.Generation.IdeaMaxTokens,
		Verbose:     verbose,
	}, logger)
	if err != nil {
		return nil, err
	}
	agent, err := generator.NewAgent(llm, cfg.Generation.MaxTokens, verbose, logger)
	if err != nil {
		return nil, err
	}

	orch, err := cycle.New(ideas, agent, validator.New(logger), pub, cycle.Options{
		MaxRetries:           cfg.Generation.MaxRetries,
		Temperature:          cfg.Generation.Temperature,
		TemperatureIncrement: cfg.Generation.TemperatureIncrement,
	}, logger)
	if err != nil {
		return nil, err
	}
	if pr, ok := llm.(generator.ProvenanceReporter); ok {
		orch.WithProvenance(pr)
	}
	logger.Printf("[cli] backend %s, repo %s", llm.Name(), pub.Root())
	return &pipeline{orchestrator: orch, publisher: pub}, nil
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Default()
	p, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if runOnce {
		logger.Printf("[cli] running single generation cycle")
		out := p.orchestrator.Run(ctx)
		if !out.Succeeded() {
			return fmt.Errorf("cycle %s %s: %w", out.CycleID, out.Status, out.Err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Idea.Slug)
		return nil
	}

	history := server.NewHistory(0)
	listen := cfg.ServerAddr
	if runAddr != "" {
		listen = runAddr
	}
	if listen != "" {
		srv, err := server.New(history, p.publisher.Catalog(), p.publisher.Root(), logger)
		if err != nil {
			return err
		}
		go func() {
			logger.Printf("[server] listening on %s", listen)
			if err := srv.ListenAndServe(ctx, listen); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("[server] [ERROR] %v", err)
			}
		}()
	}

	daily, err := scheduler.NewDaily(cfg.Schedule.Time, cfg.Schedule.Timezone, logger)
	if err != nil {
		return err
	}
	logger.Printf("[sched] scheduled daily generation at %s %s", cfg.Schedule.Time, cfg.Schedule.Timezone)
	err = daily.Run(ctx, func(ctx context.Context) {
		history.Add(p.orchestrator.Run(ctx))
	})
	if errors.Is(err, context.Canceled) {
		logger.Printf("[cli] shutting down")
		return nil
	}
	return err
}
