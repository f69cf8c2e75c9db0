// cmd/loan-desk/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loan-desk/internal/common/config"
	"loan-desk/internal/common/console"
	"loan-desk/internal/common/logger"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "loan-desk",
		Short:         "Collect, resume and review loan applications from the console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Apply for a loan, resume an application or check its status",
		RunE:  runUser,
	}

	lenderCmd = &cobra.Command{
		Use:   "lender",
		Short: "List, filter, review and summarize applications",
		RunE:  runLender,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (default: configs/config.yaml)")
	rootCmd.AddCommand(userCmd, lenderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func runUser(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app, p *console.Prompter) error {
		repl, err := a.userREPL()
		if err != nil {
			return err
		}
		return repl.Run(ctx, p)
	})
}

func runLender(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app, p *console.Prompter) error {
		return a.lenderREPL().Run(ctx, p)
	})
}

func withApp(ctx context.Context, run func(ctx context.Context, a *app, p *console.Prompter) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	p := console.NewPrompter(os.Stdin, os.Stdout, cfg.Session.ExitSentinel)
	return run(ctx, a, p)
}
