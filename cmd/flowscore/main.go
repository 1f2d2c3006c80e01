// Command flowscore analyses invoice documents from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/flowfi/flowai/internal/logger"
	"github.com/flowfi/flowai/pkg/config"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
)

var version = "dev"

type rootOptions struct {
	output   string
	logLevel string
	cfg      *config.Config
	log      logger.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "flowscore",
		Short:         "Invoice risk scoring",
		Long:          `flowscore grades invoices and receivables for factoring with the FlowAI core engine and, optionally, local or cloud language models.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.output != formatText && opts.output != formatJSON {
				return fmt.Errorf("unknown output format %q (want text or json)", opts.output)
			}
			_ = godotenv.Load()
			opts.cfg = config.New()
			opts.log = logger.NewWithWriter(cmd.ErrOrStderr(), opts.logLevel, opts.cfg.LogFormat)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", formatText, "output format (text, json)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(analyzeCmd(opts))
	cmd.AddCommand(infoCmd(opts))
	cmd.AddCommand(modelsCmd(opts))
	cmd.AddCommand(tokenCmd(opts))

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
