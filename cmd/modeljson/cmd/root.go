// Package cmd implements the modeljson command line tool.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/bindings/go/modeljson/config"
	"ocm.software/open-component-model/bindings/go/modeljson/internal/flags/log"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := New().Execute(); err != nil {
		os.Exit(1)
	}
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modeljson [sub-command]",
		Short: "Read, check and rewrite model documents in JSON form",
		Long: `modeljson works with JSON serialized model documents. The classes of a
document are described by schema definition files given with --schema or
listed in the configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: preRun,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	config.RegisterConfigFlag(cmd)
	log.RegisterLoggingFlags(cmd.PersistentFlags())

	cmd.AddCommand(newFormat())
	cmd.AddCommand(newValidate())
	cmd.AddCommand(newDigest())
	cmd.AddCommand(newSchema())
	return cmd
}

type configKey struct{}

// preRun installs the logger and the configuration into the command context.
func preRun(cmd *cobra.Command, _ []string) error {
	logger, err := log.GetBaseLogger(cmd)
	if err != nil {
		return fmt.Errorf("could not retrieve logger: %w", err)
	}
	slog.SetDefault(logger)

	cfg, err := config.ForCommand(cmd)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	if cfg.Path() != "" {
		logger.Debug("using configuration", slog.String("path", cfg.Path()))
	}

	ctx := slogcontext.NewCtx(cmd.Context(), logger)
	cmd.SetContext(context.WithValue(ctx, configKey{}, cfg))

	if parent := cmd.Parent(); parent != nil {
		cmd.SetOut(parent.OutOrStdout())
		cmd.SetErr(parent.ErrOrStderr())
	}
	return nil
}

func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok {
		return nil, errors.New("configuration not set up for command")
	}
	return cfg, nil
}
