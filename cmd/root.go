// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/config"
	"github.com/xkilldash9x/autosign/internal/observability"
	"github.com/xkilldash9x/autosign/internal/orchestrator"
	"github.com/xkilldash9x/autosign/internal/prompt"
)

type contextKey string

const configKey contextKey = "config"

// launchBrowser starts the browser for a run. Tests replace it.
var launchBrowser orchestrator.Launcher = orchestrator.LaunchChrome

// NewRootCommand builds the autosign command tree with its own viper instance,
// so every invocation starts from pristine state.
func NewRootCommand() *cobra.Command {
	var cfgFile string
	v := viper.New()
	config.SetDefaults(v)

	rootCmd := &cobra.Command{
		Use:          "autosign",
		Short:        "Signs up for one volunteer slot on signup.com from a ranked list of preferences.",
		Version:      Version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeConfig(v, cfgFile); err != nil {
				observability.InitializeLogger(fallbackLoggerConfig())
				return err
			}
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(fallbackLoggerConfig())
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			// Escape codes only make sense on a terminal.
			if !prompt.IsTerminal(os.Stderr) {
				cfg.Logger.Colors = config.ColorConfig{}
			}
			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting autosign", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
		RunE: runSignup,
	}
	rootCmd.SetVersionTemplate(`{{printf "autosign version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")

	flags := rootCmd.Flags()
	flags.Bool("headless", false, "Run Chrome without a visible window")
	flags.Bool("dry-run", false, "Stop with the sign-up modal open; submit nothing")
	flags.String("shots-subdir", "", "Write screenshots under screenshots/NAME")
	flags.Bool("start-only", false, "Only walk the group page into the invitation, then exit")
	for key, flag := range map[string]string{
		"run.headless":     "headless",
		"run.dry_run":      "dry-run",
		"run.shots_subdir": "shots-subdir",
		"run.start_only":   "start-only",
	} {
		// Lookup cannot fail for flags registered above.
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command tree. Errors are logged here; the caller only
// decides the exit code.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	observability.Sync()
	return err
}

func runSignup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	orch, err := orchestrator.New(cfg, observability.GetLogger(), prompt.New(cmd.InOrStdin(), out), out,
		orchestrator.WithLauncher(launchBrowser))
	if err != nil {
		return err
	}

	outcome, err := orch.Run(ctx)
	if err != nil {
		return err
	}
	observability.GetLogger().Debug("Run complete", zap.String("outcome", string(outcome)))
	return nil
}

func configFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// initializeConfig reads the config file, if any, and AUTOSIGN_ environment
// variables into v.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("AUTOSIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment apply.
	}
	return nil
}

func fallbackLoggerConfig() config.LoggerConfig {
	return config.LoggerConfig{Level: "info", Format: "console", ServiceName: "autosign"}
}
