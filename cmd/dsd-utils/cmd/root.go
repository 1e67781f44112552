// Package cmd wires the dsd-utils CLI: a cobra root command with cat,
// analyze, and generate subcommands, viper-backed flag/config/env
// precedence, and the toolkit's single process-wide logger.
package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/scottopell/dogstatsd-utils/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	v        = viper.New()
)

// argConflictError is returned by generate's RunE when mutually exclusive
// flags are both set or --metric-types names an unknown type; the CLI
// maps it to exit code 2.
type argConflictError struct{ msg string }

func (e *argConflictError) Error() string { return e.msg }

// ExitCodeFor maps an error returned from Execute to a process exit code:
// 2 for a generate argument error (argConflictError), 1 for anything else.
func ExitCodeFor(err error) int {
	if _, ok := err.(*argConflictError); ok {
		return 2
	}
	return 1
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dsd-utils",
		Short:         "Inspect, characterize, and synthesize DogStatsD traffic",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLoggingAndConfig()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/dsd-utils/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newCatCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newGenerateCmd())

	return root
}

// Execute runs the dsd-utils root command.
func Execute() error {
	return newRootCmd().Execute()
}

func initLoggingAndConfig() error {
	v.SetEnvPrefix("DSD_UTILS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	} else if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		path := filepath.Join(xdg, "dsd-utils", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
		}
	}

	level := v.GetString("log-level")
	if level == "" {
		level = "info"
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = logging.LevelFromString(strings.ToLower(level))
	l, err := zcfg.Build()
	if err != nil {
		return err
	}
	logging.Set(l.Sugar())
	return nil
}

// openInput opens path for reading, or stdin when path is empty or "-".
// The returned io.Closer is a no-op for stdin.
func openInput(path string) (io.Reader, io.Closer, error) {
	if path == "" || path == "-" {
		return os.Stdin, io.NopCloser(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

// openOutput opens path for writing, or stdout when path is empty or "-".
func openOutput(path string) (io.Writer, io.Closer, error) {
	if path == "" || path == "-" {
		return os.Stdout, io.NopCloser(nil), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}
