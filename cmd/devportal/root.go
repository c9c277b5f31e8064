package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/akuity/devportal/pkg/logging"
)

type rootOptions struct {
	LogLevel  string
	LogFormat string
}

func (o *rootOptions) addFlags(flags *pflag.FlagSet) {
	flags.StringVar(
		&o.LogLevel,
		"log-level",
		os.Getenv(logging.LogLevelEnvVar),
		"Log level, one of "+strings.Join(logging.LevelNames(), ", ")+". Defaults to $LOG_LEVEL or info.",
	)
	flags.StringVar(
		&o.LogFormat,
		"log-format",
		os.Getenv(logging.LogFormatEnvVar),
		"Log format: console or json. Defaults to $LOG_FORMAT or console.",
	)
}

// logger returns a logger, writing to w, selected by the flags. The
// process-wide logger is returned when neither flag is set.
func (o *rootOptions) logger(ctx context.Context, w io.Writer) (*logging.Logger, error) {
	if o.LogLevel == "" && o.LogFormat == "" {
		return logging.LoggerFromContext(ctx), nil
	}
	level := logging.InfoLevel
	if o.LogLevel != "" {
		var err error
		if level, err = logging.ParseLevel(o.LogLevel); err != nil {
			return nil, err
		}
	}
	format := logging.DefaultFormat
	if o.LogFormat != "" {
		var err error
		if format, err = logging.ParseFormat(o.LogFormat); err != nil {
			return nil, err
		}
	}
	return logging.NewLoggerWithWriter(level, format, w)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:               "devportal",
		Short:             "Developer portal backend: Kubernetes objects and release management",
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := opts.logger(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cmd.SetContext(logging.ContextWithLogger(cmd.Context(), logger))
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}
	opts.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newPromoteRCCommand())
	cmd.AddCommand(newClustersCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func Execute(ctx context.Context) error {
	return newRootCommand().ExecuteContext(ctx)
}
