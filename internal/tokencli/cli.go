// Package tokencli implements the tokencount command line.
package tokencli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/toolshed/internal/config"
	"github.com/HerbHall/toolshed/internal/tokens"
)

// NewCommand builds the tokencount command. counter may be nil to use the
// process-wide tokens counter.
//
// Flag parsing is disabled: every argument is positional, so text such as
// "-1" or "- item" is counted rather than rejected as an unknown flag.
// Logging is tuned through TOOLSHED_LOGGING_LEVEL and TOOLSHED_LOGGING_FORMAT.
func NewCommand(counter *tokens.Counter) *cobra.Command {
	return &cobra.Command{
		Use:   "tokencount [text-or-filepath] [model]",
		Short: "Count tokens in text or a file",
		Long: `Count the tokens of TEXT under the tiktoken encoding of MODEL.

If the first argument names an existing file its contents are counted,
otherwise the argument itself is. With no arguments "` + tokens.DefaultText + `"
is counted. MODEL defaults to ` + tokens.DefaultModel + `. Further arguments
are ignored.`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, counter, args)
		},
	}
}

func run(cmd *cobra.Command, counter *tokens.Counter, args []string) error {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	text := tokens.DefaultText
	if len(args) > 0 {
		resolved, fromFile, err := ResolveInput(args[0])
		if err != nil {
			return err
		}
		text = resolved
		logger.Debug("input resolved",
			zap.Bool("from_file", fromFile),
			zap.Int("bytes", len(text)),
		)
	}

	model := tokens.DefaultModel
	if len(args) > 1 {
		model = args[1]
	}
	if len(args) > 2 {
		logger.Debug("extra arguments ignored", zap.Int("count", len(args)-2))
	}

	var res tokens.Result
	if counter != nil {
		res = counter.Count(text, model)
	} else {
		res = tokens.Count(text, model)
	}
	if !res.OK() {
		logger.Debug("count failed", zap.String("model", model), zap.Error(res.Err))
		return res.Err
	}

	logger.Debug("count complete", zap.String("model", model), zap.Int("tokens", res.Count))
	_, err := fmt.Fprintln(cmd.OutOrStdout(), res.Count)
	return err
}

// newLogger never fails: an unreadable tokencount.yaml or a bad logging
// setting falls back to the defaults, then to a no-op logger, so the only
// failures a count can report are file and tokenizer errors.
func newLogger() *zap.Logger {
	v, err := config.Load("", "tokencount")
	if err != nil {
		v = viper.New()
		config.SetDefaults(v)
	}
	logger, err := config.NewLogger(v)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Execute runs tokencount with args and returns the process exit status:
// 0 after printing a count, 1 on a file or tokenizer error.
// Diagnostics go to stderr only; stdout carries nothing but the count.
func Execute(args []string, stdout, stderr io.Writer) int {
	return execute(NewCommand(nil), args, stdout, stderr)
}

func execute(cmd *cobra.Command, args []string, stdout, stderr io.Writer) int {
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var fileErr *FileError
	switch {
	case errors.As(err, &fileErr):
		fmt.Fprintf(stderr, "Error reading file: %v\n", fileErr.Err)
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}
