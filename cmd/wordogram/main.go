package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// app carries the state shared by every subcommand once the configuration
// has been loaded.
type app struct {
	configPath string
	config     *Config
	logger     *slog.Logger
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "wordogram [file]",
		Short: "generate text from a word-level Markov chain",
		Long: "wordogram learns which word follows which in the loaded texts and " +
			"generates new text by walking those transitions. Without a subcommand " +
			"it starts an interactive shell, loading file first when given.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd.InOrStdin(), cmd.OutOrStdout(), args)
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "./config.json",
		"path to the JSON configuration file; created with defaults when missing")

	rootCmd.AddCommand(a.genCmd(), a.serveCmd(), versionCmd())
	return rootCmd
}

func (a *app) loadConfig() error {
	config, err := LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.config = config
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.Level()}))
	return nil
}

func (a *app) runShell(in io.Reader, out io.Writer, args []string) error {
	corpus, closeCorpus, err := newCorpus(a.config, a.logger)
	if err != nil {
		return err
	}
	defer closeCorpus()

	shell := NewShell(corpus, a.config.Tokenizer.encodingName(), in, out, isTerminal(in) && isTerminal(out))
	return shell.Run(args...)
}

func (a *app) genCmd() *cobra.Command {
	var maxChars int
	var word string

	genCmd := &cobra.Command{
		Use:   "gen FILE...",
		Short: "load the files and print one generated text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			corpus, closeCorpus, err := newCorpus(a.config, a.logger)
			if err != nil {
				return err
			}
			defer closeCorpus()

			for _, path := range args {
				if _, err = loadFile(corpus, path, a.config.Tokenizer.encodingName()); err != nil {
					return err
				}
			}

			if maxChars == 0 {
				maxChars = a.config.Generator.DefaultMaxChars
			}
			text, err := corpus.Generate(maxChars, word)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	genCmd.Flags().IntVar(&maxChars, "max", 0, "maximum number of characters (default from generator_config)")
	genCmd.Flags().StringVar(&word, "word", "", "word the text starts with")
	return genCmd
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [FILE...]",
		Short: "load the files and serve the HTTP API",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			corpus, closeCorpus, err := newCorpus(a.config, a.logger)
			if err != nil {
				return err
			}
			defer closeCorpus()

			for _, path := range args {
				if _, err = loadFile(corpus, path, a.config.Tokenizer.encodingName()); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler := newAPIMux(NewCorpusAPI(corpus, a.config, a.logger), a.logger)
			if err = runServer(ctx, a.config.Server.Addr, handler, a.logger); err != nil {
				return err
			}
			a.logger.Info("wordogram has shut down.")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print build information",
		Args:  cobra.NoArgs,
		// Printing the version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			v := currentVersion()
			fmt.Fprintf(cmd.OutOrStdout(), "wordogram %s (commit %s, built %s)\n", v.Version, v.Commit, v.BuildDate)
		},
	}
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
