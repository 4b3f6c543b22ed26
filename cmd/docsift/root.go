package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsift/internal/config"
)

type rootOptions struct {
	dbPath  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "docsift",
		Short: "Analyze documents into keywords, summary and table of contents",
		Long: `docsift extracts the text of PPTX, PDF, DOCX, Markdown, HTML and plain
text documents and produces, for each one, a title, a word count, key phrases,
a summary and a table of contents.

Configuration comes from the environment (and DOCSIFT_CONFIG, a YAML file).`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "record database (default DB_PATH)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	cmd.AddCommand(newAnalyzeCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	return cmd
}

// load reads the configuration and builds the CLI logger. Logs stay quiet
// unless --verbose or LOG_FILE asks for them.
func (o *rootOptions) load(stderr io.Writer) (config.Config, *slog.Logger, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if cfg.LogFile != "" {
		log, closer := cfg.NewLogger()
		return cfg, log, closer, nil
	}
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return cfg, log, io.NopCloser(nil), nil
}
