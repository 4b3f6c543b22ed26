package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsift/internal/app"
	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/pipeline"
	"github.com/dgallion1/docsift/internal/store"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var asJSON, save bool
	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Analyze one or more documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, closer, err := root.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := app.Build(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			var st *store.Store
			if save {
				st, err = store.Open(ctx, cfg.DBPath)
				if err != nil {
					return err
				}
				defer st.Close()
			}

			out := cmd.OutOrStdout()
			var failed int
			for _, path := range args {
				rec, err := a.Analyzer.AnalyzeFile(ctx, path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				if st != nil {
					if err := saveRecord(cmd, st, path, &rec); err != nil {
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					}
				}
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(rec); err != nil {
						return err
					}
				} else {
					printRecord(out, rec)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "store records in the database")
	return cmd
}

func saveRecord(cmd *cobra.Command, st *store.Store, path string, rec *doctree.Record) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	rec.ContentHash = pipeline.ContentHashHex(data)
	existing, err := st.GetByHash(cmd.Context(), rec.ContentHash)
	switch {
	case err == nil:
		rec.ID = existing.ID
	case errors.Is(err, store.ErrNotFound):
		rec.ID = pipeline.NewID()
	default:
		return err
	}
	return st.Save(cmd.Context(), *rec)
}

func printRecord(w io.Writer, rec doctree.Record) {
	fmt.Fprintf(w, "== %s\n", rec.Source)
	fmt.Fprintf(w, "Title:    %s\n", rec.Title)
	fmt.Fprintf(w, "Words:    %d\n", rec.TextLength)
	fmt.Fprintf(w, "Keywords: %s\n", strings.Join(rec.Keywords, ", "))
	fmt.Fprintf(w, "Summary:\n%s\n", rec.Summary)
	if rec.TableOfContents != "" {
		fmt.Fprintf(w, "Contents:\n%s\n", rec.TableOfContents)
	}
	fmt.Fprintln(w)
}
