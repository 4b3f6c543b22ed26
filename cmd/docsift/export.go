package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsift/internal/export"
	"github.com/dgallion1/docsift/internal/store"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var outPath string
	var limit int
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored records to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, _, closer, err := root.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			st, err := store.Open(ctx, cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			recs, err := st.List(ctx, limit, 0)
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := export.WriteXLSX(f, recs); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(recs), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "docsift-records.xlsx", "output workbook")
	cmd.Flags().IntVar(&limit, "limit", 0, "newest records to export (0 = all)")
	return cmd
}
