package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmtcheck/internal/pdftext"
	"github.com/cleared-dev/stmtcheck/internal/report"
)

func newMetadataCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata <file.pdf>",
		Short: "Print a PDF's document information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			path := args[0]
			if err := pdftext.Validate(path, cfg.PDF.MaxFileMB); err != nil {
				return err
			}
			doc, err := pdftext.Open(path, cfg.PDF.MaxPages)
			if err != nil {
				return err
			}
			defer doc.Close()

			return report.WriteMetadata(cmd.OutOrStdout(), doc.Metadata())
		},
	}
}
