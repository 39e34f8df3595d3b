package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/stmtcheck/internal/config"
	"github.com/cleared-dev/stmtcheck/internal/integrity"
	"github.com/cleared-dev/stmtcheck/internal/llm"
	"github.com/cleared-dev/stmtcheck/internal/pdftext"
	"github.com/cleared-dev/stmtcheck/internal/report"
	"github.com/cleared-dev/stmtcheck/internal/runlog"
	"github.com/cleared-dev/stmtcheck/internal/statement"
)

type analyzeOptions struct {
	json          bool
	export        string
	sample        int
	skipIntegrity bool
}

func newAnalyzeCommand(global *globalOptions) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <file.pdf>",
		Short: "Check that a PDF is a business bank statement and reconcile it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := global.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if !cmd.Flags().Changed("sample") {
				opts.sample = cfg.Report.Sample
			}
			return runAnalyze(cmd, cfg, log, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "print the analysis as JSON")
	cmd.Flags().StringVar(&opts.export, "export", "", "write transactions to a .csv or .xlsx file")
	cmd.Flags().IntVar(&opts.sample, "sample", report.DefaultSample, "number of transactions to list")
	cmd.Flags().BoolVar(&opts.skipIntegrity, "skip-integrity", false, "skip the page integrity checks")

	return cmd
}

func runAnalyze(cmd *cobra.Command, cfg *config.Config, log *zap.Logger, path string, opts analyzeOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	if err := pdftext.Validate(path, cfg.PDF.MaxFileMB); err != nil {
		return err
	}
	doc, err := pdftext.Open(path, cfg.PDF.MaxPages)
	if err != nil {
		return err
	}
	defer doc.Close()

	if !opts.json {
		if err := report.WriteMetadata(out, doc.Metadata()); err != nil {
			return err
		}
		fmt.Fprintln(out, "\nAnalyzing document...")
	}

	client, err := llm.New(llm.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		TransactionModel:  cfg.LLM.TransactionModel,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Timeout:           cfg.LLM.Timeout,
	}, log)
	if err != nil {
		return err
	}

	tolerance, err := cfg.Reconcile.ToleranceValue()
	if err != nil {
		return err
	}
	analyzer := statement.NewAnalyzer(client, statement.Options{
		Concurrency:      cfg.Extraction.Concurrency,
		MaxTransactions:  cfg.Extraction.MaxTransactions,
		Tolerance:        tolerance,
		Integrity:        integrityChecker(cfg, client, opts.skipIntegrity),
		EnforceIntegrity: cfg.Integrity.Enforce,
	}, log)

	start := time.Now()
	analysis, err := analyzer.Analyze(ctx, doc)
	log.Info("analysis finished", zap.String("file", path), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
	recordRun(cfg, log, path, start, analysis, err)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", path, err)
	}

	if opts.json {
		err = report.WriteJSON(out, analysis)
	} else {
		fmt.Fprintln(out)
		err = report.WriteText(out, analysis, opts.sample)
	}
	if err != nil {
		return err
	}

	if opts.export != "" {
		if err := report.Export(opts.export, analysis); err != nil {
			return err
		}
		if !opts.json {
			fmt.Fprintf(out, "\nExported %d transactions to %s\n", len(analysis.Transactions), opts.export)
		}
	}

	if !analysis.Valid() {
		return ErrInvalid
	}
	return nil
}

// integrityChecker returns nil when the checks are disabled. Pages are only
// sent to the LLM auditor with integrity.ai_audit set.
func integrityChecker(cfg *config.Config, client *llm.Client, skip bool) *integrity.Checker {
	if skip || !cfg.Integrity.Enabled {
		return nil
	}
	var auditor integrity.PageAuditor
	if cfg.Integrity.AIAudit {
		auditor = client
	}
	return integrity.NewChecker(auditor, cfg.PDF.MaxPages)
}

// recordRun appends to the run log when one is configured. Failures are only
// logged.
func recordRun(cfg *config.Config, log *zap.Logger, path string, start time.Time, a *statement.Analysis, runErr error) {
	if cfg.Report.RunLogDir == "" {
		return
	}
	entry := runlog.NewEntry(path, start, a, runErr)
	if err := runlog.Append(cfg.Report.RunLogDir, entry); err != nil {
		log.Warn("failed to write run log", zap.String("dir", cfg.Report.RunLogDir), zap.Error(err))
	}
}
