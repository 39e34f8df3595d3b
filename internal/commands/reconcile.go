package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/stmtcheck/internal/id"
	"github.com/cleared-dev/stmtcheck/internal/importer"
	"github.com/cleared-dev/stmtcheck/internal/model"
	"github.com/cleared-dev/stmtcheck/internal/reconcile"
	"github.com/cleared-dev/stmtcheck/internal/report"
)

type reconcileOptions struct {
	transactions string
	format       string
	opening      string
	closing      string
	currency     string
	sample       int
}

func newReconcileCommand(global *globalOptions) *cobra.Command {
	var opts reconcileOptions

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a transaction CSV against opening and closing balances",
		Long: "Reconcile a transaction CSV against opening and closing balances.\n\n" +
			"Accepts a bank export (--format chase) or the generic\n" +
			"date,description,amount,currency,reference,type format written by\n" +
			"\"analyze --export out.csv\".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := global.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			tolerance, err := cfg.Reconcile.ToleranceValue()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("sample") {
				opts.sample = cfg.Report.Sample
			}
			return runReconcile(cmd, log, opts, tolerance)
		},
	}

	cmd.Flags().StringVar(&opts.transactions, "transactions", "", "transaction CSV (required)")
	cmd.Flags().StringVar(&opts.format, "format", "generic", "CSV format: "+strings.Join(importer.DefaultRegistry().Formats(), ", "))
	cmd.Flags().StringVar(&opts.opening, "opening", "", "opening balance (required)")
	cmd.Flags().StringVar(&opts.closing, "closing", "", "closing balance (required)")
	cmd.Flags().StringVar(&opts.currency, "currency", "", "currency of the balances, e.g. USD")
	cmd.Flags().IntVar(&opts.sample, "sample", report.DefaultSample, "number of transactions to list")
	_ = cmd.MarkFlagRequired("transactions")
	_ = cmd.MarkFlagRequired("opening")
	_ = cmd.MarkFlagRequired("closing")

	return cmd
}

func runReconcile(cmd *cobra.Command, log *zap.Logger, opts reconcileOptions, tolerance decimal.Decimal) error {
	opening, err := parseBalance("opening", opts.opening, opts.currency)
	if err != nil {
		return err
	}
	closing, err := parseBalance("closing", opts.closing, opts.currency)
	if err != nil {
		return err
	}

	txns, err := importer.DefaultRegistry().ParseFile(opts.format, opts.transactions)
	if err != nil {
		return err
	}
	id.Assign(txns)
	log.Debug("parsed transactions", zap.String("file", opts.transactions), zap.Int("count", len(txns)))

	res, err := reconcile.Reconcile(opening, closing, txns, reconcile.Options{Tolerance: tolerance})
	if err != nil {
		return fmt.Errorf("reconciling: %w", err)
	}

	if err := report.WriteReconciliation(cmd.OutOrStdout(), res, txns, opts.sample); err != nil {
		return err
	}

	if !res.Reconciles {
		return ErrInvalid
	}
	return nil
}

func parseBalance(which, s, currency string) (model.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return model.Money{}, fmt.Errorf("parsing %s balance %q: %w", which, s, err)
	}
	return model.NewMoney(d, currency), nil
}
