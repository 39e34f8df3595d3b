// Package statement runs the analysis pipeline over a statement's pages:
// statement check, business info, balances, transactions and reconciliation.
package statement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/stmtcheck/internal/businessinfo"
	"github.com/cleared-dev/stmtcheck/internal/id"
	"github.com/cleared-dev/stmtcheck/internal/integrity"
	"github.com/cleared-dev/stmtcheck/internal/model"
	"github.com/cleared-dev/stmtcheck/internal/reconcile"
)

// DefaultConcurrency is the number of pages extracted at once.
const DefaultConcurrency = 4

var (
	// ErrMissingBalance is returned when the opening or closing balance
	// cannot be extracted.
	ErrMissingBalance = model.ErrMissingBalance
	// ErrNoPages is returned for a document without pages.
	ErrNoPages = errors.New("document has no pages")
)

// PageSource yields page text by 1-based page number. Page may be called
// from several goroutines.
type PageSource interface {
	NumPages() int
	Page(ctx context.Context, n int) (string, error)
}

// Checker answers the statement questions asked of the first page.
type Checker interface {
	CheckBankInfo(ctx context.Context, text string) (model.StatementVerdict, error)
	CheckStatementPeriod(ctx context.Context, text string) (model.StatementVerdict, error)
	CheckCustomerInfo(ctx context.Context, text string) (model.StatementVerdict, error)
	ClassifyStatement(ctx context.Context, text string) (model.StatementVerdict, error)
}

// Extractor is the field extraction service.
type Extractor interface {
	Checker
	ExtractBusinessInfo(ctx context.Context, text string) (model.BusinessInfo, error)
	ExtractBalances(ctx context.Context, text string) (model.BalanceSummary, error)
	ExtractTransactions(ctx context.Context, text string, page int) ([]model.Transaction, error)
}

// Options tune an Analyzer.
type Options struct {
	Concurrency     int             // pages extracted at once, DefaultConcurrency if <= 0
	MaxTransactions int             // reconcile.MaxTransactions if <= 0
	Tolerance       decimal.Decimal // overrides the currency tolerance when positive

	// Integrity, when set, screens every page before analysis. Failures only
	// stop the pipeline when EnforceIntegrity is true.
	Integrity        *integrity.Checker
	EnforceIntegrity bool
}

// Analysis is the outcome of Analyze. The first false flag, in field order,
// names the stage that failed and Reason explains it.
type Analysis struct {
	IsBankStatement   bool
	ValidBusinessInfo bool
	ValidBalances     bool
	Reason            string

	Integrity      *integrity.Result
	Business       businessinfo.Result
	Balances       model.BalanceSummary
	Reconciliation *reconcile.Result
	Transactions   []model.Transaction
	Truncated      bool // more than MaxTransactions were found
}

// Valid reports whether every stage passed.
func (a *Analysis) Valid() bool {
	return a.IsBankStatement && a.ValidBusinessInfo && a.ValidBalances
}

// Analyzer runs the pipeline. Safe for concurrent use if the Extractor is.
type Analyzer struct {
	ext  Extractor
	opts Options
	log  *zap.Logger
}

// NewAnalyzer creates an Analyzer. A nil logger disables logging.
func NewAnalyzer(ext Extractor, opts Options, log *zap.Logger) *Analyzer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MaxTransactions <= 0 || opts.MaxTransactions > reconcile.MaxTransactions {
		opts.MaxTransactions = reconcile.MaxTransactions
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{ext: ext, opts: opts, log: log.Named("statement")}
}

// IsBusinessStatement checks the first page for bank info, a statement period
// and customer info, then asks for a final classification. It stops at the
// first check that fails.
func (a *Analyzer) IsBusinessStatement(ctx context.Context, firstPage string) (model.StatementVerdict, error) {
	steps := []struct {
		name    string
		missing string
		check   func(context.Context, string) (model.StatementVerdict, error)
	}{
		{"bank info", "No bank information found.", a.ext.CheckBankInfo},
		{"statement period", "No statement period information found.", a.ext.CheckStatementPeriod},
		{"customer info", "No customer information found.", a.ext.CheckCustomerInfo},
	}

	for _, s := range steps {
		v, err := s.check(ctx, firstPage)
		if err != nil {
			return model.StatementVerdict{}, fmt.Errorf("checking %s: %w", s.name, err)
		}
		if !v.IsBankStatement {
			return model.StatementVerdict{Reason: strings.TrimSpace(s.missing + " " + v.Reason)}, nil
		}
		a.log.Debug("statement check passed", zap.String("check", s.name))
	}

	v, err := a.ext.ClassifyStatement(ctx, firstPage)
	if err != nil {
		return model.StatementVerdict{}, fmt.Errorf("classifying statement: %w", err)
	}
	return v, nil
}

// ExtractTransactions extracts every page's transactions, several pages at a
// time, and returns them in statement order with IDs assigned. Blank pages
// are skipped. The result is cut to MaxTransactions; truncated reports
// whether that happened.
func (a *Analyzer) ExtractTransactions(ctx context.Context, doc PageSource) (txns []model.Transaction, truncated bool, err error) {
	n := doc.NumPages()
	perPage := make([][]model.Transaction, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	for page := 1; page <= n; page++ {
		g.Go(func() error {
			text, err := doc.Page(gctx, page)
			if err != nil {
				return fmt.Errorf("reading page %d: %w", page, err)
			}
			if strings.TrimSpace(text) == "" {
				a.log.Debug("skipping blank page", zap.Int("page", page))
				return nil
			}
			found, err := a.ext.ExtractTransactions(gctx, text, page)
			if err != nil {
				return fmt.Errorf("extracting transactions from page %d: %w", page, err)
			}
			a.log.Debug("page extracted", zap.Int("page", page), zap.Int("transactions", len(found)))
			perPage[page-1] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	total := 0
	for _, p := range perPage {
		total += len(p)
	}
	txns = make([]model.Transaction, 0, min(total, a.opts.MaxTransactions))
	for _, p := range perPage {
		txns = append(txns, p...)
	}
	if len(txns) > a.opts.MaxTransactions {
		a.log.Warn("transaction limit exceeded, truncating",
			zap.Int("found", len(txns)),
			zap.Int("limit", a.opts.MaxTransactions),
		)
		txns = txns[:a.opts.MaxTransactions:a.opts.MaxTransactions]
		truncated = true
	}

	id.Assign(txns)
	return txns, truncated, nil
}

// Analyze runs the full pipeline over doc. Verdicts are reported through the
// Analysis; an error means the pipeline itself could not finish.
func (a *Analyzer) Analyze(ctx context.Context, doc PageSource) (*Analysis, error) {
	if doc.NumPages() == 0 {
		return nil, ErrNoPages
	}
	res := &Analysis{}

	if a.opts.Integrity != nil {
		ir, err := a.opts.Integrity.CheckDocument(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("checking integrity: %w", err)
		}
		res.Integrity = &ir
		if !ir.Valid {
			if a.opts.EnforceIntegrity {
				res.Reason = "Document integrity check failed: " + ir.Message
				return res, nil
			}
			a.log.Warn("integrity check failed", zap.Int("page", ir.Page), zap.String("reason", ir.Message))
		}
	}

	first, err := doc.Page(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("reading first page: %w", err)
	}
	a.log.Info("first page extracted", zap.Int("chars", len(first)))

	verdict, err := a.IsBusinessStatement(ctx, first)
	if err != nil {
		return nil, err
	}
	if !verdict.IsBankStatement {
		res.Reason = verdict.Reason
		return res, nil
	}
	res.IsBankStatement = true

	info, err := a.ext.ExtractBusinessInfo(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("extracting business info: %w", err)
	}
	res.Business = businessinfo.Check(info)
	if !res.Business.Valid() {
		res.Reason = "Invalid business information: " + res.Business.Reason()
		return res, nil
	}
	res.ValidBusinessInfo = true

	balances, err := a.ext.ExtractBalances(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("extracting balances: %w", err)
	}
	res.Balances = balances

	res.Transactions, res.Truncated, err = a.ExtractTransactions(ctx, doc)
	if err != nil {
		return nil, err
	}
	a.log.Info("transactions extracted", zap.Int("count", len(res.Transactions)), zap.Bool("truncated", res.Truncated))

	rec, err := reconcile.Reconcile(balances.Opening, balances.Closing, res.Transactions, reconcile.Options{Tolerance: a.opts.Tolerance})
	switch {
	case errors.Is(err, reconcile.ErrMixedCurrency), errors.Is(err, reconcile.ErrCurrencyMismatch):
		res.Reason = err.Error()
		return res, nil
	case err != nil:
		return nil, fmt.Errorf("reconciling: %w", err)
	}

	res.Reconciliation = &rec
	res.Balances = rec.Summary(balances.OpeningDate, balances.ClosingDate)
	res.ValidBalances = rec.Valid()
	res.Reason = rec.Reason
	return res, nil
}
