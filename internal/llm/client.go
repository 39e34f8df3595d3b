// Package llm extracts structured statement fields from page text using an
// OpenAI-compatible chat completions API with JSON-schema structured output.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cleared-dev/stmtcheck/internal/model"
)

const (
	DefaultModel            = "gpt-4o-2024-08-06"
	DefaultTransactionModel = "gpt-4o-mini"
	DefaultTimeout          = 2 * time.Minute
)

var (
	// ErrNoAPIKey is returned by New without an API key.
	ErrNoAPIKey = errors.New("no API key configured")
	// ErrMalformedResponse is returned when a completion cannot be decoded
	// into the requested shape.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrRefused is returned when the model declines to answer.
	ErrRefused = errors.New("model refused request")
)

// Error records the extraction step that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "llm " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Config configures a Client.
type Config struct {
	APIKey            string
	BaseURL           string        // empty for the OpenAI default
	Model             string        // statement checks, business info, balances, audits
	TransactionModel  string        // per-page transaction extraction
	RequestsPerSecond float64       // 0 disables pacing
	Timeout           time.Duration // per request
}

// Client talks to the completions API. Safe for concurrent use.
type Client struct {
	api     *openai.Client
	cfg     Config
	limiter *rate.Limiter
	log     *zap.Logger
}

// New creates a Client. A nil logger disables logging.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.TransactionModel == "" {
		cfg.TransactionModel = DefaultTransactionModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     log.Named("llm"),
	}, nil
}

// complete sends one structured-output request and decodes the reply into T.
func complete[T any](ctx context.Context, c *Client, op, modelName string, p prompt, data promptData) (T, error) {
	var out T

	fail := func(err error) (T, error) {
		var zero T
		return zero, &Error{Op: op, Err: err}
	}

	user, err := p.render(data)
	if err != nil {
		return fail(fmt.Errorf("rendering prompt: %w", err))
	}
	schema, err := jsonschema.GenerateSchemaForType(out)
	if err != nil {
		return fail(fmt.Errorf("generating schema: %w", err))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fail(err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   p.name,
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return fail(err)
	}

	c.log.Debug("completion",
		zap.String("op", op),
		zap.String("model", modelName),
		zap.Int("page", data.Page),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	if len(resp.Choices) == 0 {
		return fail(fmt.Errorf("%w: no choices", ErrMalformedResponse))
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return fail(fmt.Errorf("%w: %s", ErrRefused, msg.Refusal))
	}
	if err := json.Unmarshal([]byte(msg.Content), &out); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	return out, nil
}

func (c *Client) verdict(ctx context.Context, op string, p prompt, text string) (model.StatementVerdict, error) {
	r, err := complete[verdictResponse](ctx, c, op, c.cfg.Model, p, promptData{Text: text})
	if err != nil {
		return model.StatementVerdict{}, err
	}
	return r.verdict(), nil
}

// CheckBankInfo asks whether the text names a bank.
func (c *Client) CheckBankInfo(ctx context.Context, text string) (model.StatementVerdict, error) {
	return c.verdict(ctx, "check bank info", bankInfoPrompt, text)
}

// CheckStatementPeriod asks whether the text states a statement period.
func (c *Client) CheckStatementPeriod(ctx context.Context, text string) (model.StatementVerdict, error) {
	return c.verdict(ctx, "check statement period", statementPeriodPrompt, text)
}

// CheckCustomerInfo asks whether the text identifies the account holder.
func (c *Client) CheckCustomerInfo(ctx context.Context, text string) (model.StatementVerdict, error) {
	return c.verdict(ctx, "check customer info", customerInfoPrompt, text)
}

// ClassifyStatement makes the final business bank statement determination.
func (c *Client) ClassifyStatement(ctx context.Context, text string) (model.StatementVerdict, error) {
	return c.verdict(ctx, "classify statement", classifyPrompt, text)
}

// ExtractBusinessInfo extracts the account holder's name and address.
func (c *Client) ExtractBusinessInfo(ctx context.Context, text string) (model.BusinessInfo, error) {
	r, err := complete[businessResponse](ctx, c, "extract business info", c.cfg.Model, businessInfoPrompt, promptData{Text: text})
	if err != nil {
		return model.BusinessInfo{}, err
	}
	return r.info(), nil
}

// ExtractBalances extracts the opening and closing balances. A balance the
// model could not find yields an error wrapping model.ErrMissingBalance.
func (c *Client) ExtractBalances(ctx context.Context, text string) (model.BalanceSummary, error) {
	const op = "extract balances"
	r, err := complete[balancesResponse](ctx, c, op, c.cfg.Model, balancesPrompt, promptData{Text: text})
	if err != nil {
		return model.BalanceSummary{}, err
	}
	sum, err := r.summary()
	if err != nil {
		return model.BalanceSummary{}, &Error{Op: op, Err: err}
	}
	return sum, nil
}

// ExtractTransactions extracts the transactions on one page, in page order.
func (c *Client) ExtractTransactions(ctx context.Context, text string, page int) ([]model.Transaction, error) {
	op := fmt.Sprintf("extract transactions (page %d)", page)
	r, err := complete[pageTransactionsResponse](ctx, c, op, c.cfg.TransactionModel, transactionsPrompt, promptData{Text: text, Page: page})
	if err != nil {
		return nil, err
	}

	txns := make([]model.Transaction, 0, len(r.Transactions))
	for i, row := range r.Transactions {
		txn, err := row.transaction(page)
		if err != nil {
			return nil, &Error{Op: op, Err: fmt.Errorf("%w: transaction %d: %v", ErrMalformedResponse, i+1, err)}
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// AuditPage runs a forensic review of one page.
func (c *Client) AuditPage(ctx context.Context, text string, page int) (model.PageAudit, error) {
	op := fmt.Sprintf("audit page %d", page)
	r, err := complete[auditResponse](ctx, c, op, c.cfg.Model, auditPrompt, promptData{Text: text, Page: page})
	if err != nil {
		return model.PageAudit{}, err
	}
	return r.audit(), nil
}
