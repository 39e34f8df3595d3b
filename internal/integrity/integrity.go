// Package integrity screens statement pages for template placeholders,
// near-empty content and, optionally, an LLM forensic review.
package integrity

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/cleared-dev/stmtcheck/internal/model"
)

// MinContentChars is the fewest non-whitespace characters a real page has.
const MinContentChars = 50

// DefaultMaxPages matches the PDF page limit.
const DefaultMaxPages = 1000

var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[.*?\]`),
	regexp.MustCompile(`\{\{.*?\}\}`),
	regexp.MustCompile(`<.*?>`),
	regexp.MustCompile(`___+`),
	regexp.MustCompile(`(?i)XXXX+`),
	regexp.MustCompile(`(?i)\bN/A\b`),
	regexp.MustCompile(`(?i)\bTBD\b`),
	regexp.MustCompile(`(?i)\bPLACEHOLDER\b`),
	regexp.MustCompile(`(?i)\bINSERT .* HERE\b`),
}

// PageSource yields page text by 1-based page number.
type PageSource interface {
	NumPages() int
	Page(ctx context.Context, n int) (string, error)
}

// PageAuditor reviews a single page for signs of tampering.
type PageAuditor interface {
	AuditPage(ctx context.Context, text string, page int) (model.PageAudit, error)
}

// Result is the outcome of a page or document check.
type Result struct {
	Valid   bool
	Page    int // 1-based page that failed, 0 when Valid or document-level
	Message string
}

// Checker runs the integrity checks. A nil auditor skips the LLM review.
type Checker struct {
	auditor  PageAuditor
	maxPages int
}

// NewChecker creates a Checker.
func NewChecker(auditor PageAuditor, maxPages int) *Checker {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Checker{auditor: auditor, maxPages: maxPages}
}

// ContainsPlaceholders reports whether text contains template placeholders.
func ContainsPlaceholders(text string) bool {
	for _, re := range placeholderPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsSuspiciouslyEmpty reports whether text has fewer than MinContentChars
// non-whitespace characters.
func IsSuspiciouslyEmpty(text string) bool {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
			if n >= MinContentChars {
				return false
			}
		}
	}
	return true
}

// CheckPage runs the heuristics and then the auditor, if any, on one page.
func (c *Checker) CheckPage(ctx context.Context, text string, page int) (Result, error) {
	if ContainsPlaceholders(text) {
		return Result{Page: page, Message: "Contains template placeholders"}, nil
	}
	if IsSuspiciouslyEmpty(text) {
		return Result{Page: page, Message: "Page appears to be suspiciously empty"}, nil
	}
	if c.auditor == nil {
		return Result{Valid: true, Message: "Page integrity check passed"}, nil
	}

	audit, err := c.auditor.AuditPage(ctx, text, page)
	if err != nil {
		return Result{}, fmt.Errorf("auditing page %d: %w", page, err)
	}
	if !audit.Valid {
		return Result{
			Page: page,
			Message: fmt.Sprintf("AI detected issues (%d%% confidence): %s. %s",
				audit.Confidence, strings.Join(audit.Issues, "; "), audit.Explanation),
		}, nil
	}
	return Result{Valid: true, Message: fmt.Sprintf("AI verification passed (%d%% confidence)", audit.Confidence)}, nil
}

// CheckDocument checks every page in order and stops at the first failure.
func (c *Checker) CheckDocument(ctx context.Context, pages PageSource) (Result, error) {
	n := pages.NumPages()
	if n == 0 {
		return Result{Message: "Document is empty"}, nil
	}
	if n > c.maxPages {
		return Result{Message: "Document is too long"}, nil
	}

	for i := 1; i <= n; i++ {
		text, err := pages.Page(ctx, i)
		if err != nil {
			return Result{}, err
		}
		res, err := c.CheckPage(ctx, text, i)
		if err != nil {
			return Result{}, err
		}
		if !res.Valid {
			res.Message = fmt.Sprintf("Page %d integrity issue: %s", i, res.Message)
			return res, nil
		}
	}
	return Result{Valid: true, Message: "Document integrity check passed"}, nil
}
