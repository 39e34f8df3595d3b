// Package pdftext extracts plain text from PDF bank statements, page by page.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dslipak/pdf"
)

const (
	// DefaultMaxPages bounds the documents we are willing to process.
	DefaultMaxPages = 1000
	// DefaultMaxFileMB bounds the size of the input file.
	DefaultMaxFileMB = 50

	notAvailable = "Not available"
)

var (
	ErrNotFound     = errors.New("file does not exist")
	ErrNotPDF       = errors.New("file is not a PDF")
	ErrTooLarge     = errors.New("file is too large")
	ErrEmpty        = errors.New("document has no pages")
	ErrTooManyPages = errors.New("document has too many pages")
	ErrPageRange    = errors.New("page out of range")
)

// Validate checks that path exists, has a .pdf suffix and is at most maxMB
// megabytes. A non-positive maxMB uses DefaultMaxFileMB.
func Validate(path string, maxMB int) error {
	if maxMB <= 0 {
		maxMB = DefaultMaxFileMB
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotPDF, path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%w: %s", ErrNotPDF, path)
	}

	limit := int64(maxMB) * 1024 * 1024
	if info.Size() > limit {
		return fmt.Errorf("%w: %.2f MB exceeds %d MB", ErrTooLarge, float64(info.Size())/(1024*1024), maxMB)
	}
	return nil
}

// Document is an open PDF. It is safe for concurrent use.
type Document struct {
	path string
	file *os.File

	mu     sync.Mutex // guards reader
	reader *pdf.Reader
	pages  int
}

// Open opens a PDF and checks its page count against maxPages (non-positive
// means DefaultMaxPages).
func Open(path string, maxPages int) (*Document, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat pdf: %w", err)
	}

	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading pdf %s: %w", path, err)
	}

	n := r.NumPage()
	switch {
	case n == 0:
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	case n > maxPages:
		f.Close()
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyPages, n, maxPages)
	}

	return &Document{path: path, file: f, reader: r, pages: n}, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	return d.file.Close()
}

// Path returns the file the document was opened from.
func (d *Document) Path() string {
	return d.path
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return d.pages
}

// Page returns the plain text of page n (1-based).
func (d *Document) Page(ctx context.Context, n int) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if n < 1 || n > d.pages {
		return "", fmt.Errorf("%w: %d not in 1..%d", ErrPageRange, n, d.pages)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// The content-stream interpreter panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting page %d: %v", n, r)
		}
	}()

	p := d.reader.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extracting page %d: %w", n, err)
	}
	return text, nil
}

// FirstPage returns the text of page 1.
func (d *Document) FirstPage(ctx context.Context) (string, error) {
	return d.Page(ctx, 1)
}

// Pages returns the text of every page in order.
func (d *Document) Pages(ctx context.Context) ([]string, error) {
	out := make([]string, 0, d.pages)
	for i := 1; i <= d.pages; i++ {
		text, err := d.Page(ctx, i)
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}

// Metadata is the document information dictionary plus the page count.
type Metadata struct {
	Pages        int
	Title        string
	Author       string
	Creator      string
	Producer     string
	CreationDate string
	ModDate      string
}

// Fields returns the metadata as ordered label/value pairs for display.
func (m Metadata) Fields() [][2]string {
	return [][2]string{
		{"Pages", fmt.Sprintf("%d", m.Pages)},
		{"Title", m.Title},
		{"Author", m.Author},
		{"Creator", m.Creator},
		{"Producer", m.Producer},
		{"Creation Date", m.CreationDate},
		{"Modification Date", m.ModDate},
	}
}

// Metadata reads the trailer's /Info dictionary. Missing entries read
// "Not available".
func (d *Document) Metadata() Metadata {
	d.mu.Lock()
	defer d.mu.Unlock()

	info := d.reader.Trailer().Key("Info")
	get := func(key string) string {
		if info.IsNull() {
			return notAvailable
		}
		v := info.Key(key)
		if v.IsNull() {
			return notAvailable
		}
		if s := strings.TrimSpace(v.Text()); s != "" {
			return s
		}
		return notAvailable
	}

	return Metadata{
		Pages:        d.pages,
		Title:        get("Title"),
		Author:       get("Author"),
		Creator:      get("Creator"),
		Producer:     get("Producer"),
		CreationDate: get("CreationDate"),
		ModDate:      get("ModDate"),
	}
}
