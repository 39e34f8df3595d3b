package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stmtcheck/internal/pdftext/pdftexttest"
)

func TestMetadata(t *testing.T) {
	dir := t.TempDir()
	path := pdftexttest.Write(t, dir, "doc.pdf",
		pdftexttest.Info{Title: "January Statement", Author: "First Example Bank"},
		"page one", "page two")

	// No API key needed.
	out, err := runStmtcheck(t, dir, nil, "metadata", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "PDF Metadata:")
	assert.Contains(t, out, "Pages: 2")
	assert.Contains(t, out, "Title: January Statement")
	assert.Contains(t, out, "Author: First Example Bank")
	assert.Contains(t, out, "Creator: Not available")
}

func TestMetadata_NotAPDF(t *testing.T) {
	dir := t.TempDir()
	out, err := runStmtcheck(t, dir, nil, "metadata", testdata(t, "transactions.csv"))
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, out, "file is not a PDF")
}
