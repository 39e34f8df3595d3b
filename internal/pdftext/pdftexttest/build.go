// Package pdftexttest builds small, valid text PDFs for tests.
package pdftexttest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Info is the document information dictionary written to the trailer.
type Info struct {
	Title    string
	Author   string
	Producer string
}

// Build returns a PDF with one page per entry in pages; each page's text is
// split on "\n" into lines.
func Build(info Info, pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 5+2*i)
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	obj(infoDict(info))

	for i, text := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 6+2*i))
		content := contentStream(text)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

// Write builds a PDF into dir/name and returns its path.
func Write(t testing.TB, dir, name string, info Info, pages ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(info, pages...), 0o644); err != nil {
		t.Fatalf("writing pdf fixture: %v", err)
	}
	return path
}

func infoDict(info Info) string {
	var parts []string
	if info.Title != "" {
		parts = append(parts, "/Title ("+escape(info.Title)+")")
	}
	if info.Author != "" {
		parts = append(parts, "/Author ("+escape(info.Author)+")")
	}
	if info.Producer != "" {
		parts = append(parts, "/Producer ("+escape(info.Producer)+")")
	}
	return "<< " + strings.Join(parts, " ") + " >>"
}

func contentStream(text string) string {
	var b strings.Builder
	b.WriteString("BT\n/F1 10 Tf\n12 TL\n72 740 Td\n")
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(&b, "(%s) Tj\nT*\n", escape(line))
	}
	b.WriteString("ET")
	return b.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
