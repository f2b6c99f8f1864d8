package pdftext

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/dslipak/pdf"
)

// ErrDecrypt is returned when the passphrase does not open the document.
var ErrDecrypt = errors.New("unable to decrypt document with the given password")

// Extractor pulls per-page plain text out of PDF documents.
type Extractor struct{}

// NewExtractor creates a new PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns one string per page, lines separated by "\n". Pages without extractable
// text are returned empty.
func (e *Extractor) Extract(ctx context.Context, doc []byte, password string) ([]string, error) {
	r, err := open(doc, password)
	if err != nil {
		return nil, err
	}

	pages := make([]string, r.NumPage())
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages[i] = pageText(r.Page(i+1), i+1)
	}
	return pages, nil
}

func open(doc []byte, password string) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("opening pdf: %v", rec)
		}
	}()

	tried := false
	r, err = pdf.NewReaderEncrypted(bytes.NewReader(doc), int64(len(doc)), func() string {
		if tried {
			return ""
		}
		tried = true
		return password
	})
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, ErrDecrypt
		}
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	return r, nil
}

func pageText(p pdf.Page, num int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("pdftext: page extraction panicked", "page", num, "error", rec)
			text = ""
		}
	}()

	if p.V.IsNull() || p.V.Key("Contents").IsNull() {
		return ""
	}
	return layoutText(p.Content().Text)
}

const (
	// rowTolerance is the baseline distance, as a fraction of the font size, within which
	// glyphs belong to the same line.
	rowTolerance = 0.3
	// spaceGap is the horizontal gap, as a fraction of the font size, that separates words.
	spaceGap = 0.25
)

// layoutText rebuilds text lines from positioned glyphs: rows top to bottom by baseline,
// glyphs left to right within a row, a space wherever the gap between glyphs is word-sized.
func layoutText(glyphs []pdf.Text) string {
	glyphs = slices.DeleteFunc(slices.Clone(glyphs), func(g pdf.Text) bool { return g.S == "" })
	slices.SortStableFunc(glyphs, func(a, b pdf.Text) int { return cmp.Compare(b.Y, a.Y) })

	var rows [][]pdf.Text
	for _, g := range glyphs {
		if n := len(rows); n > 0 {
			anchor := rows[n-1][0]
			if math.Abs(anchor.Y-g.Y) <= rowTolerance*fontSize(anchor, g) {
				rows[n-1] = append(rows[n-1], g)
				continue
			}
		}
		rows = append(rows, []pdf.Text{g})
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		slices.SortStableFunc(row, func(a, b pdf.Text) int { return cmp.Compare(a.X, b.X) })

		var sb strings.Builder
		for j, g := range row {
			if j > 0 {
				prev := row[j-1]
				gap := g.X - (prev.X + prev.W)
				if gap > spaceGap*fontSize(prev, g) &&
					!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(g.S, " ") {
					sb.WriteByte(' ')
				}
			}
			sb.WriteString(g.S)
		}
		lines[i] = sb.String()
	}
	return strings.Join(lines, "\n")
}

func fontSize(a, b pdf.Text) float64 {
	return max(math.Abs(a.FontSize), math.Abs(b.FontSize), 1)
}
