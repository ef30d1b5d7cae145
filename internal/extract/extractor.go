// Package extract turns template documents into plain text. The strategy is
// picked by Format: raw text for .docx, page-ordered text fragments for .pdf.
package extract

import (
	"context"
	"errors"
	"fmt"

	"latexify/internal/docx"
)

// ErrUnreadable reports content that could not be parsed in its declared format.
var ErrUnreadable = errors.New("extract: unreadable document")

type Extractor struct {
	openPDF func(ctx context.Context, content []byte) (pageSource, error)
}

func New() *Extractor {
	return &Extractor{openPDF: openPDFKit}
}

// Extract returns the plain text of content interpreted as format f.
func (e *Extractor) Extract(ctx context.Context, content []byte, f Format) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch f {
	case FormatDOCX:
		text, err := docx.RawText(content)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		return text, nil
	case FormatPDF:
		src, err := e.openPDF(ctx, content)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		return joinPages(ctx, src)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// ExtractFile resolves the format from name and extracts content with it.
// Unrecognized suffixes fail before content is touched.
func (e *Extractor) ExtractFile(ctx context.Context, content []byte, name string) (string, error) {
	f, err := FormatOf(name)
	if err != nil {
		return "", err
	}
	return e.Extract(ctx, content, f)
}
