package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat reports a filename whose suffix is neither .docx nor .pdf.
var ErrUnsupportedFormat = errors.New("extract: unsupported format")

// Format is the document format tag resolved from a filename suffix.
type Format int

const (
	FormatUnknown Format = iota
	FormatDOCX
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatDOCX:
		return "docx"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// FormatOf resolves the format tag from name's suffix only; content is never
// inspected.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".docx":
		return FormatDOCX, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}
