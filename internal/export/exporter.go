// Package export serializes generated text into a downloadable .docx and
// hands it to a Saver.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"latexify/internal/docx"
)

var ErrExport = errors.New("export: document export failed")

const DefaultFileName = "generated_document.docx"

// Saver receives a finished export. Implementations decide where it goes:
// a directory, an HTTP response, a test buffer.
type Saver interface {
	Save(ctx context.Context, name, contentType string, data []byte) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, name, contentType string, data []byte) error

func (f SaverFunc) Save(ctx context.Context, name, contentType string, data []byte) error {
	return f(ctx, name, contentType, data)
}

type Exporter struct {
	fileName string
	build    func(text string) ([]byte, error)
}

func New(fileName string) *Exporter {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &Exporter{fileName: fileName, build: docx.SingleParagraph}
}

func (e *Exporter) FileName() string { return e.fileName }

// Export wraps text as the single run of a single paragraph and saves it
// under the fixed file name. Each call builds and saves independently.
func (e *Exporter) Export(ctx context.Context, text string, saver Saver) error {
	if saver == nil {
		return fmt.Errorf("%w: no saver", ErrExport)
	}
	data, err := e.build(text)
	if err != nil {
		return fmt.Errorf("%w: build: %v", ErrExport, err)
	}
	if err := saver.Save(ctx, e.fileName, docx.MIMEType, data); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrExport, e.fileName, err)
	}
	return nil
}
