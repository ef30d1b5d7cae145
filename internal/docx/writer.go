package docx

import (
	"bytes"
	"fmt"

	"github.com/gomutex/godocx"
)

// MIMEType is the media type of a .docx package.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// SingleParagraph serializes text as one run in one paragraph of a
// single-section document. The text is stored literally.
func SingleParagraph(text string) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("new document: %w", err)
	}
	doc.AddParagraph(text)

	var out bytes.Buffer
	if err := doc.Write(&out); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return out.Bytes(), nil
}
