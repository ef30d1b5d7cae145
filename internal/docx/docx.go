// Package docx reads and writes the subset of WordprocessingML (.docx) the
// template flow needs: raw text out of uploaded templates, and a single
// paragraph document for exports.
package docx

import "errors"

// ErrInvalidPackage reports content that is not a readable .docx package.
var ErrInvalidPackage = errors.New("docx: invalid package")

const (
	documentPart = "word/document.xml"
	mainNS       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)
