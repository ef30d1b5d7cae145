package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Paragraphs returns the text of every body paragraph, split into runs.
// Tabs and breaks inside a run are rendered as "\t" and "\n".
func Paragraphs(content []byte) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("%w: %s not found", ErrInvalidPackage, documentPart)
	}
	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidPackage, documentPart, err)
	}
	defer rc.Close()
	return walkParagraphs(rc)
}

// RawText flattens the document the way raw-text extractors do: each
// paragraph's text followed by a blank line, all styling dropped.
func RawText(content []byte) (string, error) {
	paras, err := Paragraphs(content)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, runs := range paras {
		for _, r := range runs {
			sb.WriteString(r)
		}
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

func walkParagraphs(r io.Reader) ([][]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paras     [][]string
		runs      []string
		run       strings.Builder
		paraDepth int
		inRun     bool
		inText    bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				// Nested paragraphs (text boxes) fold into the outer one.
				if paraDepth == 0 {
					runs = nil
				}
				paraDepth++
			case "r":
				if paraDepth > 0 && !inRun {
					inRun = true
					run.Reset()
				}
			case "t":
				inText = inRun
			case "tab":
				if inRun {
					run.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					run.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				run.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				if inRun {
					runs = append(runs, run.String())
					inRun = false
				}
			case "p":
				if paraDepth == 0 {
					continue
				}
				paraDepth--
				if paraDepth == 0 {
					if runs == nil {
						runs = []string{}
					}
					paras = append(paras, runs)
				}
			}
		}
	}
	return paras, nil
}
