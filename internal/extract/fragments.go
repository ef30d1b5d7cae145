package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/wudi/pdfkit/ir/raw"
	"github.com/wudi/pdfkit/scanner"
)

// showFragments returns the text of every Tj, TJ, ' and " operator in a
// decoded content stream, in stream order. Empty fragments are dropped. A
// malformed stream yields the fragments read before the fault.
func showFragments(data []byte, fonts map[string]*fontDecoder) []string {
	tr := newTokenReader(data)
	var (
		out      []string
		operands []raw.Object
		font     *fontDecoder
	)
	emit := func(s string) {
		if s != "" {
			out = append(out, s)
		}
	}
	for {
		tok, err := tr.next()
		if err != nil {
			return out
		}
		switch tok.Type {
		case scanner.TokenInlineImage:
			operands = operands[:0]
			continue
		case scanner.TokenKeyword:
			op, _ := tok.Value().(string)
			switch op {
			case "Tf":
				if len(operands) >= 2 {
					font = fonts[name(operands[len(operands)-2])]
				}
			case "Tj", "'", "\"":
				if s, ok := lastOperand(operands).(raw.String); ok {
					emit(font.decode(s.Value()))
				}
			case "TJ":
				if arr, ok := lastOperand(operands).(raw.Array); ok {
					var sb strings.Builder
					for i := 0; i < arr.Len(); i++ {
						item, _ := arr.Get(i)
						if s, ok := item.(raw.String); ok {
							sb.WriteString(font.decode(s.Value()))
						}
					}
					emit(sb.String())
				}
			}
			operands = operands[:0]
			continue
		}
		tr.unread(tok)
		obj, err := parseObject(tr, 0)
		if err != nil {
			return out
		}
		operands = append(operands, obj)
	}
}

func lastOperand(operands []raw.Object) raw.Object {
	if len(operands) == 0 {
		return nil
	}
	return operands[len(operands)-1]
}

// fontDecoder maps the bytes of a shown string to text for one font.
type fontDecoder struct {
	cmap      *toUnicode
	multiByte bool
}

func (f *fontDecoder) decode(b []byte) string {
	if f != nil && f.cmap != nil {
		return f.cmap.decode(b)
	}
	if f != nil && f.multiByte {
		// CID codes carry no meaning without a ToUnicode map.
		return ""
	}
	return decodeText(b)
}

// decodeText reads UTF-16BE when the bytes carry a byte order mark and
// treats them as one code point per byte otherwise.
func decodeText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		return decodeUTF16BE(b[2:])
	}
	runes := make([]rune, 0, len(b))
	for _, c := range b {
		if c < 0x20 && c != '\t' {
			continue
		}
		runes = append(runes, rune(c))
	}
	return string(runes)
}

func decodeUTF16BE(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units))
}

type tokenReader struct {
	s   scanner.Scanner
	buf []scanner.Token
}

func newTokenReader(data []byte) *tokenReader {
	return &tokenReader{s: scanner.New(bytes.NewReader(data), scanner.Config{})}
}

func (r *tokenReader) next() (scanner.Token, error) {
	if l := len(r.buf); l > 0 {
		t := r.buf[l-1]
		r.buf = r.buf[:l-1]
		return t, nil
	}
	return r.s.Next()
}

func (r *tokenReader) unread(tok scanner.Token) { r.buf = append(r.buf, tok) }

// parseObject reads one operand. Nesting is bounded by maxTreeDepth.
func parseObject(tr *tokenReader, depth int) (raw.Object, error) {
	if depth > maxTreeDepth {
		return nil, fmt.Errorf("operand nesting deeper than %d", maxTreeDepth)
	}
	tok, err := tr.next()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case scanner.TokenName:
		if v, ok := tok.Value().(string); ok {
			return raw.NameLiteral(v), nil
		}
	case scanner.TokenNumber:
		switch v := tok.Value().(type) {
		case int64:
			return raw.NumberInt(v), nil
		case int:
			return raw.NumberInt(int64(v)), nil
		case float64:
			return raw.NumberFloat(v), nil
		}
	case scanner.TokenBoolean:
		if v, ok := tok.Value().(bool); ok {
			return raw.Bool(v), nil
		}
	case scanner.TokenNull:
		return raw.NullObj{}, nil
	case scanner.TokenString:
		if b, ok := tok.Value().([]byte); ok {
			return raw.Str(b), nil
		}
	case scanner.TokenRef:
		// "1 0 RG" and similar operator runs scan as a reference. The
		// operands are discarded by the following keyword anyway.
		return raw.NullObj{}, nil
	case scanner.TokenArray:
		arr := raw.NewArray()
		for {
			t, err := tr.next()
			if err != nil {
				return nil, err
			}
			if t.Type == scanner.TokenKeyword && t.Value() == "]" {
				return arr, nil
			}
			tr.unread(t)
			item, err := parseObject(tr, depth+1)
			if err != nil {
				return nil, err
			}
			arr.Append(item)
		}
	case scanner.TokenDict:
		d := raw.Dict()
		for {
			t, err := tr.next()
			if err != nil {
				return nil, err
			}
			if t.Type == scanner.TokenKeyword && t.Value() == ">>" {
				return d, nil
			}
			key, ok := t.Value().(string)
			if t.Type != scanner.TokenName || !ok {
				return nil, fmt.Errorf("dictionary key is %v", t.Type)
			}
			val, err := parseObject(tr, depth+1)
			if err != nil {
				return nil, err
			}
			d.Set(raw.NameLiteral(key), val)
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok.Type)
}
