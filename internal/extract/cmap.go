package extract

import (
	"sort"

	"github.com/wudi/pdfkit/scanner"
)

// toUnicode is a parsed ToUnicode CMap. Codes are looked up longest first.
type toUnicode struct {
	entries map[string]string
	lengths []int
}

// maxRangeSpan caps how many codes one bfrange entry may expand to.
const maxRangeSpan = 1 << 16

func parseToUnicode(data []byte) *toUnicode {
	m := &toUnicode{entries: make(map[string]string)}
	seen := make(map[int]bool)
	addLen := func(n int) {
		if n > 0 && !seen[n] {
			seen[n] = true
			m.lengths = append(m.lengths, n)
		}
	}

	tr := newTokenReader(data)
	var (
		section string
		strs    [][]byte
		dsts    [][]byte
	)
	inArray := false
	for {
		tok, err := tr.next()
		if err != nil {
			break
		}
		switch tok.Type {
		case scanner.TokenString:
			b, _ := tok.Value().([]byte)
			if inArray {
				dsts = append(dsts, b)
				continue
			}
			strs = append(strs, b)
		case scanner.TokenArray:
			inArray = true
			dsts = dsts[:0]
		case scanner.TokenKeyword:
			kw, _ := tok.Value().(string)
			switch kw {
			case "begincodespacerange", "beginbfchar", "beginbfrange":
				section = kw
				strs = strs[:0]
				continue
			case "endcodespacerange", "endbfchar", "endbfrange":
				section = ""
				strs = strs[:0]
				continue
			case "]":
				inArray = false
			default:
				continue
			}
		default:
			continue
		}

		switch section {
		case "begincodespacerange":
			if len(strs) == 2 {
				addLen(len(strs[0]))
				strs = strs[:0]
			}
		case "beginbfchar":
			if len(strs) == 2 {
				m.entries[string(strs[0])] = decodeUTF16BE(strs[1])
				addLen(len(strs[0]))
				strs = strs[:0]
			}
		case "beginbfrange":
			if len(strs) == 3 {
				m.addRange(strs[0], strs[1], strs[2], nil)
				addLen(len(strs[0]))
				strs = strs[:0]
			} else if len(strs) == 2 && !inArray && tok.Type == scanner.TokenKeyword {
				m.addRange(strs[0], strs[1], nil, dsts)
				addLen(len(strs[0]))
				strs = strs[:0]
			}
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(m.lengths)))
	return m
}

// addRange maps lo..hi either onto consecutive values starting at start or
// onto the listed destinations.
func (m *toUnicode) addRange(lo, hi, start []byte, list [][]byte) {
	if len(lo) == 0 || len(lo) != len(hi) || len(lo) > 4 {
		return
	}
	from, to := codeValue(lo), codeValue(hi)
	if to < from || to-from >= maxRangeSpan {
		return
	}
	for i := uint32(0); i <= to-from; i++ {
		key := string(codeBytes(from+i, len(lo)))
		if list != nil {
			if int(i) < len(list) {
				m.entries[key] = decodeUTF16BE(list[i])
			}
			continue
		}
		if len(start) < 2 {
			return
		}
		dst := append([]byte(nil), start...)
		last := uint16(dst[len(dst)-2])<<8 | uint16(dst[len(dst)-1])
		last += uint16(i)
		dst[len(dst)-2], dst[len(dst)-1] = byte(last>>8), byte(last)
		m.entries[key] = decodeUTF16BE(dst)
	}
}

func (m *toUnicode) decode(b []byte) string {
	var out []byte
	for i := 0; i < len(b); {
		matched := false
		for _, n := range m.lengths {
			if i+n > len(b) {
				continue
			}
			if s, ok := m.entries[string(b[i:i+n])]; ok {
				out = append(out, s...)
				i += n
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		// Unmapped codes are skipped at the shortest declared width.
		step := 1
		if len(m.lengths) > 0 {
			step = m.lengths[len(m.lengths)-1]
		}
		i += step
	}
	return string(out)
}

func codeValue(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

func codeBytes(v uint32, n int) []byte {
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}
