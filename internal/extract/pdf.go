package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/wudi/pdfkit/ir"
	"github.com/wudi/pdfkit/ir/decoded"
	"github.com/wudi/pdfkit/ir/raw"
)

// pageSource yields the text fragments of a paginated document, one per
// text-showing operator. Pages are numbered from 1.
type pageSource interface {
	PageCount() int
	PageFragments(pageNr int) ([]string, error)
}

// maxTreeDepth bounds the page tree walk and reference chains.
const maxTreeDepth = 64

type pdfPage struct {
	dict      raw.Dictionary
	resources raw.Dictionary
}

type pdfkitDocument struct {
	dec   *decoded.DecodedDocument
	objs  map[raw.ObjectRef]raw.Object
	pages []pdfPage
	fonts map[raw.ObjectRef]*fontDecoder
}

func openPDFKit(ctx context.Context, content []byte) (_ pageSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfkit parse: %v", r)
		}
	}()
	doc, err := ir.NewDefault().Parse(ctx, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("pdfkit parse: %w", err)
	}
	dec := doc.Decoded()
	if dec == nil || dec.Raw == nil {
		return nil, errors.New("pdfkit parse: no decoded document")
	}
	d := &pdfkitDocument{
		dec:   dec,
		objs:  dec.Raw.Objects,
		fonts: make(map[raw.ObjectRef]*fontDecoder),
	}

	var root raw.Object
	if dec.Raw.Trailer != nil {
		root, _ = dec.Raw.Trailer.Get(raw.NameLiteral("Root"))
	}
	catalog := d.dict(root)
	if catalog == nil {
		catalog = d.findCatalog()
	}
	if catalog == nil {
		return nil, errors.New("pdf catalog not found")
	}
	pages, _ := catalog.Get(raw.NameLiteral("Pages"))
	d.walkPages(pages, nil, 0, make(map[raw.ObjectRef]bool))
	if len(d.pages) == 0 {
		return nil, errors.New("pdf has no pages")
	}
	return d, nil
}

func (d *pdfkitDocument) PageCount() int { return len(d.pages) }

func (d *pdfkitDocument) PageFragments(pageNr int) ([]string, error) {
	if pageNr < 1 || pageNr > len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", pageNr)
	}
	page := d.pages[pageNr-1]
	contents, ok := page.dict.Get(raw.NameLiteral("Contents"))
	if !ok {
		return nil, nil
	}
	data, err := d.contentBytes(contents)
	if err != nil {
		return nil, err
	}
	return showFragments(data, d.pageFonts(page.resources)), nil
}

// walkPages collects leaf pages in document order. Resources are inherited
// from the nearest ancestor that declares them.
func (d *pdfkitDocument) walkPages(obj raw.Object, inherited raw.Dictionary, depth int, seen map[raw.ObjectRef]bool) {
	if depth > maxTreeDepth {
		return
	}
	if ref, ok := obj.(raw.Reference); ok {
		if seen[ref.Ref()] {
			return
		}
		seen[ref.Ref()] = true
	}
	node := d.dict(obj)
	if node == nil {
		return
	}
	resources := inherited
	if res := d.dict(get(node, "Resources")); res != nil {
		resources = res
	}
	if kids := d.array(get(node, "Kids")); kids != nil && name(d.resolve(get(node, "Type"))) != "Page" {
		for i := 0; i < kids.Len(); i++ {
			kid, _ := kids.Get(i)
			d.walkPages(kid, resources, depth+1, seen)
		}
		return
	}
	d.pages = append(d.pages, pdfPage{dict: node, resources: resources})
}

// contentBytes concatenates a page's content streams. Operators may span
// stream boundaries, so the parts are scanned as one.
func (d *pdfkitDocument) contentBytes(obj raw.Object) ([]byte, error) {
	if arr := d.array(obj); arr != nil {
		var parts [][]byte
		for i := 0; i < arr.Len(); i++ {
			item, _ := arr.Get(i)
			data, err := d.streamBytes(item)
			if err != nil {
				return nil, err
			}
			parts = append(parts, data)
		}
		return bytes.Join(parts, []byte("\n")), nil
	}
	return d.streamBytes(obj)
}

func (d *pdfkitDocument) streamBytes(obj raw.Object) ([]byte, error) {
	ref, ok := obj.(raw.Reference)
	if !ok {
		return nil, fmt.Errorf("content is not an indirect stream (%T)", obj)
	}
	s, ok := d.dec.Streams[ref.Ref()]
	if !ok {
		return nil, fmt.Errorf("stream %s not decoded", ref.Ref())
	}
	return s.Data(), nil
}

func (d *pdfkitDocument) pageFonts(resources raw.Dictionary) map[string]*fontDecoder {
	fontDict := d.dict(get(resources, "Font"))
	if fontDict == nil {
		return nil
	}
	out := make(map[string]*fontDecoder, fontDict.Len())
	for _, key := range fontDict.Keys() {
		obj, _ := fontDict.Get(key)
		out[key.Value()] = d.fontDecoder(obj)
	}
	return out
}

func (d *pdfkitDocument) fontDecoder(obj raw.Object) *fontDecoder {
	ref, isRef := obj.(raw.Reference)
	if isRef {
		if cached, ok := d.fonts[ref.Ref()]; ok {
			return cached
		}
	}
	fd := &fontDecoder{}
	if font := d.dict(obj); font != nil {
		fd.multiByte = name(d.resolve(get(font, "Subtype"))) == "Type0"
		if cmap := get(font, "ToUnicode"); cmap != nil {
			if data, err := d.streamBytes(cmap); err == nil {
				fd.cmap = parseToUnicode(data)
			} else {
				log.Printf("extract: pdf ToUnicode: %v", err)
			}
		}
	}
	if isRef {
		d.fonts[ref.Ref()] = fd
	}
	return fd
}

// findCatalog locates the document catalog when the trailer does not name
// one, preferring the lowest object number.
func (d *pdfkitDocument) findCatalog() raw.Dictionary {
	var (
		best    raw.Dictionary
		bestNum = -1
	)
	for ref, obj := range d.objs {
		dict, ok := obj.(raw.Dictionary)
		if !ok || name(get(dict, "Type")) != "Catalog" {
			continue
		}
		if bestNum < 0 || ref.Num < bestNum {
			best, bestNum = dict, ref.Num
		}
	}
	return best
}

func (d *pdfkitDocument) resolve(obj raw.Object) raw.Object {
	for i := 0; i < maxTreeDepth; i++ {
		ref, ok := obj.(raw.Reference)
		if !ok {
			return obj
		}
		obj = d.objs[ref.Ref()]
	}
	return nil
}

func (d *pdfkitDocument) dict(obj raw.Object) raw.Dictionary {
	if obj == nil {
		return nil
	}
	switch v := d.resolve(obj).(type) {
	case raw.Dictionary:
		return v
	case raw.Stream:
		return v.Dictionary()
	}
	return nil
}

func (d *pdfkitDocument) array(obj raw.Object) raw.Array {
	if obj == nil {
		return nil
	}
	if arr, ok := d.resolve(obj).(raw.Array); ok {
		return arr
	}
	return nil
}

func get(dict raw.Dictionary, key string) raw.Object {
	if dict == nil {
		return nil
	}
	v, _ := dict.Get(raw.NameLiteral(key))
	return v
}

func name(obj raw.Object) string {
	if n, ok := obj.(raw.Name); ok {
		return n.Value()
	}
	return ""
}

// joinPages walks pages 1..N in order. Fragments within a page are joined by
// a single space and every page is terminated by "\n".
func joinPages(ctx context.Context, src pageSource) (string, error) {
	var sb strings.Builder
	for pageNr := 1; pageNr <= src.PageCount(); pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fragments, err := src.PageFragments(pageNr)
		if err != nil {
			// A page without a readable content stream contributes no text.
			log.Printf("extract: pdf page %d content: %v", pageNr, err)
			fragments = nil
		}
		sb.WriteString(strings.Join(fragments, " "))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
