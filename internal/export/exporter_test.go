package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latexify/internal/docx"
)

type recordingSaver struct {
	names []string
	types []string
	blobs [][]byte
	err   error
}

func (s *recordingSaver) Save(_ context.Context, name, contentType string, data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.names = append(s.names, name)
	s.types = append(s.types, contentType)
	s.blobs = append(s.blobs, data)
	return nil
}

func TestExportWritesSingleRunDocument(t *testing.T) {
	text := "\\documentclass{article}\n\\begin{document}Hi\\end{document}"
	saver := &recordingSaver{}

	require.NoError(t, New("").Export(context.Background(), text, saver))
	require.Len(t, saver.blobs, 1)
	assert.Equal(t, DefaultFileName, saver.names[0])
	assert.Equal(t, docx.MIMEType, saver.types[0])

	raw, err := docx.RawText(saver.blobs[0])
	require.NoError(t, err)
	assert.Equal(t, text, strings.TrimSpace(raw))
}

func TestExportTwiceProducesIndependentIdenticalSaves(t *testing.T) {
	text := "same content"
	orig := text
	saver := &recordingSaver{}
	e := New("out.docx")

	require.NoError(t, e.Export(context.Background(), text, saver))
	require.NoError(t, e.Export(context.Background(), text, saver))

	require.Len(t, saver.blobs, 2)
	for _, blob := range saver.blobs {
		raw, err := docx.RawText(blob)
		require.NoError(t, err)
		assert.Equal(t, text, strings.TrimSpace(raw))
	}
	assert.Equal(t, []string{"out.docx", "out.docx"}, saver.names)
	assert.Equal(t, orig, text)

	before := append([]byte(nil), saver.blobs[1]...)
	saver.blobs[0][0] ^= 0xff
	assert.Equal(t, before, saver.blobs[1], "saves must not share buffers")
}

func TestExportFailures(t *testing.T) {
	err := New("").Export(context.Background(), "x", &recordingSaver{err: errors.New("disk full")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExport))

	err = New("").Export(context.Background(), "x", nil)
	assert.True(t, errors.Is(err, ErrExport))

	broken := &Exporter{fileName: "x.docx", build: func(string) ([]byte, error) { return nil, errors.New("boom") }}
	err = broken.Export(context.Background(), "x", &recordingSaver{})
	assert.True(t, errors.Is(err, ErrExport))
}

func TestDirSaverReplacesExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	s := NewDirSaver(dir)
	e := New("")

	require.NoError(t, e.Export(context.Background(), "first", s))
	require.NoError(t, e.Export(context.Background(), "second", s))

	data, err := os.ReadFile(s.Path(DefaultFileName))
	require.NoError(t, err)
	text, err := docx.RawText(data)
	require.NoError(t, err)
	assert.Equal(t, "second", strings.TrimSpace(text))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaverFunc(t *testing.T) {
	var got string
	s := SaverFunc(func(_ context.Context, name, _ string, _ []byte) error {
		got = name
		return nil
	})
	require.NoError(t, New("a.docx").Export(context.Background(), "", s))
	assert.Equal(t, "a.docx", got)
}
