package tui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latexify/internal/docx"
	"latexify/internal/export"
	"latexify/internal/extract"
	"latexify/internal/templatestore"
	"latexify/internal/view"
)

type stubLister struct {
	templates []templatestore.Template
	err       error
}

func (s stubLister) List(context.Context) ([]templatestore.Template, error) {
	return s.templates, s.err
}

type stubFetcher struct {
	down bool
}

func (f *stubFetcher) Fetch(_ context.Context, address string) ([]byte, error) {
	if f.down {
		return nil, templatestore.ErrStoreUnavailable
	}
	return []byte(address), nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, content []byte, _ extract.Format) (string, error) {
	return "text of " + string(content), nil
}

type stubGenerator struct {
	out     string
	err     error
	details string
}

func (g *stubGenerator) Generate(_ context.Context, _, details string) (string, error) {
	g.details = details
	return g.out, g.err
}

func newModel(t *testing.T, lister stubLister, gen *stubGenerator) (Model, *export.DirSaver) {
	t.Helper()
	return newModelWithFetcher(t, lister, gen, &stubFetcher{})
}

func newModelWithFetcher(t *testing.T, lister stubLister, gen *stubGenerator, fetcher *stubFetcher) (Model, *export.DirSaver) {
	t.Helper()
	ctrl := view.New(view.Deps{
		Templates: lister,
		Fetcher:   fetcher,
		Extractor: stubExtractor{},
		Generator: gen,
		Exporter:  export.New(""),
	})
	saver := export.NewDirSaver(t.TempDir())
	return New(context.Background(), ctrl, saver, ""), saver
}

// drain runs cmd and feeds the session refreshes it produces back into m.
// Widget messages such as spinner ticks are dropped so the loop terminates.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	pending := []tea.Cmd{cmd}
	for len(pending) > 0 {
		c := pending[0]
		pending = pending[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			pending = append(pending, msg...)
		case refreshMsg:
			next, more := m.Update(msg)
			m = next.(Model)
			pending = append(pending, more)
		}
	}
	return m
}

func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	return drain(t, next.(Model), cmd)
}

var twoTemplates = stubLister{templates: []templatestore.Template{
	{ID: "templates/a.docx", Name: "a.docx", URL: "mem://a"},
	{ID: "templates/b.pdf", Name: "b.pdf", URL: "mem://b"},
}}

func TestInitListsTemplates(t *testing.T) {
	m, _ := newModel(t, twoTemplates, &stubGenerator{})
	m = drain(t, m, m.Init())

	assert.Equal(t, view.StateListed, m.snap.State)
	assert.Len(t, m.templates.Items(), 2)
	assert.Equal(t, "select a template", m.status)
	assert.Contains(t, m.View(), "a.docx")
}

func TestInitFailureStaysIdle(t *testing.T) {
	m, _ := newModel(t, stubLister{err: errors.New("down")}, &stubGenerator{})
	m = drain(t, m, m.Init())

	assert.Equal(t, view.StateIdle, m.snap.State)
	assert.True(t, m.isErr)
}

func TestGenerateWithoutSelectionIsGated(t *testing.T) {
	gen := &stubGenerator{out: "x"}
	m, _ := newModel(t, twoTemplates, gen)
	m = drain(t, m, m.Init())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Equal(t, "select a template first", m.status)
	assert.Equal(t, view.StateListed, m.snap.State)
	assert.Empty(t, m.snap.Result)
}

func TestSelectTypeGenerateExport(t *testing.T) {
	gen := &stubGenerator{out: `\documentclass{article}`}
	m, saver := newModel(t, twoTemplates, gen)
	m = drain(t, m, m.Init())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.snap.Selected)
	assert.Equal(t, "templates/a.docx", m.snap.Selected.ID)
	assert.Equal(t, "text of mem://a", m.snap.Text)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, paneDetails, m.focus)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("formal")})
	m = next.(Model)
	assert.Equal(t, "formal", m.ctrl.Snapshot().Details)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, view.StateGenerated, m.snap.State)
	assert.Equal(t, "formal", gen.details)
	assert.Equal(t, `\documentclass{article}`, m.snap.Result)
	assert.Equal(t, "generated", m.status)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	path := saver.Path(export.DefaultFileName)
	assert.Equal(t, "exported to "+path, m.status)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text, err := docx.RawText(data)
	require.NoError(t, err)
	assert.Equal(t, "\\documentclass{article}", strings.TrimSpace(text))
}

func TestFailedReselectShowsError(t *testing.T) {
	fetcher := &stubFetcher{}
	m, _ := newModelWithFetcher(t, twoTemplates, &stubGenerator{}, fetcher)
	m = drain(t, m, m.Init())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, m.isErr)
	require.Equal(t, "templates/a.docx", m.snap.Selected.ID)

	fetcher.down = true
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.isErr)
	assert.Equal(t, "could not read a.docx (see log)", m.status)
	assert.Equal(t, "text of mem://a", m.snap.Text)
}

func TestFailedGenerationShowsPlaceholder(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota")}
	m, _ := newModel(t, twoTemplates, gen)
	m = drain(t, m, m.Init())
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.True(t, m.isErr)
	assert.True(t, m.snap.ResultFailed)
	assert.Equal(t, "An error occurred while generating the LaTeX content.", m.snap.Result)
}

func TestFocusCycles(t *testing.T) {
	m, _ := newModel(t, twoTemplates, &stubGenerator{})
	for _, want := range []pane{paneDetails, paneOutput, paneTemplates} {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
		assert.Equal(t, want, m.focus)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t, twoTemplates, &stubGenerator{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
