package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latexify/internal/docx"
	"latexify/internal/export"
	"latexify/internal/extract"
	"latexify/internal/llm"
	"latexify/internal/templatestore"
)

type fakeLister struct {
	templates []templatestore.Template
	err       error
}

func (f *fakeLister) List(context.Context) ([]templatestore.Template, error) {
	return f.templates, f.err
}

type fakeFetcher struct {
	mu    sync.Mutex
	blobs map[string][]byte
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, address string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	b, ok := f.blobs[address]
	if !ok {
		return nil, fmt.Errorf("%w: 404", templatestore.ErrStoreUnavailable)
	}
	return b, nil
}

type fakeExtractor struct {
	texts map[string]string
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, content []byte, format extract.Format) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.texts[format.String()+":"+string(content)], nil
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	gotText string
	gotInfo string
	out     string
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, text, details string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.gotText, f.gotInfo = text, details
	block, started := f.block, f.started
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return f.out, f.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memorySaver struct {
	names []string
	blobs [][]byte
}

func (s *memorySaver) Save(_ context.Context, name, _ string, data []byte) error {
	s.names = append(s.names, name)
	s.blobs = append(s.blobs, data)
	return nil
}

type fixture struct {
	lister    *fakeLister
	fetcher   *fakeFetcher
	extractor *fakeExtractor
	generator *fakeGenerator
	ctrl      *Controller
}

func newFixture() *fixture {
	f := &fixture{
		lister: &fakeLister{templates: []templatestore.Template{
			{ID: "templates/a.docx", Name: "a.docx", URL: "https://store/a.docx"},
			{ID: "templates/b.pdf", Name: "b.pdf", URL: "https://store/b.pdf"},
			{ID: "templates/c.txt", Name: "c.txt", URL: "https://store/c.txt"},
		}},
		fetcher: &fakeFetcher{blobs: map[string][]byte{
			"https://store/a.docx": []byte("docx-bytes"),
			"https://store/b.pdf":  []byte("pdf-bytes"),
			"https://store/c.txt":  []byte("text-bytes"),
		}},
		extractor: &fakeExtractor{texts: map[string]string{
			"docx:docx-bytes": "Hello",
			"pdf:pdf-bytes":   "A\nB\nC\n",
		}},
		generator: &fakeGenerator{out: "\\documentclass{article}..."},
	}
	f.ctrl = New(Deps{
		Templates: f.lister,
		Fetcher:   f.fetcher,
		Extractor: f.extractor,
		Generator: f.generator,
		Exporter:  export.New(""),
	})
	return f
}

func TestScenarioListSelectGenerateExport(t *testing.T) {
	f := newFixture()
	f.lister.templates = f.lister.templates[:2]
	ctx := context.Background()

	f.ctrl.Mount(ctx)
	snap := f.ctrl.Snapshot()
	require.Equal(t, StateListed, snap.State)
	require.Len(t, snap.Templates, 2)

	f.ctrl.Select(ctx, "templates/a.docx")
	snap = f.ctrl.Snapshot()
	require.Equal(t, StateSelected, snap.State)
	assert.Equal(t, "Hello", snap.Text)
	assert.Equal(t, "docx", snap.Format)

	f.ctrl.SetDetails("formal tone")
	require.True(t, f.ctrl.Submit(ctx))
	assert.Equal(t, "Hello", f.generator.gotText)
	assert.Equal(t, "formal tone", f.generator.gotInfo)

	snap = f.ctrl.Snapshot()
	require.Equal(t, StateGenerated, snap.State)
	assert.Equal(t, "\\documentclass{article}...", snap.Result)
	assert.False(t, snap.InFlight)

	saver := &memorySaver{}
	f.ctrl.Export(ctx, saver)
	require.Len(t, saver.blobs, 1)
	text, err := docx.RawText(saver.blobs[0])
	require.NoError(t, err)
	assert.Equal(t, "\\documentclass{article}...", strings.TrimSpace(text))
}

func TestMountFailureStaysIdle(t *testing.T) {
	f := newFixture()
	f.lister.err = fmt.Errorf("%w: timeout", templatestore.ErrStoreUnavailable)

	f.ctrl.Mount(context.Background())
	snap := f.ctrl.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Templates)
}

func TestMountEmptyListingIsListed(t *testing.T) {
	f := newFixture()
	f.lister.templates = nil

	f.ctrl.Mount(context.Background())
	assert.Equal(t, StateListed, f.ctrl.Snapshot().State)
}

func TestSelectFailuresLeaveStateUnchanged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.ctrl.Mount(ctx)
	require.True(t, f.ctrl.Select(ctx, "templates/b.pdf"))
	before := f.ctrl.Snapshot()
	require.Equal(t, "A\nB\nC\n", before.Text)

	assert.False(t, f.ctrl.Select(ctx, "templates/missing.docx"))
	assert.Equal(t, before, f.ctrl.Snapshot())

	calls := f.fetcher.calls
	assert.False(t, f.ctrl.Select(ctx, "templates/c.txt"))
	assert.Equal(t, before, f.ctrl.Snapshot())
	assert.Equal(t, calls, f.fetcher.calls, "unsupported format must not fetch")

	delete(f.fetcher.blobs, "https://store/a.docx")
	assert.False(t, f.ctrl.Select(ctx, "templates/a.docx"))
	assert.Equal(t, before, f.ctrl.Snapshot())

	f.fetcher.blobs["https://store/a.docx"] = []byte("docx-bytes")
	f.extractor.err = extract.ErrUnreadable
	assert.False(t, f.ctrl.Select(ctx, "templates/a.docx"))
	assert.Equal(t, before, f.ctrl.Snapshot())
}

func TestReselectingSameTemplateReportsFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.ctrl.Mount(ctx)
	require.True(t, f.ctrl.Select(ctx, "templates/a.docx"))
	before := f.ctrl.Snapshot()

	delete(f.fetcher.blobs, "https://store/a.docx")
	assert.False(t, f.ctrl.Select(ctx, "templates/a.docx"))
	assert.Equal(t, before, f.ctrl.Snapshot())
	assert.Equal(t, "templates/a.docx", f.ctrl.Snapshot().Selected.ID)
}

func TestSelectOverwritesPreviousText(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.ctrl.Mount(ctx)

	f.ctrl.Select(ctx, "templates/a.docx")
	f.ctrl.Select(ctx, "templates/b.pdf")
	snap := f.ctrl.Snapshot()
	assert.Equal(t, "A\nB\nC\n", snap.Text)
	assert.Equal(t, "b.pdf", snap.Selected.Name)
}

func TestSubmitWithoutTextIsNoop(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.ctrl.Mount(ctx)
	f.ctrl.SetDetails("formal tone")
	before := f.ctrl.Snapshot()

	assert.False(t, f.ctrl.Submit(ctx))
	assert.Equal(t, 0, f.generator.callCount())
	assert.Equal(t, before, f.ctrl.Snapshot())
}

func TestSubmitWithEmptyExtractedTextIsNoop(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.extractor.texts["docx:docx-bytes"] = ""
	f.ctrl.Mount(ctx)
	f.ctrl.Select(ctx, "templates/a.docx")

	assert.False(t, f.ctrl.Submit(ctx))
	assert.Equal(t, 0, f.generator.callCount())
}

func TestFailedGenerationShowsPlaceholder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.generator.err = fmt.Errorf("%w: quota", llm.ErrGeneration)
	f.ctrl.Mount(ctx)
	f.ctrl.Select(ctx, "templates/a.docx")

	require.True(t, f.ctrl.Submit(ctx))
	snap := f.ctrl.Snapshot()
	assert.Equal(t, StateGenerated, snap.State)
	assert.Equal(t, "An error occurred while generating the LaTeX content.", snap.Result)
	assert.True(t, snap.ResultFailed)
	assert.False(t, snap.InFlight)
	assert.True(t, errors.Is(f.ctrl.Result().Err, llm.ErrGeneration))
}

func TestSubmitGatedWhileInFlight(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.generator.block = make(chan struct{})
	f.generator.started = make(chan struct{}, 1)
	f.ctrl.Mount(ctx)
	f.ctrl.Select(ctx, "templates/a.docx")

	done := make(chan bool)
	go func() { done <- f.ctrl.Submit(ctx) }()
	<-f.generator.started

	snap := f.ctrl.Snapshot()
	assert.Equal(t, StateSubmitting, snap.State)
	assert.True(t, snap.InFlight)
	assert.False(t, snap.CanSubmit())
	assert.False(t, f.ctrl.Submit(ctx))

	// A selection finishing mid-request updates the text but not the state.
	f.ctrl.Select(ctx, "templates/b.pdf")
	assert.Equal(t, StateSubmitting, f.ctrl.Snapshot().State)

	close(f.generator.block)
	require.True(t, <-done)
	assert.Equal(t, 1, f.generator.callCount())
	snap = f.ctrl.Snapshot()
	assert.Equal(t, StateGenerated, snap.State)
	assert.True(t, snap.CanSubmit())
}

func TestResubmitOverwritesResult(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.ctrl.Mount(ctx)
	f.ctrl.Select(ctx, "templates/a.docx")

	require.True(t, f.ctrl.Submit(ctx))
	f.generator.out = "\\documentclass{report}"
	require.True(t, f.ctrl.Submit(ctx))
	assert.Equal(t, "\\documentclass{report}", f.ctrl.Snapshot().Result)
}

func TestExportInitialEmptyResult(t *testing.T) {
	f := newFixture()
	saver := &memorySaver{}

	f.ctrl.Export(context.Background(), saver)
	require.Len(t, saver.blobs, 1)
	text, err := docx.RawText(saver.blobs[0])
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(text))
	assert.Equal(t, StateIdle, f.ctrl.Snapshot().State)
}

func TestExportTwiceDoesNotChangeState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.ctrl.Mount(ctx)
	f.ctrl.Select(ctx, "templates/a.docx")
	require.True(t, f.ctrl.Submit(ctx))
	before := f.ctrl.Snapshot()

	saver := &memorySaver{}
	f.ctrl.Export(ctx, saver)
	f.ctrl.Export(ctx, saver)

	require.Len(t, saver.blobs, 2)
	assert.Equal(t, saver.blobs[0], saver.blobs[1])
	assert.Equal(t, []string{export.DefaultFileName, export.DefaultFileName}, saver.names)
	assert.Equal(t, before, f.ctrl.Snapshot())
}

func TestExportFailureIsSwallowed(t *testing.T) {
	f := newFixture()
	failing := export.SaverFunc(func(context.Context, string, string, []byte) error {
		return errors.New("disk full")
	})
	before := f.ctrl.Snapshot()
	f.ctrl.Export(context.Background(), failing)
	assert.Equal(t, before, f.ctrl.Snapshot())
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ch, cancel := f.ctrl.Subscribe()
	defer cancel()

	f.ctrl.Mount(ctx)
	f.ctrl.Select(ctx, "templates/a.docx")
	require.True(t, f.ctrl.Submit(ctx))

	var states []State
	timeout := time.After(time.Second)
	for len(states) < 4 {
		select {
		case snap := <-ch:
			states = append(states, snap.State)
		case <-timeout:
			t.Fatalf("timed out after %v", states)
		}
	}
	assert.Equal(t, []State{StateListed, StateSelected, StateSubmitting, StateGenerated}, states)
}

func TestCloseEndsSubscriptions(t *testing.T) {
	f := newFixture()
	ch, cancel := f.ctrl.Subscribe()
	f.ctrl.Close()
	_, ok := <-ch
	assert.False(t, ok)
	cancel()

	late, _ := f.ctrl.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestStateText(t *testing.T) {
	b, err := StateSubmitting.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "submitting", string(b))
	assert.Equal(t, "unknown", State(42).String())
}
