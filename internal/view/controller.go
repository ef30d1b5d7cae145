// Package view holds the state of one template editing session and drives
// the store, extractor, generator and exporter in sequence.
package view

import (
	"context"
	"log"
	"sync"

	"latexify/internal/export"
	"latexify/internal/extract"
	"latexify/internal/llm"
	"latexify/internal/templatestore"
)

type Extractor interface {
	Extract(ctx context.Context, content []byte, f extract.Format) (string, error)
}

type Exporter interface {
	Export(ctx context.Context, text string, saver export.Saver) error
}

// Deps are the collaborators a Controller calls. All are required.
type Deps struct {
	Templates templatestore.Lister
	Fetcher   templatestore.Fetcher
	Extractor Extractor
	Generator llm.Generator
	Exporter  Exporter
}

type selection struct {
	template templatestore.Template
	format   extract.Format
	text     string
}

// Controller is safe for concurrent use. The lock is never held across a
// remote call; concurrent selections resolve as last-completion-wins.
type Controller struct {
	deps Deps

	mu        sync.Mutex
	state     State
	templates []templatestore.Template
	selection *selection
	details   string
	result    llm.Result
	inFlight  bool

	subs    map[int]chan Snapshot
	nextSub int
	closed  bool
}

func New(deps Deps) *Controller {
	return &Controller{deps: deps, subs: make(map[int]chan Snapshot)}
}

// Mount lists the available templates. On failure the session stays idle.
func (c *Controller) Mount(ctx context.Context) {
	templates, err := c.deps.Templates.List(ctx)
	if err != nil {
		log.Printf("view: list templates failed: %v", err)
		return
	}
	c.update(func() {
		c.templates = append([]templatestore.Template(nil), templates...)
		if c.state == StateIdle {
			c.state = StateListed
		}
	})
}

// Select fetches and extracts the template with the given ID and reports
// whether the selection took effect. Any failure is logged and leaves the
// session unchanged.
func (c *Controller) Select(ctx context.Context, templateID string) bool {
	c.mu.Lock()
	t, ok := c.findLocked(templateID)
	c.mu.Unlock()
	if !ok {
		log.Printf("view: select %q: no such template", templateID)
		return false
	}

	format, err := extract.FormatOf(t.Name)
	if err != nil {
		log.Printf("view: select %s: %v", t.Name, err)
		return false
	}
	content, err := c.deps.Fetcher.Fetch(ctx, t.URL)
	if err != nil {
		log.Printf("view: fetch %s failed: %v", t.Name, err)
		return false
	}
	text, err := c.deps.Extractor.Extract(ctx, content, format)
	if err != nil {
		log.Printf("view: extract %s failed: %v", t.Name, err)
		return false
	}

	c.update(func() {
		c.selection = &selection{template: t, format: format, text: text}
		if !c.inFlight {
			c.state = StateSelected
		}
	})
	return true
}

func (c *Controller) SetDetails(details string) {
	c.update(func() { c.details = details })
}

// Submit sends the selected text and details for generation. It returns false
// without calling the generator when no text is held or a request is already
// outstanding.
func (c *Controller) Submit(ctx context.Context) bool {
	c.mu.Lock()
	if c.selection == nil || c.selection.text == "" || c.inFlight {
		c.mu.Unlock()
		return false
	}
	text, details := c.selection.text, c.details
	c.inFlight = true
	c.state = StateSubmitting
	c.publishLocked()
	c.mu.Unlock()

	out, err := c.deps.Generator.Generate(ctx, text, details)
	if err != nil {
		log.Printf("view: generation failed: %v", err)
	}

	c.update(func() {
		c.result = llm.Result{Text: out, Err: err}
		c.inFlight = false
		c.state = StateGenerated
	})
	return true
}

// Export saves the current result string, the empty initial one included.
// Failures are logged; the session is never modified.
func (c *Controller) Export(ctx context.Context, saver export.Saver) {
	c.mu.Lock()
	text := c.result.Display()
	c.mu.Unlock()

	if err := c.deps.Exporter.Export(ctx, text, saver); err != nil {
		log.Printf("view: export failed: %v", err)
	}
}

// Result returns the outcome of the latest generation.
func (c *Controller) Result() llm.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe streams a snapshot after every change. Slow readers lose the
// oldest pending snapshot, never the newest. The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan Snapshot, 8)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close discards the session's subscribers. Outstanding calls still complete
// but nobody observes them.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) update(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
	c.publishLocked()
}

// publishLocked never blocks, so it is safe to call with c.mu held.
func (c *Controller) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *Controller) findLocked(id string) (templatestore.Template, bool) {
	for _, t := range c.templates {
		if t.ID == id {
			return t, true
		}
	}
	return templatestore.Template{}, false
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:        c.state,
		Templates:    append([]templatestore.Template{}, c.templates...),
		Details:      c.details,
		Result:       c.result.Display(),
		ResultFailed: c.result.Failed(),
		InFlight:     c.inFlight,
	}
	if c.selection != nil {
		t := c.selection.template
		snap.Selected = &t
		snap.Format = c.selection.format.String()
		snap.Text = c.selection.text
	}
	return snap
}
