// Package tui renders a template session in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"latexify/internal/export"
	"latexify/internal/templatestore"
	"latexify/internal/view"
)

type pane int

const (
	paneTemplates pane = iota
	paneDetails
	paneOutput
)

type templateItem struct {
	t templatestore.Template
}

func (i templateItem) Title() string       { return i.t.Name }
func (i templateItem) Description() string { return i.t.ID }
func (i templateItem) FilterValue() string { return i.t.Name }

// Saver is where ctrl+e exports go.
type Saver interface {
	export.Saver
	Path(name string) string
}

type refreshMsg struct {
	status string
	isErr  bool
}

// Model is the bubbletea model for one session.
type Model struct {
	ctx      context.Context
	ctrl     *view.Controller
	saver    Saver
	fileName string

	templates list.Model
	details   textarea.Model
	output    viewport.Model
	spinner   spinner.Model

	focus  pane
	snap   view.Snapshot
	status string
	isErr  bool
	width  int
	height int
}

func New(ctx context.Context, ctrl *view.Controller, saver Saver, fileName string) Model {
	l := list.New(nil, list.NewDefaultDelegate(), 30, 14)
	l.Title = "Templates"
	l.SetShowHelp(false)

	ta := textarea.New()
	ta.Placeholder = "Details for the generated document (tone, names, dates...)"
	ta.ShowLineNumbers = false
	ta.SetHeight(5)

	vp := viewport.New(60, 12)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if fileName == "" {
		fileName = export.DefaultFileName
	}
	return Model{
		ctx:       ctx,
		ctrl:      ctrl,
		saver:     saver,
		fileName:  fileName,
		templates: l,
		details:   ta,
		output:    vp,
		spinner:   sp,
		status:    "loading templates...",
		snap:      ctrl.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.mountCmd()
}

func (m Model) mountCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		ctrl.Mount(ctx)
		if ctrl.Snapshot().State == view.StateIdle {
			return refreshMsg{status: "could not list templates (see log)", isErr: true}
		}
		return refreshMsg{status: "select a template"}
	}
}

func (m Model) selectCmd(t templatestore.Template) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		if !ctrl.Select(ctx, t.ID) {
			return refreshMsg{status: "could not read " + t.Name + " (see log)", isErr: true}
		}
		after := ctrl.Snapshot()
		return refreshMsg{status: fmt.Sprintf("extracted %d characters from %s", len(after.Text), t.Name)}
	}
}

func (m Model) submitCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		if !ctrl.Submit(ctx) {
			return refreshMsg{status: "select a template first"}
		}
		if ctrl.Result().Failed() {
			return refreshMsg{status: "generation failed (see log)", isErr: true}
		}
		return refreshMsg{status: "generated"}
	}
}

func (m Model) exportCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	rec := &recordingSaver{inner: m.saver}
	path := m.saver.Path(m.fileName)
	return func() tea.Msg {
		ctrl.Export(ctx, rec)
		if !rec.saved {
			return refreshMsg{status: "export failed (see log)", isErr: true}
		}
		return refreshMsg{status: "exported to " + path}
	}
}

type recordingSaver struct {
	inner export.Saver
	saved bool
}

func (r *recordingSaver) Save(ctx context.Context, name, contentType string, data []byte) error {
	if err := r.inner.Save(ctx, name, contentType, data); err != nil {
		return err
	}
	r.saved = true
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case refreshMsg:
		m.status, m.isErr = msg.status, msg.isErr
		return m, m.refresh()

	case spinner.TickMsg:
		if !m.snap.InFlight {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		filtering := m.focus == paneTemplates && m.templates.FilterState() == list.Filtering
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case filtering:
			// The list owns every other key while its filter is open.
		case key.Matches(msg, keys.Focus):
			m.setFocus((m.focus + 1) % 3)
			return m, nil
		case key.Matches(msg, keys.Generate):
			if !m.snap.CanSubmit() {
				if m.snap.InFlight {
					m.status = "generation already in progress"
				} else {
					m.status = "select a template first"
				}
				m.isErr = false
				return m, nil
			}
			m.snap.InFlight = true
			m.status = "generating..."
			m.isErr = false
			return m, tea.Batch(m.spinner.Tick, m.submitCmd())
		case key.Matches(msg, keys.Export):
			m.status = "exporting..."
			m.isErr = false
			return m, m.exportCmd()
		case m.focus == paneTemplates && key.Matches(msg, keys.Select):
			if it, ok := m.templates.SelectedItem().(templateItem); ok {
				m.status = "reading " + it.t.Name + "..."
				m.isErr = false
				return m, m.selectCmd(it.t)
			}
			return m, nil
		}
	}

	switch m.focus {
	case paneTemplates:
		var cmd tea.Cmd
		m.templates, cmd = m.templates.Update(msg)
		cmds = append(cmds, cmd)
	case paneDetails:
		var cmd tea.Cmd
		m.details, cmd = m.details.Update(msg)
		cmds = append(cmds, cmd)
		if v := m.details.Value(); v != m.snap.Details {
			m.ctrl.SetDetails(v)
			m.snap.Details = v
		}
	case paneOutput:
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) refresh() tea.Cmd {
	m.snap = m.ctrl.Snapshot()
	items := make([]list.Item, 0, len(m.snap.Templates))
	for _, t := range m.snap.Templates {
		items = append(items, templateItem{t: t})
	}
	m.output.SetContent(m.snap.Result)
	return m.templates.SetItems(items)
}

func (m *Model) setFocus(p pane) {
	m.focus = p
	if p == paneDetails {
		m.details.Focus()
	} else {
		m.details.Blur()
	}
}

func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	left := m.width / 3
	right := m.width - left - 6
	body := m.height - 8
	if body < 10 {
		body = 10
	}
	m.templates.SetSize(left, body)
	m.details.SetWidth(right)
	m.output.Width = right
	m.output.Height = body - m.details.Height() - 4
}

func (m Model) View() string {
	style := func(p pane) lipgloss.Style {
		if m.focus == p {
			return focusedPaneStyle
		}
		return paneStyle
	}

	selected := "none"
	if m.snap.Selected != nil {
		selected = fmt.Sprintf("%s (%s, %d chars)", m.snap.Selected.Name, m.snap.Format, len(m.snap.Text))
	}

	right := lipgloss.JoinVertical(lipgloss.Left,
		style(paneDetails).Render(labelStyle.Render("Details")+"\n"+m.details.View()),
		style(paneOutput).Render(labelStyle.Render("LaTeX")+"\n"+m.output.View()),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		style(paneTemplates).Render(m.templates.View()),
		right,
	)

	status := m.status
	if m.snap.InFlight {
		status = m.spinner.View() + " " + status
	}
	statusLine := statusStyle.Render(status)
	if m.isErr {
		statusLine = errorStyle.Render(status)
	}

	help := make([]string, 0, len(keys.help()))
	for _, b := range keys.help() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("latexify"),
		labelStyle.Render("Selected: ")+selected,
		body,
		statusLine,
		helpStyle.Render(strings.Join(help, " • ")),
	)
}

// Run drives the model until the user quits.
func Run(ctx context.Context, ctrl *view.Controller, saver Saver, fileName string) error {
	p := tea.NewProgram(New(ctx, ctrl, saver, fileName), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
