package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"grus/internal/action"
	"grus/internal/app"
	"grus/internal/config"
	"grus/internal/outline"
)

type mode int

const (
	modeBrowse mode = iota
	modeInput
	modeConfirm
)

const (
	headerLines = 2
	footerLines = 3

	whenLayout = "2006-01-02 15:04"
	dayLayout  = "2006-01-02"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type Model struct {
	ctx   context.Context
	app   *app.App
	cfg   config.Config
	theme outline.Theme
	now   func() time.Time

	width  int
	height int
	frame  *outline.Frame
	cursor int

	mode    mode
	input   textinput.Model
	pending action.Action
	status  string
	failed  bool
}

func New(ctx context.Context, a *app.App, cfg config.Config, now func() time.Time) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		ctx:    ctx,
		app:    a,
		cfg:    cfg,
		theme:  outline.DefaultTheme(outline.ParseGlyphSet(cfg.Glyphs)),
		now:    now,
		width:  80,
		height: 24,
		input:  ti,
		status: fmt.Sprintf("Press '%s' to add, '%s' to select, '%s' to delete.", keyLabel(cfg.Keys.Add), keyLabel(cfg.Keys.Toggle), keyLabel(cfg.Keys.Delete)),
	}
	m.relayout()
	return m
}

func Run(ctx context.Context, a *app.App, cfg config.Config) error {
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	program := tea.NewProgram(New(ctx, a, cfg, time.Now), opts...)
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeInput:
			return m.updateInputMode(msg)
		case modeConfirm:
			return m.updateConfirm(msg.String())
		}
		return m.updateBrowseMode(msg.String())
	case tea.MouseMsg:
		if m.mode != modeBrowse {
			return m, nil
		}
		return m.updateMouse(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-10, 10)
		m.relayout()
	}
	return m, nil
}

func (m Model) updateBrowseMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, m.frame.Len())
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, m.frame.Len())
	case k.Toggle:
		return m.dispatch(m.activate(outline.CheckboxAffordance))
	case k.Descend, "right":
		return m.dispatch(m.activate(outline.LabelAffordance))
	case k.Ascend, "left", "backspace":
		return m.dispatch(action.Of(action.MoveOut))
	case k.Add:
		return m.dispatch(m.activate(outline.AddAffordance))
	case k.Delete:
		act := m.activate(outline.DeleteAffordance)
		if act.IsNone() {
			m.setStatus("The top row cannot be deleted here")
			return m, nil
		}
		return m.dispatch(act)
	case k.Rename:
		return m.dispatch(action.Of(action.Rename))
	case k.DueDate:
		return m.dispatch(action.Of(action.SetDueDate))
	case k.AddSession:
		return m.dispatch(action.Of(action.AddSession))
	case k.Link:
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		n := m.app.Link(m.ctx, row.Flat.Node.ID)
		m.setStatus(fmt.Sprintf("Linked %d under %q", n, row.Flat.Node.Name))
		m.relayout()
	case k.Import:
		return m.dispatch(action.Of(action.Import))
	case k.Export:
		return m.dispatch(action.Of(action.Export))
	}
	return m, nil
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.cursor = clampCursor(m.cursor-1, m.frame.Len())
		return m, nil
	case tea.MouseButtonWheelDown:
		m.cursor = clampCursor(m.cursor+1, m.frame.Len())
		return m, nil
	case tea.MouseButtonLeft:
		x, y := msg.X, msg.Y-headerLines
		if i, _ := m.frame.Painter().Hit(x, y); i >= 0 {
			m.cursor = i
		}
		return m.dispatch(m.frame.Click(x, y))
	}
	return m, nil
}

// dispatch starts an action: some need text first, some a confirmation, the
// rest run right away.
func (m Model) dispatch(act action.Action) (tea.Model, tea.Cmd) {
	switch act.Kind {
	case action.None:
		return m, nil
	case action.Add:
		return m.prompt(act, "Name of the new task", "")
	case action.Rename, action.SetDueDate, action.AddSession:
		if !m.hasSelection() {
			m.setError(app.ErrNoSelection)
			return m, nil
		}
		switch act.Kind {
		case action.Rename:
			name := ""
			if row, ok := m.currentRow(); ok {
				name = row.Flat.Node.Name
			}
			return m.prompt(act, "New name for the selection", name)
		case action.SetDueDate:
			return m.prompt(act, "Due (YYYY-MM-DD HH:MM)", m.now().Format(whenLayout))
		default:
			now := m.now().Format(whenLayout)
			return m.prompt(act, "Session (start to end)", now+" to "+now)
		}
	case action.Delete:
		m.pending = act
		m.mode = modeConfirm
		m.setStatus(fmt.Sprintf("Delete %q? y/n", m.app.Tree().Node(act.ID).Name))
		return m, nil
	case action.Import:
		m.pending = act
		m.mode = modeConfirm
		m.setStatus("Replace all tasks with the clipboard contents? y/n")
		return m, nil
	}
	return m.apply(act, app.Input{})
}

func (m Model) prompt(act action.Action, placeholder, value string) (tea.Model, tea.Cmd) {
	m.pending = act
	m.mode = modeInput
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.setStatus(placeholder)
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) updateInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel, "ctrl+c":
		m.leaveInput()
		m.setStatus("Cancelled")
		return m, nil
	case m.cfg.Keys.Confirm:
		in, err := parseInput(m.pending.Kind, m.input.Value())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		act := m.pending
		m.leaveInput()
		return m.apply(act, in)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) leaveInput() {
	m.input.SetValue("")
	m.input.Blur()
	m.mode = modeBrowse
	m.pending = action.Action{}
}

func (m Model) updateConfirm(key string) (tea.Model, tea.Cmd) {
	act := m.pending
	m.pending = action.Action{}
	m.mode = modeBrowse
	switch key {
	case "y", "Y":
		return m.apply(act, app.Input{})
	default:
		m.setStatus(act.Kind.String() + " cancelled")
		return m, nil
	}
}

// apply runs one action against the app, then lays the next frame out.
func (m Model) apply(act action.Action, in app.Input) (tea.Model, tea.Cmd) {
	if err := m.app.Perform(m.ctx, act, in); err != nil {
		m.setError(err)
		m.relayout()
		return m, nil
	}
	m.setStatus(doneMessage(act))
	m.relayout()
	if act.Kind == action.MoveInto || act.Kind == action.MoveOut || act.Kind == action.Import {
		m.cursor = 0
	}
	for i, r := range m.frame.Rows() {
		if r.Flat.Highlighted {
			m.cursor = i
			break
		}
	}
	return m, nil
}

func (m *Model) relayout() {
	pid, id := m.app.Root()
	m.frame = outline.Layout(m.app.Tree(), pid, id, outline.Options{
		Width:   m.width,
		Height:  max(m.height-headerLines-footerLines, 0),
		Indent:  m.cfg.Indent,
		Spacing: 0,
		Theme:   m.theme,
		Now:     m.now(),
	})
	m.cursor = clampCursor(m.cursor, m.frame.Len())
}

func (m Model) activate(a outline.Affordance) action.Action {
	row, ok := m.currentRow()
	if !ok {
		return action.Action{}
	}
	return row.Activate(a)
}

func (m Model) currentRow() (outline.Row, bool) {
	rows := m.frame.Rows()
	if len(rows) == 0 {
		return outline.Row{}, false
	}
	return rows[clampCursor(m.cursor, len(rows))], true
}

func (m Model) hasSelection() bool {
	for range m.app.Tree().SelectionIDs() {
		return true
	}
	return false
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.failed = false
}

func (m *Model) setError(err error) {
	m.status = errorMessage(err)
	m.failed = true
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(strings.Join(m.app.Breadcrumbs(), " › ")))
	b.WriteString("\n\n")

	cursor := m.cursor
	if m.mode != modeBrowse {
		cursor = -1
	}
	view := m.frame.View(cursor)
	b.WriteString(view)
	if pad := max(m.height-headerLines-footerLines, 0) - strings.Count(view, "\n") - 1; pad > 0 {
		b.WriteString(strings.Repeat("\n", pad))
	}
	b.WriteString("\n")

	if m.mode == modeInput {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	if m.failed {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(renderHelp(m.cfg.Keys))

	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s select • %s/%s in/out • %s add • %s delete • %s rename • %s due • %s session • %s link • %s/%s import/export • %s quit",
		k.Up, k.Down, keyLabel(k.Toggle), k.Descend, k.Ascend, k.Add, k.Delete, k.Rename, k.DueDate, k.AddSession, k.Link, k.Import, k.Export, k.Quit)
}

func keyLabel(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func doneMessage(act action.Action) string {
	switch act.Kind {
	case action.Add:
		return "Added task"
	case action.Delete:
		return "Deleted"
	case action.Rename:
		return "Renamed"
	case action.SetDueDate:
		return "Due date set"
	case action.AddSession:
		return "Session recorded"
	case action.Toggle:
		return "Selection changed"
	case action.Import:
		return "Imported from clipboard"
	case action.Export:
		return "Exported to clipboard"
	}
	return ""
}

func errorMessage(err error) string {
	var be *app.BridgeError
	var se *app.StoreError
	switch {
	case errors.As(err, &be):
		return "clipboard " + be.Error()
	case errors.As(err, &se):
		return se.Op + " failed: " + se.Err.Error()
	default:
		return err.Error()
	}
}

// parseInput turns what was typed into the input of the pending action.
func parseInput(kind action.Kind, v string) (app.Input, error) {
	v = strings.TrimSpace(v)
	switch kind {
	case action.SetDueDate:
		t, err := parseWhen(v)
		if err != nil {
			return app.Input{}, err
		}
		return app.Input{End: t}, nil
	case action.AddSession:
		start, end, ok := strings.Cut(v, " to ")
		if !ok {
			return app.Input{}, errors.New("session must look like: <start> to <end>")
		}
		s, err := parseWhen(start)
		if err != nil {
			return app.Input{}, err
		}
		e, err := parseWhen(end)
		if err != nil {
			return app.Input{}, err
		}
		if e.Before(s) {
			return app.Input{}, errors.New("session ends before it starts")
		}
		return app.Input{Start: s, End: e}, nil
	default:
		if v == "" {
			return app.Input{}, errors.New("name cannot be empty")
		}
		return app.Input{Text: v}, nil
	}
}

func parseWhen(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{whenLayout, dayLayout} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or YYYY-MM-DD HH:MM", v)
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
