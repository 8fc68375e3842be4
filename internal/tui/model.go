// Package tui implements the interactive controller editor.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"board-tracker/internal/editor"
	"board-tracker/internal/errors"
	"board-tracker/internal/security"
	"board-tracker/internal/session"
	"board-tracker/pkg/utils"
)

// View selects what the body of the editor shows.
type View int

const (
	ViewFields View = iota
	ViewHistory
	ViewLogs
)

var keys = struct {
	Quit, Up, Down, Left, Right, Enter, Back key.Binding
	Toggle, Save, Update, Load, Reset        key.Binding
	History, Logs, Clear, Refresh            key.Binding
}{
	Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q")),
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Left:    key.NewBinding(key.WithKeys("left")),
	Right:   key.NewBinding(key.WithKeys("right")),
	Enter:   key.NewBinding(key.WithKeys("enter")),
	Back:    key.NewBinding(key.WithKeys("esc")),
	Toggle:  key.NewBinding(key.WithKeys("s")),
	Save:    key.NewBinding(key.WithKeys("w")),
	Update:  key.NewBinding(key.WithKeys("u")),
	Load:    key.NewBinding(key.WithKeys("l")),
	Reset:   key.NewBinding(key.WithKeys("R")),
	History: key.NewBinding(key.WithKeys("h")),
	Logs:    key.NewBinding(key.WithKeys("g")),
	Clear:   key.NewBinding(key.WithKeys("c")),
	Refresh: key.NewBinding(key.WithKeys("r")),
}

// doneMsg reports the end of a session call started by the editor.
type doneMsg struct {
	action string
	err    error
}

// Options configures a Model.
type Options struct {
	// Timeout bounds each agent call; zero means no bound.
	Timeout time.Duration
	// Status shows session notifications. It should be one of the session's
	// notification channels.
	Status *StatusLine
	// MaskCredentials hides credential values outside the edit box.
	MaskCredentials bool
}

// Model is the editor's bubbletea model. It drives one session.
type Model struct {
	ctx     context.Context
	session *session.Session
	opts    Options

	view          View
	cursor        int
	historyCursor int

	editing   bool
	editField editor.Field
	input     textinput.Model

	problem string
	width   int
	height  int
}

// NewModel creates the editor for s.
func NewModel(ctx context.Context, s *session.Session, opts Options) *Model {
	if opts.Status == nil {
		opts.Status = NewStatusLine()
	}

	input := textinput.New()
	input.Cursor.SetMode(cursor.CursorStatic)
	input.Prompt = ""
	input.CharLimit = 128
	input.Width = 40

	return &Model{
		ctx:     ctx,
		session: s,
		opts:    opts,
		input:   input,
	}
}

// Run shows the editor until the operator quits. The session is closed on
// return so results still in flight are discarded.
func Run(m *Model) error {
	defer m.session.Close()
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init loads the agent's controller into the draft.
func (m *Model) Init() tea.Cmd {
	return m.run("load", m.session.Load)
}

func (m *Model) run(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx := m.ctx
		if m.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
			defer cancel()
		}
		return doneMsg{action: action, err: fn(ctx)}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case doneMsg:
		m.problem = ""
		if msg.err != nil && (errors.IsValidation(msg.err) || errors.Is(msg.err, errors.ErrBusy)) {
			m.problem = fmt.Sprintf("%s: %v", msg.action, msg.err)
		}
		m.clamp()
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		if key.Matches(msg, keys.Quit) {
			m.session.Close()
			return m, tea.Quit
		}
		switch m.view {
		case ViewHistory:
			return m.updateHistory(msg)
		case ViewLogs:
			return m.updateLogs(msg)
		default:
			return m.updateFields(msg)
		}
	}

	return m, nil
}

func (m *Model) updateFields(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Load, reset and exchange selection replace the draft off the update
	// loop, so the field list may have shrunk since the last message.
	fields := m.session.Fields()
	if m.cursor >= len(fields) {
		m.cursor = len(fields) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if len(fields) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(fields)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Left):
		return m, m.cycle(fields[m.cursor], -1)
	case key.Matches(msg, keys.Right):
		return m, m.cycle(fields[m.cursor], 1)
	case key.Matches(msg, keys.Enter):
		f := fields[m.cursor]
		if editor.Options(f) != nil {
			return m, m.cycle(f, 1)
		}
		return m, m.startEditing(f)
	case key.Matches(msg, keys.Toggle):
		if m.session.Draft().IsRunning {
			return m, m.run("stop", m.session.Stop)
		}
		return m, m.run("start", m.session.Start)
	case key.Matches(msg, keys.Save):
		return m, m.run("save", m.session.Save)
	case key.Matches(msg, keys.Update):
		return m, m.run("update", m.session.Update)
	case key.Matches(msg, keys.Load):
		return m, m.run("load", m.session.Load)
	case key.Matches(msg, keys.Reset):
		return m, m.run("reset", m.session.Reset)
	case key.Matches(msg, keys.History):
		m.view = ViewHistory
		m.historyCursor = len(m.session.History()) - 1
		m.clamp()
	case key.Matches(msg, keys.Logs):
		m.view = ViewLogs
		return m, m.fetchLogs()
	case key.Matches(msg, keys.Back):
		m.problem = ""
		m.opts.Status.Clear()
	}
	return m, nil
}

// cycle steps an enumerated field through its options. Selecting an
// exchange also refreshes the instrument catalog.
func (m *Model) cycle(f editor.Field, dir int) tea.Cmd {
	opts := editor.Options(f)
	if len(opts) == 0 {
		return nil
	}

	current := editor.Value(m.session.Draft(), f)
	next := -1
	for i, o := range opts {
		if o == current {
			next = (i + dir + len(opts)) % len(opts)
			break
		}
	}
	if next < 0 {
		next = 0
		if dir < 0 {
			next = len(opts) - 1
		}
	}
	value := opts[next]

	if f == editor.ExchangeName {
		return m.run("select exchange", func(ctx context.Context) error {
			return m.session.SelectExchange(ctx, value)
		})
	}
	m.edit(f, value)
	return nil
}

func (m *Model) edit(f editor.Field, value string) {
	m.problem = ""
	if err := m.session.Edit(editor.Edit{Field: f, Value: value}); err != nil {
		m.problem = err.Error()
	}
	m.clamp()
}

func (m *Model) startEditing(f editor.Field) tea.Cmd {
	m.editing = true
	m.editField = f
	m.input.EchoMode = textinput.EchoNormal
	if editor.Secret(f) {
		m.input.EchoMode = textinput.EchoPassword
	}
	m.input.SetValue(editor.Value(m.session.Draft(), f))
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.session.Close()
		return m, tea.Quit
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.editing = false
		m.input.Blur()
		value := m.input.Value()
		if m.editField == editor.OrderSymbol {
			return m, m.run("select symbol", func(ctx context.Context) error {
				return m.session.SelectSymbol(ctx, value)
			})
		}
		m.edit(m.editField, value)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.historyCursor > 0 {
			m.historyCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.historyCursor < len(m.session.History())-1 {
			m.historyCursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(m.session.History()) == 0 {
			return m, nil
		}
		m.problem = ""
		if err := m.session.Recall(m.historyCursor); err != nil {
			m.problem = err.Error()
			return m, nil
		}
		m.view = ViewFields
		m.clamp()
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.History):
		m.view = ViewFields
	}
	return m, nil
}

func (m *Model) updateLogs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Refresh):
		return m, m.fetchLogs()
	case key.Matches(msg, keys.Clear):
		return m, m.run("clear logs", m.session.ClearLogs)
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Logs):
		m.view = ViewFields
	}
	return m, nil
}

func (m *Model) fetchLogs() tea.Cmd {
	return m.run("logs", func(ctx context.Context) error {
		_, err := m.session.FetchLogs(ctx)
		return err
	})
}

// clamp keeps the cursors inside the lists, which change with the exchange
// and the ledger.
func (m *Model) clamp() {
	if n := len(m.session.Fields()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if n := len(m.session.History()); m.historyCursor >= n {
		m.historyCursor = n - 1
	}
	if m.historyCursor < 0 {
		m.historyCursor = 0
	}
}

// View renders the editor.
func (m *Model) View() string {
	var body string
	switch m.view {
	case ViewHistory:
		body = m.viewHistory()
	case ViewLogs:
		body = m.viewLogs()
	default:
		body = m.viewFields()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		PanelStyle.Render(body),
		m.viewStatus(),
		HelpStyle.Render(m.help()),
	)
}

func (m *Model) viewHeader() string {
	state := StoppedStyle.Render("○ stopped")
	if m.session.Draft().IsRunning {
		state = RunningStyle.Render("● running")
	}

	var busy []string
	for _, a := range []session.Action{session.ActionLifecycle, session.ActionInstruments, session.ActionTicker, session.ActionLogs} {
		if m.session.Busy(a) {
			busy = append(busy, a.String())
		}
	}
	header := TitleStyle.Render("Board Tracker") + "  " + state
	if len(busy) > 0 {
		header += "  " + BusyStyle.Render("… "+strings.Join(busy, ", "))
	}
	return header
}

func (m *Model) viewFields() string {
	draft := m.session.Draft()
	var b strings.Builder

	for i, f := range m.session.Fields() {
		marker := "  "
		if i == m.cursor {
			marker = CursorStyle.Render("› ")
		}

		var value string
		switch {
		case m.editing && f == m.editField:
			value = m.input.View()
		case editor.Secret(f) && m.opts.MaskCredentials:
			value = security.MaskCredential(editor.Value(draft, f))
		default:
			value = editor.Value(draft, f)
		}
		if opts := editor.Options(f); opts != nil && i == m.cursor && !m.editing {
			value = "‹ " + value + " ›"
		}

		b.WriteString(marker + LabelStyle.Render(string(f)) + ValueStyle.Render(value) + "\n")
	}

	if inst := m.session.SelectedInstrument(); inst != nil {
		b.WriteString(HelpStyle.Render(fmt.Sprintf("\n%s  tick %s  min %s  catalog %d",
			inst.Symbol, formatFloat(inst.PriceTick), formatFloat(inst.SizeMin), len(m.session.Instruments()))))
	} else if n := len(m.session.Instruments()); n > 0 {
		b.WriteString(HelpStyle.Render(fmt.Sprintf("\ncatalog %d instruments", n)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) viewHistory() string {
	entries := m.session.History()
	if len(entries) == 0 {
		return TitleStyle.Render("History") + "\n" + HelpStyle.Render("Nothing started yet")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("History") + "\n")
	for i, e := range entries {
		marker := "  "
		if i == m.historyCursor {
			marker = CursorStyle.Render("› ")
		}
		fmt.Fprintf(&b, "%s%s  %s\n", marker, HelpStyle.Render(e.AppliedAt.Local().Format(utils.ClockFormat)), e.Key)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) viewLogs() string {
	entries := m.session.Logs()
	if len(entries) == 0 {
		return TitleStyle.Render("Journal") + "\n" + HelpStyle.Render("No entries")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Journal") + "\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %s  %s\n",
			HelpStyle.Render(utils.FormatClock(e.Timestamp, time.Local)),
			levelStyle(e.Level).Render(fmt.Sprintf("%-7s", e.Level)),
			e.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) viewStatus() string {
	var lines []string
	if n, ok := m.opts.Status.Last(); ok {
		text := n.Title
		if n.Message != "" {
			text += ": " + n.Message
		}
		lines = append(lines, levelStyle(string(n.Level)).Render(text))
	}
	if m.problem != "" {
		lines = append(lines, ErrorStyle.Render(m.problem))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) help() string {
	switch {
	case m.editing:
		return "enter apply • esc cancel"
	case m.view == ViewHistory:
		return "↑/↓ select • enter recall • esc back"
	case m.view == ViewLogs:
		return "r refresh • c clear • esc back"
	default:
		return "↑/↓ move • ←/→ cycle • enter edit • s start/stop • w save • u update • l load • R reset • h history • g logs • q quit"
	}
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
