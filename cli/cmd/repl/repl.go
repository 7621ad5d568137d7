package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/psheet/lang"
	"github.com/ardnew/psheet/log"
	"github.com/ardnew/psheet/view"
)

// Loader parses sheet text and returns its view.
type Loader func(ctx context.Context, text string) (*view.View, error)

// reloadMsg is sent when an edit produced a new sheet.
type reloadMsg struct {
	view *view.View
	text string
}

// editCancelledMsg is sent when the user emptied the editor buffer.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit a broken sheet.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the editor could not be run.
type editErrorMsg struct{ err error }

const (
	queryPrompt = "» "
	ctrlPrompt  = " :"
)

const helpMessage = `
: Commands (press Esc to toggle mode):

  help     Print this message
  list     List property routes, optionally under a prefix
  edit     Edit the sheet in $EDITOR and reload it
  clear    Clear screen
  quit     Exit

Usage:
  Type a route such as compiler.flags to print its values
  Type <% expr %> to evaluate an instruction
  Completions appear as you type; Tab / Shift-Tab cycle them
  Press Esc to toggle between query and command modes
  Use Up/Down for history, Shift+Up/Shift+Down within the current mode
  Press Ctrl+C on an empty line or Ctrl+D to exit
`

// inputMode is the interpretation of the input line.
type inputMode int

const (
	modeQuery inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	routeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Underline(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true).Underline(true)
)

func echo(mode inputMode, input string) tea.Cmd {
	if mode == modeCtrl {
		return tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))
	}

	return tea.Println(promptStyle.Render(queryPrompt) + inputStyle.Render(input))
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctx     context.Context
	input   textinput.Model
	view    *view.View
	tree    routeTree
	text    string
	load    Loader
	logger  log.Logger
	history *History

	historyIdx int

	matches      fuzzy.Matches
	completion   completion
	suggIdx      int
	tabActive    bool
	preTabText   string
	preTabCursor int

	width    int
	quitting bool

	mode       inputMode
	queryText  string
	ctrlText   string
	queryCurs  int
	ctrlCursor int
}

// Run starts an interactive session over the sheet text. load parses text
// initially and after every edit. Submitted lines are recorded in the
// history file at historyPath unless it is empty.
func Run(
	ctx context.Context,
	text string,
	load Loader,
	historyPath string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if load == nil {
		return ErrNoLoader
	}

	v, err := load(ctx, text)
	if err != nil {
		return err
	}

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history",
			slog.String("path", historyPath),
			slog.Any("error", err))
	}

	logger.TraceContext(ctx, "repl start",
		slog.String("history", historyPath),
		slog.Int("history_entries", history.Len()))

	m, err := newModel(ctx, v, text, load, history, logger)
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	v *view.View,
	text string,
	load Loader,
	history *History,
	logger log.Logger,
) (model, error) {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(queryPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	m := model{
		ctx:        ctx,
		input:      ti,
		text:       text,
		load:       load,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeQuery,
	}

	if err := m.setView(v); err != nil {
		return model{}, err
	}

	return m, nil
}

// setView replaces the view and reindexes its routes.
func (m *model) setView(v *view.View) error {
	routes, err := v.Routes(m.ctx)
	if err != nil {
		return err
	}

	m.view = v
	m.tree = newRouteTree(routes)

	return nil
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(queryPrompt) - 2

		return m, nil

	case reloadMsg:
		if err := m.setView(msg.view); err != nil {
			return m, tea.Println(errorStyle.Render("error: " + err.Error()))
		}

		m.text = msg.text
		m.logger.TraceContext(m.ctx, "repl reload", slog.Int("routes", len(m.tree)))

		return m, tea.Println(resultStyle.Render("sheet reloaded"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	cursor := m.input.Position()

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		if m.mode == modeQuery {
			b.WriteString(hintStyle.Render("Type a route or <% expr %>, or press Esc for commands"))
		} else {
			b.WriteString(hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"))
		}

	case m.mode == modeQuery && inInstruction(input, cursor) && len(m.matches) == 0:
		call := detectFunctionCall(input, cursor)
		if !call.inCall {
			break
		}

		if sig, params := signature(call.name); sig != "" {
			b.WriteString(renderSignatureHint(sig, params, call.argIndex))
		}

	default:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctx, "repl keypress", slog.String("key", msg.String()))

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.refreshMatches(false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.submit()
		}

		m.tabActive = false
		m.refreshMatches(true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyStep(-1, false), nil

	case tea.KeyDown:
		return m.historyStep(1, false), nil

	case tea.KeyShiftUp:
		return m.historyStep(-1, true), nil

	case tea.KeyShiftDown:
		return m.historyStep(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			m.refreshMatches(false)

			return m, nil
		}

		if m.mode == modeQuery {
			return m.switchToMode(modeCtrl), nil
		}

		return m.switchToMode(modeQuery), nil

	case tea.KeyRunes, tea.KeySpace:
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		m.refreshMatches(true)

		return m, cmd
	}

	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refreshMatches(false)

	return m, cmd
}

// cycle steps through the candidates in direction dir. A sole candidate is
// completed immediately.
func (m model) cycle(dir int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		m.replaceWord(m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + dir + n) % n
	case dir > 0:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0
	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = n - 1
	}

	m.replaceWord(m.matches[m.suggIdx].Str)

	return m
}

// replaceWord substitutes s for the word under completion and moves the
// cursor after it.
func (m *model) replaceWord(s string) {
	input := m.input.Value()
	c := m.completion

	m.input.SetValue(input[:c.start] + s + input[c.end:])
	m.input.SetCursor(c.start + len(s))

	m.completion.end = c.start + len(s)
}

// refreshMatches recomputes the candidates. With autoConfirm, a sole
// candidate equal to the typed word is accepted.
func (m *model) refreshMatches(autoConfirm bool) {
	m.matches, m.completion = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.completion.word == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) submit() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.input.SetValue("")
	m.queryText, m.queryCurs = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.matches = nil

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctx, "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		return m.command(input)
	}

	return m, tea.Sequence(echo(modeQuery, input), tea.Println(m.query(input)))
}

// query evaluates an instruction or resolves a route and renders the
// result.
func (m model) query(input string) string {
	m.logger.TraceContext(m.ctx, "repl query", slog.String("input", input))

	if body, ok := instruction(input); ok {
		vals, err := m.view.Context().Instruction(body, nil)
		if err != nil {
			return errorStyle.Render("error: " + err.Error())
		}

		return resultStyle.Render(strings.Join(vals, lang.ScalarSeparator))
	}

	vals, err := m.view.Get(m.ctx, input)

	switch {
	case err == nil:
		return resultStyle.Render(strings.Join(vals, lang.ScalarSeparator))

	case errors.Is(err, view.ErrNotAProperty):
		if list := m.list(input); list != "" {
			return list
		}

	case errors.Is(err, lang.ErrRouteNotFound):
		if near := m.view.Suggest(input); len(near) > 0 {
			return errorStyle.Render("error: "+err.Error()) + "\n" +
				hintStyle.Render("did you mean: "+strings.Join(near, ", "))
		}
	}

	return errorStyle.Render("error: " + err.Error())
}

// instruction returns the body of input if it is a single "<% ... %>".
func instruction(input string) (string, bool) {
	body, ok := strings.CutPrefix(input, "<%")
	if !ok {
		return "", false
	}

	if body, ok = strings.CutSuffix(body, "%>"); !ok {
		return "", false
	}

	return strings.TrimSpace(body), true
}

// list renders the routes under prefix with their values.
func (m model) list(prefix string) string {
	routes, err := m.view.Routes(m.ctx)
	if err != nil {
		return errorStyle.Render("error: " + err.Error())
	}

	var b strings.Builder

	for _, r := range routes {
		name := r.String()
		if prefix != "" && name != prefix && !strings.HasPrefix(name, prefix+".") {
			continue
		}

		val, err := m.view.Value(m.ctx, r)
		if err != nil {
			val = errorStyle.Render(err.Error())
		} else {
			val = hintStyle.Render(val)
		}

		fmt.Fprintf(&b, "  %s %s\n", routeStyle.Render(name), val)
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (m model) command(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	name, args := parts[0], parts[1:]

	m.logger.TraceContext(m.ctx, "repl command",
		slog.String("command", name),
		slog.Any("args", args))

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo(modeCtrl, input), tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo(modeCtrl, input), tea.Printf("%s", helpMessage))

	case "l", "list":
		var prefix string
		if len(args) > 0 {
			prefix = args[0]
		}

		return m, tea.Sequence(echo(modeCtrl, input), tea.Println(m.list(prefix)))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo(modeCtrl, input), m.edit())
	}

	return m, tea.Println(
		errorStyle.Render("unknown command: " + name + " (try 'help')"),
	)
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		ctx:    m.ctx,
		text:   m.text,
		load:   m.load,
		logger: m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.view == nil:
			return editCancelledMsg{}
		}

		return reloadMsg{view: cmd.view, text: cmd.newText}
	})
}

// historyStep moves dir entries through the history. Unless sameMode is
// set, the input mode follows the entry. Stepping past the newest entry
// clears the input.
func (m model) historyStep(dir int, sameMode bool) model {
	for i := m.historyIdx + dir; i >= 0 && i < m.history.Len(); i += dir {
		entry, err := m.history.Entry(i)
		if err != nil {
			break
		}

		if sameMode && entry.Mode != m.mode {
			continue
		}

		if entry.Mode != m.mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		m.refreshMatches(false)

		return m
	}

	if dir > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m.refreshMatches(false)
	}

	return m
}

// switchToMode changes the input mode, keeping each mode's pending input.
func (m model) switchToMode(mode inputMode) model {
	if m.mode == modeQuery {
		m.queryText, m.queryCurs = m.input.Value(), m.input.Position()
	} else {
		m.ctrlText, m.ctrlCursor = m.input.Value(), m.input.Position()
	}

	m.mode = mode

	if mode == modeQuery {
		m.input.Prompt = promptStyle.Render(queryPrompt)
		m.input.SetValue(m.queryText)
		m.input.SetCursor(m.queryCurs)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	m.tabActive = false
	m.refreshMatches(false)

	return m
}
