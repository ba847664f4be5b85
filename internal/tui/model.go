// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ojansen/encore/internal/model"
	"github.com/ojansen/encore/internal/overlay"
	"github.com/ojansen/encore/internal/protocol"
	"github.com/ojansen/encore/internal/scheduler"
	"github.com/ojansen/encore/internal/score"
	"github.com/ojansen/encore/internal/session"
)

const startTimeout = 15 * time.Second

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	feedbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	alertStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type keyMap struct {
	Record key.Binding
	Reset  key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Record: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/stop recording")),
		Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset cursor")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Record, k.Reset, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Record, k.Reset, k.Quit}}
}

// Messages forwarded into the event loop. Shared practice state (the
// accuracy map and current index) is mutated only inside Update.
type (
	advanceMsg        int
	onsetMsg          struct{}
	analysisMsg       protocol.Analysis
	summaryMsg        json.RawMessage
	sessionErrMsg     struct{ err error }
	sessionStartedMsg struct{ err error }
)

// Model implements the Bubble Tea practice UI.
type Model struct {
	cfg     model.Config
	excerpt *score.Excerpt
	loadErr error

	cursor   *score.Cursor
	sched    *scheduler.Scheduler
	streamer *session.Streamer

	send func(tea.Msg)

	accuracy    map[int]model.Accuracy
	current     int
	cursorShown bool

	recording  bool
	connecting bool
	feedback   string
	summary    string
	errMsg     string

	spin spinner.Model
	help help.Model
	keys keyMap

	width  int
	height int
}

// NewModel constructs a practice model. A nil excerpt with a non-nil
// loadErr renders the load failure in place of the score.
func NewModel(cfg model.Config, excerpt *score.Excerpt, loadErr error, graph session.CaptureGraph) *Model {
	m := &Model{
		cfg:      cfg,
		excerpt:  excerpt,
		loadErr:  loadErr,
		accuracy: map[int]model.Accuracy{},
		spin:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:     help.New(),
		keys:     newKeyMap(),
	}
	if excerpt != nil {
		m.cursor = score.NewCursor(excerpt)
		m.sched = scheduler.New(m.cursor, func(index int) {
			m.dispatch(advanceMsg(index))
		})
	}
	m.streamer = session.New(cfg.ServerURL, graph, session.Callbacks{
		Onset:    func() { m.dispatch(onsetMsg{}) },
		Analysis: func(a protocol.Analysis) { m.dispatch(analysisMsg(a)) },
		Summary:  func(data json.RawMessage) { m.dispatch(summaryMsg(data)) },
		Error:    func(err error) { m.dispatch(sessionErrMsg{err: err}) },
	})
	return m
}

// SetSender wires the program's message injector. Must be called
// before the program runs.
func (m *Model) SetSender(send func(tea.Msg)) {
	m.send = send
}

func (m *Model) dispatch(msg tea.Msg) {
	if m.send != nil {
		m.send(msg)
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.updateKeys(msg)
	case spinner.TickMsg:
		if !m.connecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case sessionStartedMsg:
		m.connecting = false
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("failed to start session: %v", msg.err)
			return m, nil
		}
		m.recording = true
		return m, nil
	case onsetMsg:
		if m.recording && m.sched != nil {
			m.cursorShown = true
			return m, m.startScheduler()
		}
		return m, nil
	case advanceMsg:
		m.current = int(msg)
		if m.recording {
			m.streamer.SendNoteIndex(m.current)
		}
		return m, nil
	case analysisMsg:
		m.applyAnalysis(protocol.Analysis(msg))
		return m, nil
	case summaryMsg:
		m.summary = indentJSON(json.RawMessage(msg))
		return m, nil
	case sessionErrMsg:
		m.errMsg = fmt.Sprintf("session error: %v", msg.err)
		m.stopSession()
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopSession()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Record):
		if m.loadErr != nil || m.connecting {
			return m, nil
		}
		if m.recording {
			m.stopSession()
			return m, nil
		}
		return m, m.startSession()
	case key.Matches(msg, m.keys.Reset):
		if m.sched != nil {
			m.sched.Reset()
		}
		m.current = 0
		m.cursorShown = false
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) startSession() tea.Cmd {
	m.connecting = true
	m.errMsg = ""
	m.summary = ""
	m.feedback = ""
	m.accuracy = map[int]model.Accuracy{}
	m.current = 0
	m.cursorShown = false
	if m.sched != nil {
		m.sched.Reset()
	}

	streamer := m.streamer
	excerptID := m.excerpt.ID
	tempo := m.cfg.Tempo
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		return sessionStartedMsg{err: streamer.Start(ctx, excerptID, tempo)}
	})
}

// startScheduler defers Scheduler.Start to a command goroutine. Start
// fires the index-0 advancement callback synchronously, and that
// callback re-enters the program through Send, which blocks while
// Update is running.
func (m *Model) startScheduler() tea.Cmd {
	sched, tempo := m.sched, m.cfg.Tempo
	return func() tea.Msg {
		sched.Start(tempo)
		return nil
	}
}

func (m *Model) stopSession() {
	if m.sched != nil {
		m.sched.Stop()
	}
	m.streamer.Stop()
	m.recording = false
	m.cursorShown = false
}

func (m *Model) applyAnalysis(a protocol.Analysis) {
	if !a.IsRest && a.AccuracyLevel != "" {
		m.accuracy[a.CurrentNoteIndex] = model.ParseAccuracy(a.AccuracyLevel)
	}
	m.feedback = formatFeedback(a)
}

func formatFeedback(a protocol.Analysis) string {
	if a.IsRest {
		return fmt.Sprintf("note %d · rest", a.CurrentNoteIndex)
	}
	segments := []string{fmt.Sprintf("note %d", a.CurrentNoteIndex)}
	if a.AccuracyLevel != "" {
		segments = append(segments, a.AccuracyLevel)
	}
	if a.CentsOff != nil {
		segments = append(segments, fmt.Sprintf("%+.1f cents", *a.CentsOff))
	}
	if a.DetectedNote != "" && a.ExpectedPitch != "" {
		segments = append(segments, fmt.Sprintf("heard %s, expected %s", a.DetectedNote, a.ExpectedPitch))
	}
	return strings.Join(segments, " · ")
}

func indentJSON(data json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.loadErr != nil {
		return m.place(alertStyle.Render(fmt.Sprintf("failed to load score: %v", m.loadErr)))
	}
	if m.excerpt == nil {
		return ""
	}

	sections := []string{m.renderHeader()}
	sections = append(sections, overlay.Render(m.excerpt.NotesAndRests, m.accuracy, m.current, m.cursorShown, m.contentWidth()))
	if m.feedback != "" {
		sections = append(sections, feedbackStyle.Render(m.feedback))
	}
	if m.summary != "" {
		sections = append(sections, infoStyle.Render("Summary\n"+m.summary))
	}
	if m.errMsg != "" {
		sections = append(sections, alertStyle.Render(m.errMsg))
	}
	return m.place(strings.Join(sections, "\n\n"))
}

func (m *Model) renderHeader() string {
	title := m.excerpt.Title
	if m.excerpt.Composer != "" {
		title += " — " + m.excerpt.Composer
	}
	details := []string{fmt.Sprintf("%.0f BPM", m.cfg.Tempo)}
	if m.excerpt.KeySignature != "" {
		details = append(details, m.excerpt.KeySignature)
	}
	if m.excerpt.TimeSignature != "" {
		details = append(details, m.excerpt.TimeSignature)
	}
	return titleStyle.Render(title) + "\n" + infoStyle.Render(strings.Join(details, " · "))
}

func (m *Model) renderFooter() string {
	status := "idle"
	switch {
	case m.connecting:
		status = m.spin.View() + " connecting"
	case m.recording:
		status = "recording"
	}
	return footerStyle.Render(status) + "  " + m.help.View(m.keys)
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	contentWidth := int(float64(m.width) * 0.80)
	if contentWidth < 1 {
		contentWidth = 1
	}
	return contentWidth
}

func (m *Model) place(content string) string {
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}
