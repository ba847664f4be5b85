package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ojansen/encore/internal/model"
	"github.com/ojansen/encore/internal/protocol"
	"github.com/ojansen/encore/internal/score"
)

type nopGraph struct{}

func (nopGraph) Start(func([]float32)) error { return nil }
func (nopGraph) Stop()                       {}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	ex, err := score.Load([]byte(`{
		"id": "x",
		"title": "Scale",
		"notes_and_rests": [
			{"pitch": "C4", "duration_quarter": 1, "offset": 0},
			{"pitch": "D4", "duration_quarter": 1, "offset": 1},
			{"pitch": "E4", "duration_quarter": 1, "offset": 2}
		]
	}`))
	if err != nil {
		t.Fatalf("load excerpt: %v", err)
	}
	cfg := model.Config{ServerURL: "http://127.0.0.1:1", Tempo: 120}
	return NewModel(cfg, ex, nil, nopGraph{})
}

func TestAnalysisFillsAccuracyMap(t *testing.T) {
	m := newTestModel(t)
	m.Update(analysisMsg(protocol.Analysis{CurrentNoteIndex: 1, AccuracyLevel: "good"}))
	if m.accuracy[1] != model.AccuracyGood {
		t.Fatalf("expected good accuracy for note 1, got %v", m.accuracy[1])
	}
}

func TestRestAnalysisDoesNotColor(t *testing.T) {
	m := newTestModel(t)
	m.Update(analysisMsg(protocol.Analysis{CurrentNoteIndex: 0, IsRest: true, AccuracyLevel: "poor"}))
	if _, ok := m.accuracy[0]; ok {
		t.Fatalf("rest analysis must not add accuracy entries")
	}
}

func TestAdvanceUpdatesCurrentIndex(t *testing.T) {
	m := newTestModel(t)
	m.Update(advanceMsg(2))
	if m.current != 2 {
		t.Fatalf("expected current index 2, got %d", m.current)
	}
}

func TestOnsetStartsSchedulerOffTheEventLoop(t *testing.T) {
	m := newTestModel(t)
	msgs := make(chan tea.Msg, 8)
	m.SetSender(func(msg tea.Msg) { msgs <- msg })
	m.recording = true

	// Update must hand scheduler startup to a command: Start fires the
	// index-0 advancement synchronously, and dispatching that from the
	// event-loop goroutine would block the program on its own Send.
	_, cmd := m.Update(onsetMsg{})
	if cmd == nil {
		t.Fatalf("expected onset to return a scheduler start command")
	}
	if m.sched.Running() {
		t.Fatalf("scheduler must not start inside Update")
	}

	cmd()
	select {
	case msg := <-msgs:
		adv, ok := msg.(advanceMsg)
		if !ok || int(adv) != 0 {
			t.Fatalf("expected advancement to index 0, got %#v", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the first advancement")
	}
	m.sched.Stop()
}

func TestSessionErrorStopsRecording(t *testing.T) {
	m := newTestModel(t)
	m.recording = true
	m.Update(sessionErrMsg{err: errTest})
	if m.recording {
		t.Fatalf("expected recording stopped on session error")
	}
	if m.errMsg == "" {
		t.Fatalf("expected an alert message")
	}
}

func TestFormatFeedback(t *testing.T) {
	cents := -14.2
	out := formatFeedback(protocol.Analysis{
		CurrentNoteIndex: 3,
		AccuracyLevel:    "fair",
		CentsOff:         &cents,
		DetectedNote:     "C#4",
		ExpectedPitch:    "D4",
	})
	for _, want := range []string{"note 3", "fair", "-14.2 cents", "heard C#4, expected D4"} {
		if !strings.Contains(out, want) {
			t.Fatalf("feedback %q missing %q", out, want)
		}
	}
	if got := formatFeedback(protocol.Analysis{CurrentNoteIndex: 1, IsRest: true}); got != "note 1 · rest" {
		t.Fatalf("unexpected rest feedback: %q", got)
	}
}

var errTest = errFixed("channel closed")

type errFixed string

func (e errFixed) Error() string { return string(e) }
