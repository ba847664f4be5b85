// Package session owns one full lifecycle of a streaming connection to
// the practice service: the socket, the audio capture graph and the PCM
// encoder feeding it.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ojansen/encore/internal/pcm"
	"github.com/ojansen/encore/internal/protocol"
)

const (
	// frameQueueSize bounds audio buffered between the capture thread
	// and the socket writer. At 128-sample quanta this is under 100ms.
	frameQueueSize = 32

	// closeFlushDelay gives a final get_summary request time to flush
	// before the channel closes.
	closeFlushDelay = 250 * time.Millisecond

	closeWriteWait = time.Second
)

// Callbacks receive inbound analysis traffic. All fields are optional.
// They are invoked from the session's read goroutine.
type Callbacks struct {
	// Feedback fires for every parsed inbound payload.
	Feedback func(protocol.Event)
	// Onset fires at most once per session, on the first analyzed
	// payload with onset_detected set.
	Onset func()
	// Analysis fires for every analyzed payload.
	Analysis func(protocol.Analysis)
	// Summary fires for summary payloads.
	Summary func(data json.RawMessage)
	// Error fires for channel-level failures. The session does not
	// retry; the caller decides whether to start again.
	Error func(error)
}

// CaptureGraph is the microphone source feeding a session.
type CaptureGraph interface {
	Start(onFrame func([]float32)) error
	Stop()
}

// Streamer manages at most one active streaming session at a time.
// Starting while a session is active tears the old one down first.
type Streamer struct {
	serverURL string
	capture   CaptureGraph
	cb        Callbacks

	mu  sync.Mutex // serializes Start/Stop transitions
	cur atomic.Pointer[channel]
}

// channel is one session's socket plus its frame queue. Replacing the
// channel pointer invalidates every goroutine and timer bound to the
// old instance.
type channel struct {
	id        string
	conn      *websocket.Conn
	frames    chan []byte
	done      chan struct{}
	writeMu   sync.Mutex
	onsetOnce sync.Once
	closeOnce sync.Once
}

// New builds a streamer for the given service base URL.
func New(serverURL string, capture CaptureGraph, cb Callbacks) *Streamer {
	return &Streamer{serverURL: serverURL, capture: capture, cb: cb}
}

// Start opens a session for the given excerpt: any prior session is
// torn down, a fresh session ID is allocated, the channel is dialed,
// a set_tempo control message is sent and microphone capture begins.
// It returns once the channel is open and capture is running, or with
// the first error encountered.
func (s *Streamer) Start(ctx context.Context, excerptID string, tempo float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(false)

	sessionID := uuid.NewString()
	addr, err := endpoint(s.serverURL, excerptID, sessionID)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	ch := &channel{
		id:     sessionID,
		conn:   conn,
		frames: make(chan []byte, frameQueueSize),
		done:   make(chan struct{}),
	}
	if err := ch.writeControl(protocol.SetTempo(tempo)); err != nil {
		ch.shutdown(0)
		return fmt.Errorf("failed to send set_tempo: %w", err)
	}

	s.cur.Store(ch)
	go s.writeLoop(ch)
	go s.readLoop(ch)

	if err := s.capture.Start(s.handleFrame); err != nil {
		s.stopLocked(false)
		return fmt.Errorf("failed to start capture: %w", err)
	}
	return nil
}

// Stop tears the active session down: a summary request is fired off,
// the channel close is scheduled shortly after so the request can
// flush, and the capture graph is released. The streamer is reusable
// for a new Start afterwards. Stopping an idle streamer is a no-op.
func (s *Streamer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(true)
}

// SendNoteIndex transmits the current note index upstream. Dropped
// with a warning when no channel is open.
func (s *Streamer) SendNoteIndex(index int) {
	s.send(protocol.SetNoteIndex(index))
}

// RequestSummary asks the service for a session summary. Dropped with
// a warning when no channel is open.
func (s *Streamer) RequestSummary() {
	s.send(protocol.GetSummary())
}

// Active reports whether a session is in progress.
func (s *Streamer) Active() bool {
	return s.cur.Load() != nil
}

// SessionID returns the active session's identifier, or empty.
func (s *Streamer) SessionID() string {
	if ch := s.cur.Load(); ch != nil {
		return ch.id
	}
	return ""
}

func (s *Streamer) stopLocked(flush bool) {
	ch := s.cur.Swap(nil)
	s.capture.Stop()
	if ch == nil {
		return
	}
	if flush {
		if err := ch.writeControl(protocol.GetSummary()); err != nil {
			logErrf("failed to request summary on stop: %v\n", err)
		}
		ch.shutdown(closeFlushDelay)
		return
	}
	ch.shutdown(0)
}

func (s *Streamer) send(msg protocol.Control) {
	ch := s.cur.Load()
	if ch == nil {
		logErrf("dropping %s: channel not open\n", msg.Command)
		return
	}
	if err := ch.writeControl(msg); err != nil {
		logErrf("dropping %s: %v\n", msg.Command, err)
	}
}

// handleFrame runs on the capture device's audio thread. It must never
// block on network I/O: frames are handed to the writer through a
// bounded queue and dropped when the transport is behind.
func (s *Streamer) handleFrame(samples []float32) {
	ch := s.cur.Load()
	if ch == nil {
		return
	}
	select {
	case ch.frames <- pcm.Encode(samples):
	default:
	}
}

func (s *Streamer) writeLoop(ch *channel) {
	for {
		select {
		case <-ch.done:
			return
		case frame := <-ch.frames:
			ch.writeMu.Lock()
			err := ch.conn.WriteMessage(websocket.BinaryMessage, frame)
			ch.writeMu.Unlock()
			if err != nil {
				s.reportError(ch, fmt.Errorf("failed to send audio frame: %w", err))
				return
			}
		}
	}
}

func (s *Streamer) readLoop(ch *channel) {
	for {
		msgType, data, err := ch.conn.ReadMessage()
		if err != nil {
			s.reportError(ch, fmt.Errorf("channel closed: %w", err))
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.dispatch(ch, data)
	}
}

func (s *Streamer) dispatch(ch *channel, data []byte) {
	ev, err := protocol.ParseEvent(data)
	if err != nil {
		logErrf("dropping malformed service payload: %v\n", err)
		return
	}
	if s.cb.Feedback != nil {
		s.cb.Feedback(ev)
	}
	switch ev.Status {
	case protocol.StatusAnalyzed:
		if ev.Analysis == nil {
			return
		}
		if ev.Analysis.OnsetDetected && s.cb.Onset != nil {
			ch.onsetOnce.Do(s.cb.Onset)
		}
		if s.cb.Analysis != nil {
			s.cb.Analysis(*ev.Analysis)
		}
	case protocol.StatusSummary:
		if s.cb.Summary != nil {
			s.cb.Summary(ev.Data)
		}
	}
}

// reportError surfaces channel failures unless the channel was already
// shut down, in which case the error is ordinary cancellation fallout.
func (s *Streamer) reportError(ch *channel, err error) {
	select {
	case <-ch.done:
		return
	default:
	}
	if s.cb.Error != nil {
		s.cb.Error(err)
	}
}

func (ch *channel) writeControl(msg protocol.Control) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode control message: %w", err)
	}
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	return ch.conn.WriteMessage(websocket.TextMessage, data)
}

// shutdown closes the channel once, after the given delay. The done
// signal is raised immediately so the writer stops and late read
// errors are treated as cancellation.
func (ch *channel) shutdown(delay time.Duration) {
	ch.closeOnce.Do(func() {
		close(ch.done)
		closeConn := func() {
			deadline := time.Now().Add(closeWriteWait)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := ch.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
				// Best-effort close handshake.
				_ = err
			}
			if err := ch.conn.Close(); err != nil {
				_ = err
			}
		}
		if delay > 0 {
			time.AfterFunc(delay, closeConn)
			return
		}
		closeConn()
	})
}

func endpoint(serverURL, excerptID, sessionID string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/audio/" +
		url.PathEscape(excerptID) + "/" + url.PathEscape(sessionID)
	return u.String(), nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
