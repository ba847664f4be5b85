// Package protocol defines the wire messages exchanged with the practice service.
//
// Control messages travel client to service as JSON text frames on the same
// channel as the binary audio frames. The service replies with JSON events
// tagged by a status field.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Commands accepted by the service.
const (
	CommandSetTempo     = "set_tempo"
	CommandSetNoteIndex = "set_note_index"
	CommandGetSummary   = "get_summary"
)

// Statuses reported by the service.
const (
	StatusAnalyzed = "analyzed"
	StatusSummary  = "summary"
)

// Control is an outbound control message.
type Control struct {
	Command   string   `json:"command"`
	Tempo     *float64 `json:"tempo,omitempty"`
	NoteIndex *int     `json:"note_index,omitempty"`
}

// SetTempo builds a set_tempo control message.
func SetTempo(bpm float64) Control {
	return Control{Command: CommandSetTempo, Tempo: &bpm}
}

// SetNoteIndex builds a set_note_index control message.
func SetNoteIndex(index int) Control {
	return Control{Command: CommandSetNoteIndex, NoteIndex: &index}
}

// GetSummary builds a get_summary control message.
func GetSummary() Control {
	return Control{Command: CommandGetSummary}
}

// Analysis carries the per-frame feedback for streamed audio.
type Analysis struct {
	OnsetDetected    bool     `json:"onset_detected"`
	IsRest           bool     `json:"is_rest"`
	CurrentNoteIndex int      `json:"current_note_index"`
	AccuracyLevel    string   `json:"accuracy_level,omitempty"`
	PitchAccurate    *bool    `json:"pitch_accurate,omitempty"`
	IsRightNote      *bool    `json:"is_right_note,omitempty"`
	CentsOff         *float64 `json:"cents_off,omitempty"`
	DetectedNote     string   `json:"detected_note,omitempty"`
	ExpectedPitch    string   `json:"expected_pitch,omitempty"`
}

// Event is one inbound service message. Payloads without a recognized
// status are still valid events; Raw keeps the original frame for
// generic feedback consumers.
type Event struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`

	Analysis *Analysis       `json:"-"`
	Raw      json.RawMessage `json:"-"`
}

// ParseEvent decodes one inbound text frame. Analyzed payloads carry
// their analysis fields flat beside the status tag.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if ev.Status == StatusAnalyzed {
		var a Analysis
		if err := json.Unmarshal(data, &a); err != nil {
			return Event{}, fmt.Errorf("failed to decode analysis: %w", err)
		}
		ev.Analysis = &a
	}
	ev.Raw = append(json.RawMessage(nil), data...)
	return ev, nil
}
