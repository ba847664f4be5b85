package protocol

import (
	"encoding/json"
	"testing"
)

func TestControlWireShape(t *testing.T) {
	data, err := json.Marshal(SetTempo(120))
	if err != nil {
		t.Fatalf("marshal set_tempo: %v", err)
	}
	if string(data) != `{"command":"set_tempo","tempo":120}` {
		t.Fatalf("unexpected set_tempo payload: %s", data)
	}

	data, err = json.Marshal(SetNoteIndex(0))
	if err != nil {
		t.Fatalf("marshal set_note_index: %v", err)
	}
	if string(data) != `{"command":"set_note_index","note_index":0}` {
		t.Fatalf("unexpected set_note_index payload: %s", data)
	}

	data, err = json.Marshal(GetSummary())
	if err != nil {
		t.Fatalf("marshal get_summary: %v", err)
	}
	if string(data) != `{"command":"get_summary"}` {
		t.Fatalf("unexpected get_summary payload: %s", data)
	}
}

func TestParseEventAnalyzed(t *testing.T) {
	payload := `{"status":"analyzed","onset_detected":true,"is_rest":false,"current_note_index":3,"accuracy_level":"good","cents_off":-12.5}`
	ev, err := ParseEvent([]byte(payload))
	if err != nil {
		t.Fatalf("parse analyzed event: %v", err)
	}
	if ev.Status != StatusAnalyzed {
		t.Fatalf("expected analyzed status, got %q", ev.Status)
	}
	if ev.Analysis == nil {
		t.Fatalf("expected analysis payload")
	}
	if !ev.Analysis.OnsetDetected || ev.Analysis.CurrentNoteIndex != 3 {
		t.Fatalf("unexpected analysis: %+v", ev.Analysis)
	}
	if ev.Analysis.AccuracyLevel != "good" {
		t.Fatalf("expected good accuracy, got %q", ev.Analysis.AccuracyLevel)
	}
	if ev.Analysis.CentsOff == nil || *ev.Analysis.CentsOff != -12.5 {
		t.Fatalf("unexpected cents_off: %v", ev.Analysis.CentsOff)
	}
}

func TestParseEventSummary(t *testing.T) {
	payload := `{"status":"summary","data":{"notes_played":12}}`
	ev, err := ParseEvent([]byte(payload))
	if err != nil {
		t.Fatalf("parse summary event: %v", err)
	}
	if ev.Status != StatusSummary {
		t.Fatalf("expected summary status, got %q", ev.Status)
	}
	if string(ev.Data) != `{"notes_played":12}` {
		t.Fatalf("unexpected summary data: %s", ev.Data)
	}
}

func TestParseEventOtherShaped(t *testing.T) {
	payload := `{"status":"received","bytes":256}`
	ev, err := ParseEvent([]byte(payload))
	if err != nil {
		t.Fatalf("parse feedback event: %v", err)
	}
	if ev.Status != "received" {
		t.Fatalf("expected received status, got %q", ev.Status)
	}
	if string(ev.Raw) != payload {
		t.Fatalf("expected raw payload to be preserved, got %s", ev.Raw)
	}
}

func TestParseEventMalformed(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"status":`)); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
