// Package score loads musical excerpts and exposes a steppable position
// cursor over their timeline.
package score

import (
	"encoding/json"
	"fmt"
	"os"
)

// RestPitch marks a token as a rest rather than a playable note.
const RestPitch = "rest"

// Token is one note or rest in the excerpt timeline. Offsets and
// durations are expressed in quarter-note lengths.
type Token struct {
	Pitch           string  `json:"pitch"`
	DurationQuarter float64 `json:"duration_quarter"`
	Offset          float64 `json:"offset"`
	Grace           bool    `json:"grace,omitempty"`
}

// IsRest reports whether the token is a rest.
func (t Token) IsRest() bool {
	return t.Pitch == RestPitch || t.Pitch == ""
}

// Excerpt is one practice piece served by the practice service.
type Excerpt struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Composer      string  `json:"composer,omitempty"`
	Duration      float64 `json:"duration,omitempty"`
	KeySignature  string  `json:"key_signature,omitempty"`
	TimeSignature string  `json:"time_signature,omitempty"`
	Tempo         float64 `json:"tempo,omitempty"`
	NotesAndRests []Token `json:"notes_and_rests"`
}

// Load parses and validates raw excerpt JSON.
func Load(data []byte) (*Excerpt, error) {
	var ex Excerpt
	if err := json.Unmarshal(data, &ex); err != nil {
		return nil, fmt.Errorf("failed to decode excerpt: %w", err)
	}
	if err := validate(&ex); err != nil {
		return nil, err
	}
	return &ex, nil
}

// LoadFile reads and parses an excerpt JSON file.
func LoadFile(path string) (*Excerpt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read excerpt: %w", err)
	}
	return Load(data)
}

func validate(ex *Excerpt) error {
	if len(ex.NotesAndRests) == 0 {
		return fmt.Errorf("excerpt %q has no notes or rests", ex.Title)
	}
	prev := ex.NotesAndRests[0].Offset
	for i, tok := range ex.NotesAndRests[1:] {
		if tok.Offset < prev {
			return fmt.Errorf("excerpt %q has decreasing offset at position %d", ex.Title, i+1)
		}
		prev = tok.Offset
	}
	return nil
}
