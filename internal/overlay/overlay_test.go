package overlay

import (
	"strings"
	"testing"

	"github.com/ojansen/encore/internal/model"
	"github.com/ojansen/encore/internal/score"
)

func testTokens() []score.Token {
	return []score.Token{
		{Pitch: "C4", DurationQuarter: 1, Offset: 0},
		{Pitch: "D4", DurationQuarter: 1, Offset: 1},
		{Pitch: "rest", DurationQuarter: 1, Offset: 2},
		{Pitch: "E4", DurationQuarter: 1, Offset: 3},
	}
}

func noteAt(styled []styledToken, i int) styledToken {
	// Tokens are interleaved with space separators.
	return styled[i*2]
}

func TestEmptyMapPaintsEverythingNeutral(t *testing.T) {
	styled := buildStyledTokens(testTokens(), map[int]model.Accuracy{}, 3, false)
	if noteAt(styled, 0).s != neutralStyle.Render("C4") {
		t.Fatalf("expected neutral style for note 0")
	}
	if noteAt(styled, 1).s != neutralStyle.Render("D4") {
		t.Fatalf("expected neutral style for note 1")
	}
	if noteAt(styled, 3).s != neutralStyle.Render("E4") {
		t.Fatalf("expected neutral style for note 3")
	}
}

func TestAccuracyColorsUpToCurrentIndex(t *testing.T) {
	accuracy := map[int]model.Accuracy{
		0: model.AccuracyExcellent,
		1: model.AccuracyPoor,
		3: model.AccuracyGood,
	}
	styled := buildStyledTokens(testTokens(), accuracy, 1, false)
	if noteAt(styled, 0).s != excellentStyle.Render("C4") {
		t.Fatalf("expected excellent style for note 0")
	}
	if noteAt(styled, 1).s != poorStyle.Render("D4") {
		t.Fatalf("expected poor style for note 1")
	}
	// Note 3 is past the current index; its map entry must not paint yet.
	if noteAt(styled, 3).s != neutralStyle.Render("E4") {
		t.Fatalf("expected neutral style for note past current index")
	}
}

func TestRestsAndGraceNotesAreNeverColored(t *testing.T) {
	tokens := testTokens()
	tokens = append(tokens, score.Token{Pitch: "F4", DurationQuarter: 0, Offset: 4, Grace: true})
	accuracy := map[int]model.Accuracy{
		2: model.AccuracyExcellent,
		4: model.AccuracyExcellent,
	}
	styled := buildStyledTokens(tokens, accuracy, 4, false)
	if noteAt(styled, 2).s != restStyle.Render("·") {
		t.Fatalf("expected rest glyph with rest style")
	}
	if noteAt(styled, 4).s != restStyle.Render("(F4)") {
		t.Fatalf("expected grace note to stay uncolored")
	}
}

func TestCursorUnderlinesCurrentPosition(t *testing.T) {
	styled := buildStyledTokens(testTokens(), nil, 1, true)
	want := neutralStyle.Underline(true).Render("D4")
	if noteAt(styled, 1).s != want {
		t.Fatalf("expected underlined current note")
	}
	if noteAt(styled, 0).s != neutralStyle.Render("C4") {
		t.Fatalf("expected no underline away from the cursor")
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	accuracy := map[int]model.Accuracy{0: model.AccuracyFair}
	first := Render(testTokens(), accuracy, 1, true, 40)
	second := Render(testTokens(), accuracy, 1, true, 40)
	if first != second {
		t.Fatalf("repaint with unchanged inputs must render identically")
	}
}

func TestRenderWrapsToWidth(t *testing.T) {
	out := Render(testTokens(), nil, 0, false, 6)
	if !strings.Contains(out, "\n") {
		t.Fatalf("expected wrapped output for narrow width")
	}
}
