package score

import "testing"

func testExcerpt(t *testing.T) *Excerpt {
	t.Helper()
	ex, err := Load([]byte(sampleExcerpt))
	if err != nil {
		t.Fatalf("load excerpt: %v", err)
	}
	return ex
}

func TestCursorStepping(t *testing.T) {
	c := NewCursor(testExcerpt(t))
	if c.Index() != 0 {
		t.Fatalf("expected index 0, got %d", c.Index())
	}
	if c.Time() != 0 {
		t.Fatalf("expected time 0, got %v", c.Time())
	}
	if !c.Next() {
		t.Fatalf("expected step to position 1")
	}
	// Offsets are quarter lengths, time values whole-note units.
	if c.Time() != 0.25 {
		t.Fatalf("expected time 0.25, got %v", c.Time())
	}
	if !c.Previous() {
		t.Fatalf("expected step back to position 0")
	}
	if c.Index() != 0 {
		t.Fatalf("expected index 0 after previous, got %d", c.Index())
	}
	if c.Previous() {
		t.Fatalf("expected previous to fail at position 0")
	}
}

func TestCursorPeek(t *testing.T) {
	c := NewCursor(testExcerpt(t))
	next, ok := c.PeekTime()
	if !ok || next != 0.25 {
		t.Fatalf("expected peek 0.25, got %v ok=%v", next, ok)
	}
	if c.Index() != 0 {
		t.Fatalf("peek must not move the cursor, index is %d", c.Index())
	}
	for c.Next() {
	}
	if _, ok := c.PeekTime(); ok {
		t.Fatalf("expected no peek at last position")
	}
}

func TestCursorEndReached(t *testing.T) {
	c := NewCursor(testExcerpt(t))
	steps := 0
	for c.Next() {
		steps++
	}
	if steps != 3 {
		t.Fatalf("expected 3 steps, got %d", steps)
	}
	if !c.EndReached() {
		t.Fatalf("expected end flag after stepping past last position")
	}
	c.Reset()
	if c.EndReached() || c.Index() != 0 {
		t.Fatalf("expected reset to clear end flag and index")
	}
}

func TestCursorVisibility(t *testing.T) {
	c := NewCursor(testExcerpt(t))
	if c.Visible() {
		t.Fatalf("expected cursor hidden initially")
	}
	c.Show()
	if !c.Visible() {
		t.Fatalf("expected cursor visible after Show")
	}
	c.Hide()
	if c.Visible() {
		t.Fatalf("expected cursor hidden after Hide")
	}
}
