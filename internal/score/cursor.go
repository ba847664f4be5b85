package score

// Cursor is a stateful steppable iterator over an excerpt's timeline.
// Time values are in whole-note fractional units; the underlying token
// offsets are quarter lengths, so one quarter note is 0.25.
type Cursor struct {
	tokens []Token
	idx    int
	shown  bool
	end    bool
}

// NewCursor builds a cursor positioned at the start of the excerpt.
func NewCursor(ex *Excerpt) *Cursor {
	return &Cursor{tokens: ex.NotesAndRests}
}

// Reset moves the cursor back to position 0 and clears the end flag.
func (c *Cursor) Reset() {
	c.idx = 0
	c.end = false
}

// Show marks the cursor visible.
func (c *Cursor) Show() { c.shown = true }

// Hide marks the cursor hidden.
func (c *Cursor) Hide() { c.shown = false }

// Visible reports whether the cursor is shown.
func (c *Cursor) Visible() bool { return c.shown }

// Index returns the current position index.
func (c *Cursor) Index() int { return c.idx }

// Token returns the token at the current position.
func (c *Cursor) Token() Token { return c.tokens[c.idx] }

// Time returns the current position's time value in whole-note units.
func (c *Cursor) Time() float64 {
	return c.tokens[c.idx].Offset / 4
}

// PeekTime returns the next position's time value without moving the
// cursor. The second result is false at the last position.
func (c *Cursor) PeekTime() (float64, bool) {
	if c.idx+1 >= len(c.tokens) {
		return 0, false
	}
	return c.tokens[c.idx+1].Offset / 4, true
}

// Next steps forward one position. Stepping past the last position sets
// the end flag and reports false.
func (c *Cursor) Next() bool {
	if c.idx+1 >= len(c.tokens) {
		c.end = true
		return false
	}
	c.idx++
	return true
}

// Previous steps back one position. It reports false at position 0.
func (c *Cursor) Previous() bool {
	if c.idx == 0 {
		return false
	}
	c.idx--
	c.end = false
	return true
}

// EndReached reports whether the cursor stepped past the last position.
func (c *Cursor) EndReached() bool { return c.end }
