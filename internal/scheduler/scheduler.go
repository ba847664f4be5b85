// Package scheduler advances a score position cursor in time with the
// target tempo.
package scheduler

import (
	"sync"
	"time"
)

// ScoreCursor is the steppable position iterator the scheduler drives.
// Time values are whole-note fractional units.
type ScoreCursor interface {
	Reset()
	Show()
	Hide()
	Next() bool
	Time() float64
	PeekTime() (float64, bool)
	EndReached() bool
}

// Scheduler steps a cursor across the score, one note display duration
// at a time. The advancement callback fires once per position, index 0
// included, and is invoked without the scheduler lock held.
type Scheduler struct {
	mu        sync.Mutex
	cursor    ScoreCursor
	onAdvance func(index int)
	run       *run
	index     int
}

// run ties pending timers to one Start call. A superseded run's timer
// can fire but never touches scheduler state again.
type run struct {
	tempo float64
	timer *time.Timer
}

// New builds a scheduler over the given cursor. onAdvance may be nil.
func New(cursor ScoreCursor, onAdvance func(index int)) *Scheduler {
	return &Scheduler{cursor: cursor, onAdvance: onAdvance}
}

// Start begins a fresh run at the given tempo: the cursor resets to
// position 0, becomes visible, the callback fires for index 0 and the
// first advancement is scheduled. Any previous run is cancelled first.
// Tempo is fixed for the duration of the run.
func (s *Scheduler) Start(tempo float64) {
	s.mu.Lock()
	s.cancelLocked()
	s.cursor.Reset()
	s.cursor.Show()
	s.index = 0
	r := &run{tempo: tempo}
	s.run = r
	s.mu.Unlock()

	s.fireAdvance(0)

	s.mu.Lock()
	if s.run == r && !s.scheduleLocked(r) {
		s.run = nil
	}
	s.mu.Unlock()
}

// Stop cancels any pending advancement and hides the cursor. The
// position is kept.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancelLocked()
	s.cursor.Hide()
	s.mu.Unlock()
}

// Reset cancels any pending advancement, moves the cursor back to
// position 0 and hides it.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.cancelLocked()
	s.cursor.Reset()
	s.cursor.Hide()
	s.index = 0
	s.mu.Unlock()
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil
}

// Index returns the current position index.
func (s *Scheduler) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Scheduler) cancelLocked() {
	if s.run != nil && s.run.timer != nil {
		s.run.timer.Stop()
	}
	s.run = nil
}

// scheduleLocked arms the timer for the current position's display
// duration. It reports false at the last position, where nothing is
// left to schedule.
func (s *Scheduler) scheduleLocked(r *run) bool {
	d, ok := s.noteDelayLocked(r.tempo)
	if !ok {
		return false
	}
	r.timer = time.AfterFunc(d, func() { s.advance(r) })
	return true
}

// noteDelayLocked derives the current note's display duration from the
// gap to the next position, in quarter-note units at the run tempo.
func (s *Scheduler) noteDelayLocked(tempo float64) (time.Duration, bool) {
	next, ok := s.cursor.PeekTime()
	if !ok {
		return 0, false
	}
	quarters := (next - s.cursor.Time()) * 4
	ms := quarters * 60000 / tempo
	return time.Duration(ms * float64(time.Millisecond)), true
}

func (s *Scheduler) advance(r *run) {
	s.mu.Lock()
	if s.run != r {
		s.mu.Unlock()
		return
	}
	if !s.cursor.Next() {
		s.run = nil
		s.mu.Unlock()
		return
	}
	s.index++
	idx := s.index
	s.mu.Unlock()

	s.fireAdvance(idx)

	s.mu.Lock()
	if s.run == r {
		if s.cursor.EndReached() || !s.scheduleLocked(r) {
			s.run = nil
		}
	}
	s.mu.Unlock()
}

func (s *Scheduler) fireAdvance(index int) {
	if s.onAdvance != nil {
		s.onAdvance(index)
	}
}
