package viewer

import (
	"sort"
	"time"
)

// TimerID identifies a pending scheduler callback. The zero value is never
// issued, so it can be used as "no timer".
type TimerID uint64

type timer struct {
	id  TimerID
	due time.Time
	fn  func()
}

// Scheduler runs deferred callbacks on the UI goroutine. It never starts
// goroutines of its own: callbacks fire from Advance, which the owner calls
// once per frame with the frame time.
type Scheduler struct {
	now    time.Time
	nextID TimerID
	timers map[TimerID]*timer
}

// NewScheduler creates a scheduler whose clock starts at now
func NewScheduler(now time.Time) *Scheduler {
	return &Scheduler{
		now:    now,
		timers: make(map[TimerID]*timer),
	}
}

// Now returns the time of the last Advance
func (s *Scheduler) Now() time.Time {
	return s.now
}

// After schedules fn to run once the clock has moved d past the current time
func (s *Scheduler) After(d time.Duration, fn func()) TimerID {
	if d < 0 {
		d = 0
	}
	s.nextID++
	id := s.nextID
	s.timers[id] = &timer{id: id, due: s.now.Add(d), fn: fn}
	return id
}

// Cancel drops a pending callback. Unknown or already fired ids are ignored.
func (s *Scheduler) Cancel(id TimerID) {
	delete(s.timers, id)
}

// Pending reports whether the timer is still waiting to fire
func (s *Scheduler) Pending(id TimerID) bool {
	_, ok := s.timers[id]
	return ok
}

// Len returns the number of pending callbacks
func (s *Scheduler) Len() int {
	return len(s.timers)
}

// Advance moves the clock to now and fires every callback that became due,
// earliest first. Callbacks scheduled while firing run in the same call if
// they are already due.
func (s *Scheduler) Advance(now time.Time) {
	if now.After(s.now) {
		s.now = now
	}
	for {
		due := s.dueTimers()
		if len(due) == 0 {
			return
		}
		for _, t := range due {
			// An earlier callback may have cancelled this one
			if _, ok := s.timers[t.id]; !ok {
				continue
			}
			delete(s.timers, t.id)
			t.fn()
		}
	}
}

func (s *Scheduler) dueTimers() []*timer {
	var due []*timer
	for _, t := range s.timers {
		if !t.due.After(s.now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].id < due[j].id
		}
		return due[i].due.Before(due[j].due)
	})
	return due
}
