package interaction

import (
	"sort"
	"sync"
	"time"
)

// Handle identifies a scheduled action. The zero Handle is never issued.
type Handle uint64

// Scheduler runs actions after a delay unless they are cancelled first.
type Scheduler interface {
	// Schedule arranges for action to run once after delay.
	Schedule(delay time.Duration, action func()) Handle

	// Cancel prevents a pending action from running. It reports whether
	// the action was still pending.
	Cancel(h Handle) bool
}

// PostRetryDelay is how long a TimerScheduler waits before handing an
// expired action to post again after post refused it.
const PostRetryDelay = 20 * time.Millisecond

// TimerScheduler is a Scheduler backed by time.AfterFunc. Expired actions
// are handed to post, which should queue them on the event loop that owns
// the controller. When post fails, typically because the queue is full, the
// action stays pending and is offered again after PostRetryDelay. Without
// post, actions run on the timer's goroutine.
//
// An action cancelled after its timer fired but before post ran it is
// dropped.
type TimerScheduler struct {
	post func(func()) error

	mu      sync.Mutex
	seq     Handle
	pending map[Handle]*time.Timer
}

// NewTimerScheduler creates a scheduler that delivers actions through post.
func NewTimerScheduler(post func(func()) error) *TimerScheduler {
	return &TimerScheduler{
		post:    post,
		pending: make(map[Handle]*time.Timer),
	}
}

// Schedule implements Scheduler.
func (s *TimerScheduler) Schedule(delay time.Duration, action func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	h := s.seq
	s.pending[h] = time.AfterFunc(delay, func() { s.fire(h, action) })
	return h
}

// fire delivers the action for h, re-arming its timer when post fails.
func (s *TimerScheduler) fire(h Handle, action func()) {
	run := func() {
		// Only run if still pending when the loop gets to it.
		s.mu.Lock()
		_, ok := s.pending[h]
		delete(s.pending, h)
		s.mu.Unlock()
		if ok {
			action()
		}
	}
	if s.post == nil {
		run()
		return
	}
	if err := s.post(run); err == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[h]; ok {
		s.pending[h] = time.AfterFunc(PostRetryDelay, func() { s.fire(h, action) })
	}
}

// Cancel implements Scheduler.
func (s *TimerScheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.pending[h]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.pending, h)
	return true
}

// Pending returns the number of actions not yet run or cancelled.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// ManualScheduler is a Scheduler driven by an explicit virtual clock.
// Actions run only inside Advance, in deadline order.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     Handle
	pending map[Handle]*manualEntry
}

type manualEntry struct {
	at     time.Duration
	action func()
}

// NewManualScheduler creates a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[Handle]*manualEntry)}
}

// Schedule implements Scheduler.
func (s *ManualScheduler) Schedule(delay time.Duration, action func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.pending[s.seq] = &manualEntry{at: s.now + delay, action: action}
	return s.seq
}

// Cancel implements Scheduler.
func (s *ManualScheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[h]
	delete(s.pending, h)
	return ok
}

// Advance moves the clock forward by d and runs every action that became
// due, earliest first. It returns the number of actions run.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	s.now += d
	now := s.now
	s.mu.Unlock()

	ran := 0
	for {
		action := s.nextDue(now)
		if action == nil {
			return ran
		}
		action()
		ran++
	}
}

func (s *ManualScheduler) nextDue(now time.Duration) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Handle
	for h, e := range s.pending {
		if e.at <= now {
			due = append(due, h)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		a, b := s.pending[due[i]], s.pending[due[j]]
		if a.at != b.at {
			return a.at < b.at
		}
		return due[i] < due[j]
	})
	h := due[0]
	action := s.pending[h].action
	delete(s.pending, h)
	return action
}

// Pending returns the number of actions not yet run or cancelled.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
