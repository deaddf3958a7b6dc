package alarm

import (
	"log"
	"sync"
	"time"

	"github.com/Vasilis92/Spotify-Alarm/internal/notify"
)

// TickInterval is the scheduler's fixed tick period.
const TickInterval = time.Second

// Dispatcher hands due alarms to an asynchronous worker. It must not
// block; a refused dispatch returns false.
type Dispatcher interface {
	Dispatch(job Job) bool
}

// Scheduler owns the alarm matching discipline: an alarm fires exactly
// once per calendar minute its time matches, regardless of tick jitter,
// as long as at least one tick lands inside that minute.
//
// Two structures enforce this. The fired set holds ids already dispatched
// during the current minute and is cleared atomically on minute rollover,
// before matching. lastFired keeps the full minute-truncated timestamp of
// each alarm's latest dispatch, so a clock jumping backward into an
// already-fired minute cannot re-fire it within this process lifetime.
type Scheduler struct {
	store      *Store
	dispatcher Dispatcher
	logger     *log.Logger

	// Tick state, touched only by the tick driver.
	currentMinute time.Time
	fired         map[string]struct{}
	lastFired     map[string]time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a Scheduler over the given store and dispatcher.
func NewScheduler(store *Store, dispatcher Dispatcher, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		fired:      make(map[string]struct{}),
		lastFired:  make(map[string]time.Time),
		stopCh:     make(chan struct{}),
	}
}

// Start begins the 1-second tick driver.
func (s *Scheduler) Start() {
	s.logger.Printf("Alarm scheduler starting with %d alarm(s)", len(s.store.List()))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case now := <-ticker.C:
				s.Tick(now)
			}
		}
	}()
}

// Stop halts the tick driver. In-flight dispatches are not cancelled.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	s.logger.Println("Alarm scheduler stopped")
}

// Tick evaluates the alarm list against now. It never blocks on
// dispatch; a failed or refused dispatch of one alarm does not affect
// its siblings.
func (s *Scheduler) Tick(now time.Time) {
	minute := now.Truncate(time.Minute)

	if !minute.Equal(s.currentMinute) {
		// Clear before matching, so an alarm firing exactly on the
		// rollover is evaluated against the fresh set.
		s.currentMinute = minute
		s.fired = make(map[string]struct{})
		s.pruneLastFired(minute)
	}

	for _, alarm := range s.store.List() {
		if !alarm.Enabled || !alarm.Matches(now) {
			continue
		}
		if _, done := s.fired[alarm.ID]; done {
			continue
		}
		if last, ok := s.lastFired[alarm.ID]; ok && last.Equal(minute) {
			continue
		}

		s.fired[alarm.ID] = struct{}{}
		s.lastFired[alarm.ID] = minute

		if !s.dispatcher.Dispatch(Job{Alarm: alarm, Source: notify.SourceAlarm}) {
			s.logger.Printf("Warning: dispatch queue full, alarm %q (%s) dropped", alarm.Label, alarm.Time)
		}
	}
}

// pruneLastFired drops entries old enough that no clock discontinuity we
// care about can revisit them. Keeps the map bounded across deleted
// alarms.
func (s *Scheduler) pruneLastFired(minute time.Time) {
	cutoff := minute.Add(-48 * time.Hour)
	for id, last := range s.lastFired {
		if last.Before(cutoff) {
			delete(s.lastFired, id)
		}
	}
}
