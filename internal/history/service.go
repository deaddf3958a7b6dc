package history

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vasilis92/Spotify-Alarm/internal/notify"
)

// PruneInterval is how often expired events are removed.
const PruneInterval = 24 * time.Hour

// Service records playback results and serves queries. It implements
// notify.Sink so it plugs into the notification consumer.
type Service struct {
	repo      *Repository
	retention time.Duration
	logger    *log.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewService creates a history Service. retentionDays <= 0 disables
// pruning.
func NewService(dbPair DBPair, retentionDays int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		repo:      NewRepository(dbPair),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// HandleResult implements notify.Sink.
func (s *Service) HandleResult(event notify.Event) {
	record := PlaybackEvent{
		EventID: event.ID,
		FiredAt: event.FiredAt,
		Source:  string(event.Source),
		Label:   event.Label,
		URI:     event.URI,
		Status:  string(event.Status),
		Code:    string(event.Code),
	}
	if record.EventID == "" {
		record.EventID = uuid.NewString()
	}
	if event.AlarmID != "" {
		alarmID := event.AlarmID
		record.AlarmID = &alarmID
	}
	if event.DeviceID != "" {
		deviceID := event.DeviceID
		record.DeviceID = &deviceID
	}
	if event.Error != "" {
		errMsg := event.Error
		record.Error = &errMsg
	}

	if err := s.repo.Insert(record); err != nil {
		s.logger.Printf("Warning: could not record playback event: %v", err)
	}
}

// Query returns recorded events matching the filters.
func (s *Service) Query(filters QueryFilters) ([]PlaybackEvent, error) {
	return s.repo.Query(filters)
}

// Get returns a single recorded event.
func (s *Service) Get(eventID string) (*PlaybackEvent, error) {
	return s.repo.Get(eventID)
}

// StartPruneJob begins periodic removal of events past retention.
func (s *Service) StartPruneJob() {
	if s.retention <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.prune()
		ticker := time.NewTicker(PruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.prune()
			}
		}
	}()
}

// StopPruneJob stops the prune loop.
func (s *Service) StopPruneJob() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Service) prune() {
	removed, err := s.repo.PruneOlderThan(time.Now().Add(-s.retention))
	if err != nil {
		s.logger.Printf("Warning: history prune failed: %v", err)
		return
	}
	if removed > 0 {
		s.logger.Printf("Pruned %d playback event(s) past retention", removed)
	}
}
