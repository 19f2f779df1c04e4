package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

const (
	DefaultBulkLimit = 500
	writeTimeout     = 5 * time.Second
)

// ActivityRecorder accepts activities for asynchronous persistence.
type ActivityRecorder interface {
	Record(activity domain.Activity)
}

type ActivityInput struct {
	BookID       int64
	Action       domain.ActivityAction
	ActivityTime time.Time
}

// ActivityService writes activity rows directly for explicit logging calls
// and through a bounded queue for activities recorded as a side effect of
// other operations.
type ActivityService struct {
	repo      port.ActivityRepository
	bulkLimit int

	mu      sync.RWMutex
	closed  bool
	queue   chan domain.Activity
	dropped atomic.Int64
}

func NewActivityService(repo port.ActivityRepository, bulkLimit, queueSize int) *ActivityService {
	if bulkLimit <= 0 {
		bulkLimit = DefaultBulkLimit
	}
	return &ActivityService{
		repo:      repo,
		bulkLimit: bulkLimit,
		queue:     make(chan domain.Activity, queueSize),
	}
}

func (s *ActivityService) Log(ctx context.Context, principal domain.Principal, sessionID string, in ActivityInput) (int64, error) {
	customerID, err := requireCustomer(principal)
	if err != nil {
		return 0, err
	}

	activity, err := buildActivity(customerID, sessionID, in)
	if err != nil {
		return 0, err
	}
	if err := s.repo.CreateActivity(ctx, &activity); err != nil {
		return 0, err
	}
	return activity.ID, nil
}

// LogBulk validates every event before writing any, then writes them all in
// one statement.
func (s *ActivityService) LogBulk(ctx context.Context, principal domain.Principal, sessionID string, events []ActivityInput) (int, error) {
	customerID, err := requireCustomer(principal)
	if err != nil {
		return 0, err
	}
	if len(events) > s.bulkLimit {
		return 0, domain.Validation("Too many events")
	}
	if len(events) == 0 {
		return 0, nil
	}

	activities := make([]domain.Activity, 0, len(events))
	for _, e := range events {
		a, err := buildActivity(customerID, sessionID, e)
		if err != nil {
			return 0, err
		}
		activities = append(activities, a)
	}

	return s.repo.CreateActivities(ctx, activities)
}

// Record enqueues an activity without blocking. When the queue is full or
// closed the activity is dropped.
func (s *ActivityService) Record(activity domain.Activity) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropped.Add(1)
		return
	}

	select {
	case s.queue <- activity:
	default:
		s.dropped.Add(1)
		slog.Warn("activity queue full, dropping activity",
			"customer_id", activity.CustomerID,
			"book_id", activity.BookID,
			"action", activity.Action)
	}
}

func (s *ActivityService) Queue() <-chan domain.Activity {
	return s.queue
}

// Dropped reports how many recorded activities never reached the queue.
func (s *ActivityService) Dropped() int64 {
	return s.dropped.Load()
}

// Work drains the queue until Close is called. Run it in its own goroutine,
// once per worker.
func (s *ActivityService) Work(id int) {
	for activity := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)

		if err := s.repo.CreateActivity(ctx, &activity); err != nil {
			slog.Error("failed to save activity",
				"worker", id,
				"customer_id", activity.CustomerID,
				"book_id", activity.BookID,
				"error", err)
		} else {
			slog.Debug("saved activity", "worker", id, "activity_id", activity.ID)
		}

		cancel()
	}
}

// Close stops accepting activities. Workers exit once the queue is drained.
func (s *ActivityService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.queue)
}

func buildActivity(customerID int64, sessionID string, in ActivityInput) (domain.Activity, error) {
	if in.BookID <= 0 {
		return domain.Activity{}, domain.Validation("Invalid book_id: %d", in.BookID)
	}
	if !in.Action.Valid() {
		return domain.Activity{}, domain.Validation("Invalid action: %s", in.Action)
	}

	when := in.ActivityTime
	if when.IsZero() {
		when = time.Now()
	}

	return domain.Activity{
		CustomerID:   customerID,
		BookID:       in.BookID,
		Action:       in.Action,
		ActivityTime: when,
		SessionID:    sessionID,
	}, nil
}

func requireCustomer(principal domain.Principal) (int64, error) {
	id, ok := principal.CustomerID()
	if !ok {
		return 0, domain.AuthRequired("Authentication required")
	}
	return id, nil
}
