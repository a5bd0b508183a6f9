package service

import (
	"context"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/repository"
	"maeum-toegeun/backend/pkg/events"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/shared/observability"
)

// ActivityService records the user timeline and fans every entry out to the
// event stream
type ActivityService struct {
	repo      *repository.ActivityRepository
	publisher events.Publisher
	metrics   *observability.Metrics
	log       *logger.Logger
}

// NewActivityService creates the service. publisher and metrics may be nil.
func NewActivityService(repo *repository.ActivityRepository, publisher events.Publisher, metrics *observability.Metrics, log *logger.Logger) *ActivityService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &ActivityService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		log:       log.WithComponent("activity"),
	}
}

// Record stores the activity. Publishing failures are logged only.
func (s *ActivityService) Record(ctx context.Context, activity models.Activity) (models.Activity, error) {
	stored, err := s.repo.Add(ctx, activity)
	if err != nil {
		return stored, err
	}
	if s.metrics != nil {
		s.metrics.Activities.WithLabelValues(string(stored.Type)).Inc()
	}
	if err := s.publisher.PublishActivity(ctx, stored); err != nil {
		s.log.LogError(err, "publish activity failed", "type", stored.Type, "user_id", stored.UserID)
	}
	return stored, nil
}

// List returns the timeline newest first, narrowed to activityType when set
func (s *ActivityService) List(ctx context.Context, userID string, activityType models.ActivityType) ([]models.Activity, error) {
	if activityType == "" {
		return s.repo.All(ctx, userID)
	}
	return s.repo.ByType(ctx, userID, activityType)
}

func (s *ActivityService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return missing("활동을 찾을 수 없습니다.")
	}
	return nil
}

// record is the fire-and-log variant used as a side effect of other use cases
func (s *ActivityService) record(ctx context.Context, activity models.Activity) {
	if s == nil {
		return
	}
	if _, err := s.Record(ctx, activity); err != nil {
		s.log.LogError(err, "record activity failed", "type", activity.Type, "user_id", activity.UserID)
	}
}
