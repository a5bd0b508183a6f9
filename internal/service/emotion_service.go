package service

import (
	"context"
	"strings"
	"time"

	"maeum-toegeun/backend/internal/analysis"
	"maeum-toegeun/backend/internal/keyword"
	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/predict"
	"maeum-toegeun/backend/internal/repository"
	"maeum-toegeun/backend/pkg/cache"
	"maeum-toegeun/backend/pkg/logger"
)

const (
	minIntensity = 1
	maxIntensity = 5
	minEnergy    = 0
	maxEnergy    = 100
)

// EmotionService records emotions and serves the statistics, analysis and
// prediction views built on them
type EmotionService struct {
	records      *repository.EmotionRepository
	profiles     *repository.ProfileRepository
	activities   *ActivityService
	achievements *AchievementService
	predictions  *cache.Cache
	now          Clock
	log          *logger.Logger
}

// NewEmotionService creates the service. predictions may be nil to disable
// caching.
func NewEmotionService(
	records *repository.EmotionRepository,
	profiles *repository.ProfileRepository,
	activities *ActivityService,
	achievements *AchievementService,
	predictions *cache.Cache,
	now Clock,
	log *logger.Logger,
) *EmotionService {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &EmotionService{
		records:      records,
		profiles:     profiles,
		activities:   activities,
		achievements: achievements,
		predictions:  predictions,
		now:          orNow(now),
		log:          log.WithComponent("emotion"),
	}
}

// ValidateRecord checks the form rules of an emotion submission
func ValidateRecord(req models.CreateEmotionRecordRequest) error {
	if len(req.Emotions) == 0 {
		return invalid("emotions", "최소 하나 이상의 감정을 선택해야 합니다.")
	}
	for _, e := range req.Emotions {
		if !e.Category.Valid() {
			return invalid("emotions", "알 수 없는 감정입니다: "+string(e.Category))
		}
		if e.Intensity < minIntensity || e.Intensity > maxIntensity {
			return invalid("emotions", "감정 강도는 1에서 5 사이여야 합니다.")
		}
	}
	if req.EnergyLevel < minEnergy || req.EnergyLevel > maxEnergy {
		return invalid("energyLevel", "에너지 레벨은 0에서 100 사이여야 합니다.")
	}
	return nil
}

// Save stores a record, feeds the profile tags, logs the activity and
// re-checks badges. Side-effect failures are logged, not returned.
func (s *EmotionService) Save(ctx context.Context, userID string, req models.CreateEmotionRecordRequest) (models.EmotionRecord, error) {
	if err := ValidateRecord(req); err != nil {
		return models.EmotionRecord{}, err
	}

	record, err := s.records.Save(ctx, userID, models.EmotionRecord{
		Timestamp:   req.Timestamp,
		Emotions:    req.Emotions,
		Note:        strings.TrimSpace(req.Note),
		Situation:   strings.TrimSpace(req.Situation),
		EnergyLevel: req.EnergyLevel,
	})
	if err != nil {
		return record, err
	}
	s.invalidate(userID)

	if err := s.learnTags(ctx, userID, record); err != nil {
		s.log.LogError(err, "profile update after emotion record failed", "user_id", userID)
	}

	names := make([]string, 0, len(record.Emotions))
	for _, e := range record.Emotions {
		names = append(names, string(e.Category))
	}
	s.activities.record(ctx, models.Activity{
		UserID:      userID,
		Type:        models.ActivityEmotionRecord,
		TargetID:    record.ID,
		TargetType:  "emotion",
		Title:       "감정 기록 추가",
		Description: strings.Join(names, ", "),
	})

	if s.achievements != nil {
		if _, err := s.achievements.CheckAndAward(ctx, userID); err != nil {
			s.log.LogError(err, "badge check after emotion record failed", "user_id", userID)
		}
	}
	return record, nil
}

// List returns every record newest first
func (s *EmotionService) List(ctx context.Context, userID string) ([]models.EmotionRecord, error) {
	return s.records.All(ctx, userID)
}

func (s *EmotionService) Recent(ctx context.Context, userID string, n int) ([]models.EmotionRecord, error) {
	return s.records.Recent(ctx, userID, n)
}

func (s *EmotionService) Today(ctx context.Context, userID string) ([]models.EmotionRecord, error) {
	return s.records.Today(ctx, userID, s.now())
}

func (s *EmotionService) Get(ctx context.Context, userID, id string) (models.EmotionRecord, error) {
	rec, err := s.records.Get(ctx, userID, id)
	return rec, notFound(err, "감정 기록을 찾을 수 없습니다.")
}

func (s *EmotionService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.records.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return missing("감정 기록을 찾을 수 없습니다.")
	}
	s.invalidate(userID)
	return nil
}

// Stats is the seven day summary of the dashboard
func (s *EmotionService) Stats(ctx context.Context, userID string) (models.EmotionStats, error) {
	records, err := s.records.All(ctx, userID)
	if err != nil {
		return models.EmotionStats{}, err
	}
	return analysis.Stats(records, s.now()), nil
}

// Analysis builds the full report for a named range
func (s *EmotionService) Analysis(ctx context.Context, userID, rangeName string) (analysis.Report, error) {
	r, err := analysis.ParseRange(rangeName)
	if err != nil {
		return analysis.Report{}, invalid("range", err.Error())
	}
	records, err := s.records.All(ctx, userID)
	if err != nil {
		return analysis.Report{}, err
	}
	return analysis.Analyze(records, r, s.now()), nil
}

// Predictions forecasts the period after today. Results are cached per user,
// period and day until the next record change.
func (s *EmotionService) Predictions(ctx context.Context, userID, periodName string) ([]predict.Prediction, error) {
	period, err := predict.ParsePeriod(periodName)
	if err != nil {
		return nil, invalid("period", err.Error())
	}
	now := s.now()
	key := userID + ":" + string(period) + ":" + now.Format(dateLayout)

	if s.predictions != nil {
		if v, ok := s.predictions.Get(key); ok {
			if cached, ok := v.([]predict.Prediction); ok {
				return cached, nil
			}
		}
	}

	records, err := s.records.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := predict.Generate(records, period, now)
	if s.predictions != nil {
		s.predictions.Set(key, out)
	}
	return out, nil
}

// PredictionForDate returns the monthly forecast entry for date (YYYY-MM-DD)
func (s *EmotionService) PredictionForDate(ctx context.Context, userID, date string) (predict.Prediction, error) {
	day, err := time.ParseInLocation(predict.DateLayout, date, s.now().Location())
	if err != nil {
		return predict.Prediction{}, invalid("date", "날짜 형식이 올바르지 않습니다. (YYYY-MM-DD)")
	}
	preds, err := s.Predictions(ctx, userID, string(predict.PeriodMonth))
	if err != nil {
		return predict.Prediction{}, err
	}
	p, ok := predict.ForDate(day, preds)
	if !ok {
		return p, missing("해당 날짜의 예측이 없습니다.")
	}
	return p, nil
}

// Strategies returns the coping strategies of the forecast for date
func (s *EmotionService) Strategies(ctx context.Context, userID, date string) ([]predict.Strategy, error) {
	p, err := s.PredictionForDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	return predict.CopingStrategies(p), nil
}

// Accuracy replays the forecast that the history before a record would have
// produced for the record's day and scores the record against it
func (s *EmotionService) Accuracy(ctx context.Context, userID, recordID string) (predict.Accuracy, error) {
	records, err := s.records.All(ctx, userID)
	if err != nil {
		return predict.Accuracy{}, err
	}

	var target *models.EmotionRecord
	prior := make([]models.EmotionRecord, 0, len(records))
	for i := range records {
		if records[i].ID == recordID {
			target = &records[i]
		}
	}
	if target == nil {
		return predict.Accuracy{}, missing("감정 기록을 찾을 수 없습니다.")
	}
	for _, r := range records {
		if r.Timestamp < target.Timestamp {
			prior = append(prior, r)
		}
	}

	day := target.Time().In(s.now().Location())
	preds := predict.Generate(prior, predict.PeriodWeek, day.AddDate(0, 0, -1))
	p, ok := predict.ForDate(day, preds)
	if !ok {
		return predict.Accuracy{}, missing("비교할 예측이 없습니다.")
	}
	return predict.EvaluateAccuracy(p, *target), nil
}

func (s *EmotionService) invalidate(userID string) {
	if s.predictions != nil {
		s.predictions.DeletePrefix(userID + ":")
	}
}

// learnTags pushes the record's vocabulary emotions and the situations found
// in its free text onto the recommendation profile. Labels outside the
// keyword dictionaries never reach the profile.
func (s *EmotionService) learnTags(ctx context.Context, userID string, record models.EmotionRecord) error {
	known := keyword.Emotions.Labels()
	var emotions []string
	for i := len(record.Emotions) - 1; i >= 0; i-- {
		if c := string(record.Emotions[i].Category); containsString(known, c) {
			emotions = append(emotions, c)
		}
	}
	situations := keyword.Situations.Match(record.Situation + " " + record.Note)
	if len(emotions) == 0 && len(situations) == 0 {
		return nil
	}
	_, err := s.profiles.Update(ctx, userID, func(p *models.Profile) {
		for _, e := range emotions {
			p.AddEmotion(e)
		}
		for _, sit := range situations {
			p.AddSituation(sit)
		}
	})
	return err
}
