package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/repository"
	"maeum-toegeun/backend/pkg/logger"
)

const (
	defaultStatsDays      = 30
	trendDays             = 7
	qualitySampleSize     = 100
	topIssueCount         = 3
	improvementThreshold  = 0.3
	slowResponseMs        = 5000
	shortResponseRunes    = 50
	longResponseRunes     = 300
	qualityGoodSuggestion = "현재 응답 품질이 양호합니다. 지속적으로 모니터링하세요."
)

var categorySuggestions = map[models.FeedbackCategory]string{
	"empathy":     "사용자의 감정에 더 공감하는 응답이 필요합니다.",
	"relevance":   "사용자 질문과 더 관련성 높은 응답이 필요합니다.",
	"helpfulness": "더 실용적이고 도움이 되는 정보를 제공해야 합니다.",
	"clarity":     "응답의 명확성을 개선해야 합니다. 더 이해하기 쉬운 언어를 사용하세요.",
	"tone":        "응답의 어조를 개선해야 합니다. 더 친근하고 지지적인 톤을 사용하세요.",
	"length":      "응답 길이를 조정해야 합니다. 너무 길거나 짧지 않게 적절한 길이로 작성하세요.",
}

// FeedbackService stores ratings of assistant replies and derives the
// quality reports from them
type FeedbackService struct {
	repo *repository.FeedbackRepository
	now  Clock
	log  *logger.Logger
}

func NewFeedbackService(repo *repository.FeedbackRepository, now Clock, log *logger.Logger) *FeedbackService {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &FeedbackService{repo: repo, now: orNow(now), log: log.WithComponent("feedback")}
}

func validCategory(c models.FeedbackCategory) bool {
	for _, known := range models.FeedbackCategories {
		if known == c {
			return true
		}
	}
	return false
}

// Save stores a rating and marks its conversation as rated
func (s *FeedbackService) Save(ctx context.Context, userID string, req models.CreateFeedbackRequest) (models.FeedbackItem, error) {
	switch req.Rating {
	case models.RatingPositive, models.RatingNeutral, models.RatingNegative:
	default:
		return models.FeedbackItem{}, invalid("rating", "평가는 positive, neutral, negative 중 하나여야 합니다.")
	}
	for _, c := range req.Categories {
		if !validCategory(c) {
			return models.FeedbackItem{}, invalid("categories", "알 수 없는 피드백 항목입니다: "+string(c))
		}
	}
	return s.repo.Save(ctx, userID, models.FeedbackItem{
		ConversationID: req.ConversationID,
		MessageID:      req.MessageID,
		Rating:         req.Rating,
		Categories:     req.Categories,
		Comment:        req.Comment,
		Timestamp:      s.now().UnixMilli(),
		UserQuery:      req.UserQuery,
		AIResponse:     req.AIResponse,
	})
}

func (s *FeedbackService) List(ctx context.Context, userID string) ([]models.FeedbackItem, error) {
	return s.repo.All(ctx, userID)
}

func (s *FeedbackService) ByConversation(ctx context.Context, userID, conversationID string) ([]models.FeedbackItem, error) {
	return s.repo.ByConversation(ctx, userID, conversationID)
}

func (s *FeedbackService) HasFeedback(ctx context.Context, userID, conversationID string) (bool, error) {
	return s.repo.HasFeedback(ctx, userID, conversationID)
}

func (s *FeedbackService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return missing("피드백을 찾을 수 없습니다.")
	}
	return nil
}

// Export returns the feedback list as indented JSON
func (s *FeedbackService) Export(ctx context.Context, userID string) ([]byte, error) {
	items, err := s.repo.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(items, "", "  ")
}

// Import replaces the feedback list with the given JSON array and reports
// how many items were stored
func (s *FeedbackService) Import(ctx context.Context, userID string, data []byte) (int, error) {
	var items []models.FeedbackItem
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, invalid("data", "피드백 데이터 형식이 올바르지 않습니다.")
	}
	if err := s.repo.Replace(ctx, userID, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// RecordResponseTime stores one latency sample
func (s *FeedbackService) RecordResponseTime(ctx context.Context, userID, conversationID string, d time.Duration) error {
	return s.repo.RecordResponseTime(ctx, userID, models.ResponseTime{
		ConversationID: conversationID,
		ResponseTimeMs: d.Milliseconds(),
		Timestamp:      s.now().UnixMilli(),
	})
}

func (s *FeedbackService) since(days int) int64 {
	if days <= 0 {
		days = defaultStatsDays
	}
	return s.now().AddDate(0, 0, -days).UnixMilli()
}

// Stats counts ratings of the last days days
func (s *FeedbackService) Stats(ctx context.Context, userID string, days int) (models.FeedbackStats, error) {
	items, err := s.repo.All(ctx, userID)
	if err != nil {
		return models.FeedbackStats{}, err
	}
	return FeedbackStats(items, s.since(days), s.now()), nil
}

// FeedbackStats computes rating shares in percent, category counts and the
// seven day trend ending today
func FeedbackStats(items []models.FeedbackItem, since int64, now time.Time) models.FeedbackStats {
	stats := models.FeedbackStats{
		CategoryStats: make(map[models.FeedbackCategory]int, len(models.FeedbackCategories)),
		RecentTrend:   make([]models.TrendPoint, 0, trendDays),
	}
	for _, c := range models.FeedbackCategories {
		stats.CategoryStats[c] = 0
	}

	today := startOfDay(now)
	index := make(map[string]int, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(dateLayout)
		index[date] = len(stats.RecentTrend)
		stats.RecentTrend = append(stats.RecentTrend, models.TrendPoint{Date: date})
	}

	var positive, neutral, negative int
	for _, item := range items {
		if item.Timestamp < since {
			continue
		}
		stats.TotalFeedback++
		for _, c := range item.Categories {
			stats.CategoryStats[c]++
		}

		day := time.UnixMilli(item.Timestamp).In(now.Location()).Format(dateLayout)
		i, inTrend := index[day]
		switch item.Rating {
		case models.RatingPositive:
			positive++
			if inTrend {
				stats.RecentTrend[i].Positive++
			}
		case models.RatingNeutral:
			neutral++
			if inTrend {
				stats.RecentTrend[i].Neutral++
			}
		case models.RatingNegative:
			negative++
			if inTrend {
				stats.RecentTrend[i].Negative++
			}
		}
	}

	if stats.TotalFeedback > 0 {
		total := float64(stats.TotalFeedback)
		stats.PositiveRate = float64(positive) / total * 100
		stats.NeutralRate = float64(neutral) / total * 100
		stats.NegativeRate = float64(negative) / total * 100
	}
	return stats
}

// Metrics reports response latency and length and the categories most often
// named in negative feedback
func (s *FeedbackService) Metrics(ctx context.Context, userID string, days int) (models.ResponseMetrics, error) {
	items, err := s.repo.All(ctx, userID)
	if err != nil {
		return models.ResponseMetrics{}, err
	}
	samples, err := s.repo.ResponseTimes(ctx, userID)
	if err != nil {
		return models.ResponseMetrics{}, err
	}
	return ResponseMetrics(items, samples, s.since(days)), nil
}

func ResponseMetrics(items []models.FeedbackItem, samples []models.ResponseTime, since int64) models.ResponseMetrics {
	m := models.ResponseMetrics{
		TopIssueCategories: []models.FeedbackCategory{},
		ImprovementAreas:   []models.FeedbackCategory{},
	}

	var totalMs int64
	n := 0
	for _, sample := range samples {
		if sample.Timestamp >= since {
			totalMs += sample.ResponseTimeMs
			n++
		}
	}
	if n > 0 {
		m.AverageResponseTime = float64(totalMs) / float64(n)
	}

	recent := make([]models.FeedbackItem, 0, len(items))
	for _, item := range items {
		if item.Timestamp >= since {
			recent = append(recent, item)
		}
	}
	if len(recent) == 0 {
		return m
	}

	totalRunes := 0
	negative := make(map[models.FeedbackCategory]int)
	all := make(map[models.FeedbackCategory]int)
	for _, item := range recent {
		totalRunes += len([]rune(item.AIResponse))
		for _, c := range item.Categories {
			all[c]++
			if item.Rating == models.RatingNegative {
				negative[c]++
			}
		}
	}
	m.AverageResponseLength = float64(totalRunes) / float64(len(recent))

	issues := make([]models.FeedbackCategory, 0, len(models.FeedbackCategories))
	for _, c := range models.FeedbackCategories {
		if negative[c] > 0 {
			issues = append(issues, c)
		}
	}
	sort.SliceStable(issues, func(i, j int) bool { return negative[issues[i]] > negative[issues[j]] })
	if len(issues) > topIssueCount {
		issues = issues[:topIssueCount]
	}
	m.TopIssueCategories = issues

	rate := func(c models.FeedbackCategory) float64 {
		return float64(negative[c]) / float64(all[c])
	}
	areas := []models.FeedbackCategory{}
	for _, c := range models.FeedbackCategories {
		if all[c] > 0 && rate(c) > improvementThreshold {
			areas = append(areas, c)
		}
	}
	sort.SliceStable(areas, func(i, j int) bool { return rate(areas[i]) > rate(areas[j]) })
	m.ImprovementAreas = areas
	return m
}

// QualityScore scores the last hundred ratings: positive 100, neutral 50,
// negative 0, averaged and rounded. No feedback scores 0.
func QualityScore(items []models.FeedbackItem) int {
	if len(items) == 0 {
		return 0
	}
	recent := append([]models.FeedbackItem(nil), items...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Timestamp > recent[j].Timestamp })
	if len(recent) > qualitySampleSize {
		recent = recent[:qualitySampleSize]
	}

	total := 0
	for _, item := range recent {
		switch item.Rating {
		case models.RatingPositive:
			total += 100
		case models.RatingNeutral:
			total += 50
		}
	}
	return int(math.Round(float64(total) / float64(len(recent))))
}

// Suggestions turns response metrics into improvement advice
func Suggestions(m models.ResponseMetrics) []string {
	out := []string{}
	if m.AverageResponseTime > slowResponseMs {
		out = append(out, fmt.Sprintf("응답 시간이 평균 %d초를 초과합니다. 응답 생성 속도를 개선하는 것이 좋습니다.", slowResponseMs/1000))
	}
	if m.AverageResponseLength > 0 && m.AverageResponseLength < shortResponseRunes {
		out = append(out, "응답이 너무 짧습니다. 더 자세한 정보를 제공하는 것이 좋습니다.")
	} else if m.AverageResponseLength > longResponseRunes {
		out = append(out, "응답이 너무 깁니다. 더 간결하게 핵심 정보를 전달하는 것이 좋습니다.")
	}
	for _, c := range m.ImprovementAreas {
		if text, ok := categorySuggestions[c]; ok {
			out = append(out, text)
		}
	}
	if len(out) == 0 {
		out = append(out, qualityGoodSuggestion)
	}
	return out
}

// Quality bundles the quality score with suggestions for the last days days
func (s *FeedbackService) Quality(ctx context.Context, userID string, days int) (models.QualityReport, error) {
	items, err := s.repo.All(ctx, userID)
	if err != nil {
		return models.QualityReport{}, err
	}
	metrics, err := s.Metrics(ctx, userID, days)
	if err != nil {
		return models.QualityReport{}, err
	}
	return models.QualityReport{Score: QualityScore(items), Suggestions: Suggestions(metrics)}, nil
}
