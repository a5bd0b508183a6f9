// Package predict forecasts per-day emotions and energy from a user's
// emotion record history.
package predict

import (
	"fmt"
	"math"
	"sort"
	"time"

	"maeum-toegeun/backend/internal/models"
)

// Period is the forecast horizon
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Days returns the number of forecast days
func (p Period) Days() int {
	if p == PeriodMonth {
		return 30
	}
	return 7
}

// ParsePeriod accepts week or month. Empty means week.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	}
	return "", fmt.Errorf("unknown prediction period %q", s)
}

// ConfidenceLevel buckets the confidence score
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// NoEmotion is the dominant emotion of an empty distribution
const NoEmotion models.EmotionCategory = "없음"

const (
	DateLayout = "2006-01-02"

	trendDays         = 7
	trendWindow       = 3
	historicalWeight  = 0.7
	recentWeight      = 0.3
	energyHistWeight  = 0.6
	energyTrendWeight = 0.4
	defaultEnergy     = 50
	distributionSize  = 5
)

// Probability is one entry of a predicted emotion distribution (0-100)
type Probability struct {
	Category    models.EmotionCategory `json:"category"`
	Probability float64                `json:"probability"`
}

// Prediction is the forecast for one calendar day
type Prediction struct {
	Date                string                 `json:"date"`
	DominantEmotion     models.EmotionCategory `json:"dominantEmotion"`
	EmotionDistribution []Probability          `json:"emotionDistribution"`
	EnergyLevel         int                    `json:"energyLevel"`
	Confidence          ConfidenceLevel        `json:"confidence"`
	ConfidenceScore     int                    `json:"confidenceScore"`
	Basis               string                 `json:"basis"`
}

type weekdayPattern struct {
	emotions map[models.EmotionCategory]int
	total    int
	energy   []int
}

type trends struct {
	emotions map[models.EmotionCategory][]float64
	energy   []float64
}

// Generate forecasts the period days after now. An empty history yields no
// predictions. Weekdays and dates are taken in now's location.
func Generate(records []models.EmotionRecord, period Period, now time.Time) []Prediction {
	if len(records) == 0 {
		return []Prediction{}
	}

	categories := models.AllEmotions()
	weekdays := weekdayPatterns(records, now.Location())
	recent := recentTrends(records, now, categories)
	stability := trendStability(recent, categories)

	days := period.Days()
	predictions := make([]Prediction, 0, days)

	for i := 1; i <= days; i++ {
		date := now.AddDate(0, 0, i)
		pattern := weekdays[date.Weekday()]

		distribution := make([]Probability, 0, len(categories))
		for _, category := range categories {
			base := 0.0
			if pattern.total > 0 {
				base = float64(pattern.emotions[category]) / float64(pattern.total) * 100
			}
			trend := lastMean(recent.emotions[category], 0)
			p := base*historicalWeight + trend*recentWeight*100
			distribution = append(distribution, Probability{Category: category, Probability: round1(p)})
		}
		sort.SliceStable(distribution, func(a, b int) bool {
			return distribution[a].Probability > distribution[b].Probability
		})

		dominant := NoEmotion
		if len(distribution) > 0 {
			dominant = distribution[0].Category
		}

		energy := float64(defaultEnergy)
		if len(pattern.energy) > 0 {
			energy = meanInt(pattern.energy)*energyHistWeight + lastMean(recent.energy, defaultEnergy)*energyTrendWeight
		}

		score := math.Min(float64(len(records))/20, 1) * 40
		score += math.Min(float64(len(pattern.energy))/5, 1) * 30
		score += stability * 30
		level := confidenceLevel(score)

		if len(distribution) > distributionSize {
			distribution = distribution[:distributionSize]
		}

		predictions = append(predictions, Prediction{
			Date:                date.Format(DateLayout),
			DominantEmotion:     dominant,
			EmotionDistribution: distribution,
			EnergyLevel:         int(math.Round(energy)),
			Confidence:          level,
			ConfidenceScore:     int(math.Round(score)),
			Basis:               basis(date.Weekday(), dominant, energy, level),
		})
	}

	return predictions
}

// ForDate returns the prediction whose date matches day
func ForDate(day time.Time, predictions []Prediction) (Prediction, bool) {
	key := day.Format(DateLayout)
	for _, p := range predictions {
		if p.Date == key {
			return p, true
		}
	}
	return Prediction{}, false
}

func weekdayPatterns(records []models.EmotionRecord, loc *time.Location) [7]weekdayPattern {
	var patterns [7]weekdayPattern
	for i := range patterns {
		patterns[i].emotions = make(map[models.EmotionCategory]int)
	}

	for _, r := range records {
		day := r.Time().In(loc).Weekday()
		for _, e := range r.Emotions {
			if !e.Category.Valid() {
				continue
			}
			patterns[day].emotions[e.Category]++
			patterns[day].total++
		}
		patterns[day].energy = append(patterns[day].energy, r.EnergyLevel)
	}
	return patterns
}

// recentTrends builds one bucket per day for the seven days starting at
// now minus seven days. Each emotion value is its count divided by that
// day's record count; energy is that day's mean (zero when empty).
func recentTrends(records []models.EmotionRecord, now time.Time, categories []models.EmotionCategory) trends {
	start := now.AddDate(0, 0, -trendDays)

	type bucket struct {
		emotions map[models.EmotionCategory]int
		energy   []int
	}
	labels := make([]string, trendDays)
	buckets := make(map[string]*bucket, trendDays)
	for i := 0; i < trendDays; i++ {
		label := start.AddDate(0, 0, i).Format(DateLayout)
		labels[i] = label
		buckets[label] = &bucket{emotions: make(map[models.EmotionCategory]int)}
	}

	for _, r := range records {
		t := r.Time().In(now.Location())
		if t.Before(start) || t.After(now) {
			continue
		}
		b, ok := buckets[t.Format(DateLayout)]
		if !ok {
			continue
		}
		for _, e := range r.Emotions {
			b.emotions[e.Category]++
		}
		b.energy = append(b.energy, r.EnergyLevel)
	}

	out := trends{emotions: make(map[models.EmotionCategory][]float64, len(categories))}
	for _, label := range labels {
		b := buckets[label]
		count := len(b.energy)
		for _, category := range categories {
			v := 0.0
			if count > 0 {
				v = float64(b.emotions[category]) / float64(count)
			}
			out.emotions[category] = append(out.emotions[category], v)
		}
		if count > 0 {
			out.energy = append(out.energy, meanInt(b.energy))
		} else {
			out.energy = append(out.energy, 0)
		}
	}
	return out
}

// trendStability is 1 minus the blended volatility of energy and emotions,
// clamped to [0, 1]
func trendStability(t trends, categories []models.EmotionCategory) float64 {
	energyVar := variability(t.energy)

	sum, n := 0.0, 0
	for _, category := range categories {
		values := t.emotions[category]
		if len(values) == 0 {
			continue
		}
		sum += variability(values)
		n++
	}
	emotionVar := 1.0
	if n > 0 {
		emotionVar = sum / float64(n)
	}

	return clamp01(1 - (energyVar*0.5 + emotionVar*0.5))
}

// variability is the mean absolute step between consecutive values divided
// by 100, capped at 1
func variability(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(values); i++ {
		total += math.Abs(values[i] - values[i-1])
	}
	return math.Min(total/float64(len(values)-1)/100, 1)
}

func confidenceLevel(score float64) ConfidenceLevel {
	switch {
	case score < 40:
		return ConfidenceLow
	case score < 70:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

var weekdayNames = [7]string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}

func basis(day time.Weekday, dominant models.EmotionCategory, energy float64, level ConfidenceLevel) string {
	s := fmt.Sprintf("%s에는 주로 '%s' 감정이 우세하게 나타납니다.", weekdayNames[day], dominant)

	rounded := int(math.Round(energy))
	switch {
	case energy < 40:
		s += fmt.Sprintf(" 이 날의 에너지 레벨은 낮은 편(%d%%)으로 예상됩니다.", rounded)
	case energy < 70:
		s += fmt.Sprintf(" 이 날의 에너지 레벨은 보통(%d%%)으로 예상됩니다.", rounded)
	default:
		s += fmt.Sprintf(" 이 날의 에너지 레벨은 높은 편(%d%%)으로 예상됩니다.", rounded)
	}

	switch level {
	case ConfidenceLow:
		s += " 다만, 이 예측은 충분한 데이터가 없어 신뢰도가 낮습니다."
	case ConfidenceMedium:
		s += " 이 예측은 과거 패턴을 기반으로 한 중간 수준의 신뢰도를 가집니다."
	default:
		s += " 이 예측은 일관된 과거 패턴을 기반으로 한 높은 신뢰도를 가집니다."
	}
	return s
}

// lastMean averages the last three values, always dividing by three.
// An empty slice yields fallback.
func lastMean(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	start := len(values) - trendWindow
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, v := range values[start:] {
		sum += v
	}
	return sum / trendWindow
}

func meanInt(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
