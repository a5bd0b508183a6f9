package predict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maeum-toegeun/backend/internal/models"
)

// Wednesday
var now = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

func record(at time.Time, energy int, categories ...models.EmotionCategory) models.EmotionRecord {
	r := models.EmotionRecord{ID: at.String(), Timestamp: at.UnixMilli(), EnergyLevel: energy}
	for _, c := range categories {
		r.Emotions = append(r.Emotions, models.EmotionEntry{Category: c, Intensity: 3})
	}
	return r
}

func TestGenerateEmptyHistory(t *testing.T) {
	got := Generate(nil, PeriodWeek, now)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGeneratePeriodLength(t *testing.T) {
	records := []models.EmotionRecord{record(now.AddDate(0, 0, -20), 50, models.EmotionCalm)}

	week := Generate(records, PeriodWeek, now)
	require.Len(t, week, 7)
	assert.Equal(t, "2025-06-19", week[0].Date)
	assert.Equal(t, "2025-06-25", week[6].Date)

	assert.Len(t, Generate(records, PeriodMonth, now), 30)
}

func TestGenerateWeekdayPattern(t *testing.T) {
	// A single old Monday record, outside the trend window.
	monday := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	preds := Generate([]models.EmotionRecord{record(monday, 30, models.EmotionAnxiety)}, PeriodWeek, now)

	p, ok := ForDate(time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC), preds)
	require.True(t, ok)

	assert.Equal(t, models.EmotionAnxiety, p.DominantEmotion)
	require.Len(t, p.EmotionDistribution, 5)
	assert.Equal(t, 70.0, p.EmotionDistribution[0].Probability)
	// zero-probability ties keep positive-first catalog order
	assert.Equal(t, models.EmotionJoy, p.EmotionDistribution[1].Category)
	assert.Equal(t, models.EmotionHope, p.EmotionDistribution[4].Category)

	assert.Equal(t, 18, p.EnergyLevel)
	// volume 2 + weekday density 6 + stability 30
	assert.Equal(t, 38, p.ConfidenceScore)
	assert.Equal(t, ConfidenceLow, p.Confidence)
	assert.Equal(t,
		"월요일에는 주로 '불안' 감정이 우세하게 나타납니다. 이 날의 에너지 레벨은 낮은 편(18%)으로 예상됩니다. 다만, 이 예측은 충분한 데이터가 없어 신뢰도가 낮습니다.",
		p.Basis)

	thursday := preds[0]
	assert.Equal(t, 50, thursday.EnergyLevel)
	assert.Equal(t, 32, thursday.ConfidenceScore)
}

func TestGenerateBlendsRecentTrend(t *testing.T) {
	yesterday := time.Date(2025, 6, 17, 10, 0, 0, 0, time.UTC)
	preds := Generate([]models.EmotionRecord{record(yesterday, 80, models.EmotionJoy)}, PeriodWeek, now)

	tuesday, ok := ForDate(time.Date(2025, 6, 24, 0, 0, 0, 0, time.UTC), preds)
	require.True(t, ok)
	assert.Equal(t, models.EmotionJoy, tuesday.DominantEmotion)
	assert.Equal(t, 80.0, tuesday.EmotionDistribution[0].Probability)
	assert.Equal(t, 59, tuesday.EnergyLevel)
	assert.Equal(t, 36, tuesday.ConfidenceScore)
	assert.Contains(t, tuesday.Basis, "보통(59%)")

	thursday := preds[0]
	assert.Equal(t, models.EmotionJoy, thursday.DominantEmotion)
	assert.Equal(t, 10.0, thursday.EmotionDistribution[0].Probability)
}

func TestConfidenceMonotonicInRecordCount(t *testing.T) {
	// All records on old Mondays: Tuesday density and trend stability stay fixed.
	build := func(n int) []models.EmotionRecord {
		var out []models.EmotionRecord
		for i := 0; i < n; i++ {
			out = append(out, record(time.Date(2025, 5, 5, 9, i, 0, 0, time.UTC), 50, models.EmotionStress))
		}
		return out
	}

	prev := -1
	for _, n := range []int{1, 5, 10, 20, 40} {
		preds := Generate(build(n), PeriodWeek, now)
		tuesday, ok := ForDate(time.Date(2025, 6, 24, 0, 0, 0, 0, time.UTC), preds)
		require.True(t, ok)
		assert.GreaterOrEqual(t, tuesday.ConfidenceScore, prev)
		prev = tuesday.ConfidenceScore
	}
	assert.Equal(t, 70, prev)
}

func TestConfidenceLevels(t *testing.T) {
	assert.Equal(t, ConfidenceLow, confidenceLevel(39.9))
	assert.Equal(t, ConfidenceMedium, confidenceLevel(40))
	assert.Equal(t, ConfidenceMedium, confidenceLevel(69.9))
	assert.Equal(t, ConfidenceHigh, confidenceLevel(70))
}

func TestVariability(t *testing.T) {
	assert.Equal(t, 0.0, variability(nil))
	assert.Equal(t, 0.0, variability([]float64{40}))
	assert.InDelta(t, 0.3, variability([]float64{0, 30, 0}), 1e-9)
	assert.Equal(t, 1.0, variability([]float64{0, 500}))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, p)

	p, err = ParsePeriod("month")
	require.NoError(t, err)
	assert.Equal(t, 30, p.Days())

	_, err = ParsePeriod("year")
	assert.Error(t, err)
}

func TestCopingStrategies(t *testing.T) {
	got := CopingStrategies(Prediction{DominantEmotion: models.EmotionAnxiety, EnergyLevel: 30})
	require.Len(t, got, 2)
	assert.Equal(t, "불안 관리 전략", got[0].Title)
	assert.Equal(t, "낮은 에너지 관리 전략", got[1].Title)

	got = CopingStrategies(Prediction{DominantEmotion: models.EmotionConfusion, EnergyLevel: 70})
	assert.Equal(t, "부정적 감정 관리 전략", got[0].Title)
	assert.Equal(t, "에너지 균형 유지 전략", got[1].Title)

	got = CopingStrategies(Prediction{DominantEmotion: models.EmotionGratitude, EnergyLevel: 71})
	assert.Equal(t, "긍정적 감정 유지 전략", got[0].Title)
	assert.Equal(t, "높은 에너지 활용 전략", got[1].Title)

	got = CopingStrategies(Prediction{DominantEmotion: NoEmotion, EnergyLevel: 50})
	require.Len(t, got, 1)
}

func TestEvaluateAccuracy(t *testing.T) {
	p := Prediction{
		DominantEmotion: models.EmotionStress,
		EmotionDistribution: []Probability{
			{Category: models.EmotionStress, Probability: 40},
			{Category: models.EmotionAnxiety, Probability: 20},
		},
		EnergyLevel: 40,
	}

	hit := EvaluateAccuracy(p, record(now, 50, models.EmotionStress, models.EmotionJoy))
	// 70 + 0.5*30 = 85; energy 100-20 = 80; overall 59.5+24
	assert.Equal(t, Accuracy{EmotionAccuracy: 85, EnergyAccuracy: 80, OverallAccuracy: 84}, hit)

	miss := EvaluateAccuracy(p, record(now, 95, models.EmotionAnxiety, models.EmotionJoy))
	// min(50, 0.5*100) = 50; energy max(0, 100-110) = 0
	assert.Equal(t, Accuracy{EmotionAccuracy: 50, EnergyAccuracy: 0, OverallAccuracy: 35}, miss)

	empty := EvaluateAccuracy(p, record(now, 40))
	assert.Equal(t, 0, empty.EmotionAccuracy)
	assert.Equal(t, 100, empty.EnergyAccuracy)
}
