// Package analysis derives dashboard statistics from emotion records.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"maeum-toegeun/backend/internal/models"
)

// Range selects how far back Analyze looks
type Range string

const (
	RangeWeek      Range = "week"
	RangeMonth     Range = "month"
	Range3Months   Range = "3months"
	Range6Months   Range = "6months"
	RangeYear      Range = "year"
	RangeAll       Range = "all"
	dateLayout           = "2006-01-02"
	noneLabel            = "없음"
	statsWindow          = 7 * 24 * time.Hour
	defaultStatsEnergy   = 50
	topCombinationsCount = 5
	trendEmotionCount    = 5
)

// ParseRange accepts the known range names. Empty means month.
func ParseRange(s string) (Range, error) {
	switch r := Range(s); r {
	case "":
		return RangeMonth, nil
	case RangeWeek, RangeMonth, Range3Months, Range6Months, RangeYear, RangeAll:
		return r, nil
	}
	return "", fmt.Errorf("unknown analysis range %q", s)
}

// Start returns the inclusive lower bound of r relative to now. The zero
// time means no bound.
func (r Range) Start(now time.Time) time.Time {
	switch r {
	case RangeWeek:
		return now.AddDate(0, 0, -7)
	case RangeMonth:
		return now.AddDate(0, -1, 0)
	case Range3Months:
		return now.AddDate(0, -3, 0)
	case Range6Months:
		return now.AddDate(0, -6, 0)
	case RangeYear:
		return now.AddDate(-1, 0, 0)
	}
	return time.Time{}
}

// Stats summarises the last seven days: mean energy (50 when empty), the
// share of negative emotions as burnout risk, and the top three emotions.
func Stats(records []models.EmotionRecord, now time.Time) models.EmotionStats {
	stats := models.EmotionStats{
		EnergyLevel:      defaultStatsEnergy,
		DominantEmotions: []models.DominantEmotion{},
	}
	if len(records) == 0 {
		return stats
	}

	cutoff := now.Add(-statsWindow).UnixMilli()
	var (
		energySum int
		recent    int
		emotions  []models.EmotionEntry
	)
	for _, r := range records {
		if r.Timestamp < cutoff {
			continue
		}
		recent++
		energySum += r.EnergyLevel
		emotions = append(emotions, r.Emotions...)
	}
	if recent > 0 {
		stats.EnergyLevel = int(math.Round(float64(energySum) / float64(recent)))
	}
	if len(emotions) == 0 {
		return stats
	}

	negative := 0
	counts := newCounter()
	for _, e := range emotions {
		if e.Category.IsNegative() {
			negative++
		}
		counts.add(string(e.Category))
	}
	stats.BurnoutRisk = int(math.Round(float64(negative) / float64(len(emotions)) * 100))

	for _, entry := range counts.sorted(3) {
		stats.DominantEmotions = append(stats.DominantEmotions, models.DominantEmotion{
			Category:   models.EmotionCategory(entry.key),
			Percentage: int(math.Round(float64(entry.count) / float64(len(emotions)) * 100)),
		})
	}
	return stats
}

// Summary is the headline block of the analysis view
type Summary struct {
	TotalRecords          int                    `json:"totalRecords"`
	AverageEnergy         float64                `json:"averageEnergy"`
	DominantEmotion       models.EmotionCategory `json:"dominantEmotion"`
	MostFrequentSituation string                 `json:"mostFrequentSituation"`
	VolatilityScore       float64                `json:"volatilityScore"`
	PositiveRatio         float64                `json:"positiveRatio"`
}

// Count is one category with its frequency
type Count struct {
	Category models.EmotionCategory `json:"category"`
	Count    int                    `json:"count"`
}

// Pattern holds positive share, negative share and mean energy per bucket
type Pattern struct {
	Labels   []string  `json:"labels"`
	Positive []float64 `json:"positive"`
	Negative []float64 `json:"negative"`
	Energy   []float64 `json:"energy"`
}

// Combination is a pair of emotions felt together
type Combination struct {
	Combination string  `json:"combination"`
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
}

// DayPoint aggregates the records of one calendar day
type DayPoint struct {
	Date          string  `json:"date"`
	Records       int     `json:"records"`
	AverageEnergy float64 `json:"averageEnergy"`
	Complexity    float64 `json:"complexity"`
	Volatility    float64 `json:"volatility"`
}

// EmotionTrend is the mean intensity of one emotion per recorded day
type EmotionTrend struct {
	Category  models.EmotionCategory `json:"category"`
	Dates     []string               `json:"dates"`
	Intensity []float64              `json:"intensity"`
}

// Report is the full analysis for one range
type Report struct {
	Range        Range          `json:"range"`
	Summary      Summary        `json:"summary"`
	Distribution []Count        `json:"distribution"`
	Weekday      Pattern        `json:"weekdayPattern"`
	TimeOfDay    Pattern        `json:"timeOfDayPattern"`
	Combinations []Combination  `json:"topEmotionCombinations"`
	Daily        []DayPoint     `json:"daily"`
	Trends       []EmotionTrend `json:"emotionTrends"`
}

var (
	weekdayLabels   = []string{"월", "화", "수", "목", "금", "토", "일"}
	timeOfDayLabels = []string{"아침", "오후", "저녁", "밤"}
)

// TimeOfDay buckets an hour: 아침 5-12, 오후 12-17, 저녁 17-21, otherwise 밤
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "아침"
	case hour >= 12 && hour < 17:
		return "오후"
	case hour >= 17 && hour < 21:
		return "저녁"
	default:
		return "밤"
	}
}

// Analyze builds the report for records inside r. Records are expected in
// store order (newest first); same-day volatility follows that order.
func Analyze(records []models.EmotionRecord, r Range, now time.Time) Report {
	loc := now.Location()
	start := r.Start(now)

	var filtered []models.EmotionRecord
	for _, rec := range records {
		t := rec.Time().In(loc)
		if (!start.IsZero() && t.Before(start)) || t.After(now) {
			continue
		}
		filtered = append(filtered, rec)
	}

	report := Report{
		Range:        r,
		Distribution: []Count{},
		Weekday:      emptyPattern(weekdayLabels),
		TimeOfDay:    emptyPattern(timeOfDayLabels),
		Combinations: []Combination{},
		Daily:        []DayPoint{},
		Trends:       []EmotionTrend{},
		Summary: Summary{
			DominantEmotion:       noneLabel,
			MostFrequentSituation: noneLabel,
		},
	}
	if len(filtered) == 0 {
		return report
	}

	// distribution in catalog order
	freq := newCounter()
	for _, c := range models.AllEmotions() {
		freq.seed(string(c))
	}
	positive, total := 0, 0
	energySum := 0
	situations := newCounter()
	for _, rec := range filtered {
		energySum += rec.EnergyLevel
		for _, e := range rec.Emotions {
			freq.add(string(e.Category))
			total++
			if e.Category.IsPositive() {
				positive++
			}
		}
		if rec.Situation != "" {
			situations.add(rec.Situation)
		}
	}
	for _, key := range freq.order {
		if n := freq.counts[key]; n > 0 {
			report.Distribution = append(report.Distribution, Count{Category: models.EmotionCategory(key), Count: n})
		}
	}

	byDay := make([][]models.EmotionRecord, 7)
	byTime := make(map[string][]models.EmotionRecord, 4)
	byDate := make(map[string][]models.EmotionRecord)
	for _, rec := range filtered {
		t := rec.Time().In(loc)
		byDay[t.Weekday()] = append(byDay[t.Weekday()], rec)
		byTime[TimeOfDay(t.Hour())] = append(byTime[TimeOfDay(t.Hour())], rec)
		key := t.Format(dateLayout)
		byDate[key] = append(byDate[key], rec)
	}

	for i := range weekdayLabels {
		// labels start on Monday
		fillPattern(&report.Weekday, i, byDay[(i+1)%7])
	}
	for i, label := range timeOfDayLabels {
		fillPattern(&report.TimeOfDay, i, byTime[label])
	}

	report.Combinations = combinations(filtered)

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	volatilitySum := 0.0
	for _, d := range dates {
		day := byDate[d]
		point := DayPoint{Date: d, Records: len(day), Volatility: dayVolatility(day)}
		energy, emotions := 0, 0
		for _, rec := range day {
			energy += rec.EnergyLevel
			emotions += len(rec.Emotions)
		}
		point.AverageEnergy = float64(energy) / float64(len(day))
		point.Complexity = float64(emotions) / float64(len(day))
		volatilitySum += point.Volatility
		report.Daily = append(report.Daily, point)
	}

	for _, entry := range freq.sorted(trendEmotionCount) {
		if entry.count == 0 {
			break
		}
		category := models.EmotionCategory(entry.key)
		trend := EmotionTrend{Category: category}
		for _, d := range dates {
			sum, n := 0, 0
			for _, rec := range byDate[d] {
				for _, e := range rec.Emotions {
					if e.Category == category {
						sum += e.Intensity
						n++
						break
					}
				}
			}
			v := 0.0
			if n > 0 {
				v = float64(sum) / float64(n)
			}
			trend.Dates = append(trend.Dates, d)
			trend.Intensity = append(trend.Intensity, v)
		}
		report.Trends = append(report.Trends, trend)
	}

	report.Summary.TotalRecords = len(filtered)
	report.Summary.AverageEnergy = float64(energySum) / float64(len(filtered))
	if top := freq.sorted(1); len(top) > 0 && top[0].count > 0 {
		report.Summary.DominantEmotion = models.EmotionCategory(top[0].key)
	}
	if top := situations.sorted(1); len(top) > 0 {
		report.Summary.MostFrequentSituation = top[0].key
	}
	report.Summary.VolatilityScore = volatilitySum / float64(len(dates))
	if total > 0 {
		report.Summary.PositiveRatio = float64(positive) / float64(total) * 100
	}

	return report
}

func emptyPattern(labels []string) Pattern {
	return Pattern{
		Labels:   labels,
		Positive: make([]float64, len(labels)),
		Negative: make([]float64, len(labels)),
		Energy:   make([]float64, len(labels)),
	}
}

func fillPattern(p *Pattern, i int, records []models.EmotionRecord) {
	if len(records) == 0 {
		return
	}
	pos, neg, total, energy := 0, 0, 0, 0
	for _, rec := range records {
		energy += rec.EnergyLevel
		for _, e := range rec.Emotions {
			total++
			if e.Category.IsPositive() {
				pos++
			} else if e.Category.IsNegative() {
				neg++
			}
		}
	}
	if total > 0 {
		p.Positive[i] = float64(pos) / float64(total) * 100
		p.Negative[i] = float64(neg) / float64(total) * 100
	}
	p.Energy[i] = float64(energy) / float64(len(records))
}

// combinations counts every unordered pair of categories within a record
func combinations(records []models.EmotionRecord) []Combination {
	counts := newCounter()
	for _, rec := range records {
		if len(rec.Emotions) < 2 {
			continue
		}
		cats := make([]string, len(rec.Emotions))
		for i, e := range rec.Emotions {
			cats[i] = string(e.Category)
		}
		sort.Strings(cats)
		for i := 0; i < len(cats)-1; i++ {
			for j := i + 1; j < len(cats); j++ {
				counts.add(cats[i] + " + " + cats[j])
			}
		}
	}

	out := []Combination{}
	for _, entry := range counts.sorted(topCombinationsCount) {
		out = append(out, Combination{
			Combination: entry.key,
			Count:       entry.count,
			Percentage:  float64(entry.count) / float64(len(records)) * 100,
		})
	}
	return out
}

// dayVolatility is the mean size of the symmetric difference between the
// category sets of consecutive records
func dayVolatility(records []models.EmotionRecord) float64 {
	if len(records) <= 1 {
		return 0
	}
	total := 0
	for i := 1; i < len(records); i++ {
		prev := categorySet(records[i-1])
		curr := categorySet(records[i])
		for c := range curr {
			if !prev[c] {
				total++
			}
		}
		for c := range prev {
			if !curr[c] {
				total++
			}
		}
	}
	return float64(total) / float64(len(records)-1)
}

func categorySet(r models.EmotionRecord) map[models.EmotionCategory]bool {
	set := make(map[models.EmotionCategory]bool, len(r.Emotions))
	for _, e := range r.Emotions {
		set[e.Category] = true
	}
	return set
}

// counter counts keys and remembers first-seen order for stable ties
type counter struct {
	counts map[string]int
	order  []string
}

type counted struct {
	key   string
	count int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) seed(key string) {
	if _, ok := c.counts[key]; !ok {
		c.counts[key] = 0
		c.order = append(c.order, key)
	}
}

func (c *counter) add(key string) {
	c.seed(key)
	c.counts[key]++
}

// sorted returns up to n entries by count descending, first-seen order on ties
func (c *counter) sorted(n int) []counted {
	out := make([]counted, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, counted{key: key, count: c.counts[key]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	if n < len(out) {
		out = out[:n]
	}
	return out
}
