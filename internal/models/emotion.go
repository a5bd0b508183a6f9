package models

import "time"

// EmotionCategory is one of the fourteen tracked feelings
type EmotionCategory string

const (
	EmotionAnxiety    EmotionCategory = "불안"
	EmotionAnger      EmotionCategory = "분노"
	EmotionSadness    EmotionCategory = "슬픔"
	EmotionHelpless   EmotionCategory = "무력감"
	EmotionStress     EmotionCategory = "스트레스"
	EmotionBurnout    EmotionCategory = "소진"
	EmotionAlienation EmotionCategory = "위화감"
	EmotionDiscontent EmotionCategory = "불만"
	EmotionConfusion  EmotionCategory = "혼란"
	EmotionJoy        EmotionCategory = "기쁨"
	EmotionSatisfied  EmotionCategory = "만족"
	EmotionCalm       EmotionCategory = "평온"
	EmotionHope       EmotionCategory = "희망"
	EmotionGratitude  EmotionCategory = "감사"
)

// PositiveEmotions in display order
var PositiveEmotions = []EmotionCategory{
	EmotionJoy, EmotionSatisfied, EmotionCalm, EmotionHope, EmotionGratitude,
}

// NegativeEmotions in display order
var NegativeEmotions = []EmotionCategory{
	EmotionAnxiety, EmotionAnger, EmotionSadness, EmotionHelpless, EmotionStress,
	EmotionBurnout, EmotionAlienation, EmotionDiscontent, EmotionConfusion,
}

// AllEmotions lists positive emotions first, then negative ones
func AllEmotions() []EmotionCategory {
	all := make([]EmotionCategory, 0, len(PositiveEmotions)+len(NegativeEmotions))
	all = append(all, PositiveEmotions...)
	return append(all, NegativeEmotions...)
}

// IsPositive reports whether c is one of the positive emotions
func (c EmotionCategory) IsPositive() bool {
	for _, p := range PositiveEmotions {
		if p == c {
			return true
		}
	}
	return false
}

// IsNegative reports whether c is one of the negative emotions
func (c EmotionCategory) IsNegative() bool {
	for _, n := range NegativeEmotions {
		if n == c {
			return true
		}
	}
	return false
}

// Valid reports whether c is a known category
func (c EmotionCategory) Valid() bool {
	return c.IsPositive() || c.IsNegative()
}

// EmotionEntry is one felt emotion with an intensity between 1 and 5
type EmotionEntry struct {
	Category  EmotionCategory `json:"category"`
	Intensity int             `json:"intensity"`
}

// EmotionRecord is one submission of the recording form. Timestamps are
// unix milliseconds.
type EmotionRecord struct {
	ID          string         `json:"id"`
	Timestamp   int64          `json:"timestamp"`
	Emotions    []EmotionEntry `json:"emotions"`
	Note        string         `json:"note"`
	Situation   string         `json:"situation"`
	EnergyLevel int            `json:"energyLevel"`
}

// Time returns the record timestamp in local time
func (r EmotionRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// CreateEmotionRecordRequest is the payload of POST /emotions
type CreateEmotionRecordRequest struct {
	Emotions    []EmotionEntry `json:"emotions" binding:"required,min=1,dive"`
	Note        string         `json:"note"`
	Situation   string         `json:"situation"`
	EnergyLevel int            `json:"energyLevel" binding:"min=0,max=100"`
	Timestamp   int64          `json:"timestamp,omitempty"`
}

// DominantEmotion is a category with its share of all emotions in a window
type DominantEmotion struct {
	Category   EmotionCategory `json:"category"`
	Percentage int             `json:"percentage"`
}

// EmotionStats summarises the last seven days of records
type EmotionStats struct {
	EnergyLevel      int               `json:"energyLevel"`
	BurnoutRisk      int               `json:"burnoutRisk"`
	DominantEmotions []DominantEmotion `json:"dominantEmotions"`
}
