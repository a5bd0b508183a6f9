package predict

import (
	"math"

	"maeum-toegeun/backend/internal/models"
)

// Strategy is a coping suggestion for a predicted day
type Strategy struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ActionItems []string `json:"actionItems"`
}

var negativeStrategies = map[models.EmotionCategory]Strategy{
	models.EmotionAnxiety: {
		Title:       "불안 관리 전략",
		Description: "예상되는 불안감에 대비하여 마음의 안정을 찾는 방법입니다.",
		ActionItems: []string{
			"5분 호흡 명상으로 하루 시작하기",
			"걱정되는 일을 메모하고 해결 가능한 것과 그렇지 않은 것 구분하기",
			"가벼운 스트레칭이나 요가로 신체 긴장 풀기",
			"불안을 유발할 수 있는 카페인 섭취 줄이기",
		},
	},
	models.EmotionAnger: {
		Title:       "분노 조절 전략",
		Description: "예상되는 분노 감정에 대비하여 감정을 건강하게 표현하는 방법입니다.",
		ActionItems: []string{
			"감정이 고조되면 잠시 자리를 떠나 심호흡하기",
			"분노의 원인을 일기에 적어보기",
			"격한 운동으로 에너지 발산하기",
			"'나' 메시지를 사용해 감정 표현하기 (예: '나는 ~할 때 화가 난다')",
		},
	},
	models.EmotionSadness: {
		Title:       "슬픔 대처 전략",
		Description: "예상되는 슬픔에 대비하여 감정을 인정하고 돌보는 방법입니다.",
		ActionItems: []string{
			"슬픈 감정을 억누르지 않고 충분히 느끼기",
			"신뢰할 수 있는 사람에게 감정 표현하기",
			"자기 연민의 편지 쓰기",
			"좋아하는 음악 듣거나 영화 보기",
		},
	},
	models.EmotionHelpless: {
		Title:       "무력감 극복 전략",
		Description: "예상되는 무력감에 대비하여 작은 성취감을 쌓는 방법입니다.",
		ActionItems: []string{
			"아주 작은 목표 하나 설정하고 달성하기",
			"과거의 성공 경험 떠올리고 기록하기",
			"도움을 요청하는 연습하기",
			"자신의 강점 목록 만들기",
		},
	},
	models.EmotionStress: {
		Title:       "스트레스 관리 전략",
		Description: "예상되는 스트레스에 대비하여 압박감을 줄이는 방법입니다.",
		ActionItems: []string{
			"업무 우선순위 명확히 정하기",
			"짧은 휴식 시간 계획적으로 가지기",
			"스트레스 해소에 도움되는 취미 활동하기",
			"과도한 업무량은 동료나 상사와 상의하기",
		},
	},
	models.EmotionBurnout: {
		Title:       "소진 예방 전략",
		Description: "예상되는 소진에 대비하여 에너지를 보존하는 방법입니다.",
		ActionItems: []string{
			"충분한 수면 시간 확보하기",
			"업무 외 시간에 완전히 일과 분리하기",
			"에너지를 소모하는 활동과 회복하는 활동 균형 맞추기",
			"'아니오'라고 말하는 연습하기",
		},
	},
}

var (
	negativeDefault = Strategy{
		Title:       "부정적 감정 관리 전략",
		Description: "예상되는 부정적 감정에 대비하여 마음을 돌보는 방법입니다.",
		ActionItems: []string{
			"감정 일기 쓰기",
			"마음챙김 명상 실천하기",
			"가벼운 운동으로 기분 전환하기",
			"충분한 휴식 취하기",
		},
	}
	positiveStrategy = Strategy{
		Title:       "긍정적 감정 유지 전략",
		Description: "예상되는 긍정적 감정을 더욱 강화하고 유지하는 방법입니다.",
		ActionItems: []string{
			"감사한 일 3가지 기록하기",
			"긍정적인 경험을 주변인과 나누기",
			"창의적인 활동에 시간 투자하기",
			"긍정적 감정을 활용해 도전적인 일에 도전하기",
		},
	}
	lowEnergyStrategy = Strategy{
		Title:       "낮은 에너지 관리 전략",
		Description: "예상되는 낮은 에너지 수준에 대비하여 효율적으로 에너지를 사용하는 방법입니다.",
		ActionItems: []string{
			"중요한 업무는 에너지가 상대적으로 높은 시간대에 배치하기",
			"작은 단위로 업무 나누어 진행하기",
			"가벼운 스트레칭으로 혈액순환 촉진하기",
			"충분한 수분 섭취와 영양가 있는 간식 준비하기",
		},
	}
	highEnergyStrategy = Strategy{
		Title:       "높은 에너지 활용 전략",
		Description: "예상되는 높은 에너지를 효과적으로 활용하는 방법입니다.",
		ActionItems: []string{
			"도전적인 업무나 프로젝트 진행하기",
			"창의적인 문제 해결이 필요한 일에 집중하기",
			"팀 활동이나 협업에 적극 참여하기",
			"새로운 아이디어 구상하고 기록하기",
		},
	}
	balancedEnergyStrategy = Strategy{
		Title:       "에너지 균형 유지 전략",
		Description: "예상되는 보통 수준의 에너지를 균형있게 유지하는 방법입니다.",
		ActionItems: []string{
			"업무와 휴식의 균형 맞추기",
			"정기적인 짧은 휴식 시간 가지기",
			"우선순위에 따라 업무 배분하기",
			"적절한 신체 활동으로 에너지 수준 유지하기",
		},
	}
)

// CopingStrategies returns an emotion strategy (none for an unknown dominant
// emotion) followed by one energy strategy.
func CopingStrategies(p Prediction) []Strategy {
	var out []Strategy

	switch {
	case p.DominantEmotion.IsNegative():
		if s, ok := negativeStrategies[p.DominantEmotion]; ok {
			out = append(out, s)
		} else {
			out = append(out, negativeDefault)
		}
	case p.DominantEmotion.IsPositive():
		out = append(out, positiveStrategy)
	}

	switch {
	case p.EnergyLevel < 40:
		out = append(out, lowEnergyStrategy)
	case p.EnergyLevel > 70:
		out = append(out, highEnergyStrategy)
	default:
		out = append(out, balancedEnergyStrategy)
	}
	return out
}

// Accuracy compares a prediction with what was actually recorded
type Accuracy struct {
	EmotionAccuracy int `json:"emotionAccuracy"`
	EnergyAccuracy  int `json:"energyAccuracy"`
	OverallAccuracy int `json:"overallAccuracy"`
}

// EvaluateAccuracy scores a prediction against an actual record. A matching
// dominant emotion earns 70 plus up to 30 for distribution overlap; otherwise
// overlap alone earns up to 50. Energy loses two points per percent of error.
func EvaluateAccuracy(p Prediction, actual models.EmotionRecord) Accuracy {
	predicted := make(map[models.EmotionCategory]bool, len(p.EmotionDistribution))
	for _, d := range p.EmotionDistribution {
		predicted[d.Category] = true
	}

	dominantHit := false
	matches := 0
	for _, e := range actual.Emotions {
		if e.Category == p.DominantEmotion {
			dominantHit = true
		}
		if predicted[e.Category] {
			matches++
		}
	}

	ratio := 0.0
	if n := len(actual.Emotions); n > 0 {
		ratio = float64(matches) / float64(n)
	}

	var emotion float64
	if dominantHit {
		emotion = 70 + math.Min(30, ratio*30)
	} else {
		emotion = math.Min(50, ratio*100)
	}

	energy := math.Max(0, 100-math.Abs(float64(p.EnergyLevel-actual.EnergyLevel))*2)
	overall := emotion*0.7 + energy*0.3

	return Accuracy{
		EmotionAccuracy: int(math.Round(emotion)),
		EnergyAccuracy:  int(math.Round(energy)),
		OverallAccuracy: int(math.Round(overall)),
	}
}
