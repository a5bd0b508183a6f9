package models

// MissionCategory groups missions by the kind of recovery they target
type MissionCategory string

const (
	MissionMindfulness MissionCategory = "마음챙김"
	MissionPhysical    MissionCategory = "신체활동"
	MissionRest        MissionCategory = "휴식"
	MissionRelation    MissionCategory = "관계"
	MissionGrowth      MissionCategory = "성장"
	MissionExpression  MissionCategory = "감정표현"
	MissionGratitude   MissionCategory = "감사"
	MissionGoal        MissionCategory = "목표설정"
)

// MissionDifficulty is 쉬움, 보통 or 도전
type MissionDifficulty string

// MissionStatus tracks a completion record
type MissionStatus string

const (
	StatusWaiting    MissionStatus = "대기중"
	StatusInProgress MissionStatus = "진행중"
	StatusDone       MissionStatus = "완료"
	StatusFailed     MissionStatus = "실패"
)

// Mission is a static catalog entry
type Mission struct {
	ID               string            `json:"id" yaml:"id"`
	Title            string            `json:"title" yaml:"title"`
	Description      string            `json:"description" yaml:"description"`
	Category         MissionCategory   `json:"category" yaml:"category"`
	Difficulty       MissionDifficulty `json:"difficulty" yaml:"difficulty"`
	Points           int               `json:"points" yaml:"points"`
	EstimatedMinutes int               `json:"estimatedMinutes" yaml:"estimatedMinutes"`
	Tips             string            `json:"tips,omitempty" yaml:"tips"`
}

// MissionCompletion references a catalog mission by id
type MissionCompletion struct {
	ID           string        `json:"id"`
	MissionID    string        `json:"missionId"`
	Timestamp    int64         `json:"timestamp"`
	Status       MissionStatus `json:"status"`
	Reflection   string        `json:"reflection,omitempty"`
	PointsEarned int           `json:"pointsEarned"`
}

// CompleteMissionRequest is the payload of POST /missions/:id/complete
type CompleteMissionRequest struct {
	Status     MissionStatus `json:"status"`
	Reflection string        `json:"reflection"`
}

// DailyMissions caches the missions drawn for one calendar day
type DailyMissions struct {
	Date       string   `json:"date"`
	MissionIDs []string `json:"missionIds"`
}

// MissionStats is computed from the completion history
type MissionStats struct {
	TotalCompleted int `json:"totalCompleted"`
	TotalPoints    int `json:"totalPoints"`
	CompletionRate int `json:"completionRate"`
	Streak         int `json:"streak"`
}

// CompletionResult is returned after completing a mission
type CompletionResult struct {
	Completion  MissionCompletion `json:"completion"`
	TotalPoints int               `json:"totalPoints"`
	Level       Level             `json:"level"`
	LeveledUp   bool              `json:"leveledUp"`
	NewBadges   []Badge           `json:"newBadges"`
}
