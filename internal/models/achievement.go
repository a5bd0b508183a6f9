package models

// BadgeType classifies what a badge rewards
type BadgeType string

const (
	BadgeMission   BadgeType = "mission"
	BadgeEmotion   BadgeType = "emotion"
	BadgeStreak    BadgeType = "streak"
	BadgeCommunity BadgeType = "community"
	BadgeSpecial   BadgeType = "special"
)

// BadgeRank is bronze, silver, gold or platinum
type BadgeRank string

// Criteria types understood by the badge checker
const (
	CriteriaMissionCount     = "mission_complete_count"
	CriteriaMissionCategory  = "mission_category_count"
	CriteriaMissionStreak    = "mission_streak"
	CriteriaEmotionCount     = "emotion_record_count"
	CriteriaCommunityPosts   = "community_post_count"
	CriteriaCommunityComment = "community_comment_count"
)

// UnlockCriteria describes the threshold that unlocks a badge
type UnlockCriteria struct {
	Type     string `json:"type" yaml:"type"`
	Value    int    `json:"value" yaml:"value"`
	Category string `json:"category,omitempty" yaml:"category"`
}

// Badge is a static catalog entry
type Badge struct {
	ID              string         `json:"id" yaml:"id"`
	Name            string         `json:"name" yaml:"name"`
	Description     string         `json:"description" yaml:"description"`
	Type            BadgeType      `json:"type" yaml:"type"`
	Rank            BadgeRank      `json:"rank" yaml:"rank"`
	Icon            string         `json:"icon" yaml:"icon"`
	UnlockCondition string         `json:"unlockCondition" yaml:"unlockCondition"`
	UnlockCriteria  UnlockCriteria `json:"unlockCriteria" yaml:"unlockCriteria"`
}

// UserBadge records that a user has unlocked a badge
type UserBadge struct {
	BadgeID    string `json:"badgeId"`
	UnlockedAt int64  `json:"unlockedAt"`
	Progress   *int   `json:"progress,omitempty"`
}

// Level is one rung of the recovery point ladder
type Level struct {
	Level          int      `json:"level" yaml:"level"`
	Name           string   `json:"name" yaml:"name"`
	RequiredPoints int      `json:"requiredPoints" yaml:"requiredPoints"`
	Benefits       []string `json:"benefits" yaml:"benefits"`
}

// LevelInfo is the level view for one user
type LevelInfo struct {
	Points            int    `json:"points"`
	Current           Level  `json:"current"`
	Next              *Level `json:"next,omitempty"`
	PointsToNextLevel int    `json:"pointsToNextLevel"`
	Progress          int    `json:"progress"`
}

// BadgeProgress pairs a catalog badge with the user's state
type BadgeProgress struct {
	Badge      Badge `json:"badge"`
	Unlocked   bool  `json:"unlocked"`
	UnlockedAt int64 `json:"unlockedAt,omitempty"`
	Progress   int   `json:"progress"`
}
