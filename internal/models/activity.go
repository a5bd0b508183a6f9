package models

// ActivityType labels an entry of the activity timeline
type ActivityType string

const (
	ActivityPostCreate      ActivityType = "post_create"
	ActivityPostLike        ActivityType = "post_like"
	ActivityPostComment     ActivityType = "post_comment"
	ActivityPostBookmark    ActivityType = "post_bookmark"
	ActivityEmotionRecord   ActivityType = "emotion_record"
	ActivityMissionComplete ActivityType = "mission_complete"
	ActivityBadgeEarn       ActivityType = "badge_earn"
	ActivityLevelUp         ActivityType = "level_up"
)

type Activity struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Type        ActivityType `json:"type"`
	TargetID    string       `json:"targetId,omitempty"`
	TargetType  string       `json:"targetType,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	CreatedAt   int64        `json:"createdAt"`
}
