package models

// FeedbackRating is positive, neutral or negative
type FeedbackRating string

const (
	RatingPositive FeedbackRating = "positive"
	RatingNeutral  FeedbackRating = "neutral"
	RatingNegative FeedbackRating = "negative"
)

// FeedbackCategory names the aspect of a reply the feedback is about
type FeedbackCategory string

// FeedbackCategories in report order
var FeedbackCategories = []FeedbackCategory{
	"empathy", "relevance", "helpfulness", "clarity", "tone", "length", "other",
}

// FeedbackItem rates one assistant reply
type FeedbackItem struct {
	ID             string             `json:"id"`
	UserID         string             `json:"userId"`
	ConversationID string             `json:"conversationId"`
	MessageID      string             `json:"messageId"`
	Rating         FeedbackRating     `json:"rating"`
	Categories     []FeedbackCategory `json:"categories,omitempty"`
	Comment        string             `json:"comment,omitempty"`
	Timestamp      int64              `json:"timestamp"`
	UserQuery      string             `json:"userQuery"`
	AIResponse     string             `json:"aiResponse"`
}

// CreateFeedbackRequest is the payload of POST /feedback
type CreateFeedbackRequest struct {
	ConversationID string             `json:"conversationId" binding:"required"`
	MessageID      string             `json:"messageId" binding:"required"`
	Rating         FeedbackRating     `json:"rating" binding:"required,oneof=positive neutral negative"`
	Categories     []FeedbackCategory `json:"categories"`
	Comment        string             `json:"comment"`
	UserQuery      string             `json:"userQuery"`
	AIResponse     string             `json:"aiResponse"`
}

// TrendPoint counts ratings for one day
type TrendPoint struct {
	Date     string `json:"date"`
	Positive int    `json:"positive"`
	Neutral  int    `json:"neutral"`
	Negative int    `json:"negative"`
}

type FeedbackStats struct {
	TotalFeedback int                      `json:"totalFeedback"`
	PositiveRate  float64                  `json:"positiveRate"`
	NeutralRate   float64                  `json:"neutralRate"`
	NegativeRate  float64                  `json:"negativeRate"`
	CategoryStats map[FeedbackCategory]int `json:"categoryStats"`
	RecentTrend   []TrendPoint             `json:"recentTrend"`
}

// ResponseTime is one measured assistant latency
type ResponseTime struct {
	ConversationID string `json:"conversationId"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
	Timestamp      int64  `json:"timestamp"`
}

type ResponseMetrics struct {
	AverageResponseTime   float64            `json:"averageResponseTime"`
	AverageResponseLength float64            `json:"averageResponseLength"`
	TopIssueCategories    []FeedbackCategory `json:"topIssueCategories"`
	ImprovementAreas      []FeedbackCategory `json:"improvementAreas"`
}

// QualityReport bundles the quality score with improvement suggestions
type QualityReport struct {
	Score       int      `json:"score"`
	Suggestions []string `json:"suggestions"`
}
