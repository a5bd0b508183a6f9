package models

// RecoveryNote is a private journal entry. Private notes are sealed at rest;
// the repository only ever sees the sealed Content.
type RecoveryNote struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Mood      string   `json:"mood"`
	Tags      []string `json:"tags"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
	IsPrivate bool     `json:"isPrivate"`
}

// Note sort orders
const (
	NoteSortRecent = "recent"
	NoteSortOldest = "oldest"
	NoteSortMood   = "mood"
)

// RecoveryNoteFilter narrows the note list. Dates are unix milliseconds.
type RecoveryNoteFilter struct {
	SearchQuery string   `form:"q"`
	Tags        []string `form:"tags"`
	StartDate   int64    `form:"startDate"`
	EndDate     int64    `form:"endDate"`
	SortBy      string   `form:"sortBy"`
}

type RecoveryNoteRequest struct {
	Title     string   `json:"title" binding:"required"`
	Content   string   `json:"content" binding:"required"`
	Mood      string   `json:"mood"`
	Tags      []string `json:"tags"`
	IsPrivate bool     `json:"isPrivate"`
}
