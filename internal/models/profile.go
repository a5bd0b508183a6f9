package models

// ProfileTagLimit caps the recent emotion and situation lists
const ProfileTagLimit = 5

// Profile is the per-user signal used for topic recommendations plus the
// display identity stamped onto community posts.
type Profile struct {
	UserID            string   `json:"userId"`
	DisplayName       string   `json:"displayName,omitempty"`
	JobRole           string   `json:"jobRole,omitempty"`
	JobLevel          string   `json:"jobLevel,omitempty"`
	RecentEmotions    []string `json:"recentEmotions"`
	RecentSituations  []string `json:"recentSituations"`
	TutorialCompleted bool     `json:"tutorialCompleted"`
}

// AddEmotion front-inserts emotion, removing an earlier copy
func (p *Profile) AddEmotion(emotion string) {
	p.RecentEmotions = PushRecent(p.RecentEmotions, emotion, ProfileTagLimit)
}

// AddSituation front-inserts situation, removing an earlier copy
func (p *Profile) AddSituation(situation string) {
	p.RecentSituations = PushRecent(p.RecentSituations, situation, ProfileTagLimit)
}

// PushRecent returns list with value moved to the front, truncated to limit
func PushRecent(list []string, value string, limit int) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, value)
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// UpdateProfileRequest is the payload of PUT /profile
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	JobRole     *string `json:"jobRole"`
	JobLevel    *string `json:"jobLevel"`
}

// ProfileTagRequest adds one recent tag
type ProfileTagRequest struct {
	Value string `json:"value" binding:"required"`
}
