// Package recommend ranks conversation topics against a user's recent
// emotions, situations and job role.
package recommend

import (
	"sort"

	"maeum-toegeun/backend/internal/catalog"
	"maeum-toegeun/backend/internal/keyword"
)

const (
	DefaultCount = 3

	roleWeight      = 2
	emotionWeight   = 3
	situationWeight = 4
)

// Profile is the ranking signal. Recent lists are newest first.
type Profile struct {
	JobRole          string
	RecentEmotions   []string
	RecentSituations []string
}

// Scored is a topic with its final score
type Scored struct {
	catalog.Topic
	Score int `json:"score"`
}

// Recommender scores a fixed topic list
type Recommender struct {
	topics []catalog.Topic
}

func New(topics []catalog.Topic) *Recommender {
	return &Recommender{topics: topics}
}

// Recommend returns the count best topics. Tags extracted from messages are
// unioned with the profile tags. Equal scores keep catalog order. A count of
// zero or less means DefaultCount.
func (r *Recommender) Recommend(profile Profile, messages []string, count int) []Scored {
	if count <= 0 {
		count = DefaultCount
	}

	extracted := keyword.ExtractAll(messages...)
	emotions := keyword.Union(profile.RecentEmotions, extracted.Emotions)
	situations := keyword.Union(profile.RecentSituations, extracted.Situations)

	scored := make([]Scored, len(r.topics))
	for i, topic := range r.topics {
		scored[i] = Scored{Topic: topic, Score: Score(topic, profile.JobRole, emotions, situations)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if count > len(scored) {
		count = len(scored)
	}
	return scored[:count]
}

// Score is the topic priority plus the role, emotion and situation bonuses
func Score(topic catalog.Topic, jobRole string, emotions, situations []string) int {
	score := topic.Priority

	if jobRole != "" && contains(topic.JobRoles, jobRole) {
		score += roleWeight
	}
	for _, e := range emotions {
		if contains(topic.Emotions, e) {
			score += emotionWeight
		}
	}
	for _, s := range situations {
		if contains(topic.Situations, s) {
			score += situationWeight
		}
	}
	return score
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
