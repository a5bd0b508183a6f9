package service

import (
	"context"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/recommend"
	"maeum-toegeun/backend/internal/repository"
)

// TopicService suggests conversation topics from the stored profile
type TopicService struct {
	recommender *recommend.Recommender
	profiles    *repository.ProfileRepository
}

func NewTopicService(recommender *recommend.Recommender, profiles *repository.ProfileRepository) *TopicService {
	return &TopicService{recommender: recommender, profiles: profiles}
}

// Recommend ranks topics for the user's profile plus recently typed messages
func (s *TopicService) Recommend(ctx context.Context, userID string, req models.TopicRequest) ([]recommend.Scored, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.recommender.Recommend(recommend.Profile{
		JobRole:          p.JobRole,
		RecentEmotions:   p.RecentEmotions,
		RecentSituations: p.RecentSituations,
	}, req.Messages, req.Count), nil
}
