package service

import (
	"context"
	"strings"

	"maeum-toegeun/backend/internal/catalog"
	"maeum-toegeun/backend/internal/keyword"
	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/repository"
)

const maxDisplayName = 20

// ProfileService edits the recommendation profile and display identity
type ProfileService struct {
	repo *repository.ProfileRepository
}

func NewProfileService(repo *repository.ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (models.Profile, error) {
	return s.repo.Get(ctx, userID)
}

// Update applies the non-nil fields. An empty job role clears it.
func (s *ProfileService) Update(ctx context.Context, userID string, req models.UpdateProfileRequest) (models.Profile, error) {
	if req.JobRole != nil && *req.JobRole != "" && !containsString(catalog.JobRoles, *req.JobRole) {
		return models.Profile{}, invalid("jobRole", "알 수 없는 직무입니다.")
	}
	if req.DisplayName != nil && len([]rune(strings.TrimSpace(*req.DisplayName))) > maxDisplayName {
		return models.Profile{}, invalid("displayName", "닉네임은 20자 이내로 입력해주세요.")
	}
	return s.repo.Update(ctx, userID, func(p *models.Profile) {
		if req.DisplayName != nil {
			p.DisplayName = strings.TrimSpace(*req.DisplayName)
		}
		if req.JobRole != nil {
			p.JobRole = *req.JobRole
		}
		if req.JobLevel != nil {
			p.JobLevel = strings.TrimSpace(*req.JobLevel)
		}
	})
}

// AddEmotion pushes one emotion tag. Only keyword vocabulary labels are
// accepted since the topic scorer matches nothing else.
func (s *ProfileService) AddEmotion(ctx context.Context, userID, emotion string) (models.Profile, error) {
	emotion = strings.TrimSpace(emotion)
	if !containsString(keyword.Emotions.Labels(), emotion) {
		return models.Profile{}, invalid("value", "알 수 없는 감정입니다.")
	}
	return s.repo.Update(ctx, userID, func(p *models.Profile) { p.AddEmotion(emotion) })
}

func (s *ProfileService) AddSituation(ctx context.Context, userID, situation string) (models.Profile, error) {
	situation = strings.TrimSpace(situation)
	if !containsString(keyword.Situations.Labels(), situation) {
		return models.Profile{}, invalid("value", "알 수 없는 상황입니다.")
	}
	return s.repo.Update(ctx, userID, func(p *models.Profile) { p.AddSituation(situation) })
}

// LearnFromMessage tags a user message and pushes every label found, in
// dictionary order. The profile is left untouched when nothing matches.
func (s *ProfileService) LearnFromMessage(ctx context.Context, userID, text string) (keyword.Result, error) {
	found := keyword.Extract(text)
	if len(found.Emotions) == 0 && len(found.Situations) == 0 {
		return found, nil
	}
	_, err := s.repo.Update(ctx, userID, func(p *models.Profile) {
		for _, e := range found.Emotions {
			p.AddEmotion(e)
		}
		for _, sit := range found.Situations {
			p.AddSituation(sit)
		}
	})
	return found, err
}

// CompleteTutorial sets the tutorial flag
func (s *ProfileService) CompleteTutorial(ctx context.Context, userID string) (models.Profile, error) {
	return s.repo.Update(ctx, userID, func(p *models.Profile) { p.TutorialCompleted = true })
}

func (s *ProfileService) Reset(ctx context.Context, userID string) error {
	return s.repo.Reset(ctx, userID)
}

// Author is the identity stamped onto a new post or comment. Anonymous
// authors keep their job and level but not their name.
func (s *ProfileService) Author(ctx context.Context, userID string, anonymous bool) (models.Author, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return models.Author{}, err
	}
	name := anonymousAuthor
	if !anonymous && p.DisplayName != "" {
		name = p.DisplayName
	}
	return models.Author{ID: userID, Name: name, Job: p.JobRole, Level: p.JobLevel}, nil
}
