package service

import (
	"context"
	"sort"
	"strings"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/repository"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/pkg/seal"
)

// RecoveryNoteService keeps the recovery journal. Private notes are sealed
// at rest when a sealer is configured.
type RecoveryNoteService struct {
	repo   *repository.RecoveryNoteRepository
	sealer *seal.Sealer
	log    *logger.Logger
}

// NewRecoveryNoteService creates the service. A nil sealer stores private
// notes in clear text.
func NewRecoveryNoteService(repo *repository.RecoveryNoteRepository, sealer *seal.Sealer, log *logger.Logger) *RecoveryNoteService {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &RecoveryNoteService{repo: repo, sealer: sealer, log: log.WithComponent("recovery_note")}
}

func validateNote(req models.RecoveryNoteRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return invalid("title", "제목을 입력해주세요.")
	}
	if strings.TrimSpace(req.Content) == "" {
		return invalid("content", "내용을 입력해주세요.")
	}
	return nil
}

func (s *RecoveryNoteService) sealContent(note *models.RecoveryNote) error {
	if s.sealer == nil || !note.IsPrivate || seal.IsSealed(note.Content) {
		return nil
	}
	sealed, err := s.sealer.Seal(note.Content, note.ID)
	if err != nil {
		return err
	}
	note.Content = sealed
	return nil
}

// open decrypts a sealed note. A note that cannot be opened keeps its
// sealed content and the failure is logged.
func (s *RecoveryNoteService) open(note models.RecoveryNote) models.RecoveryNote {
	if !seal.IsSealed(note.Content) {
		return note
	}
	if s.sealer == nil {
		s.log.Warn("sealed note without a seal key", "note_id", note.ID)
		return note
	}
	plain, err := s.sealer.Open(note.Content, note.ID)
	if err != nil {
		s.log.LogError(err, "open sealed note failed", "note_id", note.ID)
		return note
	}
	note.Content = plain
	return note
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !containsString(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *RecoveryNoteService) Create(ctx context.Context, userID string, req models.RecoveryNoteRequest) (models.RecoveryNote, error) {
	if err := validateNote(req); err != nil {
		return models.RecoveryNote{}, err
	}
	note := models.RecoveryNote{
		ID:        newNoteID(),
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Mood:      req.Mood,
		Tags:      cleanTags(req.Tags),
		IsPrivate: req.IsPrivate,
	}
	if err := s.sealContent(&note); err != nil {
		return models.RecoveryNote{}, err
	}
	stored, err := s.repo.Create(ctx, userID, note)
	if err != nil {
		return stored, err
	}
	return s.open(stored), nil
}

func (s *RecoveryNoteService) Get(ctx context.Context, userID, id string) (models.RecoveryNote, error) {
	note, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return note, notFound(err, "노트를 찾을 수 없습니다.")
	}
	return s.open(note), nil
}

// Update replaces the editable fields. Content is resealed when the note is
// private.
func (s *RecoveryNoteService) Update(ctx context.Context, userID, id string, req models.RecoveryNoteRequest) (models.RecoveryNote, error) {
	if err := validateNote(req); err != nil {
		return models.RecoveryNote{}, err
	}
	next := models.RecoveryNote{ID: id, Content: req.Content, IsPrivate: req.IsPrivate}
	if err := s.sealContent(&next); err != nil {
		return models.RecoveryNote{}, err
	}

	updated, err := s.repo.Update(ctx, userID, id, func(n *models.RecoveryNote) {
		n.Title = strings.TrimSpace(req.Title)
		n.Content = next.Content
		n.Mood = req.Mood
		n.Tags = cleanTags(req.Tags)
		n.IsPrivate = req.IsPrivate
	})
	if err != nil {
		return updated, notFound(err, "노트를 찾을 수 없습니다.")
	}
	return s.open(updated), nil
}

func (s *RecoveryNoteService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return missing("노트를 찾을 수 없습니다.")
	}
	return nil
}

// List opens every note, then filters and sorts
func (s *RecoveryNoteService) List(ctx context.Context, userID string, filter models.RecoveryNoteFilter) ([]models.RecoveryNote, error) {
	notes, err := s.repo.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		notes[i] = s.open(notes[i])
	}
	return FilterNotes(notes, filter), nil
}

// FilterNotes applies search, tag and date filters and sorts by the chosen
// order. Dates bound CreatedAt inclusively.
func FilterNotes(notes []models.RecoveryNote, filter models.RecoveryNoteFilter) []models.RecoveryNote {
	query := strings.ToLower(strings.TrimSpace(filter.SearchQuery))
	out := make([]models.RecoveryNote, 0, len(notes))
	for _, n := range notes {
		if query != "" && !noteMatches(n, query) {
			continue
		}
		if len(filter.Tags) > 0 && !anyShared(n.Tags, filter.Tags) {
			continue
		}
		if filter.StartDate > 0 && n.CreatedAt < filter.StartDate {
			continue
		}
		if filter.EndDate > 0 && n.CreatedAt > filter.EndDate {
			continue
		}
		out = append(out, n)
	}

	switch filter.SortBy {
	case models.NoteSortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	case models.NoteSortMood:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Mood < out[j].Mood })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	}
	return out
}

func noteMatches(n models.RecoveryNote, query string) bool {
	if strings.Contains(strings.ToLower(n.Title), query) || strings.Contains(strings.ToLower(n.Content), query) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), query) {
			return true
		}
	}
	return false
}

// Tags lists every tag used by the user's notes in first-use order
func (s *RecoveryNoteService) Tags(ctx context.Context, userID string) ([]string, error) {
	notes, err := s.repo.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, n := range notes {
		for _, t := range n.Tags {
			if !containsString(out, t) {
				out = append(out, t)
			}
		}
	}
	return out, nil
}
