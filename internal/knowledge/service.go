package knowledge

import (
	"context"
	"errors"

	"github.com/adaptmath/backend/internal/db"
	apperrors "github.com/adaptmath/backend/internal/errors"
	"github.com/adaptmath/backend/internal/metrics"
)

// ProgressionStore is the slice of persistence the knowledge service needs.
// The production implementation is db.ProgressionRepository.
type ProgressionStore interface {
	GetScore(ctx context.Context, userID, skillID int64) (float64, error)
	SetScore(ctx context.Context, userID, skillID int64, score float64) error
	ListForStudent(ctx context.Context, userID int64) ([]db.SkillProgression, error)
	GetSkill(ctx context.Context, skillID int64) (*db.Skill, error)
	ListSkills(ctx context.Context) ([]db.Skill, error)
}

// ProgressUpdate is one recomputed mastery score, both the handler response
// and the payload pushed to connected clients.
type ProgressUpdate struct {
	SkillID     int64   `json:"skill_id"`
	SkillName   string  `json:"skill_name"`
	Progression float64 `json:"progression"`
}

// Notifier pushes a progress update to a student's connected clients.
type Notifier interface {
	NotifyProgress(userID int64, update *ProgressUpdate)
}

// Updater recomputes a mastery score from the previous one and whether the
// latest answer was correct. Scores stay in [0, 1].
type Updater func(score float64, correct bool) float64

// DefaultUpdater is an exponential step toward 1 on a correct answer and a
// proportional drop on an incorrect one. It converges without ever saturating,
// and a wrong answer always costs less than a right one gains near 0.
func DefaultUpdater(score float64, correct bool) float64 {
	if correct {
		return score + 0.1*(1-score)
	}
	return score - 0.3*score
}

// Service tracks per-student mastery scores and pushes updates to connected
// clients.
type Service struct {
	progressions ProgressionStore
	updater      Updater
	notifier     Notifier
}

// NewService creates a knowledge service. updater may be nil for the default
// formula; notifier may be nil when no live push is wanted.
func NewService(progressions ProgressionStore, updater Updater, notifier Notifier) *Service {
	if updater == nil {
		updater = DefaultUpdater
	}
	return &Service{
		progressions: progressions,
		updater:      updater,
		notifier:     notifier,
	}
}

// ListForStudent returns all skill progressions recorded for the student.
func (s *Service) ListForStudent(ctx context.Context, studentID int64) ([]db.SkillProgression, error) {
	list, err := s.progressions.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list progressions").WithCause(err)
	}
	return list, nil
}

// Catalog returns every known skill, whether or not the student has touched
// it yet.
func (s *Service) Catalog(ctx context.Context) ([]db.Skill, error) {
	skills, err := s.progressions.ListSkills(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list skills").WithCause(err)
	}
	return skills, nil
}

// ApplyPerformance recomputes the student's score on a skill after one
// answer. A student with no recorded score starts at zero.
func (s *Service) ApplyPerformance(ctx context.Context, studentID, skillID int64, correct bool) (*ProgressUpdate, error) {
	skill, err := s.progressions.GetSkill(ctx, skillID)
	if err != nil {
		if errors.Is(err, db.ErrSkillNotFound) {
			return nil, apperrors.NotFound("skill")
		}
		return nil, apperrors.DatabaseError("failed to look up skill").WithCause(err)
	}

	score, err := s.progressions.GetScore(ctx, studentID, skillID)
	if err != nil {
		if !errors.Is(err, db.ErrProgressionNotFound) {
			return nil, apperrors.DatabaseError("failed to read progression").WithCause(err)
		}
		score = 0
	}

	score = clamp(s.updater(score, correct))

	if err := s.progressions.SetScore(ctx, studentID, skillID, score); err != nil {
		return nil, apperrors.DatabaseError("failed to store progression").WithCause(err)
	}

	update := &ProgressUpdate{
		SkillID:     skill.ID,
		SkillName:   skill.Name,
		Progression: score,
	}

	if s.notifier != nil {
		s.notifier.NotifyProgress(studentID, update)
	}

	metrics.Default().IncCounter("performance_updates")
	return update, nil
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
