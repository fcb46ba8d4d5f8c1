package db

import (
	"context"
	"database/sql"
	"errors"
)

var ErrSkillNotFound = errors.New("skill not found")
var ErrProgressionNotFound = errors.New("progression not found")

// Skill is one trackable ability, e.g. "Fraction Addition".
type Skill struct {
	ID   int64
	Name string
}

// SkillProgression is one student's mastery score for one skill, in [0, 1].
type SkillProgression struct {
	SkillID     int64   `json:"skill_id"`
	SkillName   string  `json:"skill_name"`
	Progression float64 `json:"progression"`
}

type ProgressionRepository struct {
	db *DB
}

func NewProgressionRepository(db *DB) *ProgressionRepository {
	return &ProgressionRepository{db: db}
}

// GetScore returns the stored mastery score for one student and skill.
func (r *ProgressionRepository) GetScore(ctx context.Context, userID, skillID int64) (float64, error) {
	var score float64
	err := r.db.QueryRowContext(ctx,
		`SELECT progression FROM progression WHERE user_id = $1 AND skill_id = $2`,
		userID, skillID,
	).Scan(&score)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrProgressionNotFound
		}
		return 0, err
	}
	return score, nil
}

// SetScore stores a mastery score, creating the row on first update.
func (r *ProgressionRepository) SetScore(ctx context.Context, userID, skillID int64, score float64) error {
	query := `
		INSERT INTO progression (user_id, skill_id, progression)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, skill_id) DO UPDATE SET progression = EXCLUDED.progression
	`
	_, err := r.db.ExecContext(ctx, query, userID, skillID, score)
	return err
}

// ListForStudent returns every skill progression a student has.
func (r *ProgressionRepository) ListForStudent(ctx context.Context, userID int64) ([]SkillProgression, error) {
	query := `
		SELECT s.id, s.name, p.progression
		FROM progression p
		JOIN skills s ON s.id = p.skill_id
		WHERE p.user_id = $1
		ORDER BY s.name
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progressions []SkillProgression
	for rows.Next() {
		var p SkillProgression
		if err := rows.Scan(&p.SkillID, &p.SkillName, &p.Progression); err != nil {
			return nil, err
		}
		progressions = append(progressions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return progressions, nil
}

// GetSkill returns a skill by id.
func (r *ProgressionRepository) GetSkill(ctx context.Context, skillID int64) (*Skill, error) {
	skill := &Skill{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM skills WHERE id = $1`, skillID,
	).Scan(&skill.ID, &skill.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSkillNotFound
		}
		return nil, err
	}
	return skill, nil
}

// GetSkillByName resolves a skill by its normalized name, so "Fraction
// Addition", "fraction addition" and "Fraction  Addition" all match the same
// row.
func (r *ProgressionRepository) GetSkillByName(ctx context.Context, name string) (*Skill, error) {
	skill := &Skill{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM skills WHERE normalized_name = $1`, NormalizeSkillName(name),
	).Scan(&skill.ID, &skill.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSkillNotFound
		}
		return nil, err
	}
	return skill, nil
}

// CreateSkill inserts a skill and fills in its generated id.
func (r *ProgressionRepository) CreateSkill(ctx context.Context, skill *Skill) error {
	query := `
		INSERT INTO skills (name, normalized_name)
		VALUES ($1, $2)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, skill.Name, NormalizeSkillName(skill.Name)).Scan(&skill.ID)
	if err != nil && isUniqueViolation(err) {
		return r.db.QueryRowContext(ctx,
			`SELECT id FROM skills WHERE normalized_name = $1`, NormalizeSkillName(skill.Name),
		).Scan(&skill.ID)
	}
	return err
}

// ListSkills returns all known skills.
func (r *ProgressionRepository) ListSkills(ctx context.Context) ([]Skill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM skills ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []Skill
	for rows.Next() {
		var s Skill
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return skills, nil
}
