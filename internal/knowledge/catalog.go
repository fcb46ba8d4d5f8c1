package knowledge

import (
	"context"
	"errors"

	"github.com/adaptmath/backend/internal/db"
	apperrors "github.com/adaptmath/backend/internal/errors"
	"github.com/adaptmath/backend/internal/logger"
)

// SkillCatalog is the slice of persistence catalog sync needs.
type SkillCatalog interface {
	GetSkillByName(ctx context.Context, name string) (*db.Skill, error)
	CreateSkill(ctx context.Context, skill *db.Skill) error
}

// SyncSkillCatalog makes sure every named module has a skill row, matching on
// the normalized name so restarts and renamed casing never duplicate rows.
// It returns how many skills were created.
func SyncSkillCatalog(ctx context.Context, catalog SkillCatalog, names []string) (int, error) {
	log := logger.Default().WithComponent("knowledge")

	created := 0
	for _, name := range names {
		if name == "" {
			continue
		}
		_, err := catalog.GetSkillByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, db.ErrSkillNotFound) {
			return created, apperrors.DatabaseError("failed to look up skill by name").WithCause(err)
		}
		skill := &db.Skill{Name: name}
		if err := catalog.CreateSkill(ctx, skill); err != nil {
			return created, apperrors.DatabaseError("failed to create skill").WithCause(err)
		}
		created++
		log.Info(ctx, "registered skill", map[string]interface{}{
			"skill_id":   skill.ID,
			"skill_name": skill.Name,
		})
	}
	return created, nil
}
