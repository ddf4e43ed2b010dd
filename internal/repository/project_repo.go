package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hackhub-dev/judging-api/internal/models"
)

// ProjectRepository exposes read access to projects and their challenge
// associations.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uint) (models.Project, error)
	ListByChallenge(ctx context.Context, challengeID uint) ([]models.Project, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository instantiates the repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).
		Preload("Team").
		First(&project, id).Error; err != nil {
		return models.Project{}, err
	}

	return project, nil
}

func (r *projectRepository) ListByChallenge(ctx context.Context, challengeID uint) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).
		Preload("Team").
		Joins("JOIN project_challenges ON project_challenges.project_id = projects.id").
		Where("project_challenges.challenge_id = ?", challengeID).
		Order("projects.id ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}

	return projects, nil
}
