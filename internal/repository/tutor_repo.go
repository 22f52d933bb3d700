package repository

import (
	"context"
	"errors"

	"github.com/linguaflow/reminder-engine/internal/domain"
	"gorm.io/gorm"
)

type TutorRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Tutor, error)
}

type GormTutorRepo struct {
	db *gorm.DB
}

func NewGormTutorRepo(db *gorm.DB) *GormTutorRepo {
	return &GormTutorRepo{db: db}
}

func (r *GormTutorRepo) GetByID(ctx context.Context, id string) (*domain.Tutor, error) {
	var model TutorModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tutorModelToDomain(&model), nil
}
