package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/learnhub/course-checkout/models"
	"gorm.io/gorm"
)

// CourseRepository reads live catalogue data. Soft-deleted courses are invisible.
type CourseRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Course, error)
}

type gormCourseRepo struct {
	db *gorm.DB
}

func NewGormCourseRepository(db *gorm.DB) CourseRepository {
	return &gormCourseRepo{db: db}
}

func (r *gormCourseRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Course, error) {
	out := make(map[uuid.UUID]models.Course, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var courses []models.Course
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, err
	}
	for _, c := range courses {
		out[c.ID] = c
	}
	return out, nil
}
