package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/learnhub/course-checkout/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository interface {
	// CreateIfAbsent inserts the enrollment unless (user_id, course_id)
	// already exists. It reports whether a row was created.
	CreateIfAbsent(ctx context.Context, e *models.Enrollment) (bool, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type gormEnrollmentRepo struct {
	db *gorm.DB
}

func NewGormEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &gormEnrollmentRepo{db: db}
}

func (r *gormEnrollmentRepo) CreateIfAbsent(ctx context.Context, e *models.Enrollment) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(e)
	return res.RowsAffected == 1, res.Error
}

func (r *gormEnrollmentRepo) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
