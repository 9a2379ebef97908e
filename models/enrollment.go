package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Enrollment grants a user access to a course. The (user_id, course_id)
// unique index is what stops duplicate grants.
type Enrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_user_course" json:"user_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_user_course" json:"course_id"`
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
