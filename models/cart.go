package models

import (
	"time"

	"github.com/google/uuid"
)

type CartItem struct {
	CourseID uuid.UUID `json:"course_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
	AddedAt  time.Time `json:"added_at"`
}

type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}
