package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment is the single gateway attempt belonging to an Order. Amount always
// equals the owning Order's TotalAmount.
type Payment struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	UserID              uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Provider            Provider        `gorm:"type:varchar(20);not null" json:"provider"`
	Amount              decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency            string          `gorm:"type:varchar(10);not null" json:"currency"`
	Status              PaymentStatus   `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	GatewayRequestID    string          `gorm:"type:varchar(64)" json:"-"`
	TransactionID       *string         `gorm:"type:varchar(128);index" json:"transaction_id,omitempty"`
	ConfirmationPayload *string         `gorm:"type:jsonb" json:"-"` // raw gateway confirmation, kept for audit
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
	FailedAt            *time.Time      `json:"failed_at,omitempty"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
