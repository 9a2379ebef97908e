package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Provider identifies the payment gateway an order was checked out with.
type Provider string

const (
	ProviderMoMo  Provider = "momo"
	ProviderVNPay Provider = "vnpay"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// CanTransitionTo reports whether an order in status s may move to next.
// PAID is terminal. A gateway success that arrives after FAILED/CANCELLED
// still wins, because the money has moved.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusPaid || next == OrderStatusFailed || next == OrderStatusCancelled
	case OrderStatusFailed, OrderStatusCancelled:
		return next == OrderStatusPaid
	default:
		return false
	}
}

var orderStatuses = []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled}

// SourcesOf lists the statuses an order may move to next from.
func SourcesOf(next OrderStatus) []OrderStatus {
	var out []OrderStatus
	for _, s := range orderStatuses {
		if s.CanTransitionTo(next) {
			out = append(out, s)
		}
	}
	return out
}

// Order is created once per checkout attempt. Items and TotalAmount are
// frozen at creation; only Status (and PaidAt) change afterwards.
type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Provider    Provider        `gorm:"type:varchar(20);not null" json:"provider"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	Currency    string          `gorm:"type:varchar(10);not null" json:"currency"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payments    []Payment       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is a priced line item snapshotted from the cart at checkout.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	CourseID  uuid.UUID       `gorm:"type:uuid;not null" json:"course_id"`
	Title     string          `gorm:"type:varchar(255)" json:"title"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal is UnitPrice × Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
