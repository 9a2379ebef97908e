package models

import "time"

const (
	EventOrderPaid     = "order_paid"
	EventPaymentFailed = "payment_failed"
)

type PaymentEvent struct {
	Type          string    `json:"type"` // "order_paid" | "payment_failed"
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id"`
	PaymentID     string    `json:"payment_id,omitempty"`
	Provider      string    `json:"provider"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Amount        string    `json:"amount"` // decimal string in Currency
	Currency      string    `json:"currency"`
	CourseIDs     []string  `json:"course_ids,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
