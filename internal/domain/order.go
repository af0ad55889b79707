package domain

import "time"

// PaymentInfo echoes the provider-side intent backing an order.
type PaymentInfo struct {
	IntentID string `json:"intent_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Order records a course purchase.
type Order struct {
	ID        int64       `json:"id"`
	CourseID  int64       `json:"course_id"`
	UserID    int64       `json:"user_id"`
	Payment   PaymentInfo `json:"payment"`
	CreatedAt time.Time   `json:"created_at"`
}
