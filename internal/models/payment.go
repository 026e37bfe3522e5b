package models

import "time"

// PaymentStatusCompleted is the only status the console writes; reversals
// happen outside this system.
const PaymentStatusCompleted = "COMPLETED"

// Payment is a fee payment recorded against a student.
type Payment struct {
	ID              string    `db:"id" json:"id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	Amount          float64   `db:"amount" json:"amount"`
	Method          string    `db:"payment_method" json:"payment_method"`
	ReferenceNumber *string   `db:"reference_number" json:"reference_number,omitempty"`
	Description     *string   `db:"description" json:"description,omitempty"`
	Status          string    `db:"status" json:"status"`
	PaidAt          time.Time `db:"paid_at" json:"paid_at"`
}

// PaymentStats aggregates a student's completed payments.
type PaymentStats struct {
	Total float64 `db:"total" json:"total"`
	Count int     `db:"count" json:"count"`
}
