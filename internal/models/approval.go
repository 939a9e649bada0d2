package models

import "time"

// Approval is a student's pending application to receive login
// credentials. At most one approval exists per student; is_approved flips
// false to true exactly once via administrator confirmation.
type Approval struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	IsApproved bool      `db:"is_approved" json:"is_approved"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	// Joined student fields for listing and confirmation.
	StudentCode      string  `db:"student_code" json:"student_code,omitempty"`
	StudentFirstName string  `db:"student_first_name" json:"student_first_name,omitempty"`
	StudentLastName  string  `db:"student_last_name" json:"student_last_name,omitempty"`
	StudentAccountID *string `db:"student_account_id" json:"-"`
}
