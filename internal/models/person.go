package models

import "time"

// Person holds the fields shared by pre-provisioned student and lecturer
// records. Code is assigned once at creation and never changes; AccountID
// stays nil until the approval workflow binds credentials.
type Person struct {
	ID        string    `db:"id" json:"id"`
	AccountID *string   `db:"account_id" json:"account_id,omitempty"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Age       int       `db:"age" json:"age"`
	Gender    bool      `db:"gender" json:"gender"` // true is female, false is male
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Student is a pre-provisioned student record.
type Student struct {
	Person
	CourseID *string `db:"course_id" json:"course_id,omitempty"`
}

// Lecturer is a pre-provisioned lecturer record.
type Lecturer struct {
	Person
	Position string `db:"position" json:"position"`
}
