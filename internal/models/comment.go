package models

import "time"

// Comment is a student remark on an outline.
type Comment struct {
	ID        string    `db:"id" json:"id"`
	OutlineID string    `db:"outline_id" json:"outline_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	StudentFirstName string `db:"student_first_name" json:"student_first_name,omitempty"`
	StudentLastName  string `db:"student_last_name" json:"student_last_name,omitempty"`
}
