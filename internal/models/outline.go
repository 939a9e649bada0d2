package models

import "time"

// Outline is a course syllabus document owned by a lecturer.
type Outline struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Credit     int       `db:"credit" json:"credit"`
	Overview   string    `db:"overview" json:"overview"`
	Image      string    `db:"image" json:"image,omitempty"`
	IsApproved bool      `db:"is_approved" json:"is_approved"`
	LecturerID string    `db:"lecturer_id" json:"lecturer_id"`
	LessonID   string    `db:"lesson_id" json:"lesson_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	Evaluations []Evaluation `db:"-" json:"evaluations,omitempty"`
	Courses     []Course     `db:"-" json:"courses,omitempty"`
}

// Evaluation is one grading component with a percentage weight and method
// label. Rows are shared across outlines: identical (percentage, method)
// pairs are reused rather than duplicated.
type Evaluation struct {
	ID         string    `db:"id" json:"id"`
	Percentage float64   `db:"percentage" json:"percentage"`
	Method     string    `db:"method" json:"method"`
	Note       string    `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Course is an academic intake year, unique per year.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Year      int       `db:"year" json:"year"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Lesson is a subject taught by a lecturer within a category.
type Lesson struct {
	ID         string    `db:"id" json:"id"`
	Subject    string    `db:"subject" json:"subject"`
	LecturerID string    `db:"lecturer_id" json:"lecturer_id"`
	CategoryID string    `db:"category_id" json:"category_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Category groups lessons.
type Category struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OutlineFilter captures catalog search criteria.
type OutlineFilter struct {
	Query      string
	Credit     int
	Lecturer   string
	CourseYear int
	Page       int
	PageSize   int
}

// LessonFilter captures lesson listing criteria.
type LessonFilter struct {
	CategoryID string
	Page       int
	PageSize   int
}
