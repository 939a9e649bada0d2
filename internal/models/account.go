package models

import "time"

// AccountRole represents the available roles for the RBAC system.
type AccountRole string

const (
	RoleAdmin    AccountRole = "admin"
	RoleLecturer AccountRole = "lecturer"
	RoleStudent  AccountRole = "student"
)

// Account represents login credentials stored in the accounts table. An
// account of role lecturer or student is linked to exactly one person
// record, matched by code at creation time.
type Account struct {
	ID           string      `db:"id" json:"id"`
	Email        string      `db:"email" json:"email"`
	Username     string      `db:"username" json:"username"`
	PasswordHash string      `db:"password_hash" json:"-"`
	Role         AccountRole `db:"role" json:"role"`
	Avatar       string      `db:"avatar" json:"avatar,omitempty"`
	IsApproved   bool        `db:"is_approved" json:"is_approved"`
	IsActive     bool        `db:"is_active" json:"is_active"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
