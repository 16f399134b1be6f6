package models

import "time"

// User captures the persisted account behind an authenticated identity.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	EmployeeID   *int64    `json:"linkedEmployeeId,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserProfile is the snapshot handed to clients at login and by the profile endpoint.
type UserProfile struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Role             string `json:"role"`
	LinkedEmployeeID *int64 `json:"linkedEmployeeId,omitempty"`
	DisplayName      string `json:"displayName"`
	Department       string `json:"department,omitempty"`
	Position         string `json:"position,omitempty"`
}

// Profile builds the public snapshot for u, enriched with the linked employee when known.
func (u User) Profile(emp *Employee) UserProfile {
	p := UserProfile{
		ID:               u.ID,
		Username:         u.Username,
		Role:             u.Role,
		LinkedEmployeeID: u.EmployeeID,
		DisplayName:      u.Username,
	}
	if emp != nil {
		p.DisplayName = emp.FullName
		p.Department = emp.Department
		p.Position = emp.Position
	}
	return p
}
