package models

import (
	"strings"
	"time"
)

// Employee is the server-side employee record, including the credential hash.
type Employee struct {
	ID           int64     `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Department   string    `json:"department"`
	Position     string    `json:"position"`
	Email        string    `json:"email,omitempty"`
	Mobile       string    `json:"mobile,omitempty"`
	DateOfBirth  string    `json:"date_of_birth,omitempty"`
	JoinDate     string    `json:"join_date,omitempty"`
	Status       string    `json:"status,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserProfile is the employee identity as exposed over the wire and cached by
// clients. Field names follow the backend contract (snake_case).
type UserProfile struct {
	ID          int64  `json:"id"`
	EmployeeID  string `json:"employee_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FullName    string `json:"full_name,omitempty"`
	Department  string `json:"department"`
	Position    string `json:"position"`
	Email       string `json:"email,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	JoinDate    string `json:"join_date,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Profile returns the wire-safe view of the employee record.
func (e *Employee) Profile() *UserProfile {
	p := &UserProfile{
		ID:          e.ID,
		EmployeeID:  e.EmployeeID,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		Department:  e.Department,
		Position:    e.Position,
		Email:       e.Email,
		Mobile:      e.Mobile,
		DateOfBirth: e.DateOfBirth,
		JoinDate:    e.JoinDate,
		Status:      e.Status,
	}
	p.FullName = p.DisplayName()
	return p
}

// DisplayName returns the full name, deriving it from the name parts when the
// backend did not populate full_name.
func (p *UserProfile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
