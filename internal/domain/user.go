package domain

import "time"

// User is the domain model for portal accounts (admins, teachers, students, guardians).
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	RoleName      RoleName
	InstitutionID *string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
