package model

import "time"

// LockAdminBootstrap names the row that serialises first-admin signups.
const LockAdminBootstrap = "admin_bootstrap"

// Lock is a named row that transactions update to take an exclusive row lock.
type Lock struct {
	Name      string    `gorm:"primaryKey;size:64"`
	UpdatedAt time.Time `gorm:"not null"`
}
