package models

import "time"

// Session is what the route guard learns from a verified session cookie.
type Session struct {
	ID        string
	Email     string
	Admin     bool
	IssuedAt  time.Time
	ExpiresAt time.Time
}
