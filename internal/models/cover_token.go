package models

import "time"

// CoverToken grants time-limited download access to a generated cover letter.
type CoverToken struct {
	Token       string    `json:"token" dynamodbav:"token"`
	CompanyName string    `json:"company_name" dynamodbav:"company_name"`
	Email       string    `json:"email" dynamodbav:"email"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt   time.Time `json:"expires_at" dynamodbav:"expires_at"`
}

func (t *CoverToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
