package models

import "time"

// AccessEntry is one allow-listed admin identity.
type AccessEntry struct {
	Email     string    `json:"email" dynamodbav:"email"`
	IsActive  bool      `json:"is_active" dynamodbav:"is_active"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func (a *AccessEntry) GetPK() string {
	return "ADMIN_ACCESS#" + a.Email
}

func (a *AccessEntry) GetSK() string {
	return "METADATA"
}
