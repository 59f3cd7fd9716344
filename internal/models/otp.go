package models

import "time"

// OTPRecord is one issued admin login code. Code holds the bcrypt hash of the
// six digits; the plain code only ever leaves the process by email.
type OTPRecord struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Email     string    `json:"email" dynamodbav:"email"`
	CodeHash  string    `json:"-" dynamodbav:"code_hash"`
	Used      bool      `json:"used" dynamodbav:"used"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at"`
}

// Active reports whether the record can still be redeemed at now.
func (r *OTPRecord) Active(now time.Time) bool {
	return !r.Used && r.ExpiresAt.After(now)
}
