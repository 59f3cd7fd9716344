package models

import "time"

type Project struct {
	ID          string    `json:"id" dynamodbav:"id"`
	Slug        string    `json:"slug" dynamodbav:"slug"`
	Title       string    `json:"title" dynamodbav:"title"`
	Client      string    `json:"client,omitempty" dynamodbav:"client,omitempty"`
	Type        string    `json:"type,omitempty" dynamodbav:"type,omitempty"`
	Technology  string    `json:"technology,omitempty" dynamodbav:"technology,omitempty"`
	Role        string    `json:"role,omitempty" dynamodbav:"role,omitempty"`
	Image       string    `json:"image,omitempty" dynamodbav:"image,omitempty"`
	Description string    `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Highlights  []string  `json:"highlights" dynamodbav:"highlights"`
	Links       []string  `json:"links" dynamodbav:"links"`
	Published   bool      `json:"published" dynamodbav:"published"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

func (p *Project) GetPK() string {
	return "PROJECT#" + p.Slug
}

func (p *Project) GetSK() string {
	return "METADATA"
}
