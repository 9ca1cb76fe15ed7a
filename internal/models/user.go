// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered developer account.
type User struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"not null" json:"-"`
	Name       string    `json:"name"`
	Bio        string    `json:"bio"`
	TechStack  []string  `gorm:"serializer:json" json:"techStack"`
	Github     string    `json:"github"`
	Twitter    string    `json:"twitter"`
	ProfilePic string    `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserResponse is the account projection returned by auth and profile-update endpoints.
type UserResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Bio        string    `json:"bio"`
	TechStack  []string  `json:"techStack"`
	Github     string    `json:"github"`
	Twitter    string    `json:"twitter"`
	ProfilePic string    `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ProfileResponse is the public profile projection returned by GET /user/profile.
type ProfileResponse struct {
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Bio        string    `json:"bio"`
	TechStack  []string  `json:"techStack"`
	Github     string    `json:"github"`
	Twitter    string    `json:"twitter"`
	ProfilePic string    `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ToResponse projects the user onto its account response.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Bio:        u.Bio,
		TechStack:  techStackOrEmpty(u.TechStack),
		Github:     u.Github,
		Twitter:    u.Twitter,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// ToProfile projects the user onto its profile response.
func (u *User) ToProfile() ProfileResponse {
	return ProfileResponse{
		Email:      u.Email,
		Name:       u.Name,
		Bio:        u.Bio,
		TechStack:  techStackOrEmpty(u.TechStack),
		Github:     u.Github,
		Twitter:    u.Twitter,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
	}
}

func techStackOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
