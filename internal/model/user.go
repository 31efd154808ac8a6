package model

import (
	"time"
)

const (
	UserTypeFree    = "free"
	UserTypePremium = "premium"
)

type User struct {
	ID                    int64      `gorm:"primaryKey" json:"id"`
	Email                 *string    `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	PasswordHash          *string    `gorm:"size:255" json:"-"`
	GithubID              *string    `gorm:"column:github_id;size:50;uniqueIndex" json:"-"`
	GoogleID              *string    `gorm:"column:google_id;size:50;uniqueIndex" json:"-"`
	UserType              string     `gorm:"size:20;default:free;not null" json:"user_type"`
	StripeCustomerID      *string    `gorm:"size:100;index" json:"-"`
	FirstPaymentAt        *time.Time `json:"first_payment_at,omitempty"`
	EmailVerified         bool       `gorm:"default:false" json:"email_verified"`
	VerificationCode      *string    `gorm:"size:100" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// EmailAddress returns the user's email or "" for OAuth accounts without one.
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
