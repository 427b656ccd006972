package model

import "time"

// User 站点用户
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254" json:"email,omitempty"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FirstName    string    `gorm:"size:150" json:"first_name,omitempty"`
	LastName     string    `gorm:"size:150" json:"last_name,omitempty"`
	IsStaff      bool      `gorm:"not null;default:false" json:"-"`
	DateJoined   time.Time `gorm:"autoCreateTime" json:"date_joined"`
}

func (User) TableName() string { return "users" }

// DisplayName falls back to the username when no full name is set.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
