package models

import "time"

type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Bio          *string
	Image        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate holds the fields a user may change; nil means unchanged.
type UserUpdate struct {
	Email    *string
	Username *string
	Password *string
	Bio      *string
	Image    *string
}

// AuthUser is a user together with a freshly issued token.
type AuthUser struct {
	Email    string  `json:"email"`
	Token    string  `json:"token"`
	Username string  `json:"username"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

func NewAuthUser(u *User, token string) *AuthUser {
	return &AuthUser{
		Email:    u.Email,
		Token:    token,
		Username: u.Username,
		Bio:      u.Bio,
		Image:    u.Image,
	}
}
