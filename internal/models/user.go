package models

import "time"

type UserRole string

const (
	RoleTourist UserRole = "tourist"
	RoleGuide   UserRole = "guide"
	RoleCompany UserRole = "company"
	RoleAdmin   UserRole = "admin"
)

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserPending   UserStatus = "pending"
	UserSuspended UserStatus = "suspended"
)

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	FullName     string     `json:"full_name"`
	PasswordHash string     `json:"-"`
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	Verified     bool       `json:"verified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type RegisterRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Phone    string   `json:"phone" binding:"required"`
	Password string   `json:"password" binding:"required,min=8"`
	FullName string   `json:"full_name" binding:"required"`
	Role     UserRole `json:"role" binding:"required,oneof=tourist guide company"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}
