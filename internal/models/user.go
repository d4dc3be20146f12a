package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	Username    string    `json:"username" gorm:"size:50;uniqueIndex"`
	Email       string    `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password    string    `json:"-"`                        // Store hashed password, ignore for JSON serialization
	FirebaseUID *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserProfile is a user together with the follow graph counters
type UserProfile struct {
	User
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
}

type CreateLocalUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type UpdateUserRequest struct {
	Name  string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// RefreshTokenRequest carries a refresh token for clients that do not keep cookies.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}
