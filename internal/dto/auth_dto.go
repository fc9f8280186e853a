package dto

import (
	"time"

	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/google/uuid"
)

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordSendRequest struct {
	Email string `json:"email"`
}

type ForgotPasswordResetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type UserResponse struct {
	ID            uuid.UUID          `json:"id"`
	Email         string             `json:"email"`
	Name          string             `json:"name"`
	Phone         string             `json:"phone"`
	PhoneVerified bool               `json:"phone_verified"`
	Plan          string             `json:"plan"`
	Preferences   models.Preferences `json:"preferences"`
	CreatedAt     time.Time          `json:"created_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Phone:         u.Phone,
		PhoneVerified: u.PhoneVerified,
		Plan:          u.Plan,
		Preferences:   u.Preferences.Data(),
		CreatedAt:     u.CreatedAt,
	}
}

type AuthResponse struct {
	User UserResponse `json:"user"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
