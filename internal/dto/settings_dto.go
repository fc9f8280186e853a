package dto

import "time"

type ProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ChangePasswordRequest struct {
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

type PhoneOTPSendRequest struct {
	Phone string `json:"phone"`
}

type PhoneOTPVerifyRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type OTPSentResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}
