package httpapi

type registerRequest struct {
	Email           string `json:"email" binding:"required,email,max=256"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

type verifyRegisterRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,otpcode"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyResetPasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Code            string `json:"code" binding:"required,otpcode"`
	NewPassword     string `json:"new_password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

type changeEmailRequest struct {
	NewEmail string `json:"new_email" binding:"required,email,max=256"`
}

type verifyChangeEmailRequest struct {
	Code string `json:"code" binding:"required,otpcode"`
}

type resendOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Purpose string `json:"purpose" binding:"required,oneof=register reset-password change-email"`
}

type userResponse struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	IsActive        bool   `json:"is_active"`
	IsVerifiedEmail bool   `json:"is_verified_email"`
	CreatedAt       string `json:"created_at"`
	LastLogin       string `json:"last_login,omitempty"`
}
