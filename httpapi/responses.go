package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/faststore/accounts"
	"github.com/faststore/accounts/password"
)

func respondOK(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "invalid request",
		"error":   err.Error(),
	})
}

// respondError maps engine errors onto HTTP statuses. Unknown errors
// become a generic 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	var throttled *accounts.ResendThrottledError
	if errors.As(err, &throttled) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":  false,
			"message":  fmt.Sprintf("resend available in %d seconds", throttled.RetryIn),
			"retry_in": throttled.RetryIn,
		})
		return
	}

	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, accounts.ErrEmailTaken),
		errors.Is(err, accounts.ErrPurposeMismatch):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, accounts.ErrInvalidCredentials),
		errors.Is(err, accounts.ErrTokenInvalid):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, accounts.ErrAccountInactive),
		errors.Is(err, accounts.ErrEmailUnverified):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, accounts.ErrUserNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, accounts.ErrOTPInvalid):
		status = http.StatusNotAcceptable
		message = err.Error()
	case errors.Is(err, accounts.ErrAlreadyVerified),
		errors.Is(err, accounts.ErrNoPendingEmail),
		errors.Is(err, password.ErrPolicy):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	case errors.Is(err, accounts.ErrOTPRateLimited):
		status = http.StatusTooManyRequests
		message = err.Error()
	}

	c.JSON(status, gin.H{"success": false, "message": message})
}

func toUserResponse(user accounts.UserRecord) userResponse {
	resp := userResponse{
		ID:              user.ID,
		Email:           user.Email,
		IsActive:        user.IsActive,
		IsVerifiedEmail: user.IsVerifiedEmail,
		CreatedAt:       user.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if !user.LastLogin.IsZero() {
		resp.LastLogin = user.LastLogin.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}
