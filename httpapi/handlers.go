package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/faststore/accounts"
	"github.com/faststore/accounts/ledger"
)

type handler struct {
	engine *accounts.Engine
}

// confirmMatches rejects a body whose password confirmation differs
// from the password itself.
func confirmMatches(c *gin.Context, pw, confirm string) bool {
	if pw != confirm {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"message": "passwords do not match",
		})
		return false
	}
	return true
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !confirmMatches(c, req.Password, req.PasswordConfirm) {
		return
	}

	ctx := accounts.WithClientIP(c.Request.Context(), c.ClientIP())
	if err := h.engine.Register(ctx, strings.ToLower(req.Email), req.Password); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "verification code sent",
	})
}

func (h *handler) verifyRegister(c *gin.Context) {
	var req verifyRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := accounts.WithClientIP(c.Request.Context(), c.ClientIP())
	token, err := h.engine.VerifyRegistration(ctx, strings.ToLower(req.Email), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "account verified",
		"access_token": token,
	})
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := accounts.WithClientIP(c.Request.Context(), c.ClientIP())
	token, err := h.engine.Login(ctx, strings.ToLower(req.Email), req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "login successful",
		"access_token": token,
	})
}

func (h *handler) logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	ctx := accounts.WithClientIP(c.Request.Context(), c.ClientIP())
	if err := h.engine.Logout(ctx, user.ID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "logged out")
}

func (h *handler) me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toUserResponse(user),
	})
}

func (h *handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := accounts.WithClientIP(c.Request.Context(), c.ClientIP())
	if err := h.engine.RequestPasswordReset(ctx, strings.ToLower(req.Email)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "reset code sent")
}

func (h *handler) verifyResetPassword(c *gin.Context) {
	var req verifyResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !confirmMatches(c, req.NewPassword, req.PasswordConfirm) {
		return
	}

	ctx := accounts.WithClientIP(c.Request.Context(), c.ClientIP())
	if err := h.engine.ConfirmPasswordReset(ctx, strings.ToLower(req.Email), req.Code, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "password reset")
}

func (h *handler) changePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !confirmMatches(c, req.NewPassword, req.PasswordConfirm) {
		return
	}

	ctx := accounts.WithClientIP(c.Request.Context(), c.ClientIP())
	if err := h.engine.ChangePassword(ctx, user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "password changed")
}

func (h *handler) changeEmail(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	var req changeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := accounts.WithClientIP(c.Request.Context(), c.ClientIP())
	if err := h.engine.RequestEmailChange(ctx, user.ID, strings.ToLower(req.NewEmail)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "verification code sent to new address")
}

func (h *handler) verifyChangeEmail(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	var req verifyChangeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := accounts.WithClientIP(c.Request.Context(), c.ClientIP())
	if err := h.engine.ConfirmEmailChange(ctx, user.ID, req.Code); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "email changed")
}

func (h *handler) resendOTP(c *gin.Context) {
	var req resendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	purpose, err := ledger.ParsePurpose(req.Purpose)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ctx := accounts.WithClientIP(c.Request.Context(), c.ClientIP())
	if err := h.engine.ResendOTP(ctx, strings.ToLower(req.Email), purpose); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "code resent")
}
