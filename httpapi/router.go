package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/faststore/accounts"
)

// NewRouter wires the account endpoints onto a gin engine.
func NewRouter(engine *accounts.Engine, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log), securityHeaders())

	h := &handler{engine: engine}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	public := router.Group("/accounts")
	{
		public.POST("/register", h.register)
		public.POST("/register/verify", h.verifyRegister)
		public.POST("/login", h.login)
		public.POST("/reset-password", h.resetPassword)
		public.POST("/reset-password/verify", h.verifyResetPassword)
		public.POST("/otp/resend", h.resendOTP)
	}

	protected := router.Group("/accounts")
	protected.Use(requireAuth(engine))
	{
		protected.GET("/me", h.me)
		protected.POST("/logout", h.logout)
		protected.PATCH("/me/password", h.changePassword)
		protected.POST("/me/email", h.changeEmail)
		protected.POST("/me/email/verify", h.verifyChangeEmail)
	}

	return router
}
