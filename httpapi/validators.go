package httpapi

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("otpcode", validOTPCode)
	}
}

// validOTPCode accepts 6 to 10 decimal digits, the shape every
// verification code takes regardless of configuration.
func validOTPCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) < 6 || len(code) > 10 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
