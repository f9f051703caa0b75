package notify

import "fmt"

// RegistrationCode renders the registration verification message.
func RegistrationCode(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Email Verification",
		Body: fmt.Sprintf(
			"Thank you for registering with us!\n\n"+
				"To complete your registration, please enter the following code:\n\n"+
				"%s\n\n"+
				"If you did not register, please disregard this message.", code),
	}
}

// PasswordResetCode renders the password reset message.
func PasswordResetCode(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Password Reset Verification",
		Body: fmt.Sprintf(
			"We received a request to reset the password for your account.\n\n"+
				"To continue, please enter the following code:\n\n"+
				"%s\n\n"+
				"If you did not request a password reset, please disregard this message.", code),
	}
}

// EmailChangeCode renders the email change message. It is sent to the
// candidate new address, not the current account email.
func EmailChangeCode(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Email Change Verification",
		Body: fmt.Sprintf(
			"We received a request to change the email address on your account to this one.\n\n"+
				"To confirm, please enter the following code:\n\n"+
				"%s\n\n"+
				"If you did not request this change, please disregard this message.", code),
	}
}
