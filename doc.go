// Package accounts implements identity verification and session management
// for the storefront backend: OTP-verified registration, login, password
// reset and change, email change, and revocable JWT session tokens.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// accounts is the orchestration surface. It exposes [Engine], [Builder],
// [Config], and the [UserStore] contract for the credential store. The
// mechanisms live in sub-packages: otp (windowed codes), token (JWT
// session tokens), ledger (per-user verification slot and active-token
// pointer), password (argon2id hashing and the storefront policy), notify
// (delivery of verification codes).
//
// # Session model
//
// A user holds at most one live session. Issuing a token stores it as the
// user's active-token pointer in the ledger; a presented token is accepted
// only when its signature and expiry check out AND it matches the pointer
// byte for byte. Clearing the pointer revokes the session without waiting
// for JWT expiry.
package accounts
