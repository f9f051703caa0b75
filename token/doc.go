// Package token mints and parses the signed session tokens the engine
// hands out at login. Tokens are HS256 JWTs carrying the user id and an
// expiry; revocation is not encoded in the token itself and is enforced
// by the engine against the ledger's active-token pointer.
package token
