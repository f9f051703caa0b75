// Package password provides argon2id hashing in PHC string format and
// the storefront password policy (length and character-class rules).
package password
