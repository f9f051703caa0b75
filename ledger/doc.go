// Package ledger keeps one verification-request record per user: the
// pending verification purpose, the candidate new email for an email
// change, and the account's currently valid session token. The record is
// a single slot; starting a new flow overwrites whatever was pending,
// and records are cleared rather than deleted so the token pointer
// survives flow completion.
package ledger
