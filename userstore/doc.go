// Package userstore persists accounts in Postgres through gorm and
// adapts the rows to the engine's UserStore interface.
package userstore
