// Package httpapi exposes the account engine over HTTP with gin.
//
// Handlers stay thin: bind the request, call the engine, map the error
// to a status code. All domain decisions live in the engine.
package httpapi
