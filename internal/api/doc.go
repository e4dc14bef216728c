// Package api contains the HTTP handlers, request/response models, and
// error mapping for the learning path API.
package api
