// Package store defines the persistence contracts for learning paths and
// generation jobs, plus the transaction helper shared by their
// implementations. Implementations live under internal/platform.
package store
