// Package postgres implements the store interfaces on PostgreSQL. The
// curriculum is persisted relationally: a learning_paths header row, ordered
// phases rows, and tasks rows holding their requirement/criteria/resource
// sets as jsonb sub-documents.
package postgres
