// Package service provides application-level services that sit between the
// HTTP handlers and the workflow, validation, and persistence layers.
package service
