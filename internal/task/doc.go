// Package task bounds how many long-running generation runs execute at once.
// A generation run holds an LLM conversation for minutes, so HTTP handlers
// submit work to a fixed worker pool and block until their task finishes
// rather than spawning an unbounded goroutine per request.
package task
