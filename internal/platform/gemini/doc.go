// Package gemini implements the four reasoning stages on top of Google's
// Gemini API. Each stage renders an embedded prompt template, requests a
// structured JSON completion, and parses it into the matching domain type.
//
// Stages do not retry: transport failures are classified with the generation
// package sentinels and retried by the workflow orchestrator against its
// local per-stage budget.
package gemini
