// Package prompts persists the point-prompt record describing one annotated
// frame. The record format matches what the browser picker writes
// (prompts.json), so either side can produce it.
package prompts
