// Package prompts manages the assistant's prompt templates, including
// the local guard that keeps system prompts read-only.
package prompts
