// Package agent talks to the AI assistant: one-shot prompt runs over
// REST and a live websocket conversation for chat, email processing and
// draft generation.
package agent
