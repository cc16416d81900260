package agent

import "encoding/json"

// Websocket message types, shared by both directions of the channel.
const (
	TypeChat             = "chat"
	TypeChatResponse     = "chat_response"
	TypeProcessEmail     = "process_email"
	TypeProcessingResult = "processing_result"
	TypeGenerateDraft    = "generate_draft"
	TypeDraftGenerated   = "draft_generated"
	TypeError            = "error"
)

// Processing actions understood by the assistant.
const (
	ActionSummarize    = "summarize"
	ActionExtractTasks = "extract_tasks"
	ActionCategorize   = "categorize"
)

// Message is a websocket frame. The type field selects which of the
// remaining fields are meaningful; unused fields are omitted on the
// wire.
type Message struct {
	Type string `json:"type"`

	// chat / chat_response / error
	Text           string `json:"message,omitempty"`
	EmailContext   string `json:"email_context,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`

	// process_email / processing_result
	EmailID string `json:"email_id,omitempty"`
	Action  string `json:"action,omitempty"`
	Result  string `json:"result,omitempty"`

	// generate_draft / draft_generated
	ContextEmailID string          `json:"context_email_id,omitempty"`
	Tone           string          `json:"tone,omitempty"`
	Instructions   string          `json:"instructions,omitempty"`
	Draft          json.RawMessage `json:"draft,omitempty"`
}

// ProcessResult is the response of the REST /agent/process operation.
type ProcessResult struct {
	EmailID          string `json:"email_id"`
	PromptType       string `json:"prompt_type"`
	Result           string `json:"result"`
	UsedCustomPrompt bool   `json:"used_custom_prompt"`
}

// ChatResult is the response of the REST /agent/chat operation.
type ChatResult struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

type processRequest struct {
	EmailID      string `json:"email_id"`
	PromptType   string `json:"prompt_type,omitempty"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
}
