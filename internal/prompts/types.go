package prompts

// Prompt categories understood by the assistant.
const (
	CategorySummarize = "summarize"
	CategoryDraft     = "draft"
	CategoryActions   = "actions"
	CategoryCustom    = "custom"
)

// Prompt is a reusable instruction template for the assistant. System
// prompts ship with the backend and cannot be edited or deleted; user
// prompts start at version 1 and the backend bumps the version on every
// update.
type Prompt struct {
	ID          string                 `json:"id,omitempty"`
	UserID      string                 `json:"user_id,omitempty"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Template    string                 `json:"template"`
	Category    string                 `json:"category"`
	IsActive    bool                   `json:"is_active"`
	IsSystem    bool                   `json:"is_system,omitempty"`
	Version     int                    `json:"version,omitempty"`
	CreatedAt   string                 `json:"created_at,omitempty"`
	UpdatedAt   string                 `json:"updated_at,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// promptInput is the create/update payload: only the fields a user may
// set. Version, is_system and timestamps are server-owned.
type promptInput struct {
	Name        string                 `json:"name,omitempty"`
	Description string                 `json:"description,omitempty"`
	Template    string                 `json:"template,omitempty"`
	Category    string                 `json:"category,omitempty"`
	IsActive    bool                   `json:"is_active"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func (p Prompt) input() promptInput {
	return promptInput{
		Name:        p.Name,
		Description: p.Description,
		Template:    p.Template,
		Category:    p.Category,
		IsActive:    p.IsActive,
		Metadata:    p.Metadata,
	}
}
