package inbox

import "time"

// Email categories assigned by the backend's categorization agent.
const (
	CategoryAll           = "all" // filter value, not a real category
	CategoryImportant     = "Important"
	CategoryNewsletter    = "Newsletter"
	CategorySpam          = "Spam"
	CategoryToDo          = "To-Do"
	CategoryUncategorized = "Uncategorized"
)

// Email priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// SortOrder selects the render-time ordering of the inbox.
type SortOrder string

const (
	// SortNewest orders by timestamp descending (default).
	SortNewest SortOrder = "newest"

	// SortOldest orders by timestamp ascending.
	SortOldest SortOrder = "oldest"

	// SortSender orders by sender lexicographically ascending.
	SortSender SortOrder = "sender"
)

// ActionItem is a task the agent extracted from an email body.
type ActionItem struct {
	Task     string `json:"task"`
	Deadline string `json:"deadline,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// Email is one inbox entry as returned by the backend. Timestamp is the
// backend's ISO 8601 string; ISO timestamps order correctly as strings,
// which is what the sort criteria rely on.
type Email struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"user_id,omitempty"`
	Sender           string                 `json:"sender"`
	Subject          string                 `json:"subject"`
	Body             string                 `json:"body"`
	Timestamp        string                 `json:"timestamp"`
	Category         string                 `json:"category"`
	Priority         string                 `json:"priority"`
	IsRead           bool                   `json:"is_read"`
	IsArchived       bool                   `json:"is_archived"`
	IsStarred        bool                   `json:"is_starred"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	ActionItems      []ActionItem           `json:"action_items,omitempty"`
	Summary          string                 `json:"summary,omitempty"`
	Sentiment        string                 `json:"sentiment,omitempty"`
	ProcessingStatus string                 `json:"processing_status,omitempty"`
	SourceProvider   string                 `json:"source_provider,omitempty"`
	SourceEmailID    string                 `json:"source_email_id,omitempty"`
}

// Time parses the email's timestamp. The zero time is returned for
// timestamps the backend left empty or malformed.
func (e Email) Time() time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, e.Timestamp); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SyncResult is the backend's response to an inbox sync request.
type SyncResult struct {
	Message  string `json:"message"`
	UserID   string `json:"user_id,omitempty"`
	SyncedAt string `json:"synced_at,omitempty"`
}
