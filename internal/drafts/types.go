package drafts

// Draft lifecycle states.
const (
	StatusDraft = "draft"
	StatusReady = "ready"
	StatusSent  = "sent"
)

// Draft is an email draft. Status and Tone are client-side workflow
// fields; on the wire they travel inside the metadata map, which is the
// only extension point the backend record offers.
type Draft struct {
	ID             string
	UserID         string
	Subject        string
	Body           string
	Recipient      string
	ContextEmailID string
	Status         string
	Tone           string
	Metadata       map[string]interface{}
	CreatedAt      string
	UpdatedAt      string
}

// draftRecord is the backend representation of a draft.
type draftRecord struct {
	ID             string                 `json:"id,omitempty"`
	UserID         string                 `json:"user_id,omitempty"`
	Subject        string                 `json:"subject"`
	Body           string                 `json:"body"`
	Recipient      string                 `json:"recipient,omitempty"`
	ContextEmailID string                 `json:"context_email_id,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      string                 `json:"created_at,omitempty"`
	UpdatedAt      string                 `json:"updated_at,omitempty"`
}

func (d Draft) record() draftRecord {
	meta := make(map[string]interface{}, len(d.Metadata)+2)
	for k, v := range d.Metadata {
		meta[k] = v
	}
	if d.Status != "" {
		meta["status"] = d.Status
	}
	if d.Tone != "" {
		meta["tone"] = d.Tone
	}
	return draftRecord{
		Subject:        d.Subject,
		Body:           d.Body,
		Recipient:      d.Recipient,
		ContextEmailID: d.ContextEmailID,
		Metadata:       meta,
	}
}

func (r draftRecord) draft() Draft {
	d := Draft{
		ID:             r.ID,
		UserID:         r.UserID,
		Subject:        r.Subject,
		Body:           r.Body,
		Recipient:      r.Recipient,
		ContextEmailID: r.ContextEmailID,
		Status:         StatusDraft,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if len(r.Metadata) > 0 {
		d.Metadata = make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			switch k {
			case "status":
				if s, ok := v.(string); ok && s != "" {
					d.Status = s
					continue
				}
			case "tone":
				if s, ok := v.(string); ok {
					d.Tone = s
					continue
				}
			}
			d.Metadata[k] = v
		}
		if len(d.Metadata) == 0 {
			d.Metadata = nil
		}
	}
	return d
}
