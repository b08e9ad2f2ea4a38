package model

import "strings"

// UserContext identifies the authenticated caller of a turn.
type UserContext struct {
	LoginID    string `json:"-"`
	EmployeeID string `json:"user_id"`
	Role       string `json:"user_role"`
	Name       string `json:"user_name"`
}

// Attachment is an uploaded file passed to the model inline.
type Attachment struct {
	Data      []byte
	MediaType string
	Filename  string
}

// Empty reports whether no file was supplied.
func (a *Attachment) Empty() bool {
	return a == nil || len(a.Data) == 0
}

// PipelineRequest is one analytics turn.
type PipelineRequest struct {
	User         UserContext
	SessionID    string
	Prompt       string
	PriorSummary string
	NewChat      bool
	Attachment   *Attachment
}

// StartsNewSession reports whether the turn opens a session rather than resuming one.
func (r *PipelineRequest) StartsNewSession() bool {
	if r.NewChat {
		return true
	}
	switch strings.TrimSpace(r.SessionID) {
	case "", "null", "undefined":
		return true
	}
	return false
}

// PipelineResponse is returned to the caller and stored as the turn's response.
type PipelineResponse struct {
	ChatID            string        `json:"chatId"`
	Title             *string       `json:"title"`
	AIText            AIText        `json:"ai_text"`
	FromDatabase      []QueryResult `json:"from_database"`
	Canvas            bool          `json:"canvas"`
	NextGenSummary    string        `json:"next_gen_summary"`
	IntentExplanation *string       `json:"intent_explanation,omitempty"`
}
