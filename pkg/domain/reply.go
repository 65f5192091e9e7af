package domain

import "time"

// Reply is the assistant message returned by a successful respond call.
type Reply struct {
	MessageID   string   `json:"assistant_message_id"`
	Text        string   `json:"text"`
	PolicyFlags []string `json:"policy_flags,omitempty"`
}

// Note is a saved conversation note. Persistence of notes is stubbed.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Note      string    `json:"note"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
