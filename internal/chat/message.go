package chat

import "time"

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one entry of the transcript. Sessions hand out copies, so a
// Message never changes after it is appended.
type Message struct {
	Text   string    `json:"text"`
	Sender Sender    `json:"sender"`
	Time   time.Time `json:"time"`
}

// IsUser reports whether the user wrote the message.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Snapshot is a consistent view of a session.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
	Pending   bool      `json:"pending"`
}
