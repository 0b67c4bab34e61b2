package domain

import (
	"fmt"
	"time"
)

// Message is one inbound chat-log entry from the booking assistant.
// Append-only: messages are never mutated or synchronized to the remote
// store, only snapshotted to the local cache.
type Message struct {
	ID        string `json:"id"`
	Type      string `json:"type"` // e.g. "inquiry"
	Text      string `json:"text"`
	Date      string `json:"date"`
	Timestamp string `json:"timestamp"`
}

// NewMessageID generates the time-based message identifier.
func NewMessageID(now time.Time) string {
	return fmt.Sprintf("MSG-%d", now.UnixMilli())
}
