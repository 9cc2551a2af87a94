package models

import (
	"time"
)

// Snapshot describes one uploaded copy of the guestbook document
type Snapshot struct {
	Key          string    `json:"key"`
	Location     string    `json:"location"`
	SizeBytes    int       `json:"size_bytes"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Entry is the notification payload for a newly posted message or reply
type Entry struct {
	MessageID string
	ReplyID   string // empty for top-level messages
	Content   string
	Author    UserRef
	CreatedAt time.Time
}

// IsReply reports whether the entry is a reply
func (e *Entry) IsReply() bool {
	return e.ReplyID != ""
}
