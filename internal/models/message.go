package models

import (
	"encoding/json"
	"time"
)

// Content limits for messages and replies, counted in characters after trimming.
const (
	MinContentLength = 1
	MaxContentLength = 500
)

// DefaultMaxMessages is how many messages the guestbook retains.
const DefaultMaxMessages = 1000

// Message is a top-level guestbook entry
type Message struct {
	ID        string
	Content   string
	Author    UserRef
	CreatedAt time.Time
	Likes     LikeLedger
	Replies   []*Reply
}

// Reply is a comment attached to exactly one Message
type Reply struct {
	ID        string
	Content   string
	Author    UserRef
	CreatedAt time.Time
	Likes     LikeLedger
}

// FindReply returns the index and reply with the given id, or -1 and nil.
func (m *Message) FindReply(replyID string) (int, *Reply) {
	for i, r := range m.Replies {
		if r.ID == replyID {
			return i, r
		}
	}
	return -1, nil
}

// RemoveReply deletes the reply at index i, keeping order.
func (m *Message) RemoveReply(i int) {
	m.Replies = append(m.Replies[:i], m.Replies[i+1:]...)
}

// MessageRecord is the persisted and API layout of a Message. The like ledger
// is flattened into the likes/likedBy/likedUsers triple.
type MessageRecord struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Author     UserRef        `json:"author"`
	CreatedAt  time.Time      `json:"createdAt"`
	Likes      int            `json:"likes"`
	LikedBy    []string       `json:"likedBy"`
	LikedUsers []UserRef      `json:"likedUsers"`
	Replies    []*ReplyRecord `json:"replies"`
}

// ReplyRecord is the persisted and API layout of a Reply.
type ReplyRecord struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Author     UserRef   `json:"author"`
	CreatedAt  time.Time `json:"createdAt"`
	Likes      int       `json:"likes"`
	LikedBy    []string  `json:"likedBy"`
	LikedUsers []UserRef `json:"likedUsers"`
}

// Record converts the message to its wire layout.
func (m *Message) Record() *MessageRecord {
	replies := make([]*ReplyRecord, 0, len(m.Replies))
	for _, r := range m.Replies {
		replies = append(replies, r.Record())
	}
	return &MessageRecord{
		ID:         m.ID,
		Content:    m.Content,
		Author:     m.Author,
		CreatedAt:  m.CreatedAt,
		Likes:      m.Likes.Len(),
		LikedBy:    m.Likes.UserIDs(),
		LikedUsers: m.Likes.Users(),
		Replies:    replies,
	}
}

// Record converts the reply to its wire layout.
func (r *Reply) Record() *ReplyRecord {
	return &ReplyRecord{
		ID:         r.ID,
		Content:    r.Content,
		Author:     r.Author,
		CreatedAt:  r.CreatedAt,
		Likes:      r.Likes.Len(),
		LikedBy:    r.Likes.UserIDs(),
		LikedUsers: r.Likes.Users(),
	}
}

// Message rebuilds a Message from its wire layout. The stored likes count is
// ignored and recomputed from the ledger.
func (rec *MessageRecord) Message() *Message {
	m := &Message{
		ID:        rec.ID,
		Content:   rec.Content,
		Author:    rec.Author,
		CreatedAt: rec.CreatedAt,
		Likes:     NewLikeLedger(rec.LikedBy, rec.LikedUsers),
		Replies:   make([]*Reply, 0, len(rec.Replies)),
	}
	for _, r := range rec.Replies {
		if r != nil {
			m.Replies = append(m.Replies, r.Reply())
		}
	}
	return m
}

// Reply rebuilds a Reply from its wire layout.
func (rec *ReplyRecord) Reply() *Reply {
	return &Reply{
		ID:        rec.ID,
		Content:   rec.Content,
		Author:    rec.Author,
		CreatedAt: rec.CreatedAt,
		Likes:     NewLikeLedger(rec.LikedBy, rec.LikedUsers),
	}
}

func (m *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Record())
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var rec MessageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*m = *rec.Message()
	return nil
}

func (r *Reply) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Record())
}

func (r *Reply) UnmarshalJSON(data []byte) error {
	var rec ReplyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*r = *rec.Reply()
	return nil
}

// GuestbookStats summarizes the stored collection
type GuestbookStats struct {
	Messages int `json:"messages"`
	Replies  int `json:"replies"`
	Likes    int `json:"likes"`
}
