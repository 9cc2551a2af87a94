package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/guestbook-api/internal/models"
)

// Document schema versions. Version 0 is the legacy bare JSON array written
// before the document carried a version; it may lack likedUsers.
const (
	SchemaVersionLegacy  = 0
	CurrentSchemaVersion = 1
)

type documentV1 struct {
	Version  int                     `json:"version"`
	Messages []*models.MessageRecord `json:"messages"`
}

type legacyReply struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Author     models.UserRef    `json:"author"`
	CreatedAt  time.Time         `json:"createdAt"`
	LikedBy    []string          `json:"likedBy"`
	LikedUsers *[]models.UserRef `json:"likedUsers"`
}

type legacyMessage struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Author     models.UserRef    `json:"author"`
	CreatedAt  time.Time         `json:"createdAt"`
	LikedBy    []string          `json:"likedBy"`
	LikedUsers *[]models.UserRef `json:"likedUsers"`
	Replies    []legacyReply     `json:"replies"`
}

// decodeDocument parses any supported schema version and returns the
// messages along with the version that was found on disk.
func decodeDocument(data []byte) ([]*models.Message, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []*models.Message{}, CurrentSchemaVersion, nil
	}

	switch trimmed[0] {
	case '[':
		var legacy []legacyMessage
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return nil, SchemaVersionLegacy, fmt.Errorf("decode legacy document: %w", err)
		}
		return toMessages(upgradeV0(legacy)), SchemaVersionLegacy, nil
	case '{':
		var header struct {
			Version int `json:"version"`
		}
		if err := json.Unmarshal(trimmed, &header); err != nil {
			return nil, 0, fmt.Errorf("decode document header: %w", err)
		}
		switch header.Version {
		case CurrentSchemaVersion:
			var doc documentV1
			if err := json.Unmarshal(trimmed, &doc); err != nil {
				return nil, header.Version, fmt.Errorf("decode document v%d: %w", header.Version, err)
			}
			return toMessages(doc.Messages), header.Version, nil
		default:
			return nil, header.Version, fmt.Errorf("unsupported document version %d", header.Version)
		}
	default:
		return nil, 0, fmt.Errorf("unrecognized document format")
	}
}

// encodeDocument serializes messages in the current schema
func encodeDocument(messages []*models.Message) ([]byte, error) {
	doc := documentV1{
		Version:  CurrentSchemaVersion,
		Messages: make([]*models.MessageRecord, 0, len(messages)),
	}
	for _, m := range messages {
		doc.Messages = append(doc.Messages, m.Record())
	}
	return json.MarshalIndent(doc, "", "  ")
}

// upgradeV0 backfills likedUsers on legacy records so every record carries
// both halves of the like ledger.
func upgradeV0(legacy []legacyMessage) []*models.MessageRecord {
	out := make([]*models.MessageRecord, 0, len(legacy))
	for _, lm := range legacy {
		rec := &models.MessageRecord{
			ID:         lm.ID,
			Content:    lm.Content,
			Author:     lm.Author,
			CreatedAt:  lm.CreatedAt,
			LikedBy:    lm.LikedBy,
			LikedUsers: backfillLikedUsers(lm.LikedUsers),
			Replies:    make([]*models.ReplyRecord, 0, len(lm.Replies)),
		}
		for _, lr := range lm.Replies {
			rec.Replies = append(rec.Replies, &models.ReplyRecord{
				ID:         lr.ID,
				Content:    lr.Content,
				Author:     lr.Author,
				CreatedAt:  lr.CreatedAt,
				LikedBy:    lr.LikedBy,
				LikedUsers: backfillLikedUsers(lr.LikedUsers),
			})
		}
		out = append(out, rec)
	}
	return out
}

func backfillLikedUsers(users *[]models.UserRef) []models.UserRef {
	if users == nil || *users == nil {
		return []models.UserRef{}
	}
	return *users
}

func toMessages(records []*models.MessageRecord) []*models.Message {
	out := make([]*models.Message, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		out = append(out, rec.Message())
	}
	return out
}
