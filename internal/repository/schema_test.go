package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/guestbook-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDocument_Legacy(t *testing.T) {
	legacy := `[
	  {
	    "id": "m1",
	    "content": "hello",
	    "author": {"id": "u1", "name": "Ann", "avatar": "a.png", "githubUrl": "https://github.com/ann"},
	    "createdAt": "2024-01-01T10:00:00Z",
	    "likes": 7,
	    "likedBy": ["u2", "u3", "u2"],
	    "replies": [
	      {
	        "id": "r1",
	        "content": "hi back",
	        "author": {"id": "u2", "name": "Bob", "avatar": "", "githubUrl": ""},
	        "createdAt": "2024-01-01T11:00:00Z",
	        "likedBy": ["u1"],
	        "likedUsers": [{"id": "u1", "name": "Ann", "avatar": "a.png", "githubUrl": "https://github.com/ann"}]
	      }
	    ]
	  }
	]`

	messages, version, err := decodeDocument([]byte(legacy))
	require.NoError(t, err)
	assert.Equal(t, SchemaVersionLegacy, version)
	require.Len(t, messages, 1)

	m := messages[0]
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, 2, m.Likes.Len(), "stored likes count is recomputed and duplicates dropped")
	assert.Equal(t, []string{"u2", "u3"}, m.Likes.UserIDs())
	assert.Equal(t, []models.UserRef{{ID: "u2"}, {ID: "u3"}}, m.Likes.Users())

	require.Len(t, m.Replies, 1)
	r := m.Replies[0]
	assert.Equal(t, 1, r.Likes.Len())
	assert.Equal(t, "Ann", r.Likes.Users()[0].Name)
}

func TestDecodeDocument_CurrentVersion(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &models.Message{
		ID:        "m1",
		Content:   "hello",
		Author:    models.UserRef{ID: "u1", Name: "Ann"},
		CreatedAt: created,
	}
	msg.Likes.Add(models.UserRef{ID: "u2", Name: "Bob"})

	data, err := encodeDocument([]*models.Message{msg})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.EqualValues(t, CurrentSchemaVersion, raw["version"])

	messages, version, err := decodeDocument(data)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].CreatedAt.Equal(created))
	assert.True(t, messages[0].Likes.Has("u2"))
	assert.NotNil(t, messages[0].Replies)
}

func TestDecodeDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "truncated array", data: `[{"id": "m1"`},
		{name: "unsupported version", data: `{"version": 99, "messages": []}`},
		{name: "scalar", data: `"nope"`},
		{name: "garbage", data: `not json at all`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decodeDocument([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestDecodeDocument_Empty(t *testing.T) {
	messages, _, err := decodeDocument([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestEncodeDocument_EmptyLedgerFields(t *testing.T) {
	data, err := encodeDocument([]*models.Message{{ID: "m1", Content: "x"}})
	require.NoError(t, err)

	var doc struct {
		Messages []map[string]json.RawMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Messages, 1)
	assert.JSONEq(t, `[]`, string(doc.Messages[0]["likedBy"]))
	assert.JSONEq(t, `[]`, string(doc.Messages[0]["likedUsers"]))
	assert.JSONEq(t, `[]`, string(doc.Messages[0]["replies"]))
	assert.JSONEq(t, `0`, string(doc.Messages[0]["likes"]))
}
