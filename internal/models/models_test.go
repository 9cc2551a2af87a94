package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeLedger_ZeroValue(t *testing.T) {
	var l LikeLedger
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Has("u1"))
	assert.False(t, l.Remove("u1"))
	assert.NotNil(t, l.UserIDs())
	assert.NotNil(t, l.Users())
}

func TestLikeLedger_AddRemoveKeepsOrder(t *testing.T) {
	var l LikeLedger
	assert.True(t, l.Add(UserRef{ID: "a"}))
	assert.True(t, l.Add(UserRef{ID: "b", Name: "Bob"}))
	assert.True(t, l.Add(UserRef{ID: "c"}))
	assert.False(t, l.Add(UserRef{ID: "b", Name: "Other"}), "duplicate ids are rejected")

	assert.Equal(t, []string{"a", "b", "c"}, l.UserIDs())
	assert.Equal(t, "Bob", l.Users()[1].Name)

	assert.True(t, l.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, l.UserIDs())
	assert.Equal(t, []UserRef{{ID: "a"}, {ID: "c"}}, l.Users())
	assert.Equal(t, 2, l.Len())
}

func TestLikeLedger_Toggle(t *testing.T) {
	var l LikeLedger
	u := UserRef{ID: "u1", Name: "Ann"}

	assert.True(t, l.Toggle(u))
	assert.True(t, l.Has("u1"))
	assert.False(t, l.Toggle(u))
	assert.False(t, l.Has("u1"))
	assert.Equal(t, 0, l.Len())
}

func TestLikeLedger_CopiesAreIndependent(t *testing.T) {
	var l LikeLedger
	l.Add(UserRef{ID: "a"})

	ids := l.UserIDs()
	ids[0] = "mutated"
	assert.Equal(t, []string{"a"}, l.UserIDs())
}

func TestNewLikeLedger(t *testing.T) {
	l := NewLikeLedger(
		[]string{"b", "a", "b", "z"},
		[]UserRef{{ID: "a", Name: "Ann"}, {ID: "b", Name: "Bob"}, {ID: "orphan", Name: "Ghost"}},
	)

	assert.Equal(t, []string{"b", "a", "z"}, l.UserIDs())
	assert.Equal(t, []UserRef{{ID: "b", Name: "Bob"}, {ID: "a", Name: "Ann"}, {ID: "z"}}, l.Users())
	assert.False(t, l.Has("orphan"))
}

func TestMessageJSON(t *testing.T) {
	created := time.Date(2024, 2, 3, 4, 5, 6, 789, time.UTC)
	m := &Message{
		ID:        "m1",
		Content:   "hello",
		Author:    UserRef{ID: "a1", Name: "Ann", Avatar: "x.png", GitHubURL: "https://github.com/ann"},
		CreatedAt: created,
		Replies: []*Reply{{
			ID:        "r1",
			Content:   "hi",
			Author:    UserRef{ID: "b1"},
			CreatedAt: created.Add(time.Second),
		}},
	}
	m.Likes.Add(UserRef{ID: "b1", Name: "Bob"})
	m.Replies[0].Likes.Add(UserRef{ID: "a1"})

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.EqualValues(t, 1, wire["likes"])
	assert.Equal(t, []interface{}{"b1"}, wire["likedBy"])
	assert.Contains(t, wire, "likedUsers")
	assert.Contains(t, wire, "createdAt")

	var back Message
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m.ID, back.ID)
	assert.True(t, back.CreatedAt.Equal(created))
	assert.Equal(t, m.Likes.Users(), back.Likes.Users())
	require.Len(t, back.Replies, 1)
	assert.True(t, back.Replies[0].Likes.Has("a1"))
}

func TestMessageRecord_IgnoresStoredLikeCount(t *testing.T) {
	rec := &MessageRecord{ID: "m1", Likes: 42, LikedBy: []string{"a"}}
	m := rec.Message()
	assert.Equal(t, 1, m.Likes.Len())
	assert.NotNil(t, m.Replies)
}

func TestMessage_FindAndRemoveReply(t *testing.T) {
	m := &Message{Replies: []*Reply{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}}}

	i, r := m.FindReply("r2")
	require.NotNil(t, r)
	assert.Equal(t, 1, i)

	m.RemoveReply(i)
	assert.Len(t, m.Replies, 2)
	assert.Equal(t, "r3", m.Replies[1].ID)

	i, r = m.FindReply("r2")
	assert.Equal(t, -1, i)
	assert.Nil(t, r)
}
