package models

// UserRef is a snapshot of a GitHub user captured when they acted.
// It is embedded by value; later profile changes do not propagate.
type UserRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	GitHubURL string `json:"githubUrl"`
}

// LikeLedger is the insertion-ordered set of users who liked a record.
// The zero value is an empty ledger ready for use.
type LikeLedger struct {
	order []string
	users map[string]UserRef
}

// NewLikeLedger builds a ledger from the legacy parallel arrays. Duplicate ids
// in likedBy are dropped; an id without a matching UserRef gets an id-only ref.
// Users present only in likedUsers are ignored since likedBy is authoritative.
func NewLikeLedger(likedBy []string, likedUsers []UserRef) LikeLedger {
	refs := make(map[string]UserRef, len(likedUsers))
	for _, u := range likedUsers {
		if _, seen := refs[u.ID]; !seen {
			refs[u.ID] = u
		}
	}

	var l LikeLedger
	for _, id := range likedBy {
		ref, ok := refs[id]
		if !ok {
			ref = UserRef{ID: id}
		}
		l.Add(ref)
	}
	return l
}

// Len is the like count.
func (l *LikeLedger) Len() int {
	return len(l.order)
}

// Has reports whether the user id has liked the record.
func (l *LikeLedger) Has(userID string) bool {
	_, ok := l.users[userID]
	return ok
}

// Add records a like; it returns false if the user already liked.
func (l *LikeLedger) Add(user UserRef) bool {
	if l.users == nil {
		l.users = make(map[string]UserRef)
	}
	if _, ok := l.users[user.ID]; ok {
		return false
	}
	l.users[user.ID] = user
	l.order = append(l.order, user.ID)
	return true
}

// Remove drops a like; it returns false if the user had not liked.
func (l *LikeLedger) Remove(userID string) bool {
	if _, ok := l.users[userID]; !ok {
		return false
	}
	delete(l.users, userID)
	for i, id := range l.order {
		if id == userID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

// Toggle flips the user's like and reports whether it is now liked.
func (l *LikeLedger) Toggle(user UserRef) bool {
	if l.Remove(user.ID) {
		return false
	}
	l.Add(user)
	return true
}

// UserIDs returns the liking user ids in like order. Never nil.
func (l *LikeLedger) UserIDs() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Users returns the liking users in like order. Never nil.
func (l *LikeLedger) Users() []UserRef {
	out := make([]UserRef, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.users[id])
	}
	return out
}
