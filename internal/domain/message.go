package domain

import (
	"sort"
	"time"
)

// Reaction is keyed by the composite (MessageID, StampID, UserID) triple.
type Reaction struct {
	MessageID  ID    `json:"messageId" gorm:"column:message_id;primaryKey;type:uuid"`
	StampID    ID    `json:"stampId" gorm:"column:stamp_id;primaryKey;type:uuid"`
	UserID     ID    `json:"userId" gorm:"column:user_id;primaryKey;type:uuid"`
	StampCount int32 `json:"stampCount" gorm:"column:stamp_count"`
}

func (Reaction) TableName() string {
	return "reactions"
}

// reactionKey identifies a reaction within one message's reaction set: the
// (StampID, UserID) part of the composite key. MessageID is left out because
// Equal compares the owning messages' IDs separately.
type reactionKey struct {
	stampID ID
	userID  ID
}

func (r Reaction) key() reactionKey {
	return reactionKey{stampID: r.StampID, userID: r.UserID}
}

// Message is a mirrored chat message. created_at <= updated_at <=
// last_crawled_at is an invariant of the data model; the repository sets
// last_crawled_at on every save, and nothing in this package validates the
// ordering.
type Message struct {
	ID            ID         `json:"id" gorm:"primaryKey;type:uuid"`
	UserID        ID         `json:"userId" gorm:"column:user_id"`
	ChannelID     ID         `json:"channelId" gorm:"column:channel_id"`
	Content       string     `json:"content"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" gorm:"column:updated_at"`
	Reactions     []Reaction `json:"reactions" gorm:"-"`
	LastCrawledAt time.Time  `json:"lastCrawledAt" gorm:"column:last_crawled_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Equal implements the reaction-set-aware, last_crawled_at-excluded
// equality of the data model: two messages are semantically equal iff
// their scalar fields match and their reaction sets match as sets, order
// independent.
func (m Message) Equal(other Message) bool {
	if m.ID != other.ID ||
		m.UserID != other.UserID ||
		m.ChannelID != other.ChannelID ||
		m.Content != other.Content ||
		!m.CreatedAt.Equal(other.CreatedAt) ||
		!m.UpdatedAt.Equal(other.UpdatedAt) {
		return false
	}
	return reactionSetsEqual(m.Reactions, other.Reactions)
}

func reactionSetsEqual(a, b []Reaction) bool {
	if len(a) != len(b) {
		return false
	}
	am := make(map[reactionKey]int32, len(a))
	for _, r := range a {
		am[r.key()] = r.StampCount
	}
	for _, r := range b {
		count, ok := am[r.key()]
		if !ok || count != r.StampCount {
			return false
		}
	}
	return true
}

// SortedReactions returns a copy of m.Reactions in a deterministic order,
// useful for snapshot assertions in tests (the set itself is unordered).
func (m Message) SortedReactions() []Reaction {
	out := make([]Reaction, len(m.Reactions))
	copy(out, m.Reactions)
	sort.Slice(out, func(i, j int) bool {
		if out[i].StampID != out[j].StampID {
			return out[i].StampID.String() < out[j].StampID.String()
		}
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out
}

// ReadMark is an idempotent record that UserID has read MessageID.
type ReadMark struct {
	UserID    ID `json:"userId" gorm:"column:user_id;primaryKey;type:uuid"`
	MessageID ID `json:"messageId" gorm:"column:message_id;primaryKey;type:uuid"`
}

func (ReadMark) TableName() string {
	return "read_messages"
}

// SyncCandidate is the derived view backing the crawler's refresh pass:
// one row per message created within the last 24 hours.
type SyncCandidate struct {
	MessageID     ID
	CreatedAt     time.Time
	LastCrawledAt time.Time
}

// MessageListItem is a Message with an optionally embedded author, present
// only when the author is cached.
type MessageListItem struct {
	Message
	Author *User `json:"author,omitempty"`
}
