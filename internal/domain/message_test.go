package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/akimon658/twittra/internal/domain"
)

func baseMessage() domain.Message {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.Message{
		ID:        domain.NewID(),
		UserID:    domain.NewID(),
		ChannelID: domain.NewID(),
		Content:   "hello",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMessageEqual_SameScalarsAndReactionSet(t *testing.T) {
	m := baseMessage()
	s1, s2 := domain.NewID(), domain.NewID()
	u1, u2 := domain.NewID(), domain.NewID()
	m.Reactions = []domain.Reaction{
		{MessageID: m.ID, StampID: s1, UserID: u1, StampCount: 1},
		{MessageID: m.ID, StampID: s2, UserID: u2, StampCount: 3},
	}

	other := m
	other.LastCrawledAt = time.Now().Add(time.Hour) // excluded from equality
	other.Reactions = []domain.Reaction{
		// same set, different order
		{MessageID: m.ID, StampID: s2, UserID: u2, StampCount: 3},
		{MessageID: m.ID, StampID: s1, UserID: u1, StampCount: 1},
	}

	assert.True(t, m.Equal(other))
}

func TestMessageEqual_DifferentReactionCount(t *testing.T) {
	m := baseMessage()
	s1, u1 := domain.NewID(), domain.NewID()
	m.Reactions = []domain.Reaction{{MessageID: m.ID, StampID: s1, UserID: u1, StampCount: 1}}

	other := m
	other.Reactions = []domain.Reaction{{MessageID: m.ID, StampID: s1, UserID: u1, StampCount: 2}}

	assert.False(t, m.Equal(other))
}

func TestMessageEqual_DifferentReactionSets(t *testing.T) {
	m := baseMessage()
	other := m
	other.Reactions = []domain.Reaction{{MessageID: m.ID, StampID: domain.NewID(), UserID: domain.NewID(), StampCount: 1}}

	assert.False(t, m.Equal(other))
}

func TestMessageEqual_DifferentContent(t *testing.T) {
	m := baseMessage()
	other := m
	other.Content = "goodbye"

	assert.False(t, m.Equal(other))
}

func TestIDRoundTrip(t *testing.T) {
	id := domain.NewID()
	parsed, err := domain.ParseID(id.String())
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseID_Invalid(t *testing.T) {
	_, err := domain.ParseID("not-a-uuid")
	assert.Error(t, err)
}
