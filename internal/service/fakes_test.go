package service_test

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/akimon658/twittra/internal/domain"
	"github.com/akimon658/twittra/internal/port"
)

// fakeMessageRepository is an in-memory MessageRepository double.
type fakeMessageRepository struct {
	messages map[domain.ID]domain.Message
	reads    map[domain.ID]map[domain.ID]bool // userID -> messageID -> read

	topReacted      []domain.MessageListItem
	byAuthor        map[domain.ID][]domain.MessageListItem
	byChannel       map[domain.ID][]domain.MessageListItem
	syncCandidates  []domain.SyncCandidate
	saveCalls       int
	saveBatchCalls  int
	removeReactions []domain.Reaction
}

func newFakeMessageRepository() *fakeMessageRepository {
	return &fakeMessageRepository{
		messages: make(map[domain.ID]domain.Message),
		reads:    make(map[domain.ID]map[domain.ID]bool),
		byAuthor: make(map[domain.ID][]domain.MessageListItem),
	}
}

func (f *fakeMessageRepository) LatestMessageTime(ctx context.Context) (time.Time, bool, error) {
	var latest time.Time
	found := false
	for _, m := range f.messages {
		if !found || m.CreatedAt.After(latest) {
			latest = m.CreatedAt
			found = true
		}
	}
	return latest, found, nil
}

func (f *fakeMessageRepository) FindByID(ctx context.Context, id domain.ID) (domain.Message, bool, error) {
	m, ok := f.messages[id]
	return m, ok, nil
}

func (f *fakeMessageRepository) FindSyncCandidates(ctx context.Context, now time.Time) ([]domain.SyncCandidate, error) {
	return f.syncCandidates, nil
}

func (f *fakeMessageRepository) Save(ctx context.Context, message domain.Message, now time.Time) error {
	f.saveCalls++
	message.LastCrawledAt = now
	f.messages[message.ID] = message
	return nil
}

func (f *fakeMessageRepository) SaveBatch(ctx context.Context, messages []domain.Message, now time.Time) error {
	f.saveBatchCalls++
	for _, m := range messages {
		if err := f.Save(ctx, m, now); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeMessageRepository) RemoveReaction(ctx context.Context, messageID, stampID, userID domain.ID) error {
	m, ok := f.messages[messageID]
	if !ok {
		return nil
	}
	filtered := make([]domain.Reaction, 0, len(m.Reactions))
	for _, r := range m.Reactions {
		if r.StampID == stampID && r.UserID == userID {
			f.removeReactions = append(f.removeReactions, r)
			continue
		}
		filtered = append(filtered, r)
	}
	m.Reactions = filtered
	f.messages[messageID] = m
	return nil
}

func (f *fakeMessageRepository) MarkMessagesAsRead(ctx context.Context, userID domain.ID, messageIDs []domain.ID) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if f.reads[userID] == nil {
		f.reads[userID] = make(map[domain.ID]bool)
	}
	for _, id := range messageIDs {
		f.reads[userID][id] = true
	}
	return nil
}

func (f *fakeMessageRepository) FindTopReactedMessages(ctx context.Context, viewerID domain.ID, limit int, now time.Time) ([]domain.MessageListItem, error) {
	return capped(f.topReacted, limit), nil
}

func (f *fakeMessageRepository) FindMessagesByAuthorAllowlist(ctx context.Context, authorIDs []domain.ID, limit int, viewerID domain.ID, now time.Time) ([]domain.MessageListItem, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	var out []domain.MessageListItem
	for _, id := range authorIDs {
		out = append(out, f.byAuthor[id]...)
	}
	return capped(out, limit), nil
}

func (f *fakeMessageRepository) FindMessagesByChannelAllowlist(ctx context.Context, channelIDs []domain.ID, limit int, viewerID domain.ID, now time.Time) ([]domain.MessageListItem, error) {
	if len(channelIDs) == 0 {
		return nil, nil
	}
	var out []domain.MessageListItem
	for _, id := range channelIDs {
		out = append(out, f.byChannel[id]...)
	}
	return capped(out, limit), nil
}

func capped(items []domain.MessageListItem, limit int) []domain.MessageListItem {
	if len(items) <= limit {
		return items
	}
	return items[:limit]
}

// fakeStampRepository is an in-memory StampRepository double.
type fakeStampRepository struct {
	stamps             map[domain.ID]domain.Stamp
	frequentChannels   []domain.ID
	saveBatchCallCount int
}

func newFakeStampRepository() *fakeStampRepository {
	return &fakeStampRepository{stamps: make(map[domain.ID]domain.Stamp)}
}

func (f *fakeStampRepository) FindByID(ctx context.Context, id domain.ID) (domain.Stamp, bool, error) {
	s, ok := f.stamps[id]
	return s, ok, nil
}

func (f *fakeStampRepository) Save(ctx context.Context, stamp domain.Stamp) error {
	f.stamps[stamp.ID] = stamp
	return nil
}

func (f *fakeStampRepository) SaveBatch(ctx context.Context, stamps []domain.Stamp) error {
	f.saveBatchCallCount++
	for _, s := range stamps {
		f.stamps[s.ID] = s
	}
	return nil
}

func (f *fakeStampRepository) FindFrequentlyStampedChannelsBy(ctx context.Context, userID domain.ID, limit int) ([]domain.ID, error) {
	return capIDs(f.frequentChannels, limit), nil
}

// fakeUserRepository is an in-memory UserRepository double.
type fakeUserRepository struct {
	users            map[domain.ID]domain.User
	tokensByUser     map[domain.ID]domain.Token
	frequentAuthors  []domain.ID
	similarUsers     []domain.ID
	randomTokenOrder []domain.ID
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{
		users:        make(map[domain.ID]domain.User),
		tokensByUser: make(map[domain.ID]domain.Token),
	}
}

func (f *fakeUserRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, bool, error) {
	u, ok := f.users[id]
	return u, ok, nil
}

func (f *fakeUserRepository) Save(ctx context.Context, user domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepository) SaveToken(ctx context.Context, userID domain.ID, accessToken string) error {
	f.tokensByUser[userID] = domain.Token{UserID: userID, AccessToken: accessToken}
	return nil
}

func (f *fakeUserRepository) FindTokenByUserID(ctx context.Context, userID domain.ID) (domain.Token, bool, error) {
	t, ok := f.tokensByUser[userID]
	return t, ok, nil
}

func (f *fakeUserRepository) FindRandomValidToken(ctx context.Context) (domain.Token, bool, error) {
	ids := f.randomTokenOrder
	if len(ids) == 0 {
		for id := range f.tokensByUser {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	}
	if len(ids) == 0 {
		return domain.Token{}, false, nil
	}
	return f.tokensByUser[ids[rand.Intn(len(ids))]], true, nil
}

func (f *fakeUserRepository) FindFrequentlyStampedUsersBy(ctx context.Context, viewer domain.ID, limit int) ([]domain.ID, error) {
	return capIDs(f.frequentAuthors, limit), nil
}

func (f *fakeUserRepository) FindSimilarUsers(ctx context.Context, viewer domain.ID, limit int) ([]domain.ID, error) {
	return capIDs(f.similarUsers, limit), nil
}

func capIDs(ids []domain.ID, limit int) []domain.ID {
	if len(ids) <= limit {
		return ids
	}
	return ids[:limit]
}

func newFakeRepository() (port.Repository, *fakeMessageRepository, *fakeStampRepository, *fakeUserRepository) {
	m := newFakeMessageRepository()
	s := newFakeStampRepository()
	u := newFakeUserRepository()
	return port.Repository{Message: m, Stamp: s, User: u}, m, s, u
}

// fakeUpstreamClient is an in-memory UpstreamClient double.
type fakeUpstreamClient struct {
	users              map[domain.ID]domain.User
	userIcon           []byte
	userIconType       string
	stamps             map[domain.ID]domain.Stamp
	stampList          []domain.Stamp
	stampImage         []byte
	stampImageType     string
	messages           map[domain.ID]domain.Message
	searchSinceResults []domain.Message

	addCalls    []addCall
	removeCalls []removeCall

	getMessageOverride func(id domain.ID) (domain.Message, error)
}

type addCall struct {
	messageID, stampID domain.ID
	count              int32
}

type removeCall struct {
	messageID, stampID domain.ID
}

func newFakeUpstreamClient() *fakeUpstreamClient {
	return &fakeUpstreamClient{
		users:    make(map[domain.ID]domain.User),
		stamps:   make(map[domain.ID]domain.Stamp),
		messages: make(map[domain.ID]domain.Message),
	}
}

func (f *fakeUpstreamClient) SearchSince(ctx context.Context, token domain.Token, since time.Time) ([]domain.Message, error) {
	return f.searchSinceResults, nil
}

func (f *fakeUpstreamClient) GetMessage(ctx context.Context, token domain.Token, id domain.ID) (domain.Message, error) {
	if f.getMessageOverride != nil {
		return f.getMessageOverride(id)
	}
	return f.messages[id], nil
}

func (f *fakeUpstreamClient) GetUser(ctx context.Context, token domain.Token, id domain.ID) (domain.User, error) {
	return f.users[id], nil
}

func (f *fakeUpstreamClient) GetUserIcon(ctx context.Context, token domain.Token, id domain.ID) ([]byte, string, error) {
	return f.userIcon, f.userIconType, nil
}

func (f *fakeUpstreamClient) GetStamp(ctx context.Context, token domain.Token, id domain.ID) (domain.Stamp, error) {
	return f.stamps[id], nil
}

func (f *fakeUpstreamClient) GetStamps(ctx context.Context, token domain.Token) ([]domain.Stamp, error) {
	return f.stampList, nil
}

func (f *fakeUpstreamClient) GetStampImage(ctx context.Context, token domain.Token, id domain.ID) ([]byte, string, error) {
	return f.stampImage, f.stampImageType, nil
}

func (f *fakeUpstreamClient) AddMessageStamp(ctx context.Context, token domain.Token, messageID, stampID domain.ID, count int32) error {
	f.addCalls = append(f.addCalls, addCall{messageID, stampID, count})
	return nil
}

func (f *fakeUpstreamClient) RemoveMessageStamp(ctx context.Context, token domain.Token, messageID, stampID domain.ID) error {
	f.removeCalls = append(f.removeCalls, removeCall{messageID, stampID})
	return nil
}
