package timers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type reply struct {
	channelID, replyToID, text string
}

type fakeChannel struct {
	mu         sync.Mutex
	replies    []reply
	confirms   map[string]core.TimerRequest
	notes      []reply
	confirmErr error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{confirms: map[string]core.TimerRequest{}}
}

func (f *fakeChannel) Respond(_ context.Context, channelID, replyToID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, reply{channelID, replyToID, text})
	return nil
}

func (f *fakeChannel) Confirm(_ context.Context, pendingID string, req core.TimerRequest, prompt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmErr != nil {
		return f.confirmErr
	}
	f.confirms[pendingID] = req
	f.replies = append(f.replies, reply{req.ChannelID, req.ReplyToID, prompt})
	return nil
}

func (f *fakeChannel) Notify(_ context.Context, channelID, userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, reply{channelID, userID, text})
	return nil
}

func (f *fakeChannel) pendingID(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.confirms, 1)
	for id := range f.confirms {
		return id
	}
	return ""
}

func newScheduler(t *testing.T, now *time.Time) (*Scheduler, *fakeChannel, *Store) {
	t.Helper()
	ch := newFakeChannel()
	store := NewStore(filepath.Join(t.TempDir(), "timers.json"))
	s := NewScheduler(store, ch, ch, ch, WithClock(func() time.Time { return *now }))
	return s, ch, store
}

func request(at time.Time) core.TimerRequest {
	return core.TimerRequest{Name: "tea", At: at, ChannelID: "c1", RequesterID: "alice", ReplyToID: "m1"}
}

func TestRequestRejectsPastAndTooSoon(t *testing.T) {
	now := epoch
	s, ch, _ := newScheduler(t, &now)
	ctx := context.Background()

	require.NoError(t, s.Request(ctx, request(epoch.Add(-time.Minute))))
	require.NoError(t, s.Request(ctx, request(epoch)))
	require.NoError(t, s.Request(ctx, request(epoch.Add(30*time.Second))))

	require.Len(t, ch.replies, 3)
	assert.Equal(t, msgInPast, ch.replies[0].text)
	assert.Equal(t, msgInPast, ch.replies[1].text)
	assert.Equal(t, "Error: Timer must be at least 1 minute long.", ch.replies[2].text)
	assert.Equal(t, "m1", ch.replies[2].replyToID)
	assert.Empty(t, ch.confirms)
}

func TestRequestAsksForConfirmation(t *testing.T) {
	now := epoch
	s, ch, _ := newScheduler(t, &now)

	require.NoError(t, s.Request(context.Background(), request(epoch.Add(5*time.Minute))))

	require.Len(t, ch.replies, 1)
	assert.Contains(t, ch.replies[0].text, "'tea'")
	assert.Contains(t, ch.replies[0].text, "5 minutes from now")
	assert.Len(t, s.pending, 1)
}

func TestRequestConfirmFailureDropsPending(t *testing.T) {
	now := epoch
	s, ch, _ := newScheduler(t, &now)
	ch.confirmErr = errors.New("telegram down")

	err := s.Request(context.Background(), request(epoch.Add(5*time.Minute)))
	require.Error(t, err)
	assert.Empty(t, s.pending)
}

func TestResolveApproveStoresTimerForPresser(t *testing.T) {
	now := epoch
	s, ch, store := newScheduler(t, &now)
	ctx := context.Background()

	require.NoError(t, s.Request(ctx, request(epoch.Add(5*time.Minute))))
	id := ch.pendingID(t)

	done, err := s.Resolve(ctx, id, "bob", "Bob", true)
	require.NoError(t, err)
	assert.True(t, done)

	timers, err := store.Load()
	require.NoError(t, err)
	require.Len(t, timers, 1)
	assert.Equal(t, "bob", timers[0].UserID)
	assert.Equal(t, "c1", timers[0].ChannelID)
	assert.True(t, epoch.Add(5*time.Minute).Equal(timers[0].ExpireTime))
	assert.Contains(t, ch.replies[len(ch.replies)-1].text, "Timer set for Bob")

	done, err = s.Resolve(ctx, id, "bob", "Bob", true)
	require.NoError(t, err)
	assert.False(t, done, "second press is ignored")
}

func TestResolveCancelOnlyFromRequester(t *testing.T) {
	now := epoch
	s, ch, store := newScheduler(t, &now)
	ctx := context.Background()

	require.NoError(t, s.Request(ctx, request(epoch.Add(5*time.Minute))))
	id := ch.pendingID(t)

	done, err := s.Resolve(ctx, id, "bob", "Bob", false)
	require.NoError(t, err)
	assert.False(t, done)

	done, err = s.Resolve(ctx, id, "alice", "Alice", false)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, msgCancelled, ch.replies[len(ch.replies)-1].text)

	timers, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, timers)
}

func TestCheckFiresAndRemovesExpired(t *testing.T) {
	now := epoch
	s, ch, store := newScheduler(t, &now)
	ctx := context.Background()

	require.NoError(t, store.Save([]Timer{
		{UserID: "alice", ChannelID: "c1", Name: "tea", ExpireTime: epoch.Add(time.Minute)},
		{UserID: "bob", ChannelID: "c2", Name: "laundry", ExpireTime: epoch.Add(time.Hour)},
	}))

	s.Check(ctx)
	assert.Empty(t, ch.notes)

	now = epoch.Add(2 * time.Minute)
	s.Check(ctx)
	require.Len(t, ch.notes, 1)
	assert.Equal(t, reply{"c1", "alice", "⏰: 'tea'"}, ch.notes[0])

	timers, err := store.Load()
	require.NoError(t, err)
	require.Len(t, timers, 1)
	assert.Equal(t, "laundry", timers[0].Name)

	s.Check(ctx)
	assert.Len(t, ch.notes, 1)
}

func TestStoreFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "timers.json")
	store := NewStore(path)

	timers, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, timers)

	require.NoError(t, store.Add(Timer{UserID: "1", ChannelID: "2", Name: "x", ExpireTime: epoch}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"user_id":"1","channel_id":"2","name":"x","expire_time":"2026-03-01T12:00:00Z"}]`, string(data))

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))
	_, err = store.Load()
	assert.Error(t, err)
}
