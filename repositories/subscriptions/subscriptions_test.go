package subscriptions

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"rss-monitor/models/entities"
	"rss-monitor/utils/databases"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	container  = int64(-100123)
	subscriber = int64(42)
	feedURL    = "https://example.com/rss"
)

func newTestRepo(t *testing.T) *Impl {
	t.Helper()

	db := databases.NewWithDSN(filepath.Join(t.TempDir(), "subscriptions.db"))
	require.NoError(t, db.Run())
	require.NoError(t, db.Migrate(&entities.Subscription{}))
	t.Cleanup(db.Shutdown)

	return New(db)
}

func ptr(s string) *string { return &s }

func TestSubscribe(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)

	require.NoError(t, repo.Subscribe(container, subscriber, "alice", feedURL))

	feeds, err := repo.GetFeedMap(container, subscriber)
	require.NoError(t, err)
	require.Contains(t, feeds, feedURL)
	assert.Nil(t, feeds[feedURL], "new subscriptions start without watermark")

	assert.ErrorIs(t, repo.Subscribe(container, subscriber, "alice", feedURL), ErrAlreadySubscribed)
	assert.ErrorIs(t, repo.Subscribe(container, subscriber, "alice", "   "), ErrEmptyURL)

	subs, err := repo.ListSubscriptions(container)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "alice", subs[0].SubscriberName)
	assert.Equal(t, int64(1), repo.Count())
}

func TestSubscribe_TrimsURL(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)

	require.NoError(t, repo.Subscribe(container, subscriber, "alice", "  "+feedURL+"\n"))
	assert.ErrorIs(t, repo.Subscribe(container, subscriber, "alice", feedURL), ErrAlreadySubscribed)
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)

	assert.ErrorIs(t, repo.Unsubscribe(container, subscriber, feedURL), ErrNotSubscribed)
	assert.ErrorIs(t, repo.Unsubscribe(container, subscriber, ""), ErrEmptyURL)

	require.NoError(t, repo.Subscribe(container, subscriber, "alice", feedURL))
	require.NoError(t, repo.Subscribe(container, subscriber, "alice", "https://example.org/atom"))
	require.NoError(t, repo.Unsubscribe(container, subscriber, feedURL))

	feeds, err := repo.GetFeedMap(container, subscriber)
	require.NoError(t, err)
	assert.Equal(t, entities.FeedMap{"https://example.org/atom": nil}, feeds)

	require.NoError(t, repo.Unsubscribe(container, subscriber, "https://example.org/atom"))
	containers, err := repo.ListContainers()
	require.NoError(t, err)
	assert.Empty(t, containers, "subscriber without feeds is removed")
}

func TestGetFeedMap_Unknown(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)

	feeds, err := repo.GetFeedMap(1, 2)
	require.NoError(t, err)
	assert.NotNil(t, feeds)
	assert.Empty(t, feeds)
}

func TestGetFeedMap_ReturnsCopy(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	require.NoError(t, repo.PutFeedMap(container, subscriber, entities.FeedMap{feedURL: ptr("a")}))

	feeds, err := repo.GetFeedMap(container, subscriber)
	require.NoError(t, err)
	*feeds[feedURL] = "mutated"
	feeds["https://other"] = nil

	again, err := repo.GetFeedMap(container, subscriber)
	require.NoError(t, err)
	assert.Equal(t, entities.FeedMap{feedURL: ptr("a")}, again)
}

func TestPutFeedMap(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)

	require.NoError(t, repo.PutFeedMap(container, subscriber, entities.FeedMap{feedURL: nil, "https://b": ptr("t1")}))
	require.NoError(t, repo.PutFeedMap(container, subscriber, entities.FeedMap{feedURL: ptr("t2")}))

	feeds, err := repo.GetFeedMap(container, subscriber)
	require.NoError(t, err)
	assert.Equal(t, entities.FeedMap{feedURL: ptr("t2")}, feeds, "put replaces the whole map")

	subs, err := repo.ListSubscriptions(container)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(1), subs[0].Version)

	require.NoError(t, repo.PutFeedMap(container, subscriber, entities.FeedMap{}))
	assert.Equal(t, int64(0), repo.Count())
}

func TestListContainers(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)

	require.NoError(t, repo.Subscribe(30, 1, "a", feedURL))
	require.NoError(t, repo.Subscribe(10, 1, "a", feedURL))
	require.NoError(t, repo.Subscribe(10, 2, "b", feedURL))
	require.NoError(t, repo.Subscribe(20, 3, "c", feedURL))

	containers, err := repo.ListContainers()
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, containers)

	subs, err := repo.ListSubscriptions(10)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(1), subs[0].SubscriberID)
	assert.Equal(t, int64(2), subs[1].SubscriberID)
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	t.Run("WritesChanges", func(t *testing.T) {
		t.Parallel()

		repo := newTestRepo(t)
		require.NoError(t, repo.Subscribe(container, subscriber, "alice", feedURL))

		err := repo.Update(container, subscriber, func(feeds entities.FeedMap) error {
			feeds[feedURL] = ptr("2024-01-01T00:00:00Z")
			return nil
		})
		require.NoError(t, err)

		feeds, err := repo.GetFeedMap(container, subscriber)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-01T00:00:00Z", *feeds[feedURL])

		subs, err := repo.ListSubscriptions(container)
		require.NoError(t, err)
		assert.Equal(t, "alice", subs[0].SubscriberName, "name survives updates")
	})

	t.Run("CallbackErrorAbortsWithoutWriting", func(t *testing.T) {
		t.Parallel()

		repo := newTestRepo(t)
		require.NoError(t, repo.Subscribe(container, subscriber, "alice", feedURL))

		errStop := errors.New("stop")
		err := repo.Update(container, subscriber, func(feeds entities.FeedMap) error {
			feeds[feedURL] = ptr("should not persist")
			return errStop
		})
		assert.ErrorIs(t, err, errStop)

		feeds, err := repo.GetFeedMap(container, subscriber)
		require.NoError(t, err)
		assert.Nil(t, feeds[feedURL])
	})

	t.Run("RetriesAfterConcurrentWrite", func(t *testing.T) {
		t.Parallel()

		repo := newTestRepo(t)
		require.NoError(t, repo.Subscribe(container, subscriber, "alice", feedURL))

		calls := 0
		err := repo.Update(container, subscriber, func(feeds entities.FeedMap) error {
			calls++
			if calls == 1 {
				// Another writer adds a feed between our read and our write.
				require.NoError(t, repo.Subscribe(container, subscriber, "alice", "https://example.org/new"))
			}
			feeds[feedURL] = ptr("t1")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)

		feeds, err := repo.GetFeedMap(container, subscriber)
		require.NoError(t, err)
		assert.Equal(t, entities.FeedMap{feedURL: ptr("t1"), "https://example.org/new": nil}, feeds)
	})
}

func TestSubscribe_ConcurrentEditsAreNotLost(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)

	const workers = 5
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Subscribe(container, subscriber, "alice", fmt.Sprintf("https://example.com/%d", i))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	feeds, err := repo.GetFeedMap(container, subscriber)
	require.NoError(t, err)
	assert.Len(t, feeds, workers)
}
