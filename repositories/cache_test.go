package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"shiftsync/domain"
)

func openTestCache(t *testing.T) Cache {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCache(db, slog.Default())
}

func TestCache_Conversations_RoundTrip(t *testing.T) {
	req := require.New(t)
	cache := openTestCache(t)

	// Nothing cached yet.
	cached, err := cache.Conversations()
	req.NoError(err)
	req.Nil(cached)

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	conversations := []domain.Conversation{
		{ID: "c1", Title: "Morning shift", LastMessageAt: at},
		{ID: "c2", LastMessageAt: at.Add(-time.Hour)},
	}
	req.NoError(cache.SaveConversations(conversations))

	cached, err = cache.Conversations()
	req.NoError(err)
	req.Equal(conversations, cached)

	// Second save replaces, never merges.
	req.NoError(cache.SaveConversations(conversations[:1]))
	cached, err = cache.Conversations()
	req.NoError(err)
	req.Len(cached, 1)
}

func TestCache_Messages_ChronologicalScan(t *testing.T) {
	req := require.New(t)
	cache := openTestCache(t)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// Stored out of order on purpose; the padded key restores order.
	messages := []domain.Message{
		{ID: "m3", ConversationID: "c1", Content: "third", Timestamp: at.Add(2 * time.Minute), Status: domain.StatusConfirmed},
		{ID: "m1", ConversationID: "c1", Content: "first", Timestamp: at, Status: domain.StatusConfirmed},
		{ID: "m2", ConversationID: "c1", Content: "second", Timestamp: at.Add(time.Minute), Status: domain.StatusConfirmed},
	}
	req.NoError(cache.SaveMessages("c1", messages))

	fetched, err := cache.Messages("c1")
	req.NoError(err)
	req.Len(fetched, 3)
	req.Equal("m1", fetched[0].ID)
	req.Equal("m2", fetched[1].ID)
	req.Equal("m3", fetched[2].ID)
}

func TestCache_Messages_PendingNeverPersisted(t *testing.T) {
	req := require.New(t)
	cache := openTestCache(t)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	messages := []domain.Message{
		{ID: "m1", ConversationID: "c1", Content: "sent", Timestamp: at, Status: domain.StatusConfirmed},
		{ID: "tmp-1", ConversationID: "c1", Content: "in flight", Timestamp: at.Add(time.Second), Status: domain.StatusPending, TempID: "tmp-1"},
	}
	req.NoError(cache.SaveMessages("c1", messages))

	fetched, err := cache.Messages("c1")
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("m1", fetched[0].ID)
	req.Equal(domain.StatusConfirmed, fetched[0].Status)
}

func TestCache_Messages_IsolatedPerConversation(t *testing.T) {
	req := require.New(t)
	cache := openTestCache(t)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	req.NoError(cache.SaveMessages("c1", []domain.Message{
		{ID: "m1", ConversationID: "c1", Timestamp: at, Status: domain.StatusConfirmed},
	}))
	req.NoError(cache.SaveMessages("c2", []domain.Message{
		{ID: "m2", ConversationID: "c2", Timestamp: at, Status: domain.StatusConfirmed},
	}))

	fetched, err := cache.Messages("c1")
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("m1", fetched[0].ID)
}

func TestCache_PurgeConversation(t *testing.T) {
	req := require.New(t)
	cache := openTestCache(t)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	req.NoError(cache.SaveMessages("c1", []domain.Message{
		{ID: "m1", ConversationID: "c1", Timestamp: at, Status: domain.StatusConfirmed},
	}))
	req.NoError(cache.SaveMessages("c2", []domain.Message{
		{ID: "m2", ConversationID: "c2", Timestamp: at, Status: domain.StatusConfirmed},
	}))

	req.NoError(cache.PurgeConversation("c1"))

	fetched, err := cache.Messages("c1")
	req.NoError(err)
	req.Empty(fetched)

	// The other conversation is untouched.
	fetched, err = cache.Messages("c2")
	req.NoError(err)
	req.Len(fetched, 1)
}
