// Package repositories persists fetched state in a local BadgerDB so a
// relaunch can show stale-but-usable data before the first network
// round-trip. The cache is strictly a mirror of server-confirmed state:
// pending optimistic messages are never written.
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"shiftsync/domain"
)

const conversationsKey = "conversations"

type Cache struct {
	db  *badger.DB
	log *slog.Logger
}

func NewCache(db *badger.DB, log *slog.Logger) Cache {
	return Cache{db: db, log: log}
}

// SaveConversations replaces the cached conversation list wholesale, matching
// the store's replace-on-load semantics.
func (c Cache) SaveConversations(conversations []domain.Conversation) error {
	bytes, err := json.Marshal(conversations)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(conversationsKey), bytes)
	})
}

// Conversations returns the cached list, or nil when nothing was cached yet.
func (c Cache) Conversations() ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(conversationsKey))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &conversations)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// messageKey is formatted as "msg:{conversation}:{timestamp_padded}:{id}" to:
//  1. Ensure chronological iteration using 19-digit zero padding
//     (lexicographical order).
//  2. Keep messages with identical timestamps distinct via the id suffix.
func messageKey(conversationID string, m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", conversationID, m.Timestamp.UnixNano(), m.ID))
}

func messagePrefix(conversationID string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", conversationID))
}

// SaveMessages replaces the cached log for one conversation with the
// confirmed entries of msgs. Pending messages are skipped.
func (c Cache) SaveMessages(conversationID string, messages []domain.Message) error {
	return c.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, messagePrefix(conversationID)); err != nil {
			return err
		}
		for _, m := range messages {
			if m.Pending() {
				continue
			}
			bytes, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err := txn.Set(messageKey(conversationID, m), bytes); err != nil {
				return err
			}
		}
		return nil
	})
}

// Messages retrieves one conversation's cached log. Thanks to the padded
// timestamp in the key, a forward prefix scan yields chronological order.
func (c Cache) Messages(conversationID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := messagePrefix(conversationID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var m domain.Message
				if err := json.Unmarshal(v, &m); err != nil {
					c.log.Warn("Skipping undecodable cached message", "key", string(it.Item().Key()), "err", err)
					return nil
				}
				m.Status = domain.StatusConfirmed
				messages = append(messages, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// PurgeConversation drops the cached log of a deleted conversation.
func (c Cache) PurgeConversation(conversationID string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return deletePrefix(txn, messagePrefix(conversationID))
	})
}

func deletePrefix(txn *badger.Txn, prefix []byte) error {
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
