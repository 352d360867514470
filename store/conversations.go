// Package store owns the canonical client-side state: the conversation list
// with its paginated message logs, and the time clock session. Stores are the
// only writers of their entities; everything the UI renders is a copy or a
// derived view.
package store

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"shiftsync/contract"
	"shiftsync/domain"
	apperrors "shiftsync/errors"
)

const DefaultPageSize = 20

// ConversationStore applies mutations in issue order: every load carries a
// per-conversation sequence number taken when the call is issued, and a
// response is dropped when a later operation (newer load, delete, teardown)
// has bumped the sequence in the meantime. A late response can therefore
// never clobber newer state or resurrect a deleted conversation.
type ConversationStore struct {
	mu       sync.Mutex
	log      *slog.Logger
	api      contract.ConversationsAPI
	cache    contract.Cache
	clock    contract.Clock
	viewerID string
	pageSize int

	conversations []domain.Conversation
	activeID      string
	messages      map[string][]domain.Message
	pages         map[string]int
	hasMore       map[string]bool
	drafts        map[string]string
	listSeq       uint64
	loadSeq       map[string]uint64
	sending       bool
	lastErr       error
}

// NewConversationStore wires the store. cache may be nil (no local
// persistence); clock may be nil (wall clock).
func NewConversationStore(log *slog.Logger, api contract.ConversationsAPI, cache contract.Cache,
	clock contract.Clock, viewerID string, pageSize int) *ConversationStore {
	if clock == nil {
		clock = systemClock{}
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ConversationStore{
		log:      log,
		api:      api,
		cache:    cache,
		clock:    clock,
		viewerID: viewerID,
		pageSize: pageSize,
		messages: make(map[string][]domain.Message),
		pages:    make(map[string]int),
		hasMore:  make(map[string]bool),
		drafts:   make(map[string]string),
		loadSeq:  make(map[string]uint64),
	}
}

// WarmFromCache preloads the last persisted snapshot so the UI has
// stale-but-usable data before the first network round-trip. Safe to skip
// when no cache is configured.
func (s *ConversationStore) WarmFromCache() {
	if s.cache == nil {
		return
	}
	conversations, err := s.cache.Conversations()
	if err != nil {
		s.log.Warn("Cache warm failed", "err", err)
		return
	}
	if len(conversations) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	domain.SortConversations(conversations)
	s.conversations = conversations
	for _, c := range conversations {
		cached, err := s.cache.Messages(c.ID)
		if err != nil {
			s.log.Warn("Cache warm failed for conversation", "conversationId", c.ID, "err", err)
			continue
		}
		if len(cached) > 0 {
			s.messages[c.ID] = cached
			s.pages[c.ID] = 1
			s.hasMore[c.ID] = true
		}
	}
	s.log.Info("Warmed state from cache", "conversations", len(conversations))
}

// LoadConversations fetches and replaces the whole conversation list, sorted
// most recent first. On failure the prior list stays untouched
// (stale-but-available).
func (s *ConversationStore) LoadConversations(ctx context.Context) error {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.mu.Unlock()

	conversations, err := s.api.ListConversations(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listSeq != seq {
		return nil
	}
	if err != nil {
		s.lastErr = apperrors.NewOpError("load_conversations", apperrors.ErrConversationsFetch, err, nil)
		return s.lastErr
	}

	domain.SortConversations(conversations)
	s.conversations = conversations
	s.persistConversations()
	return nil
}

// SelectConversation sets the active pointer. Pure state transition; loading
// the log is a separate intent.
func (s *ConversationStore) SelectConversation(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = conversationID
}

// LoadMessages fetches one oldest-first page. Page 1 replaces the stored log
// (stale or partial data is discarded); later pages hold older messages and
// are merged in front of the existing ones, never duplicating an id.
func (s *ConversationStore) LoadMessages(ctx context.Context, conversationID string, page int) error {
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	s.loadSeq[conversationID]++
	seq := s.loadSeq[conversationID]
	s.mu.Unlock()

	fetched, err := s.api.Messages(ctx, conversationID, page, s.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadSeq[conversationID] != seq {
		s.log.Debug("Dropping superseded messages response", "conversationId", conversationID, "page", page)
		return nil
	}
	if err != nil {
		s.lastErr = apperrors.NewOpError("load_messages", apperrors.ErrMessagesFetch, err,
			map[string]any{"conversationId": conversationID, "page": page})
		return s.lastErr
	}

	existing := s.messages[conversationID]
	var next []domain.Message
	if page == 1 {
		next = append(next, fetched.Messages...)
		// Keep optimistic entries that are still waiting for their send
		// response; they are local state, not server state.
		for _, m := range existing {
			if m.Pending() {
				next = append(next, m)
			}
		}
	} else {
		next = append(next, fetched.Messages...)
		next = append(next, existing...)
	}
	next = dedupeByID(next)
	sortMessages(next)

	s.messages[conversationID] = next
	s.pages[conversationID] = page
	s.hasMore[conversationID] = len(fetched.Messages) == s.pageSize
	s.persistMessages(conversationID)
	return nil
}

// SendMessage appends an optimistic pending entry, calls the send endpoint,
// and reconciles by TempID: success swaps in the canonical entity, failure
// removes the pending entry and stashes the draft so the caller can retry
// with the original text.
func (s *ConversationStore) SendMessage(ctx context.Context, conversationID, content string) error {
	cmd := SendMessageCommand{ConversationID: conversationID, Content: strings.TrimSpace(content)}
	if err := validate.Struct(cmd); err != nil {
		return apperrors.NewOpError("send_message", apperrors.ErrValidation, err,
			map[string]any{"conversationId": conversationID})
	}

	tempID := uuid.NewString()
	s.mu.Lock()
	pending := domain.Message{
		ID:             tempID,
		TempID:         tempID,
		ConversationID: conversationID,
		Sender:         &domain.User{ID: s.viewerID},
		Content:        cmd.Content,
		Timestamp:      s.clock.Now(),
		Kind:           domain.KindUser,
		Status:         domain.StatusPending,
	}
	s.messages[conversationID] = append(s.messages[conversationID], pending)
	s.sending = true
	s.mu.Unlock()

	sent, err := s.api.SendMessage(ctx, conversationID, cmd.Content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false

	idx := indexByTempID(s.messages[conversationID], tempID)
	if err != nil {
		if idx >= 0 {
			log := s.messages[conversationID]
			s.messages[conversationID] = append(log[:idx], log[idx+1:]...)
		}
		if s.conversationExists(conversationID) {
			s.drafts[conversationID] = content
		}
		s.lastErr = apperrors.NewOpError("send_message", apperrors.ErrSendMessage, err,
			map[string]any{"conversationId": conversationID, "content": content})
		return s.lastErr
	}
	if idx < 0 {
		// The conversation was deleted while the send was in flight.
		return nil
	}

	s.messages[conversationID][idx] = sent
	sortMessages(s.messages[conversationID])
	delete(s.drafts, conversationID)
	s.touchConversation(conversationID, sent)
	s.persistMessages(conversationID)
	s.persistConversations()
	return nil
}

// CreateConversation validates participants locally, then prepends the
// created conversation: new conversations are most recent by definition.
func (s *ConversationStore) CreateConversation(ctx context.Context, participantIDs []string, title string) (domain.Conversation, error) {
	cmd := CreateConversationCommand{ParticipantIDs: participantIDs, Title: title}
	if err := validate.Struct(cmd); err != nil {
		return domain.Conversation{}, apperrors.NewOpError("create_conversation", apperrors.ErrValidation, err, nil)
	}

	created, err := s.api.CreateConversation(ctx, participantIDs, title)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = apperrors.NewOpError("create_conversation", apperrors.ErrCreateConversation, err,
			map[string]any{"participantIds": participantIDs, "title": title})
		return domain.Conversation{}, s.lastErr
	}

	s.conversations = append([]domain.Conversation{created}, s.conversations...)
	s.persistConversations()
	return created, nil
}

// DeleteConversation removes the conversation and purges its log. The
// sequence bump guarantees an in-flight LoadMessages response for the same id
// is discarded on arrival instead of resurrecting the deleted log.
func (s *ConversationStore) DeleteConversation(ctx context.Context, conversationID string) error {
	err := s.api.DeleteConversation(ctx, conversationID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = apperrors.NewOpError("delete_conversation", apperrors.ErrDeleteConversation, err,
			map[string]any{"conversationId": conversationID})
		return s.lastErr
	}

	s.loadSeq[conversationID]++
	for i, c := range s.conversations {
		if c.ID == conversationID {
			s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
			break
		}
	}
	delete(s.messages, conversationID)
	delete(s.pages, conversationID)
	delete(s.hasMore, conversationID)
	delete(s.drafts, conversationID)
	if s.activeID == conversationID {
		s.activeID = ""
	}
	if s.cache != nil {
		if err := s.cache.PurgeConversation(conversationID); err != nil {
			s.log.Warn("Cache purge failed", "conversationId", conversationID, "err", err)
		}
	}
	s.persistConversations()
	return nil
}

// conversationExists reports whether the conversation is still listed.
// Callers hold s.mu. A send can outlive its conversation; nothing should be
// written back under the id of one that was removed in the meantime.
func (s *ConversationStore) conversationExists(conversationID string) bool {
	for _, c := range s.conversations {
		if c.ID == conversationID {
			return true
		}
	}
	return false
}

// SearchUsers is a stateless passthrough feeding an optional affordance; it
// returns an empty slice on failure instead of an error.
func (s *ConversationStore) SearchUsers(ctx context.Context, term string) []domain.User {
	users, err := s.api.SearchUsers(ctx, term)
	if err != nil {
		s.log.Warn("User search failed", "term", term, "err", err)
		return []domain.User{}
	}
	return users
}

// Reset drops all state and invalidates every in-flight response. Called on
// logout so late responses land against a dead sequence.
func (s *ConversationStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listSeq++
	for id := range s.loadSeq {
		s.loadSeq[id]++
	}
	s.conversations = nil
	s.messages = make(map[string][]domain.Message)
	s.pages = make(map[string]int)
	s.hasMore = make(map[string]bool)
	s.drafts = make(map[string]string)
	s.activeID = ""
	s.sending = false
	s.lastErr = nil
}

// Conversations returns a copy of the sorted list.
func (s *ConversationStore) Conversations() []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Messages returns a copy of one conversation's log.
func (s *ConversationStore) Messages(conversationID string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.messages[conversationID]
	out := make([]domain.Message, len(log))
	copy(out, log)
	return out
}

func (s *ConversationStore) ActiveConversation() (domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == "" {
		return domain.Conversation{}, false
	}
	for _, c := range s.conversations {
		if c.ID == s.activeID {
			return c, true
		}
	}
	return domain.Conversation{}, false
}

func (s *ConversationStore) Page(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[conversationID]
}

func (s *ConversationStore) HasMore(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore[conversationID]
}

// Draft returns the text of the last failed send for a conversation, so the
// UI can restore it into the input.
func (s *ConversationStore) Draft(conversationID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[conversationID]
}

func (s *ConversationStore) IsSending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

func (s *ConversationStore) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// touchConversation raises the conversation's recency to the confirmed
// message and re-sorts. LastMessageAt never moves backwards.
func (s *ConversationStore) touchConversation(conversationID string, msg domain.Message) {
	for i := range s.conversations {
		if s.conversations[i].ID != conversationID {
			continue
		}
		if msg.Timestamp.After(s.conversations[i].LastMessageAt) {
			s.conversations[i].LastMessageAt = msg.Timestamp
		}
		last := msg
		s.conversations[i].LastMessage = &last
		break
	}
	domain.SortConversations(s.conversations)
}

func (s *ConversationStore) persistConversations() {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveConversations(s.conversations); err != nil {
		s.log.Warn("Cache save failed for conversations", "err", err)
	}
}

func (s *ConversationStore) persistMessages(conversationID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveMessages(conversationID, s.messages[conversationID]); err != nil {
		s.log.Warn("Cache save failed for messages", "conversationId", conversationID, "err", err)
	}
}

func sortMessages(messages []domain.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
}

func dedupeByID(messages []domain.Message) []domain.Message {
	seen := make(map[string]struct{}, len(messages))
	out := messages[:0]
	for _, m := range messages {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func indexByTempID(messages []domain.Message, tempID string) int {
	for i, m := range messages {
		if m.TempID == tempID {
			return i
		}
	}
	return -1
}
