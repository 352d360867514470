package store

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"shiftsync/domain"
	apperrors "shiftsync/errors"
	"shiftsync/mocks"
)

const viewerID = "viewer-1"

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

func conversation(id string, at time.Time) domain.Conversation {
	return domain.Conversation{
		ID:            id,
		Participants:  []domain.User{{ID: viewerID}, {ID: "other"}},
		LastMessageAt: at,
	}
}

func confirmed(id, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:        id,
		Content:   content,
		Timestamp: at,
		Kind:      domain.KindUser,
		Status:    domain.StatusConfirmed,
	}
}

func TestConversationStore_LoadConversations_SortsMostRecentFirst(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	apiMock.EXPECT().
		ListConversations(gomock.Any()).
		Return([]domain.Conversation{
			conversation("old", at.Add(-time.Hour)),
			conversation("new", at),
		}, nil)

	s := NewConversationStore(slog.Default(), apiMock, nil, nil, viewerID, 0)
	req.NoError(s.LoadConversations(context.Background()))

	list := s.Conversations()
	req.Len(list, 2)
	req.Equal("new", list[0].ID)
	req.Equal("old", list[1].ID)
}

func TestConversationStore_LoadConversations_FailureKeepsPriorList(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	gomock.InOrder(
		apiMock.EXPECT().
			ListConversations(gomock.Any()).
			Return([]domain.Conversation{conversation("c1", at)}, nil),
		apiMock.EXPECT().
			ListConversations(gomock.Any()).
			Return(nil, fmt.Errorf("server unreachable")),
	)

	s := NewConversationStore(slog.Default(), apiMock, nil, nil, viewerID, 0)
	req.NoError(s.LoadConversations(context.Background()))

	err := s.LoadConversations(context.Background())
	req.ErrorIs(err, apperrors.ErrConversationsFetch)

	// Stale-but-available: the previous list survives the failed reload.
	list := s.Conversations()
	req.Len(list, 1)
	req.Equal("c1", list[0].ID)
	req.Error(s.LastError())
}

func TestConversationStore_LoadMessages_FirstPageReplaces(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	gomock.InOrder(
		apiMock.EXPECT().
			Messages(gomock.Any(), "c1", 1, DefaultPageSize).
			Return(domain.MessagePage{Messages: []domain.Message{
				confirmed("m1", "stale", at),
			}}, nil),
		apiMock.EXPECT().
			Messages(gomock.Any(), "c1", 1, DefaultPageSize).
			Return(domain.MessagePage{Messages: []domain.Message{
				confirmed("m2", "fresh", at.Add(time.Minute)),
			}}, nil),
	)

	s := NewConversationStore(slog.Default(), apiMock, nil, nil, viewerID, 0)
	req.NoError(s.LoadMessages(context.Background(), "c1", 1))
	req.NoError(s.LoadMessages(context.Background(), "c1", 1))

	messages := s.Messages("c1")
	req.Len(messages, 1)
	req.Equal("m2", messages[0].ID)
	req.Equal(1, s.Page("c1"))
	req.False(s.HasMore("c1"))
}

func TestConversationStore_LoadMessages_OlderPagePrepends(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	gomock.InOrder(
		apiMock.EXPECT().
			Messages(gomock.Any(), "c1", 1, DefaultPageSize).
			Return(domain.MessagePage{Messages: []domain.Message{
				confirmed("m3", "recent", at.Add(2*time.Minute)),
				confirmed("m4", "latest", at.Add(3*time.Minute)),
			}}, nil),
		apiMock.EXPECT().
			Messages(gomock.Any(), "c1", 2, DefaultPageSize).
			Return(domain.MessagePage{Messages: []domain.Message{
				confirmed("m1", "oldest", at),
				confirmed("m2", "older", at.Add(time.Minute)),
				// Overlap with page 1 must not duplicate.
				confirmed("m3", "recent", at.Add(2*time.Minute)),
			}}, nil),
	)

	s := NewConversationStore(slog.Default(), apiMock, nil, nil, viewerID, 0)
	req.NoError(s.LoadMessages(context.Background(), "c1", 1))
	req.NoError(s.LoadMessages(context.Background(), "c1", 2))

	messages := s.Messages("c1")
	req.Len(messages, 4)
	req.Equal("m1", messages[0].ID)
	req.Equal("m2", messages[1].ID)
	req.Equal("m3", messages[2].ID)
	req.Equal("m4", messages[3].ID)
	req.Equal(2, s.Page("c1"))
}

func TestConversationStore_LoadMessages_HasMoreTracksFullPage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	full := make([]domain.Message, 3)
	for i := range full {
		full[i] = confirmed(fmt.Sprintf("m%d", i), "x", at.Add(time.Duration(i)*time.Second))
	}

	apiMock.EXPECT().
		Messages(gomock.Any(), "c1", 1, 3).
		Return(domain.MessagePage{Messages: full}, nil)

	s := NewConversationStore(slog.Default(), apiMock, nil, nil, viewerID, 3)
	req.NoError(s.LoadMessages(context.Background(), "c1", 1))
	req.True(s.HasMore("c1"))
}

func TestConversationStore_LoadMessages_SupersededResponseDiscarded(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	release := make(chan struct{})
	firstIssued := make(chan struct{})

	gomock.InOrder(
		// The first load blocks until the second one has fully landed.
		apiMock.EXPECT().
			Messages(gomock.Any(), "c1", 1, DefaultPageSize).
			DoAndReturn(func(ctx context.Context, id string, page, limit int) (domain.MessagePage, error) {
				close(firstIssued)
				<-release
				return domain.MessagePage{Messages: []domain.Message{
					confirmed("slow", "stale response", at),
				}}, nil
			}),
		apiMock.EXPECT().
			Messages(gomock.Any(), "c1", 1, DefaultPageSize).
			Return(domain.MessagePage{Messages: []domain.Message{
				confirmed("fast", "newer response", at.Add(time.Minute)),
			}}, nil),
	)

	s := NewConversationStore(slog.Default(), apiMock, nil, nil, viewerID, 0)

	done := make(chan error)
	go func() {
		done <- s.LoadMessages(context.Background(), "c1", 1)
	}()

	<-firstIssued
	req.NoError(s.LoadMessages(context.Background(), "c1", 1))
	close(release)
	req.NoError(<-done)

	// The slow response arrived last but was issued first, so it lost.
	messages := s.Messages("c1")
	req.Len(messages, 1)
	req.Equal("fast", messages[0].ID)
}

func TestConversationStore_SendMessage_OptimisticThenConfirmed(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	apiMock.EXPECT().
		ListConversations(gomock.Any()).
		Return([]domain.Conversation{conversation("c1", at.Add(-time.Hour))}, nil)

	sendStarted := make(chan struct{})
	release := make(chan struct{})
	apiMock.EXPECT().
		SendMessage(gomock.Any(), "c1", "hello crew").
		DoAndReturn(func(ctx context.Context, id, content string) (domain.Message, error) {
			close(sendStarted)
			<-release
			m := confirmed("server-id", content, at)
			m.Sender = &domain.User{ID: viewerID}
			return m, nil
		})

	s := NewConversationStore(slog.Default(), apiMock, nil, fixedClock{at: at}, viewerID, 0)
	req.NoError(s.LoadConversations(context.Background()))

	done := make(chan error)
	go func() {
		done <- s.SendMessage(context.Background(), "c1", "  hello crew  ")
	}()

	// While the send is in flight the log shows a pending entry.
	<-sendStarted
	messages := s.Messages("c1")
	req.Len(messages, 1)
	req.True(messages[0].Pending())
	req.Equal("hello crew", messages[0].Content)
	req.Equal(viewerID, messages[0].SenderID())
	req.True(s.IsSending())

	close(release)
	req.NoError(<-done)

	// Confirmation swapped the pending entry for the canonical one.
	messages = s.Messages("c1")
	req.Len(messages, 1)
	req.Equal("server-id", messages[0].ID)
	req.False(messages[0].Pending())
	req.False(s.IsSending())

	// The conversation rose to the top with updated recency.
	list := s.Conversations()
	req.Equal(at, list[0].LastMessageAt)
	req.Equal("server-id", list[0].LastMessage.ID)
}

func TestConversationStore_SendMessage_FailureRollsBackAndKeepsDraft(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	gomock.InOrder(
		apiMock.EXPECT().
			Messages(gomock.Any(), "c1", 1, DefaultPageSize).
			Return(domain.MessagePage{Messages: []domain.Message{
				confirmed("m1", "existing", at),
			}}, nil),
		apiMock.EXPECT().
			SendMessage(gomock.Any(), "c1", "doomed message").
			Return(domain.Message{}, fmt.Errorf("server unreachable")),
	)

	s := NewConversationStore(slog.Default(), apiMock, nil, fixedClock{at: at}, viewerID, 0)
	req.NoError(s.LoadMessages(context.Background(), "c1", 1))
	before := s.Messages("c1")

	err := s.SendMessage(context.Background(), "c1", "doomed message")
	req.ErrorIs(err, apperrors.ErrSendMessage)

	// The log is byte-identical to its pre-send state.
	req.Equal(before, s.Messages("c1"))

	// The text survives as a draft for retry.
	req.Equal("doomed message", s.Draft("c1"))
	req.False(s.IsSending())
}

func TestConversationStore_SendMessage_ValidationRejectsEmptyAndOversized(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)

	s := NewConversationStore(slog.Default(), apiMock, nil, nil, viewerID, 0)

	err := s.SendMessage(context.Background(), "c1", "   ")
	req.ErrorIs(err, apperrors.ErrValidation)

	oversized := make([]byte, MaxMessageLength+1)
	for i := range oversized {
		oversized[i] = 'a'
	}
	err = s.SendMessage(context.Background(), "c1", string(oversized))
	req.ErrorIs(err, apperrors.ErrValidation)

	req.Empty(s.Messages("c1"))
}

func TestConversationStore_DeleteConversation_DiscardsInFlightLoad(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	loadIssued := make(chan struct{})
	release := make(chan struct{})

	apiMock.EXPECT().
		ListConversations(gomock.Any()).
		Return([]domain.Conversation{conversation("c1", at)}, nil)
	apiMock.EXPECT().
		Messages(gomock.Any(), "c1", 1, DefaultPageSize).
		DoAndReturn(func(ctx context.Context, id string, page, limit int) (domain.MessagePage, error) {
			close(loadIssued)
			<-release
			return domain.MessagePage{Messages: []domain.Message{
				confirmed("ghost", "from a deleted conversation", at),
			}}, nil
		})
	apiMock.EXPECT().
		DeleteConversation(gomock.Any(), "c1").
		Return(nil)

	s := NewConversationStore(slog.Default(), apiMock, nil, nil, viewerID, 0)
	req.NoError(s.LoadConversations(context.Background()))
	s.SelectConversation("c1")

	done := make(chan error)
	go func() {
		done <- s.LoadMessages(context.Background(), "c1", 1)
	}()

	<-loadIssued
	req.NoError(s.DeleteConversation(context.Background(), "c1"))
	close(release)
	req.NoError(<-done)

	// The late response must not resurrect the deleted log.
	req.Empty(s.Messages("c1"))
	req.Empty(s.Conversations())
	_, ok := s.ActiveConversation()
	req.False(ok)
}

func TestConversationStore_SendFailureAfterDeleteLeavesNoDraft(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	sendIssued := make(chan struct{})
	release := make(chan struct{})

	apiMock.EXPECT().
		ListConversations(gomock.Any()).
		Return([]domain.Conversation{conversation("c1", at)}, nil)
	apiMock.EXPECT().
		SendMessage(gomock.Any(), "c1", "orphaned").
		DoAndReturn(func(ctx context.Context, id, content string) (domain.Message, error) {
			close(sendIssued)
			<-release
			return domain.Message{}, fmt.Errorf("server unreachable")
		})
	apiMock.EXPECT().
		DeleteConversation(gomock.Any(), "c1").
		Return(nil)

	s := NewConversationStore(slog.Default(), apiMock, nil, fixedClock{at: at}, viewerID, 0)
	req.NoError(s.LoadConversations(context.Background()))

	done := make(chan error)
	go func() {
		done <- s.SendMessage(context.Background(), "c1", "orphaned")
	}()

	<-sendIssued
	req.NoError(s.DeleteConversation(context.Background(), "c1"))
	close(release)
	req.ErrorIs(<-done, apperrors.ErrSendMessage)

	// The failed send must not recreate state under the deleted id.
	req.Empty(s.Draft("c1"))
	req.Empty(s.Messages("c1"))
}

func TestConversationStore_CreateConversation_PrependsAndValidates(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	apiMock.EXPECT().
		ListConversations(gomock.Any()).
		Return([]domain.Conversation{conversation("c1", at)}, nil)
	apiMock.EXPECT().
		CreateConversation(gomock.Any(), []string{"u2", "u3"}, "Night crew").
		Return(conversation("c2", at.Add(time.Minute)), nil)

	s := NewConversationStore(slog.Default(), apiMock, nil, nil, viewerID, 0)
	req.NoError(s.LoadConversations(context.Background()))

	created, err := s.CreateConversation(context.Background(), []string{"u2", "u3"}, "Night crew")
	req.NoError(err)
	req.Equal("c2", created.ID)
	req.Equal("c2", s.Conversations()[0].ID)

	// Empty and duplicated participant lists never reach the API.
	_, err = s.CreateConversation(context.Background(), nil, "")
	req.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.CreateConversation(context.Background(), []string{"u2", "u2"}, "")
	req.ErrorIs(err, apperrors.ErrValidation)
}

func TestConversationStore_SearchUsers_EmptyOnFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)

	apiMock.EXPECT().
		SearchUsers(gomock.Any(), "ali").
		Return(nil, fmt.Errorf("server unreachable"))

	s := NewConversationStore(slog.Default(), apiMock, nil, nil, viewerID, 0)
	req.Empty(s.SearchUsers(context.Background(), "ali"))
}

func TestConversationStore_Reset_ClearsEverything(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	apiMock := mocks.NewMockConversationsAPI(ctrl)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	apiMock.EXPECT().
		ListConversations(gomock.Any()).
		Return([]domain.Conversation{conversation("c1", at)}, nil)
	apiMock.EXPECT().
		Messages(gomock.Any(), "c1", 1, DefaultPageSize).
		Return(domain.MessagePage{Messages: []domain.Message{
			confirmed("m1", "hello", at),
		}}, nil)

	s := NewConversationStore(slog.Default(), apiMock, nil, nil, viewerID, 0)
	req.NoError(s.LoadConversations(context.Background()))
	req.NoError(s.LoadMessages(context.Background(), "c1", 1))
	s.SelectConversation("c1")

	s.Reset()

	req.Empty(s.Conversations())
	req.Empty(s.Messages("c1"))
	req.NoError(s.LastError())
	_, ok := s.ActiveConversation()
	req.False(ok)
}
