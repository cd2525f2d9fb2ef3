package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/repos"
	"github.com/racon-ai/racon-backend/internal/types"
)

const titleMaxRunes = 40

const (
	EventChatCreated = "chat_created"
	EventChatUpdated = "chat_updated"
)

// ChatEventPublisher pushes chat changes to the owner's live connections.
// Delivery is best-effort.
type ChatEventPublisher interface {
	PublishToUser(ctx context.Context, userID, action string, payload interface{})
}

type AppendTurnInput struct {
	Question   string
	Answer     string
	Attachment string
}

type ChatUpdate struct {
	ChatID string       `json:"chatId"`
	Turns  []types.Turn `json:"turns"`
}

type ChatService interface {
	CreateChat(ctx context.Context, userID, text string) (string, error)
	ListUserChats(ctx context.Context, userID string) ([]types.ChatSummary, error)
	GetChat(ctx context.Context, chatID, userID string) (*types.Chat, error)
	AppendTurn(ctx context.Context, chatID, userID string, in AppendTurnInput) (int, error)
}

type chatService struct {
	log           *logger.Logger
	chatRepo      repos.ChatRepo
	userChatsRepo repos.UserChatsRepo
	events        ChatEventPublisher
}

func NewChatService(log *logger.Logger, chatRepo repos.ChatRepo, userChatsRepo repos.UserChatsRepo, events ChatEventPublisher) ChatService {
	serviceLog := log.With("service", "ChatService")
	return &chatService{
		log:           serviceLog,
		chatRepo:      chatRepo,
		userChatsRepo: userChatsRepo,
		events:        events,
	}
}

// ChatTitle returns the first 40 characters of text without splitting a
// multi-byte character. The result is always a byte prefix of text; an
// invalid byte counts as one character and is kept as-is.
func ChatTitle(text string) string {
	end := 0
	for n := 0; n < titleMaxRunes && end < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[:end]
}

// CreateChat persists the chat first and indexes it second. If indexing fails
// the chat stays orphaned: it exists but is not listed.
func (cs *chatService) CreateChat(ctx context.Context, userID, text string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: missing user id", types.ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		cs.log.Warn("Chat text is empty, cannot create chat")
		return "", fmt.Errorf("%w: text is required", types.ErrInvalidInput)
	}

	//1) Create Chat
	chat, err := cs.chatRepo.Create(ctx, &types.Chat{
		UserID:  userID,
		History: []types.Turn{types.NewUserTurn(text, "")},
	})
	if err != nil {
		cs.log.Warn("Failed to create chat, cannot proceed further. Returning error.", "error", err)
		return "", fmt.Errorf("failed to create chat: %w", err)
	}

	//2) Index Chat For User
	summary := types.ChatSummary{ChatID: chat.ID, Title: ChatTitle(text)}
	if err := cs.indexChat(ctx, userID, summary); err != nil {
		cs.log.Error("Chat persisted but user chat index update failed, chat is orphaned until reconciled",
			"chat_id", chat.ID,
			"user_id", userID,
			"error", err,
		)
		return "", fmt.Errorf("chat %s created but not indexed: %w", chat.ID, err)
	}

	cs.publish(ctx, userID, EventChatCreated, summary)
	return chat.ID, nil
}

func (cs *chatService) indexChat(ctx context.Context, userID string, summary types.ChatSummary) error {
	_, err := cs.userChatsRepo.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, types.ErrUserChatsNotFound):
		_, cErr := cs.userChatsRepo.Create(ctx, &types.UserChats{
			UserID: userID,
			Chats:  []types.ChatSummary{summary},
		})
		if cErr == nil {
			return nil
		}
		if !errors.Is(cErr, types.ErrUserChatsExists) {
			return cErr
		}
		// Lost the race against a concurrent first chat for this user.
		cs.log.Debug("User chats created concurrently, appending instead", "chat_id", summary.ChatID)
		return cs.userChatsRepo.AppendChat(ctx, userID, summary)
	case err != nil:
		return err
	default:
		return cs.userChatsRepo.AppendChat(ctx, userID, summary)
	}
}

func (cs *chatService) ListUserChats(ctx context.Context, userID string) ([]types.ChatSummary, error) {
	userChats, err := cs.userChatsRepo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, types.ErrUserChatsNotFound) {
			cs.log.Warn("Failed to fetch user chats. Returning error.", "error", err)
		}
		return nil, err
	}
	return userChats.Chats, nil
}

func (cs *chatService) GetChat(ctx context.Context, chatID, userID string) (*types.Chat, error) {
	if _, err := uuid.Parse(chatID); err != nil {
		return nil, types.ErrChatNotFound
	}
	chat, err := cs.chatRepo.GetByIDForUser(ctx, chatID, userID)
	if err != nil {
		if !errors.Is(err, types.ErrChatNotFound) {
			cs.log.Warn("Failed to fetch chat. Returning error.", "chat_id", chatID, "error", err)
		}
		return nil, err
	}
	return chat, nil
}

// AppendTurn adds an optional user turn followed by the model turn, in that
// order, as a single write. It returns the number of turns appended.
func (cs *chatService) AppendTurn(ctx context.Context, chatID, userID string, in AppendTurnInput) (int, error) {
	if strings.TrimSpace(in.Answer) == "" {
		cs.log.Warn("Answer is empty, cannot append turn", "chat_id", chatID)
		return 0, fmt.Errorf("%w: answer is required", types.ErrInvalidInput)
	}
	if _, err := uuid.Parse(chatID); err != nil {
		return 0, types.ErrChatNotFound
	}

	turns := make([]types.Turn, 0, 2)
	if in.Question != "" {
		turns = append(turns, types.NewUserTurn(in.Question, in.Attachment))
	}
	turns = append(turns, types.NewModelTurn(in.Answer))

	if err := cs.chatRepo.AppendTurns(ctx, chatID, userID, turns); err != nil {
		if !errors.Is(err, types.ErrChatNotFound) {
			cs.log.Warn("Failed to append turns. Returning error.", "chat_id", chatID, "error", err)
		}
		return 0, err
	}

	cs.publish(ctx, userID, EventChatUpdated, ChatUpdate{ChatID: chatID, Turns: turns})
	return len(turns), nil
}

func (cs *chatService) publish(ctx context.Context, userID, action string, payload interface{}) {
	if cs.events == nil {
		return
	}
	cs.events.PublishToUser(ctx, userID, action, payload)
}
