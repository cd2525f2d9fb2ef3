package types

import "errors"

var (
	ErrChatNotFound      = errors.New("chat not found")
	ErrUserChatsNotFound = errors.New("no chats found for user")
	ErrUserChatsExists   = errors.New("user chats already exist")
	ErrInvalidInput      = errors.New("invalid input")
)
