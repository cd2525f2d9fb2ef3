package types

import (
	"time"

	"gorm.io/datatypes"
)

// ChatSummary is the index entry that points at a Chat owned by the same user.
type ChatSummary struct {
	ChatID string `json:"_id" bson:"_id"`
	Title  string `json:"title" bson:"title"`
}

// UserChats is the per-user chat index. One row per user that has ever created
// a chat; Chats only grows.
type UserChats struct {
	UserID    string                           `gorm:"type:varchar(255);primaryKey;column:user_id" json:"userId" bson:"user_id"`
	Chats     datatypes.JSONSlice[ChatSummary] `gorm:"column:chats" json:"chats" bson:"chats"`
	CreatedAt time.Time                        `gorm:"not null" json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time                        `gorm:"not null" json:"updatedAt" bson:"updated_at"`
}

func (UserChats) TableName() string {
	return "user_chats"
}
