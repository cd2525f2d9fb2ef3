package types

import (
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Part is one content fragment of a turn. Attachment references media hosted
// elsewhere (URL or media id); binaries are never embedded.
type Part struct {
	Text       string `json:"text" bson:"text"`
	Attachment string `json:"attachment,omitempty" bson:"attachment,omitempty"`
}

type Turn struct {
	Role  Role   `json:"role" bson:"role"`
	Parts []Part `json:"parts" bson:"parts"`
}

// Chat is a single conversation. History is append-only and ordered.
type Chat struct {
	ID        string                    `gorm:"type:varchar(64);primaryKey" json:"_id" bson:"_id"`
	UserID    string                    `gorm:"type:varchar(255);index;not null;column:user_id" json:"userId" bson:"user_id"`
	History   datatypes.JSONSlice[Turn] `gorm:"column:history" json:"history" bson:"history"`
	CreatedAt time.Time                 `gorm:"not null" json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time                 `gorm:"not null" json:"updatedAt" bson:"updated_at"`
}

func (Chat) TableName() string {
	return "chat"
}

func NewUserTurn(text, attachment string) Turn {
	return Turn{Role: RoleUser, Parts: []Part{{Text: text, Attachment: attachment}}}
}

func NewModelTurn(text string) Turn {
	return Turn{Role: RoleModel, Parts: []Part{{Text: text}}}
}
