package database

import "time"

// Member roles within a conversation.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Message is one persisted chat message, direct or group. A message
// carrying a file reference also carries a human-readable placeholder in
// Content.
type Message struct {
	ID             string     `xorm:"pk varchar(26) 'id'" json:"id"`
	ConversationID string     `xorm:"varchar(36) index 'conversation_id'" json:"conversationId"`
	SenderID       string     `xorm:"varchar(64) index 'sender_id'" json:"senderId"`
	ReceiverID     string     `xorm:"varchar(64) index 'receiver_id'" json:"receiverId"`
	Content        string     `xorm:"varchar(2048)" json:"content"`
	FileURL        string     `xorm:"varchar(512) 'file_url'" json:"fileUrl,omitempty"`
	FileType       string     `xorm:"varchar(128)" json:"fileType,omitempty"`
	IsRead         bool       `xorm:"default 0" json:"isRead"`
	ReadAt         *time.Time `xorm:"null" json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Conversation is a chat thread. Name and Description are only set for
// group conversations.
type Conversation struct {
	ID          string    `xorm:"pk varchar(36) 'id'" json:"id"`
	Name        string    `xorm:"varchar(128)" json:"name,omitempty"`
	Description string    `xorm:"varchar(512)" json:"description,omitempty"`
	CreatorID   string    `xorm:"varchar(64) index 'creator_id'" json:"creatorId"`
	IsGroup     bool      `xorm:"default 0" json:"isGroup"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ConversationMember joins a user to a conversation. The creator is always
// inserted with RoleAdmin in the same logical operation that creates the
// conversation.
type ConversationMember struct {
	ConversationID string    `xorm:"pk varchar(36) 'conversation_id'" json:"conversationId"`
	UserID         string    `xorm:"pk varchar(64) 'user_id'" json:"userId"`
	Role           string    `xorm:"varchar(16)" json:"role"`
	JoinedAt       time.Time `json:"joinedAt"`
}
