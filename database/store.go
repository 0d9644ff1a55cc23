package database

import "time"

// Store is the persistence collaborator for the chat core. Every call is
// independently fallible; callers never assume atomicity across calls.
type Store interface {
	// SaveMessage inserts a new message row.
	SaveMessage(msg *Message) error
	// GetMessage returns the message with the given id, or nil when absent.
	GetMessage(id string) (*Message, error)
	// MarkMessageRead sets is_read and read_at on the message, conditioned
	// on readerID matching the message's receiver. It returns the number of
	// rows affected; zero means the message is absent or the reader is not
	// its receiver.
	MarkMessageRead(messageID, readerID string, at time.Time) (int64, error)
	// RecentMessages returns the latest direct messages between two users,
	// newest first. Served to the adjacent REST layer, not the hub.
	RecentMessages(userA, userB string, limit int) ([]*Message, error)

	// CreateConversation inserts a new conversation row.
	CreateConversation(conv *Conversation) error
	// AddMembers inserts membership rows for a conversation.
	AddMembers(members []*ConversationMember) error
	// ListMembers returns all members of a conversation.
	ListMembers(conversationID string) ([]*ConversationMember, error)
}

// PresenceCache mirrors the hub's online-user set so that adjacent
// processes (REST instances, other hub nodes) can answer "who is online"
// without holding the connections themselves.
type PresenceCache interface {
	AddClient(userID string) error
	DelClient(userID string) error
	OnlineClients() ([]string, error)
}
