package database

import (
	"fmt"
	"time"

	"github.com/go-xorm/xorm"
)

// SQLStore is the xorm-backed Store. It works against MySQL in production
// and SQLite in tests; the engine decides.
type SQLStore struct {
	engine *xorm.Engine
}

// NewSQLStore wraps an engine opened by InitDB.
func NewSQLStore(engine *xorm.Engine) *SQLStore {
	return &SQLStore{engine: engine}
}

// SaveMessage inserts a new message row.
func (s *SQLStore) SaveMessage(msg *Message) error {
	if _, err := s.engine.Insert(msg); err != nil {
		return fmt.Errorf("save message %s: %w", msg.ID, err)
	}
	return nil
}

// GetMessage returns the message with the given id, or nil when absent.
func (s *SQLStore) GetMessage(id string) (*Message, error) {
	msg := &Message{}
	has, err := s.engine.ID(id).Get(msg)
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	if !has {
		return nil, nil
	}
	return msg, nil
}

// MarkMessageRead flips the read flag, conditioned on the reader being the
// message's receiver. A reader that is not the receiver affects zero rows.
func (s *SQLStore) MarkMessageRead(messageID, readerID string, at time.Time) (int64, error) {
	affected, err := s.engine.
		Where("id = ? AND receiver_id = ?", messageID, readerID).
		Cols("is_read", "read_at").
		Update(&Message{IsRead: true, ReadAt: &at})
	if err != nil {
		return 0, fmt.Errorf("mark message %s read: %w", messageID, err)
	}
	return affected, nil
}

// RecentMessages returns the latest direct messages between two users,
// newest first.
func (s *SQLStore) RecentMessages(userA, userB string, limit int) ([]*Message, error) {
	msgs := make([]*Message, 0, limit)
	err := s.engine.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Desc("created_at").
		Limit(limit).
		Find(&msgs)
	if err != nil {
		return nil, fmt.Errorf("recent messages %s/%s: %w", userA, userB, err)
	}
	return msgs, nil
}

// CreateConversation inserts a new conversation row.
func (s *SQLStore) CreateConversation(conv *Conversation) error {
	if _, err := s.engine.Insert(conv); err != nil {
		return fmt.Errorf("create conversation %s: %w", conv.ID, err)
	}
	return nil
}

// AddMembers inserts membership rows for a conversation.
func (s *SQLStore) AddMembers(members []*ConversationMember) error {
	if len(members) == 0 {
		return nil
	}
	if _, err := s.engine.Insert(&members); err != nil {
		return fmt.Errorf("add %d members to %s: %w",
			len(members), members[0].ConversationID, err)
	}
	return nil
}

// ListMembers returns all members of a conversation.
func (s *SQLStore) ListMembers(conversationID string) ([]*ConversationMember, error) {
	var members []*ConversationMember
	err := s.engine.
		Where("conversation_id = ?", conversationID).
		Find(&members)
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", conversationID, err)
	}
	return members, nil
}
