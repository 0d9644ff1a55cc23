package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies one event on the real-time surface. The set is closed:
// decoding an unknown event name fails instead of falling through to a
// string-keyed handler table.
type Kind uint8

const (
	// inbound events (client -> server)

	// KindLogin binds the connection to a user identity.
	KindLogin Kind = iota + 1
	// KindMessageSend is a direct-message send request.
	KindMessageSend
	// KindTypingStart signals the sender started typing.
	KindTypingStart
	// KindTypingStop signals the sender stopped typing.
	KindTypingStop
	// KindMessageRead marks a received message as read.
	KindMessageRead
	// KindFileUpload carries an inline-encoded file payload.
	KindFileUpload
	// KindGroupCreate creates a group conversation.
	KindGroupCreate

	// outbound events (server -> client)

	// KindOnlineUsers announces the full online-user set.
	KindOnlineUsers
	// KindMessageSent acknowledges a persisted message to its sender.
	KindMessageSent
	// KindMessageReceive pushes a new message to its receiver.
	KindMessageReceive
	// KindMessageError reports a failed send to the sender.
	KindMessageError
	// KindFileUploadError reports a failed file upload to the sender.
	KindFileUploadError
	// KindGroupCreated confirms a created group to its creator.
	KindGroupCreated
	// KindGroupInvited notifies an invitee of a new group.
	KindGroupInvited
	// KindGroupCreateError reports a failed group creation to the creator.
	KindGroupCreateError
	// KindConnectionReplaced tells a superseded connection it was replaced
	// by a newer login for the same user.
	KindConnectionReplaced
)

// kindNames maps kinds to their on-the-wire event names.
var kindNames = map[Kind]string{
	KindLogin:              "login",
	KindMessageSend:        "message:send",
	KindTypingStart:        "typing:start",
	KindTypingStop:         "typing:stop",
	KindMessageRead:        "message:read",
	KindFileUpload:         "file:upload",
	KindGroupCreate:        "group:create",
	KindOnlineUsers:        "online:users",
	KindMessageSent:        "message:sent",
	KindMessageReceive:     "message:receive",
	KindMessageError:       "message:error",
	KindFileUploadError:    "file:upload:error",
	KindGroupCreated:       "group:created",
	KindGroupInvited:       "group:invited",
	KindGroupCreateError:   "group:create:error",
	KindConnectionReplaced: "connection:replaced",
}

// kindbyName is the reverse of kindNames, built at init.
var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ErrUnknownEvent is returned when a frame names an event outside the
// closed kind set.
var ErrUnknownEvent = fmt.Errorf("wire: unknown event")

// ErrNotInbound is returned when a client sends an event that only the
// server may emit.
var ErrNotInbound = fmt.Errorf("wire: event is not inbound")

// Login binds a connection to a user. When the server is configured with a
// signing secret the token is required and the identity is taken from it;
// the declared userId is only trusted in development.
type Login struct {
	UserID string `json:"userId"`
	Token  string `json:"token,omitempty"`
}

// ChatMessage is a direct-message send request.
type ChatMessage struct {
	SenderID       string `json:"senderId"`
	ReceiverID     string `json:"receiverId"`
	Content        string `json:"content"`
	ConversationID string `json:"conversationId"`
}

// Typing is a transient typing indicator, forwarded without persistence.
type Typing struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId,omitempty"`
}

// MarkRead asks the server to flag a message as read by UserID.
type MarkRead struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

// FileUpload carries a base64-encoded file payload inline on the
// connection. Data may be a bare base64 string or a data URL.
type FileUpload struct {
	SenderID       string `json:"senderId"`
	ReceiverID     string `json:"receiverId"`
	FileName       string `json:"fileName"`
	Data           string `json:"data"`
	MimeType       string `json:"mimeType"`
	ConversationID string `json:"conversationId"`
}

// GroupCreate creates a group conversation with the given members.
type GroupCreate struct {
	CreatorID   string   `json:"creatorId"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MemberIDs   []string `json:"memberIds"`
}

// OnlineUsers is the full current online-user set.
type OnlineUsers struct {
	Users []string `json:"users"`
}

// Message mirrors a persisted message in both the sender acknowledgment
// and the receiver push.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	ReceiverID     string     `json:"receiverId"`
	Content        string     `json:"content"`
	FileURL        string     `json:"fileUrl,omitempty"`
	FileType       string     `json:"fileType,omitempty"`
	IsRead         bool       `json:"isRead"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// ErrorReply carries a human-readable failure report. The connection stays
// open after it is delivered.
type ErrorReply struct {
	Error string `json:"error"`
}

// ReadReceipt notifies a message's sender that it was read.
type ReadReceipt struct {
	MessageID string    `json:"messageId"`
	ReadBy    string    `json:"readBy"`
	ReadAt    time.Time `json:"readAt"`
}

// Conversation mirrors a persisted conversation record.
type Conversation struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatorID   string    `json:"creatorId"`
	IsGroup     bool      `json:"isGroup"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GroupCreated confirms a created group to its creator.
type GroupCreated struct {
	Conversation Conversation `json:"conversation"`
	Members      []string     `json:"members"`
}

// GroupInvite notifies an invited member of a group they were added to.
type GroupInvite struct {
	ConversationID string `json:"conversationId"`
	Name           string `json:"name"`
	InvitedBy      string `json:"invitedBy"`
}

// Replaced tells a superseded connection why it is being closed.
type Replaced struct {
	Reason string `json:"reason"`
}

// Event is one frame on the real-time surface: a kind plus its payload.
type Event struct {
	Kind Kind
	Body interface{}
}

// NewEvent builds an outbound event.
func NewEvent(kind Kind, body interface{}) *Event {
	return &Event{Kind: kind, Body: body}
}

// frame is the JSON envelope for every event.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// makeInboundBody allocates the payload struct for an inbound kind. The
// switch is exhaustive over the inbound half of the kind set; anything
// else is rejected so server-only events cannot be injected by clients.
func makeInboundBody(kind Kind) (interface{}, error) {
	switch kind {
	case KindLogin:
		return &Login{}, nil
	case KindMessageSend:
		return &ChatMessage{}, nil
	case KindTypingStart, KindTypingStop:
		return &Typing{}, nil
	case KindMessageRead:
		return &MarkRead{}, nil
	case KindFileUpload:
		return &FileUpload{}, nil
	case KindGroupCreate:
		return &GroupCreate{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotInbound, kind)
	}
}

// Decode parses a raw frame into a typed inbound event.
func Decode(raw []byte) (*Event, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("wire: bad frame: %w", err)
	}
	kind, ok := kindByName[f.Event]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Event)
	}
	body, err := makeInboundBody(kind)
	if err != nil {
		return nil, err
	}
	if len(f.Data) > 0 {
		if err := json.Unmarshal(f.Data, body); err != nil {
			return nil, fmt.Errorf("wire: bad %s payload: %w", kind, err)
		}
	}
	return &Event{Kind: kind, Body: body}, nil
}

// Encode renders the event as a JSON frame.
func (e *Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e.Body)
	if err != nil {
		return nil, fmt.Errorf("wire: encode %s: %w", e.Kind, err)
	}
	return json.Marshal(frame{Event: e.Kind.String(), Data: data})
}
