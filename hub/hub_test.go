package hub

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fahad90fa/oneverse-sub000/database"
	"github.com/fahad90fa/oneverse-sub000/wire"
)

// fakeStore is an in-memory database.Store with per-call failure
// switches, so handler error paths can be exercised without SQL.
type fakeStore struct {
	mu       sync.Mutex
	messages map[string]*database.Message
	convs    map[string]*database.Conversation
	members  map[string][]*database.ConversationMember

	failSave       bool
	failCreateConv bool
	failAddMembers bool
	failMarkRead   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages: make(map[string]*database.Message),
		convs:    make(map[string]*database.Conversation),
		members:  make(map[string][]*database.ConversationMember),
	}
}

func (f *fakeStore) SaveMessage(msg *database.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errors.New("save failed")
	}
	cp := *msg
	f.messages[msg.ID] = &cp
	return nil
}

func (f *fakeStore) GetMessage(id string) (*database.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, nil
	}
	cp := *msg
	return &cp, nil
}

func (f *fakeStore) MarkMessageRead(messageID, readerID string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMarkRead {
		return 0, errors.New("mark read failed")
	}
	msg, ok := f.messages[messageID]
	if !ok || msg.ReceiverID != readerID {
		return 0, nil
	}
	msg.IsRead = true
	msg.ReadAt = &at
	return 1, nil
}

func (f *fakeStore) RecentMessages(userA, userB string, limit int) ([]*database.Message, error) {
	return nil, nil
}

func (f *fakeStore) CreateConversation(conv *database.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateConv {
		return errors.New("conversation insert failed")
	}
	cp := *conv
	f.convs[conv.ID] = &cp
	return nil
}

func (f *fakeStore) AddMembers(members []*database.ConversationMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAddMembers {
		return errors.New("member insert failed")
	}
	for _, m := range members {
		cp := *m
		f.members[m.ConversationID] = append(f.members[m.ConversationID], &cp)
	}
	return nil
}

func (f *fakeStore) ListMembers(conversationID string) ([]*database.ConversationMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[conversationID], nil
}

func (f *fakeStore) onlyMessage(t *testing.T) *database.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) != 1 {
		t.Fatalf("stored messages = %d, want 1", len(f.messages))
	}
	for _, msg := range f.messages {
		cp := *msg
		return &cp
	}
	return nil
}

// fakeBlobs records every Put and serves deterministic URLs.
type fakeBlobs struct {
	mu   sync.Mutex
	fail bool
	puts []fakePut
}

type fakePut struct {
	name        string
	contentType string
	data        []byte
}

func (f *fakeBlobs) Put(_ context.Context, name, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("blob store unavailable")
	}
	f.puts = append(f.puts, fakePut{name: name, contentType: contentType, data: data})
	return "/files/" + name, nil
}

func newTestHub(store *fakeStore, blobs *fakeBlobs) *Hub {
	return NewHub(Options{
		Store:    store,
		Presence: database.NewMemPresenceCache(),
		Blobs:    blobs,
		Logger:   zerolog.Nop(),
	})
}

func login(t *testing.T, h *Hub, userID string) *stubSession {
	t.Helper()
	s := newStubSession("")
	err := h.Dispatch(s, wire.NewEvent(wire.KindLogin, &wire.Login{UserID: userID}))
	require.NoError(t, err)
	require.Equal(t, userID, s.UserID())
	return s
}

func TestLoginBroadcastsOnlineSet(t *testing.T) {
	h := newTestHub(newFakeStore(), &fakeBlobs{})

	alice := login(t, h, "alice")
	broadcasts := alice.eventsOf(wire.KindOnlineUsers)
	require.Len(t, broadcasts, 1)
	assert.Equal(t, []string{"alice"}, broadcasts[0].Body.(*wire.OnlineUsers).Users)

	bob := login(t, h, "bob")
	broadcasts = alice.eventsOf(wire.KindOnlineUsers)
	require.Len(t, broadcasts, 2)
	assert.Equal(t, []string{"alice", "bob"}, broadcasts[1].Body.(*wire.OnlineUsers).Users)
	require.Len(t, bob.eventsOf(wire.KindOnlineUsers), 1)

	h.HandleDisconnect(bob)
	broadcasts = alice.eventsOf(wire.KindOnlineUsers)
	require.Len(t, broadcasts, 3)
	assert.Equal(t, []string{"alice"}, broadcasts[2].Body.(*wire.OnlineUsers).Users)
}

func TestRelogReplacesOldConnection(t *testing.T) {
	h := newTestHub(newFakeStore(), &fakeBlobs{})

	first := login(t, h, "alice")
	second := login(t, h, "alice")

	first.mu.Lock()
	kicked := len(first.kicked)
	first.mu.Unlock()
	assert.Equal(t, 1, kicked, "superseded connection must be kicked")

	got, ok := h.Registry().Resolve("alice")
	require.True(t, ok)
	assert.Same(t, second, got)

	// The superseded connection's disconnect arrives after the new
	// login; alice must stay online.
	h.HandleDisconnect(first)
	_, ok = h.Registry().Resolve("alice")
	assert.True(t, ok)
	online, err := h.presence.OnlineClients()
	require.NoError(t, err)
	assert.Contains(t, online, "alice")
}

func TestRelogAsDifferentUserReleasesOldIdentity(t *testing.T) {
	h := newTestHub(newFakeStore(), &fakeBlobs{})

	s := login(t, h, "alice")
	require.NoError(t, h.Dispatch(s, wire.NewEvent(wire.KindLogin, &wire.Login{UserID: "bob"})))
	require.Equal(t, "bob", s.UserID())

	// The old identity must not survive the rebind.
	assert.Equal(t, []string{"bob"}, h.Registry().Online())
	_, ok := h.Registry().Resolve("alice")
	assert.False(t, ok)
	online, err := h.presence.OnlineClients()
	require.NoError(t, err)
	assert.NotContains(t, online, "alice")

	h.HandleDisconnect(s)
	assert.Empty(t, h.Registry().Online())
	online, err = h.presence.OnlineClients()
	require.NoError(t, err)
	assert.Empty(t, online)
}

func TestDisconnectBeforeLogin(t *testing.T) {
	h := newTestHub(newFakeStore(), &fakeBlobs{})
	alice := login(t, h, "alice")

	h.HandleDisconnect(newStubSession(""))

	// No broadcast beyond alice's own login.
	assert.Len(t, alice.eventsOf(wire.KindOnlineUsers), 1)
}

func TestDispatchRequiresLogin(t *testing.T) {
	store := newFakeStore()
	h := newTestHub(store, &fakeBlobs{})

	s := newStubSession("")
	err := h.Dispatch(s, wire.NewEvent(wire.KindMessageSend, &wire.ChatMessage{
		SenderID: "alice", ReceiverID: "bob", Content: "hi",
	}))
	assert.ErrorIs(t, err, errLoginRequired)
	require.Len(t, s.eventsOf(wire.KindMessageError), 1)
	assert.Empty(t, store.messages)
}

func TestSendMessageBothOnline(t *testing.T) {
	store := newFakeStore()
	h := newTestHub(store, &fakeBlobs{})
	alice := login(t, h, "alice")
	bob := login(t, h, "bob")

	err := h.Dispatch(alice, wire.NewEvent(wire.KindMessageSend, &wire.ChatMessage{
		SenderID: "alice", ReceiverID: "bob", Content: "hello", ConversationID: "c1",
	}))
	require.NoError(t, err)

	stored := store.onlyMessage(t)
	assert.Equal(t, "alice", stored.SenderID)
	assert.Equal(t, "bob", stored.ReceiverID)
	assert.Equal(t, "hello", stored.Content)
	assert.False(t, stored.IsRead)

	acks := alice.eventsOf(wire.KindMessageSent)
	require.Len(t, acks, 1)
	pushes := bob.eventsOf(wire.KindMessageReceive)
	require.Len(t, pushes, 1)

	// Ack and push carry the same payload, id and timestamp included.
	assert.Same(t, acks[0].Body, pushes[0].Body)
	assert.Equal(t, stored.ID, acks[0].Body.(*wire.Message).ID)
}

func TestSendMessageOfflineReceiver(t *testing.T) {
	store := newFakeStore()
	h := newTestHub(store, &fakeBlobs{})
	alice := login(t, h, "alice")

	err := h.Dispatch(alice, wire.NewEvent(wire.KindMessageSend, &wire.ChatMessage{
		SenderID: "alice", ReceiverID: "bob", Content: "you there?",
	}))
	require.NoError(t, err)

	// Persisted and acknowledged; the offline receiver is not an error.
	store.onlyMessage(t)
	assert.Len(t, alice.eventsOf(wire.KindMessageSent), 1)
	assert.Empty(t, alice.eventsOf(wire.KindMessageError))
}

func TestSendMessagePersistFailure(t *testing.T) {
	store := newFakeStore()
	store.failSave = true
	h := newTestHub(store, &fakeBlobs{})
	alice := login(t, h, "alice")
	bob := login(t, h, "bob")

	err := h.Dispatch(alice, wire.NewEvent(wire.KindMessageSend, &wire.ChatMessage{
		SenderID: "alice", ReceiverID: "bob", Content: "hello",
	}))
	require.NoError(t, err)

	assert.Len(t, alice.eventsOf(wire.KindMessageError), 1)
	assert.Empty(t, alice.eventsOf(wire.KindMessageSent))
	assert.Empty(t, bob.eventsOf(wire.KindMessageReceive))
}

func TestTypingForwardedNotPersisted(t *testing.T) {
	store := newFakeStore()
	h := newTestHub(store, &fakeBlobs{})
	alice := login(t, h, "alice")
	bob := login(t, h, "bob")

	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindTypingStart,
		&wire.Typing{SenderID: "alice", ReceiverID: "bob"})))
	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindTypingStop,
		&wire.Typing{SenderID: "alice", ReceiverID: "bob"})))

	starts := bob.eventsOf(wire.KindTypingStart)
	require.Len(t, starts, 1)
	assert.Equal(t, "alice", starts[0].Body.(*wire.Typing).SenderID)
	assert.Len(t, bob.eventsOf(wire.KindTypingStop), 1)
	assert.Empty(t, store.messages)
}

func TestTypingOfflineReceiverIsSilent(t *testing.T) {
	h := newTestHub(newFakeStore(), &fakeBlobs{})
	alice := login(t, h, "alice")

	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindTypingStart,
		&wire.Typing{SenderID: "alice", ReceiverID: "nobody"})))
	assert.Empty(t, alice.eventsOf(wire.KindMessageError))
}

func TestMarkReadNotifiesSender(t *testing.T) {
	store := newFakeStore()
	h := newTestHub(store, &fakeBlobs{})
	alice := login(t, h, "alice")
	bob := login(t, h, "bob")

	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindMessageSend, &wire.ChatMessage{
		SenderID: "alice", ReceiverID: "bob", Content: "hello",
	})))
	msgID := store.onlyMessage(t).ID

	require.NoError(t, h.Dispatch(bob, wire.NewEvent(wire.KindMessageRead,
		&wire.MarkRead{MessageID: msgID, UserID: "bob"})))

	stored, err := store.GetMessage(msgID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
	require.NotNil(t, stored.ReadAt)

	receipts := alice.eventsOf(wire.KindMessageRead)
	require.Len(t, receipts, 1)
	receipt := receipts[0].Body.(*wire.ReadReceipt)
	assert.Equal(t, msgID, receipt.MessageID)
	assert.Equal(t, "bob", receipt.ReadBy)
}

func TestMarkReadByNonReceiverIsRejected(t *testing.T) {
	store := newFakeStore()
	h := newTestHub(store, &fakeBlobs{})
	alice := login(t, h, "alice")
	login(t, h, "bob")
	charlie := login(t, h, "charlie")

	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindMessageSend, &wire.ChatMessage{
		SenderID: "alice", ReceiverID: "bob", Content: "hello",
	})))
	msgID := store.onlyMessage(t).ID

	require.NoError(t, h.Dispatch(charlie, wire.NewEvent(wire.KindMessageRead,
		&wire.MarkRead{MessageID: msgID, UserID: "charlie"})))

	stored, err := store.GetMessage(msgID)
	require.NoError(t, err)
	assert.False(t, stored.IsRead, "a third party must not flip the flag")
	assert.Empty(t, alice.eventsOf(wire.KindMessageRead))
	assert.Empty(t, charlie.eventsOf(wire.KindMessageError))
}

func TestMarkReadAbsentMessage(t *testing.T) {
	h := newTestHub(newFakeStore(), &fakeBlobs{})
	bob := login(t, h, "bob")

	require.NoError(t, h.Dispatch(bob, wire.NewEvent(wire.KindMessageRead,
		&wire.MarkRead{MessageID: "no-such-message", UserID: "bob"})))
	assert.Empty(t, bob.eventsOf(wire.KindMessageError))
}

func TestMarkReadStoreFailureIsSwallowed(t *testing.T) {
	store := newFakeStore()
	h := newTestHub(store, &fakeBlobs{})
	alice := login(t, h, "alice")
	bob := login(t, h, "bob")

	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindMessageSend, &wire.ChatMessage{
		SenderID: "alice", ReceiverID: "bob", Content: "hello",
	})))
	msgID := store.onlyMessage(t).ID

	store.failMarkRead = true
	require.NoError(t, h.Dispatch(bob, wire.NewEvent(wire.KindMessageRead,
		&wire.MarkRead{MessageID: msgID, UserID: "bob"})))

	assert.Empty(t, bob.eventsOf(wire.KindMessageError))
	assert.Empty(t, alice.eventsOf(wire.KindMessageRead))
}

func TestCreateGroup(t *testing.T) {
	store := newFakeStore()
	h := newTestHub(store, &fakeBlobs{})
	alice := login(t, h, "alice")
	bob := login(t, h, "bob")
	// carol stays offline; she joins the group without an invite event.

	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindGroupCreate, &wire.GroupCreate{
		CreatorID: "alice",
		Name:      "weekend plans",
		MemberIDs: []string{"bob", "carol", "bob", "alice"},
	})))

	created := alice.eventsOf(wire.KindGroupCreated)
	require.Len(t, created, 1)
	conv := created[0].Body.(*wire.GroupCreated)
	assert.True(t, conv.Conversation.IsGroup)
	assert.Equal(t, "alice", conv.Conversation.CreatorID)
	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, conv.Members)

	members, err := store.ListMembers(conv.Conversation.ID)
	require.NoError(t, err)
	require.Len(t, members, 3, "duplicates and the creator collapse to one row each")

	roles := make(map[string]string, len(members))
	for _, m := range members {
		roles[m.UserID] = m.Role
	}
	assert.Equal(t, database.RoleAdmin, roles["alice"])
	assert.Equal(t, database.RoleMember, roles["bob"])
	assert.Equal(t, database.RoleMember, roles["carol"])

	invites := bob.eventsOf(wire.KindGroupInvited)
	require.Len(t, invites, 1)
	invite := invites[0].Body.(*wire.GroupInvite)
	assert.Equal(t, conv.Conversation.ID, invite.ConversationID)
	assert.Equal(t, "weekend plans", invite.Name)
	assert.Equal(t, "alice", invite.InvitedBy)
}

func TestCreateGroupConversationFailure(t *testing.T) {
	store := newFakeStore()
	store.failCreateConv = true
	h := newTestHub(store, &fakeBlobs{})
	alice := login(t, h, "alice")

	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindGroupCreate, &wire.GroupCreate{
		CreatorID: "alice", Name: "doomed", MemberIDs: []string{"bob"},
	})))

	require.Len(t, alice.eventsOf(wire.KindGroupCreateError), 1)
	assert.Empty(t, alice.eventsOf(wire.KindGroupCreated))
	assert.Empty(t, store.members)
}

func TestCreateGroupMembershipFailure(t *testing.T) {
	store := newFakeStore()
	store.failAddMembers = true
	h := newTestHub(store, &fakeBlobs{})
	alice := login(t, h, "alice")
	bob := login(t, h, "bob")

	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindGroupCreate, &wire.GroupCreate{
		CreatorID: "alice", Name: "half made", MemberIDs: []string{"bob"},
	})))

	require.Len(t, alice.eventsOf(wire.KindGroupCreateError), 1)
	assert.Empty(t, alice.eventsOf(wire.KindGroupCreated))
	assert.Empty(t, bob.eventsOf(wire.KindGroupInvited))
	// The conversation row stays; there is no rollback across calls.
	assert.Len(t, store.convs, 1)
}

func TestFileUpload(t *testing.T) {
	store := newFakeStore()
	blobs := &fakeBlobs{}
	h := newTestHub(store, blobs)
	alice := login(t, h, "alice")
	bob := login(t, h, "bob")

	payload := []byte("quarterly report contents")
	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindFileUpload, &wire.FileUpload{
		SenderID:   "alice",
		ReceiverID: "bob",
		FileName:   "report.pdf",
		MimeType:   "application/pdf",
		Data:       base64.StdEncoding.EncodeToString(payload),
	})))

	blobs.mu.Lock()
	require.Len(t, blobs.puts, 1)
	assert.Equal(t, payload, blobs.puts[0].data)
	assert.Equal(t, "application/pdf", blobs.puts[0].contentType)
	blobs.mu.Unlock()

	stored := store.onlyMessage(t)
	assert.Equal(t, "📎 report.pdf", stored.Content)
	assert.Equal(t, "/files/report.pdf", stored.FileURL)
	assert.Equal(t, "application/pdf", stored.FileType)

	require.Len(t, alice.eventsOf(wire.KindMessageSent), 1)
	pushes := bob.eventsOf(wire.KindMessageReceive)
	require.Len(t, pushes, 1)
	assert.Equal(t, "/files/report.pdf", pushes[0].Body.(*wire.Message).FileURL)
}

func TestFileUploadDataURL(t *testing.T) {
	store := newFakeStore()
	blobs := &fakeBlobs{}
	h := newTestHub(store, blobs)
	alice := login(t, h, "alice")

	payload := []byte{0x89, 'P', 'N', 'G'}
	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindFileUpload, &wire.FileUpload{
		SenderID:   "alice",
		ReceiverID: "bob",
		FileName:   "pic.png",
		MimeType:   "image/png",
		Data:       "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload),
	})))

	blobs.mu.Lock()
	require.Len(t, blobs.puts, 1)
	assert.Equal(t, payload, blobs.puts[0].data)
	blobs.mu.Unlock()
}

func TestFileUploadBadPayload(t *testing.T) {
	store := newFakeStore()
	h := newTestHub(store, &fakeBlobs{})
	alice := login(t, h, "alice")

	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindFileUpload, &wire.FileUpload{
		SenderID: "alice", ReceiverID: "bob", FileName: "x.bin", Data: "%%not-base64%%",
	})))

	require.Len(t, alice.eventsOf(wire.KindFileUploadError), 1)
	assert.Empty(t, store.messages)
}

func TestFileUploadBlobFailure(t *testing.T) {
	store := newFakeStore()
	h := newTestHub(store, &fakeBlobs{fail: true})
	alice := login(t, h, "alice")

	require.NoError(t, h.Dispatch(alice, wire.NewEvent(wire.KindFileUpload, &wire.FileUpload{
		SenderID: "alice", ReceiverID: "bob", FileName: "x.bin",
		Data: base64.StdEncoding.EncodeToString([]byte("data")),
	})))

	require.Len(t, alice.eventsOf(wire.KindFileUploadError), 1)
	assert.Empty(t, store.messages, "nothing persisted when the upload fails")
}

func signToken(t *testing.T, secret, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestLoginWithToken(t *testing.T) {
	h := NewHub(Options{
		Store:     newFakeStore(),
		Presence:  database.NewMemPresenceCache(),
		Blobs:     &fakeBlobs{},
		JwtSecret: "topsecret",
		Logger:    zerolog.Nop(),
	})

	s := newStubSession("")
	err := h.Dispatch(s, wire.NewEvent(wire.KindLogin, &wire.Login{
		Token: signToken(t, "topsecret", "alice"),
	}))
	require.NoError(t, err)
	assert.Equal(t, "alice", s.UserID())
	_, ok := h.Registry().Resolve("alice")
	assert.True(t, ok)
}

func TestLoginWithBadToken(t *testing.T) {
	h := NewHub(Options{
		Store:     newFakeStore(),
		Presence:  database.NewMemPresenceCache(),
		Blobs:     &fakeBlobs{},
		JwtSecret: "topsecret",
		Logger:    zerolog.Nop(),
	})

	s := newStubSession("")
	err := h.Dispatch(s, wire.NewEvent(wire.KindLogin, &wire.Login{
		Token: signToken(t, "wrongsecret", "alice"),
	}))
	require.NoError(t, err)
	assert.Empty(t, s.UserID())
	require.Len(t, s.eventsOf(wire.KindMessageError), 1)
	_, ok := h.Registry().Resolve("alice")
	assert.False(t, ok)

	// The declared userId is ignored once a secret is configured.
	err = h.Dispatch(s, wire.NewEvent(wire.KindLogin, &wire.Login{UserID: "alice"}))
	require.NoError(t, err)
	assert.Empty(t, s.UserID())
}

func TestCloseKicksEveryone(t *testing.T) {
	h := newTestHub(newFakeStore(), &fakeBlobs{})
	alice := login(t, h, "alice")
	bob := login(t, h, "bob")

	h.Close()

	for _, s := range []*stubSession{alice, bob} {
		s.mu.Lock()
		kicked := len(s.kicked)
		s.mu.Unlock()
		assert.Equal(t, 1, kicked)
	}
}

func TestCheckOrigin(t *testing.T) {
	newRequest := func(origin string) *http.Request {
		r, err := http.NewRequest(http.MethodGet, "/ws", nil)
		require.NoError(t, err)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	h := NewHub(Options{
		Store:    newFakeStore(),
		Presence: database.NewMemPresenceCache(),
		Blobs:    &fakeBlobs{},
		Origin:   "https://app.example.com, https://admin.example.com",
		Logger:   zerolog.Nop(),
	})

	assert.True(t, h.upgrader.CheckOrigin(newRequest("https://app.example.com")))
	assert.True(t, h.upgrader.CheckOrigin(newRequest("https://admin.example.com")))
	// Substrings of an allowed origin are not allowed origins.
	assert.False(t, h.upgrader.CheckOrigin(newRequest("example.com")))
	assert.False(t, h.upgrader.CheckOrigin(newRequest("https://app.example.com.evil.io")))
	assert.False(t, h.upgrader.CheckOrigin(newRequest("e")))
	// Non-browser clients send no Origin header.
	assert.True(t, h.upgrader.CheckOrigin(newRequest("")))

	open := NewHub(Options{
		Store:    newFakeStore(),
		Presence: database.NewMemPresenceCache(),
		Blobs:    &fakeBlobs{},
		Origin:   "*",
		Logger:   zerolog.Nop(),
	})
	assert.True(t, open.upgrader.CheckOrigin(newRequest("https://anywhere.io")))
}

func TestBestEffortDelivery(t *testing.T) {
	r := NewRegistry()
	d := &BestEffortDelivery{Registry: r}

	ev := wire.NewEvent(wire.KindTypingStart, &wire.Typing{SenderID: "alice"})
	assert.False(t, d.Deliver("bob", ev), "offline target is skipped, not an error")

	bob := newStubSession("bob")
	r.Register(bob)
	assert.True(t, d.Deliver("bob", ev))
	require.Len(t, bob.eventsOf(wire.KindTypingStart), 1)
}
