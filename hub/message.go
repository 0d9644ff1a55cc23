package hub

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fahad90fa/oneverse-sub000/database"
	"github.com/fahad90fa/oneverse-sub000/metrics"
	"github.com/fahad90fa/oneverse-sub000/wire"
)

func newMessageID() string {
	return ulid.Make().String()
}

// messagePayload mirrors a persisted message onto the wire. The same
// payload backs the sender acknowledgment and the receiver push, so both
// carry identical content and timestamps.
func messagePayload(msg *database.Message) *wire.Message {
	return &wire.Message{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
		Content:        msg.Content,
		FileURL:        msg.FileURL,
		FileType:       msg.FileType,
		IsRead:         msg.IsRead,
		ReadAt:         msg.ReadAt,
		CreatedAt:      msg.CreatedAt,
	}
}

// sendMessage persists a direct message, acknowledges it to the sender
// and pushes it to the receiver when connected. Persistence
// happens-before both emissions; an offline receiver is silent success,
// they will see the message on their next history fetch.
func (h *Hub) sendMessage(src Session, body *wire.ChatMessage) {
	msg := &database.Message{
		ID:             newMessageID(),
		ConversationID: body.ConversationID,
		SenderID:       body.SenderID,
		ReceiverID:     body.ReceiverID,
		Content:        body.Content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.store.SaveMessage(msg); err != nil {
		metrics.StoreErrors.WithLabelValues("save_message").Inc()
		h.log.Error().Err(err).Str("sender", body.SenderID).Msg("message save failed")
		src.SendEvent(wire.NewEvent(wire.KindMessageError,
			&wire.ErrorReply{Error: "message could not be saved"}))
		return
	}
	metrics.MessagesStored.WithLabelValues("text").Inc()

	out := messagePayload(msg)
	src.SendEvent(wire.NewEvent(wire.KindMessageSent, out))
	h.deliver.Deliver(msg.ReceiverID, wire.NewEvent(wire.KindMessageReceive, out))
}

// forwardTyping relays a typing indicator to the receiver if connected.
// Nothing is persisted and nothing is deduplicated; rate limiting is the
// client's job.
func (h *Hub) forwardTyping(kind wire.Kind, body *wire.Typing) {
	h.deliver.Deliver(body.ReceiverID,
		wire.NewEvent(kind, &wire.Typing{SenderID: body.SenderID}))
}

// markRead flips the read flag, conditioned on the reader being the
// message's receiver, then notifies the original sender if connected.
// Read receipts are best effort: every failure here is logged and
// swallowed, never surfaced to the reader.
func (h *Hub) markRead(body *wire.MarkRead) {
	at := time.Now().UTC()

	affected, err := h.store.MarkMessageRead(body.MessageID, body.UserID, at)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("mark_read").Inc()
		h.log.Warn().Err(err).Str("message", body.MessageID).Msg("mark read failed")
		return
	}
	if affected == 0 {
		// Absent message, or a reader that is not the receiver. Either
		// way: no state change, no receipt.
		return
	}

	msg, err := h.store.GetMessage(body.MessageID)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("get_message").Inc()
		h.log.Warn().Err(err).Str("message", body.MessageID).Msg("read receipt lookup failed")
		return
	}
	if msg == nil {
		return
	}

	h.deliver.Deliver(msg.SenderID, wire.NewEvent(wire.KindMessageRead, &wire.ReadReceipt{
		MessageID: msg.ID,
		ReadBy:    body.UserID,
		ReadAt:    at,
	}))
}
