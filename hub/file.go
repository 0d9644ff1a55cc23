package hub

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/fahad90fa/oneverse-sub000/database"
	"github.com/fahad90fa/oneverse-sub000/metrics"
	"github.com/fahad90fa/oneverse-sub000/wire"
)

// decodePayload accepts a bare base64 string or a data URL
// ("data:image/png;base64,...") and returns the raw bytes.
func decodePayload(data string) ([]byte, error) {
	if idx := strings.Index(data, ";base64,"); idx >= 0 {
		data = data[idx+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(data)
}

// sendFile uploads an inline file payload to blob storage, persists a
// message referencing it and delivers it like any direct message: ack to
// the sender, push to the receiver when connected. The payload itself is
// opaque; no inspection beyond base64 decoding.
func (h *Hub) sendFile(src Session, body *wire.FileUpload) {
	fail := func(reason string) {
		src.SendEvent(wire.NewEvent(wire.KindFileUploadError,
			&wire.ErrorReply{Error: reason}))
	}

	data, err := decodePayload(body.Data)
	if err != nil {
		h.log.Warn().Err(err).Str("sender", body.SenderID).Msg("file payload not base64")
		fail("file payload is not valid base64")
		return
	}

	url, err := h.blobs.Put(context.Background(), body.FileName, body.MimeType, data)
	if err != nil {
		h.log.Error().Err(err).Str("file", body.FileName).Msg("file upload failed")
		fail("file could not be stored")
		return
	}
	metrics.FilesUploaded.Inc()

	msg := &database.Message{
		ID:             newMessageID(),
		ConversationID: body.ConversationID,
		SenderID:       body.SenderID,
		ReceiverID:     body.ReceiverID,
		Content:        "📎 " + body.FileName,
		FileURL:        url,
		FileType:       body.MimeType,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.store.SaveMessage(msg); err != nil {
		metrics.StoreErrors.WithLabelValues("save_message").Inc()
		h.log.Error().Err(err).Str("sender", body.SenderID).Msg("file message save failed")
		fail("file message could not be saved")
		return
	}
	metrics.MessagesStored.WithLabelValues("file").Inc()

	out := messagePayload(msg)
	src.SendEvent(wire.NewEvent(wire.KindMessageSent, out))
	h.deliver.Deliver(msg.ReceiverID, wire.NewEvent(wire.KindMessageReceive, out))
}
