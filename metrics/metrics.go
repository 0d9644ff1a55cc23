package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectedClients tracks logged-in websocket connections.
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_connected_clients",
			Help: "Currently connected, logged-in clients",
		},
	)

	// EventsTotal counts inbound events by kind.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_total",
			Help: "Total inbound events",
		},
		[]string{"event"},
	)

	// MessagesStored counts persisted messages.
	MessagesStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_stored_total",
			Help: "Total messages persisted",
		},
		[]string{"kind"}, // "text" or "file"
	)

	// GroupsCreated counts created group conversations.
	GroupsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_groups_created_total",
			Help: "Total group conversations created",
		},
	)

	// StoreErrors counts failed persistence calls by operation.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_store_errors_total",
			Help: "Total failed persistence calls",
		},
		[]string{"op"},
	)

	// PresenceBroadcasts counts online-set broadcasts.
	PresenceBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_presence_broadcasts_total",
			Help: "Total presence broadcasts",
		},
	)

	// FilesUploaded counts relayed file payloads stored durably.
	FilesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_files_uploaded_total",
			Help: "Total file payloads uploaded to blob storage",
		},
	)
)
