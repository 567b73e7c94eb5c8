package events

import (
	"time"
)

// EventType classifies hub events.
type EventType string

const (
	EventTypeMasking      EventType = "masking"
	EventTypeRunStarted   EventType = "run_started"
	EventTypePairCompared EventType = "pair_compared"
	EventTypeRunCompleted EventType = "run_completed"
	EventTypeSystem       EventType = "system"
	EventTypeConnection   EventType = "connection"
)

// Event is one message broadcast to connected clients.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// MaskingEvent reports one masking operation. Only entity types and counts
// are broadcast, never the matched text.
type MaskingEvent struct {
	EntityCounts map[string]int `json:"entity_counts"`
	FromCache    bool           `json:"from_cache"`
	DurationMs   float64        `json:"duration_ms"`
}

// RunEvent reports comparison run progress.
type RunEvent struct {
	RunID         string `json:"run_id,omitempty"`
	DocumentCount int    `json:"document_count,omitempty"`
	SectionCount  int    `json:"section_count,omitempty"`
	PairA         string `json:"pair_a,omitempty"`
	PairB         string `json:"pair_b,omitempty"`
	HasDiff       bool   `json:"has_diff,omitempty"`
	MaskFallback  bool   `json:"mask_fallback,omitempty"`
}

// ConnectionEvent reports client connect and disconnect activity.
type ConnectionEvent struct {
	Action   string `json:"action"`
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip,omitempty"`
}

// ClientMessage is an inbound message from a connected client.
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// SubscriptionRequest narrows which event types a client receives.
type SubscriptionRequest struct {
	Events []EventType `json:"events"`
}

// HubStats tracks hub activity counters.
type HubStats struct {
	TotalConnections  int64     `json:"total_connections"`
	ActiveConnections int64     `json:"active_connections"`
	TotalBroadcasts   int64     `json:"total_broadcasts"`
	LastBroadcastTime time.Time `json:"last_broadcast_time"`
}
