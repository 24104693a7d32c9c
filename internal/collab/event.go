// Package collab implements the realtime collaboration engine: it multiplexes
// live client connections into per-dashboard rooms, tracks ephemeral cursor
// presence, and fans events out to room members. Delivery is best-effort; any
// durable state referenced by an event lives in the external store and the
// event only tells receivers to refetch it.
package collab

import (
	"encoding/json"
	"time"
)

// EventType is the closed set of outbound event types.
type EventType string

const (
	EventUserJoin         EventType = "user:join"
	EventUserLeave        EventType = "user:leave"
	EventCursorMove       EventType = "cursor:move"
	EventDashboardUpdate  EventType = "dashboard:update"
	EventAnnotationAdd    EventType = "annotation:add"
	EventAnnotationDelete EventType = "annotation:delete"
)

// Inbound action names, matching the client protocol.
const (
	ActionJoinDashboard    = "join:dashboard"
	ActionLeaveDashboard   = "leave:dashboard"
	ActionCursorMove       = "cursor:move"
	ActionDashboardUpdate  = "dashboard:update"
	ActionAnnotationAdd    = "annotation:add"
	ActionAnnotationDelete = "annotation:delete"
)

// Event is the unit delivered to room members. SenderConnID is always stamped
// by the server so receivers can ignore their own echoes. For annotation
// events Data is empty: the broadcast is a refetch signal, not the payload of
// record.
type Event struct {
	Type         EventType       `json:"type"`
	DashboardID  int64           `json:"dashboardId"`
	SenderConnID string          `json:"senderConnectionId,omitempty"`
	UserID       int64           `json:"userId,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	X            float64         `json:"x,omitempty"`
	Y            float64         `json:"y,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// ClientMessage is one inbound action from a client. Fields beyond Type are
// action-specific; unknown actions are ignored.
type ClientMessage struct {
	Type        string          `json:"type"`
	DashboardID int64           `json:"dashboardId"`
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	Data        json.RawMessage `json:"data,omitempty"`
}
