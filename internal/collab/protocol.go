package collab

import (
	"encoding/json"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/geom"
)

type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	Tool        string     `json:"tool,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

// CursorPos is a cursor location in world units.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	ServerSeq int64  `json:"serverSeq"`
}

type DocSyncPayload struct {
	Plan      *document.Plan `json:"plan"`
	ServerSeq int64          `json:"serverSeq"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync = "doc.sync"
	// TypeDocRequest asks the server for a fresh doc.sync.
	TypeDocRequest = "doc.request"

	// Batch message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// Operation types. Each one corresponds to a host mutation callback.
const (
	OpWallCreate    = "wall.create"
	OpWallUpdate    = "wall.update"
	OpWallDelete    = "wall.delete"
	OpOpeningCreate = "opening.create"
	OpOpeningUpdate = "opening.update"
	OpShapeCreate   = "shape.create"
	OpShapePoints   = "shape.points"
	OpItemCreate    = "item.create"
	OpItemUpdate    = "item.update"
	OpRoofCreate    = "roof.create"
	OpRoofUpdate    = "roof.update"
	OpEntityDelete  = "entity.delete"
)

// Operation is a single plan mutation. Exactly one of the entity fields is
// set for create and update operations; deletes carry Kind and ObjectID.
type Operation struct {
	ID        string              `json:"id"`
	Type      string              `json:"type"`
	Timestamp int64               `json:"timestamp"`
	ClientSeq int64               `json:"clientSeq"`
	Kind      document.EntityKind `json:"kind,omitempty"`
	ObjectID  string              `json:"objectId,omitempty"`

	Wall    *document.Wall    `json:"wall,omitempty"`
	Opening *document.Opening `json:"opening,omitempty"`
	Shape   *document.Shape   `json:"shape,omitempty"`
	Item    *document.Item    `json:"item,omitempty"`
	Roof    *document.Roof    `json:"roof,omitempty"`

	// For shape.points
	Points []geom.Point `json:"points,omitempty"`
}

// Batch groups the operations of one user action. A batch applies
// atomically: if any operation fails none of them take effect.
type Batch struct {
	ID         string      `json:"id"`
	Label      string      `json:"label,omitempty"`
	Operations []Operation `json:"operations"`
}

// BatchSubmitPayload is the payload for op.submit messages
type BatchSubmitPayload struct {
	Batch Batch `json:"batch"`
}

// BatchAckPayload is the payload for op.ack messages
type BatchAckPayload struct {
	BatchID         string `json:"batchId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// BatchNackPayload is the payload for op.nack messages
type BatchNackPayload struct {
	BatchID string `json:"batchId"`
	Reason  string `json:"reason"`
}

// BatchBroadcastPayload is the payload for op.broadcast messages
type BatchBroadcastPayload struct {
	Batch     Batch  `json:"batch"`
	UserID    string `json:"userId"`
	ServerSeq int64  `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
