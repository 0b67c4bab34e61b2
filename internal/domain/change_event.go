package domain

import "encoding/json"

// ChangeKind 变更事件类型
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// Collection names used for change streams and refresh bookkeeping.
const (
	CollectionBookings = "bookings"
	CollectionServices = "services"
	CollectionPatients = "patients"
	CollectionRecords  = "records"
)

// ChangeEvent is the push notification emitted when a remote collection
// changed. Insert/Update carry the full entity as JSON; Delete carries only
// the deleted identifier. Receivers do not patch the single record: any
// event triggers a full refetch of all collections.
type ChangeEvent struct {
	EventID    string          `json:"event_id"`
	Collection string          `json:"collection"`
	Kind       ChangeKind      `json:"kind"`
	Entity     json.RawMessage `json:"entity,omitempty"`
	DeletedID  string          `json:"deleted_id,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}
