package domain

import "time"

// AuditAction is the category of a recorded mutation.
type AuditAction string

const (
	ActionCreated  AuditAction = "Created"
	ActionUpdated  AuditAction = "Updated"
	ActionDeleted  AuditAction = "Deleted"
	ActionRestored AuditAction = "Restored"
)

// AuditEntry is one immutable line in the mutation ledger. Entries are only
// ever appended: this subsystem never updates or deletes them.
type AuditEntry struct {
	ID       string      `json:"id" bson:"_id,omitempty"`
	Date     time.Time   `json:"date" bson:"date"`
	User     string      `json:"user" bson:"user"`
	Action   AuditAction `json:"action" bson:"action"`
	Details  string      `json:"details" bson:"details"`
	RecordID string      `json:"record_id,omitempty" bson:"record_id,omitempty"`
}
