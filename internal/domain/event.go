package domain

// EventKind is the type of a change notification.
type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventDelete EventKind = "DELETE"
)

// ChangeEvent is a single notification delivered by the change feed.
// Record is set for inserts; deletes only carry the ID (and Owner).
type ChangeEvent struct {
	Kind   EventKind `json:"type"`
	ID     string    `json:"id"`
	Owner  string    `json:"user_id"`
	Record *Bookmark `json:"record,omitempty"`
}

// InsertEvent builds the notification for a persisted bookmark.
func InsertEvent(b Bookmark) ChangeEvent {
	rec := b
	return ChangeEvent{Kind: EventInsert, ID: b.ID, Owner: b.Owner, Record: &rec}
}

// DeleteEvent builds the notification for a removed bookmark.
func DeleteEvent(id, owner string) ChangeEvent {
	return ChangeEvent{Kind: EventDelete, ID: id, Owner: owner}
}
