package recency

// EventKind describes the most recent lifecycle event observed for an
// identifier. A later event for the same identifier overwrites the earlier
// one, so a tier holds at most one live kind per (entity type, identifier).
type EventKind uint8

const (
	// EventCreated marks an identifier whose instance was recently created.
	EventCreated EventKind = iota + 1
	// EventModified marks an identifier whose instance was recently modified.
	EventModified
	// EventDeleted marks an identifier whose instance was recently deleted.
	// Deleted records act as a mask: queries that still return the identifier
	// from a lagging store should exclude it.
	EventDeleted
)

// String returns a human-readable name for logging.
func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
