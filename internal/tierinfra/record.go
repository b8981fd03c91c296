package tierinfra

import (
	"strings"
	"time"

	"github.com/goliatone/go-consistency/recency"
)

// KeySeparator delimits the segments of a tier key.
const KeySeparator = "::"

const keyPrefix = "recency"

// record is the physical form of one recency entry. The expiry deadline is
// carried in the record because entity types configure individual TTLs while
// the backends only support a cache-wide one; reads drop records past their
// deadline regardless of whether the backend has evicted them yet.
type record struct {
	Kind      recency.EventKind
	ExpiresAt time.Time
}

func (r record) expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// tierKey builds the storage key for one (entity type, identifier) pair,
// e.g. "recency::user::42".
func tierKey(entityType, id string) string {
	return keyPrefix + KeySeparator + escapeType(entityType) + KeySeparator + id
}

// typePrefix is the shared prefix of every key belonging to an entity type.
func typePrefix(entityType string) string {
	return keyPrefix + KeySeparator + escapeType(entityType) + KeySeparator
}

// escapeType percent-encodes separator characters in the entity type segment
// so a type name containing the separator (possible through a custom
// EntityNamer) cannot collide with another type's prefix. The identifier
// segment is the tail of the key and needs no escaping.
func escapeType(entityType string) string {
	if !strings.ContainsAny(entityType, ":%") {
		return entityType
	}
	entityType = strings.ReplaceAll(entityType, "%", "%25")
	return strings.ReplaceAll(entityType, ":", "%3A")
}

// idFromKey strips the type prefix from a storage key, returning the raw
// identifier. The identifier segment may itself contain the separator, so
// only the prefix is split off.
func idFromKey(key, prefix string) (string, bool) {
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return key[len(prefix):], true
}
