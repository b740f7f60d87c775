// Package event defines the typed change-notification contract between the
// write path and the realtime hub.
package event

import (
	"fmt"
	"strings"
)

// EntityType tags the kinds of objects clients can subscribe to.
type EntityType string

const (
	EntityConversation EntityType = "Conversation"
	EntityMessage      EntityType = "Message"
	EntityDocument     EntityType = "Document"
	EntityAgent        EntityType = "Agent"
)

// Key identifies one subscribable object, optionally narrowed to a field.
// The wire form is "Type:id" or "Type:id:field".
type Key struct {
	Type  EntityType
	ID    string
	Field string
}

// String renders the wire form of the key.
func (k Key) String() string {
	if k.Field == "" {
		return fmt.Sprintf("%s:%s", k.Type, k.ID)
	}
	return fmt.Sprintf("%s:%s:%s", k.Type, k.ID, k.Field)
}

// Entity returns the key without its field suffix.
func (k Key) Entity() Key {
	return Key{Type: k.Type, ID: k.ID}
}

// ParseKey parses the wire form. Unknown entity types are rejected so that
// free-form strings never become live subscriptions.
func ParseKey(raw string) (Key, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Key{}, fmt.Errorf("malformed entity key %q", raw)
	}

	entityType := EntityType(parts[0])
	switch entityType {
	case EntityConversation, EntityMessage, EntityDocument, EntityAgent:
	default:
		return Key{}, fmt.Errorf("unknown entity type %q", parts[0])
	}

	key := Key{Type: entityType, ID: parts[1]}
	if len(parts) == 3 {
		if parts[2] == "" {
			return Key{}, fmt.Errorf("malformed entity key %q", raw)
		}
		key.Field = parts[2]
	}
	return key, nil
}
