package event

// Action describes how a subscriber should react to an event.
type Action string

const (
	// ActionReload tells subscribers to refetch the entity.
	ActionReload Action = "reload"
	// ActionPatch carries an incremental payload, e.g. appended stream text.
	ActionPatch Action = "patch"
	// ActionError is an ephemeral notification that is never persisted.
	ActionError Action = "error"
)

// Event is one change notification fanned out to subscribers of its key.
type Event struct {
	Key    Key                    `json:"key"`
	Action Action                 `json:"action"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// Publisher delivers events to whoever is subscribed to the key. Publishing
// to a key nobody watches is a no-op; Publish never blocks the caller.
type Publisher interface {
	Publish(evt Event)
}

// NopPublisher discards all events. Useful when the hub is not wired,
// e.g. in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

var _ Publisher = NopPublisher{}
