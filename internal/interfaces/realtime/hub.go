// Package realtime fans entity change events out to websocket subscribers.
// Clients declare the full set of entity keys they want to watch; the hub
// keeps their subscription sets in sync and drops slow consumers rather
// than letting them stall the write path.
package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"parley/conversation-api/internal/domain/event"
	"parley/conversation-api/internal/infrastructure/metrics"
)

// Hub maintains the set of active clients and routes events to the clients
// subscribed to each key. All subscription state is owned by the Run loop,
// so no locks are needed.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	sync       chan syncRequest
	events     chan event.Event

	clients       map[*Client]struct{}
	subscriptions map[string]map[*Client]struct{}

	authorizer *Authorizer
	log        zerolog.Logger
}

// syncRequest carries a client's desired subscription set: authorized
// entity keys mapped to the client's local alias for each.
type syncRequest struct {
	client *Client
	keys   map[string]string
}

// wireEvent is the JSON frame delivered to subscribers. Alias is whatever
// name the client bound the key to in its last sync.
type wireEvent struct {
	Key       string                 `json:"key"`
	Alias     string                 `json:"alias,omitempty"`
	Action    event.Action           `json:"action"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func NewHub(authorizer *Authorizer) *Hub {
	return &Hub{
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		sync:          make(chan syncRequest),
		events:        make(chan event.Event, 256),
		clients:       make(map[*Client]struct{}),
		subscriptions: make(map[string]map[*Client]struct{}),
		authorizer:    authorizer,
		log:           log.With().Str("component", "sync_hub").Logger(),
	}
}

// Run is the hub's main loop. It owns all subscription state and exits when
// the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.dropClient(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.RealtimeClients.Set(float64(len(h.clients)))
			h.log.Debug().Int("client_count", len(h.clients)).Msg("Client connected")

		case client := <-h.unregister:
			h.dropClient(client)
			h.log.Debug().Int("client_count", len(h.clients)).Msg("Client disconnected")

		case req := <-h.sync:
			h.applySync(req)

		case evt := <-h.events:
			h.deliver(evt)
		}
	}
}

// Publish hands an event to the hub without blocking the caller. When the
// hub is saturated the event is dropped; subscribers recover on their next
// reload.
func (h *Hub) Publish(evt event.Event) {
	select {
	case h.events <- evt:
	default:
		h.log.Warn().Str("key", evt.Key.String()).Msg("Event queue full, dropping event")
	}
}

var _ event.Publisher = (*Hub)(nil)

// applySync replaces the client's subscription set with the requested one.
// Keys the client is not entitled to were already filtered out.
func (h *Hub) applySync(req syncRequest) {
	if _, ok := h.clients[req.client]; !ok {
		return
	}

	for keyStr := range req.client.keys {
		if _, keep := req.keys[keyStr]; !keep {
			h.removeSubscription(req.client, keyStr)
		}
	}
	for keyStr, alias := range req.keys {
		if _, has := req.client.keys[keyStr]; !has {
			subscribers, ok := h.subscriptions[keyStr]
			if !ok {
				subscribers = make(map[*Client]struct{})
				h.subscriptions[keyStr] = subscribers
			}
			subscribers[req.client] = struct{}{}
		}
		// Aliases may be rebound without resubscribing.
		req.client.keys[keyStr] = alias
	}
}

// deliver routes the event to exact-key subscribers and, for field-scoped
// events, to subscribers of the bare entity as well. Frames are marshalled
// per subscriber because each carries that client's alias for the key.
func (h *Hub) deliver(evt event.Event) {
	targets := []string{evt.Key.String()}
	if evt.Key.Field != "" {
		targets = append(targets, evt.Key.Entity().String())
	}
	now := time.Now().UTC()

	delivered := 0
	for _, target := range targets {
		for client := range h.subscriptions[target] {
			frame, err := json.Marshal(wireEvent{
				Key:       evt.Key.String(),
				Alias:     client.keys[target],
				Action:    evt.Action,
				Data:      evt.Data,
				Timestamp: now,
			})
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to marshal event")
				return
			}
			select {
			case client.send <- frame:
				delivered++
			default:
				// Slow consumer: cut it loose instead of blocking the
				// fan-out. It reconnects and resyncs.
				h.dropClient(client)
			}
		}
	}
	if delivered > 0 {
		metrics.RealtimeEventsTotal.WithLabelValues(string(evt.Key.Type), string(evt.Action)).Add(float64(delivered))
	}
}

func (h *Hub) dropClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	for keyStr := range client.keys {
		h.removeSubscription(client, keyStr)
	}
	delete(h.clients, client)
	close(client.send)
	metrics.RealtimeClients.Set(float64(len(h.clients)))
}

func (h *Hub) removeSubscription(client *Client, keyStr string) {
	delete(client.keys, keyStr)
	if subscribers, ok := h.subscriptions[keyStr]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.subscriptions, keyStr)
		}
	}
}
