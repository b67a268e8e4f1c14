package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Filters narrows which events a subscriber receives beyond its trip and
// event-type sets.
type Filters struct {
	// MinConfidence drops bite reports below this confidence.
	MinConfidence int `json:"min_confidence"`
	// AlertsOnly drops weather updates, keeping only weather alerts.
	AlertsOnly bool `json:"alerts_only"`
}

type Subscriber struct {
	ID   string
	Send chan []byte

	// Guarded by the hub mutex. Empty set means "all".
	trips   map[string]struct{}
	types   map[string]struct{}
	filters Filters
}

// Adjustment mutates a live subscription without reconnecting.
type Adjustment struct {
	AddTrips      []string `json:"add_trips,omitempty"`
	RemoveTrips   []string `json:"remove_trips,omitempty"`
	AddTypes      []string `json:"add_types,omitempty"`
	RemoveTypes   []string `json:"remove_types,omitempty"`
	MinConfidence *int     `json:"min_confidence,omitempty"`
	AlertsOnly    *bool    `json:"alerts_only,omitempty"`
}

// Hub owns the subscriber registry and fans trip events out to every
// matching subscriber. Delivery is best-effort: a subscriber that cannot
// keep up is dropped, and nothing the hub does propagates back to the
// booking path.
type Hub struct {
	id    string
	redis *redis.Client

	mu   sync.Mutex
	subs map[string]*Subscriber

	heartbeat time.Duration
	done      chan struct{}
	closed    bool
}

func NewHub(redisClient *redis.Client, heartbeat time.Duration) *Hub {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	h := &Hub{
		id:        uuid.NewString(),
		redis:     redisClient,
		subs:      map[string]*Subscriber{},
		heartbeat: heartbeat,
		done:      make(chan struct{}),
	}

	go h.heartbeatLoop()
	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(tripIDs, eventTypes []string, f Filters) *Subscriber {
	sub := &Subscriber{
		ID:      uuid.NewString(),
		Send:    make(chan []byte, 64),
		trips:   toSet(tripIDs),
		types:   toSet(eventTypes),
		filters: f,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.Send)
		return sub
	}
	h.subs[sub.ID] = sub
	return sub
}

func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub.ID)
}

// Adjust applies a subscription change to a connected subscriber. Returns
// false when the subscriber is unknown.
func (h *Hub) Adjust(id string, adj Adjustment) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[id]
	if !ok {
		return false
	}
	for _, t := range adj.AddTrips {
		sub.trips[t] = struct{}{}
	}
	for _, t := range adj.RemoveTrips {
		delete(sub.trips, t)
	}
	for _, t := range adj.AddTypes {
		sub.types[t] = struct{}{}
	}
	for _, t := range adj.RemoveTypes {
		delete(sub.types, t)
	}
	if adj.MinConfidence != nil {
		sub.filters.MinConfidence = *adj.MinConfidence
	}
	if adj.AlertsOnly != nil {
		sub.filters.AlertsOnly = *adj.AlertsOnly
	}
	return true
}

// Broadcast delivers the event to every matching subscriber and returns how
// many were notified. A subscriber whose buffer is full counts as dead and
// is removed instead of blocking the caller.
func (h *Hub) Broadcast(ev Event) int {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("stream: marshal event: %v", err)
		return 0
	}

	notified := h.deliver(ev, payload)

	if h.redis != nil {
		env := envelope{Origin: h.id, Event: ev}
		body, _ := json.Marshal(env)
		if err := h.redis.Publish(context.Background(), redisChannel(ev.TripID), body).Err(); err != nil {
			log.Printf("stream: redis publish: %v", err)
		}
	}
	return notified
}

func (h *Hub) deliver(ev Event, payload []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	notified := 0
	for id, sub := range h.subs {
		if !matches(sub, ev) {
			continue
		}
		select {
		case sub.Send <- payload:
			notified++
		default:
			h.removeLocked(id)
		}
	}
	return notified
}

// Close drains the registry and stops the heartbeat. Registered channels
// are closed so transport handlers unwind.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for id := range h.subs {
		h.removeLocked(id)
	}
}

func (h *Hub) removeLocked(id string) {
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.Send)
	}
}

func (h *Hub) heartbeatLoop() {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			payload, _ := json.Marshal(Event{Type: EventHeartbeat, Timestamp: time.Now().UTC()})
			h.mu.Lock()
			for id, sub := range h.subs {
				select {
				case sub.Send <- payload:
				default:
					h.removeLocked(id)
				}
			}
			h.mu.Unlock()
		}
	}
}

type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "trips:*:events")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-h.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			if env.Origin == h.id {
				continue
			}
			payload, _ := json.Marshal(env.Event)
			h.deliver(env.Event, payload)
		}
	}
}

func matches(sub *Subscriber, ev Event) bool {
	if len(sub.trips) > 0 {
		if _, ok := sub.trips[ev.TripID]; !ok {
			return false
		}
	}
	if len(sub.types) > 0 {
		if _, ok := sub.types[ev.Type]; !ok {
			return false
		}
	}
	if ev.Type == EventBiteReport && ev.Confidence < sub.filters.MinConfidence {
		return false
	}
	if ev.Type == EventWeatherUpdate && sub.filters.AlertsOnly {
		return false
	}
	return true
}

func redisChannel(tripID string) string {
	return "trips:" + tripID + ":events"
}

func toSet(values []string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
