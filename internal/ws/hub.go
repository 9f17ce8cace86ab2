package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// EventSnapshot is the first event a display receives: the kitchen's current
// orders.
const EventSnapshot = "kitchen.snapshot"

// Event is one message pushed to kitchen displays.
type Event struct {
	Type    string          `json:"type"`
	Kitchen string          `json:"kitchen"`
	Payload json.RawMessage `json:"payload"`
}

type kitchenEvent struct {
	kitchen string
	event   Event
}

// Hub fans events out to the displays subscribed to each kitchen.
type Hub struct {
	// Registered clients by kitchen label
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *kitchenEvent

	// Builds the EventSnapshot payload for a joining display
	snapshot func(kitchen string) any

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *kitchenEvent, 256),
	}
}

// SetSnapshot installs the builder of the EventSnapshot payload. Call it
// before serving connections.
func (h *Hub) SetSnapshot(fn func(kitchen string) any) {
	h.snapshot = fn
}

func (h *Hub) snapshotMessage(kitchen string) []byte {
	if h.snapshot == nil {
		return nil
	}
	payload, err := json.Marshal(h.snapshot(kitchen))
	if err != nil {
		log.Printf("ERROR: encode snapshot for %s: %v", kitchen, err)
		return nil
	}
	message, err := json.Marshal(Event{Type: EventSnapshot, Kitchen: kitchen, Payload: payload})
	if err != nil {
		log.Printf("ERROR: encode snapshot event for %s: %v", kitchen, err)
		return nil
	}
	return message
}

// Run is the hub's main loop. Start it with go hub.Run().
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.kitchen] == nil {
				h.rooms[client.kitchen] = make(map[*Client]bool)
			}
			h.rooms[client.kitchen][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			message, err := json.Marshal(ev.event)
			if err != nil {
				log.Printf("ERROR: encode %s event: %v", ev.event.Type, err)
				continue
			}
			h.mu.Lock()
			for client := range h.rooms[ev.kitchen] {
				select {
				case client.send <- message:
				default:
					// Slow display, disconnect it
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes client from its room. Caller holds h.mu.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.kitchen]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.kitchen)
	}
}

// BroadcastToKitchen queues event for every display of kitchen.
func (h *Hub) BroadcastToKitchen(kitchen string, event Event) {
	event.Kitchen = kitchen
	h.broadcast <- &kitchenEvent{kitchen: kitchen, event: event}
}

// Notify encodes payload and broadcasts it to kitchen. It lets the hub serve
// as the kitchen service's notifier.
func (h *Hub) Notify(kitchen, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: encode %s payload for %s: %v", eventType, kitchen, err)
		return
	}
	h.BroadcastToKitchen(kitchen, Event{Type: eventType, Payload: data})
}

// Subscribers reports how many displays are connected to kitchen.
func (h *Hub) Subscribers(kitchen string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[kitchen])
}
