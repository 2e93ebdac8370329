package ws

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
)

// Hub manages all active WebSocket clients and routes events to them.
// Quivio is a single-user journal per account, so routing is just
// userID → connected clients.
type Hub struct {
	// clients maps userID → its open connections (multiple tabs allowed).
	clients map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	direct     chan *directMsg
}

type directMsg struct {
	userID uuid.UUID
	data   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan *directMsg, 256),
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID] = conns
			}
			conns[client] = struct{}{}
			log.Printf("ws hub: user %s connected (%d conns)", client.userID, len(conns))

		case client := <-h.unregister:
			if conns, ok := h.clients[client.userID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.send)
					close(client.done)
					if len(conns) == 0 {
						delete(h.clients, client.userID)
					}
					log.Printf("ws hub: user %s disconnected", client.userID)
				}
			}

		case msg := <-h.direct:
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					delete(h.clients[msg.userID], client)
					close(client.send)
					close(client.done)
				}
			}
		}
	}
}

// SendToUser delivers an event to every connection the user has open.
// Dropped silently when the user is offline.
func (h *Hub) SendToUser(userID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}
	h.direct <- &directMsg{userID: userID, data: data}
}
