package ws

import "sync"

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub manages stream subscriptions keyed by conversation ID.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]map[Subscriber]struct{}
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
}

// message couples payload with conversation identifier.
type message struct {
	conversationID string
	payload        []byte
}

// subscription defines register/unregister requests.
type subscription struct {
	conversationID string
	client         Subscriber
}

// NewHub creates an initialized Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Subscriber]struct{}),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			if _, ok := h.clients[sub.conversationID]; !ok {
				h.clients[sub.conversationID] = make(map[Subscriber]struct{})
			}
			h.clients[sub.conversationID][sub.client] = struct{}{}
		case sub := <-h.unreg:
			if clients, ok := h.clients[sub.conversationID]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.conversationID)
				}
			}
		case msg := <-h.broadcast:
			if clients, ok := h.clients[msg.conversationID]; ok {
				for c := range clients {
					if err := c.Send(msg.payload); err != nil {
						c.Close()
						delete(clients, c)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, msg.conversationID)
				}
			}
		}
	}
}

// Register adds a client to a conversation stream.
func (h *Hub) Register(conversationID string, client Subscriber) {
	h.register <- subscription{conversationID: conversationID, client: client}
}

// Unregister removes a client.
func (h *Hub) Unregister(conversationID string, client Subscriber) {
	h.unreg <- subscription{conversationID: conversationID, client: client}
}

// Broadcast sends payload to all conversation subscribers.
func (h *Hub) Broadcast(conversationID string, payload []byte) {
	h.broadcast <- message{conversationID: conversationID, payload: payload}
}
