package chat

import (
	"log"
	"sync"
	"time"

	"chat-relay/internal/metrics"
	"chat-relay/internal/models"
	"chat-relay/internal/store"

	"github.com/gorilla/websocket"
)

type joinRequest struct {
	client *Client
	userID string
}

// Stats is a point-in-time snapshot of hub occupancy.
type Stats struct {
	Clients  int
	Channels int
	Messages int
}

// Hub owns every connection and all channel membership. State is only
// touched from the Run goroutine, so each event is handled to
// completion without interleaving; everything else talks to the hub
// through its channels.
type Hub struct {
	messages store.MessageLog

	clients  map[*Client]struct{}
	channels map[string]map[*Client]struct{}

	Register   chan *Client
	Unregister chan *Client
	Join       chan joinRequest
	Inbound    chan models.Message
	Quit       chan struct{}

	statsReq chan chan Stats
}

// Client is one websocket connection. userID and rooms are owned by
// the hub goroutine after registration. Send is never closed; the hub
// signals teardown by closing done so late writers cannot panic.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	done   chan struct{}
	userID string
	rooms  []string
	once   sync.Once
}

func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
		done: make(chan struct{}),
	}
}

func NewHub(messages store.MessageLog) *Hub {
	log.Println("[HUB] Initializing new Hub instance...")
	return &Hub{
		messages:   messages,
		clients:    make(map[*Client]struct{}),
		channels:   make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Join:       make(chan joinRequest),
		Inbound:    make(chan models.Message, 256),
		Quit:       make(chan struct{}),
		statsReq:   make(chan chan Stats),
	}
}

// Stats asks the running hub for a snapshot. After shutdown it
// returns a zero snapshot instead of blocking, so a stats tick in
// flight during shutdown cannot hang.
func (h *Hub) Stats() Stats {
	reply := make(chan Stats, 1)
	select {
	case h.statsReq <- reply:
		return <-reply
	case <-h.Quit:
		return Stats{}
	}
}

func (h *Hub) Run() {
	log.Println("[HUB] Main loop started. Listening for events...")
	for {
		select {
		case <-h.Quit:
			log.Println("[HUB] Quit signal received. Shutting down all client connections...")
			for client := range h.clients {
				h.cleanupClient(client)
			}
			return

		case client := <-h.Register:
			h.clients[client] = struct{}{}
			metrics.ActiveConnections.Inc()
			log.Printf("[HUB] Connection registered. Total active: %d", len(h.clients))

		case req := <-h.Join:
			h.handleJoin(req)

		case msg := <-h.Inbound:
			h.handleMessage(msg)

		case client := <-h.Unregister:
			h.cleanupClient(client)

		case reply := <-h.statsReq:
			reply <- Stats{
				Clients:  len(h.clients),
				Channels: len(h.channels),
				Messages: h.messages.Len(),
			}
		}
	}
}

// handleJoin binds the connection to the channel named after userID
// and replays that user's full history to the joining connection only.
// Joining again with a different id keeps the earlier memberships; a
// connection can sit in several channels until it disconnects.
func (h *Hub) handleJoin(req joinRequest) {
	client, userID := req.client, req.userID
	if _, ok := h.clients[client]; !ok {
		// The reader can queue a join after eviction already reaped
		// this connection; re-admitting it would leak the membership.
		log.Printf("[HUB] Ignoring join for %s from a departed connection", userID)
		return
	}
	client.userID = userID

	members, ok := h.channels[userID]
	if !ok {
		members = make(map[*Client]struct{})
		h.channels[userID] = members
	}
	if _, already := members[client]; !already {
		members[client] = struct{}{}
		client.rooms = append(client.rooms, userID)
	}
	log.Printf("[HUB] User %s joined their channel (members: %d)", userID, len(members))

	history, err := h.messages.HistoryFor(userID)
	if err != nil {
		log.Printf("[HUB] History lookup failed for %s: %v", userID, err)
		h.send(client, encodeError("history unavailable"))
		return
	}

	payload, err := encodeEvent(EventChatHistory, history)
	if err != nil {
		log.Printf("[HUB] Failed to encode history for %s: %v", userID, err)
		return
	}
	log.Printf("[HUB] Replaying %d history messages to %s", len(history), userID)
	h.send(client, payload)
}

// handleMessage stamps, logs and relays. Delivery goes to the
// receiver's channel first, then the sender's, so the sender's other
// connections see the echo. Empty channels drop the message silently.
func (h *Hub) handleMessage(msg models.Message) {
	msg.Timestamp = time.Now().UnixMilli()

	if err := h.messages.Append(msg); err != nil {
		log.Printf("[HUB] Failed to log message %s -> %s: %v", msg.FromID, msg.ToID, err)
	}
	metrics.MessagesRelayed.Inc()

	payload, err := encodeEvent(EventChatMessage, msg)
	if err != nil {
		log.Printf("[HUB] Failed to encode message: %v", err)
		return
	}

	h.deliver(msg.ToID, payload)
	h.deliver(msg.FromID, payload)
}

func (h *Hub) deliver(userID string, payload []byte) {
	for client := range h.channels[userID] {
		h.send(client, payload)
	}
}

// send is fire-and-forget: a client whose queue is full is a stalled
// consumer and gets evicted rather than blocking the loop. Departed
// clients are skipped.
func (h *Hub) send(c *Client, payload []byte) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.Send <- payload:
	default:
		log.Printf("[HUB] WARNING: Client buffer full (user %s). Evicting slow consumer.", c.userID)
		go func() { h.Unregister <- c }()
	}
}

func (h *Hub) cleanupClient(c *Client) {
	c.once.Do(func() {
		if _, ok := h.clients[c]; !ok {
			return
		}
		log.Printf("[HUB] Cleaning up connection (user %q)", c.userID)

		for _, room := range c.rooms {
			if members, ok := h.channels[room]; ok {
				delete(members, c)
				if len(members) == 0 {
					delete(h.channels, room)
				}
			}
		}

		delete(h.clients, c)
		close(c.done)
		if c.Conn != nil {
			c.Conn.Close()
		}
		metrics.ActiveConnections.Dec()
		log.Printf("[HUB] Session closed. Active clients remaining: %d", len(h.clients))
	})
}
