package chat

import (
	"encoding/json"
	"log"
	"time"

	"chat-relay/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 10 * time.Second
	maxMsgSize = 4096
)

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump decodes inbound envelopes and hands them to the hub. A
// payload that fails to parse or validate gets an error event back and
// is dropped; the connection stays up.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMsgSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[CLIENT] Unexpected close: %v", err)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.reply(encodeError("malformed event"))
			continue
		}

		switch env.Event {
		case EventJoin:
			var userID string
			if err := json.Unmarshal(env.Data, &userID); err != nil || userID == "" {
				c.reply(encodeError("join requires a userId"))
				continue
			}
			c.Hub.Join <- joinRequest{client: c, userID: userID}

		case EventChatMessage:
			var msg models.Message
			if err := json.Unmarshal(env.Data, &msg); err != nil {
				c.reply(encodeError("malformed chat message"))
				continue
			}
			if err := validate.Struct(msg); err != nil {
				c.reply(encodeError("chat message requires fromId, toId and text"))
				continue
			}
			c.Hub.Inbound <- msg

		default:
			c.reply(encodeError("unknown event"))
		}
	}
}

// reply queues a payload straight onto this connection, bypassing the
// hub. Dropped if the queue is full or the connection is being torn
// down. Safe against concurrent teardown because Send is never closed.
func (c *Client) reply(payload []byte) {
	select {
	case <-c.done:
	case c.Send <- payload:
	default:
	}
}
