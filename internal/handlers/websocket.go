package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"changekit/internal/game"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// The default origin check only accepts same-host connections
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// timerClient pushes a session's countdown to one websocket connection
type timerClient struct {
	conn    *websocket.Conn
	updates <-chan game.TimerState
	done    chan struct{}
}

// SessionSocket streams countdown updates of a session. Clients send
// nothing; any incoming message is discarded.
func (h *GameHandler) SessionSocket(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	updates, cancel := c.Subscribe()
	client := &timerClient{conn: conn, updates: updates, done: make(chan struct{})}

	go client.writePump(cancel)
	go client.readPump()
}

func (c *timerClient) readPump() {
	defer close(c.done)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

func (c *timerClient) writePump(cancel func()) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		c.conn.Close()
	}()

	for {
		select {
		case state, ok := <-c.updates:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			data, err := json.Marshal(newTimerMessage(state))
			if err != nil {
				log.Printf("Failed to marshal timer message: %v", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
