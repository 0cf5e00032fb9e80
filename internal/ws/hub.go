package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TopicRules carries rule change events.
const TopicRules = "rules"

const (
	EventRuleAdded   = "rule_added"
	EventRuleRemoved = "rule_removed"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

// Event is the envelope written to subscribers.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans messages out to websocket subscribers. Each connection has its
// own queue and writer goroutine; a subscriber whose queue is full is
// disconnected so Broadcast never waits on a slow client.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*websocket.Conn]*conn
}

type conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{topics: map[string]map[*websocket.Conn]*conn{}}
}

func (h *Hub) Join(topic string, c *websocket.Conn) {
	cn := &conn{ws: c, send: make(chan []byte, sendBuffer), done: make(chan struct{})}

	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = map[*websocket.Conn]*conn{}
	}
	if old, ok := h.topics[topic][c]; ok {
		old.stop()
	}
	h.topics[topic][c] = cn
	h.mu.Unlock()

	go cn.writeLoop()
}

func (h *Hub) Leave(topic string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cn, ok := h.topics[topic][c]; ok {
		cn.stop()
		delete(h.topics[topic], c)
	}
	if len(h.topics[topic]) == 0 {
		delete(h.topics, topic)
	}
}

// Subscribers returns the number of connections joined to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Broadcast queues payload for every subscriber of topic without blocking.
func (h *Hub) Broadcast(topic string, payload []byte) {
	var slow []*conn

	h.mu.RLock()
	for _, c := range h.topics[topic] {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	// closing the socket ends the reader, which calls Leave
	for _, c := range slow {
		c.stop()
		_ = c.ws.Close()
	}
}

// Publish encodes ev and broadcasts it to topic.
func (h *Hub) Publish(topic string, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.Broadcast(topic, b)
	return nil
}

func (c *conn) stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *conn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.stop()
				_ = c.ws.Close()
				return
			}
		}
	}
}
