package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"jet-fighter/internal/config"
	"jet-fighter/internal/metrics"
)

const writeWait = 5 * time.Second

// Outgoing event names.
const (
	EventState = "state"
	EventScore = "score"
	EventError = "error"
)

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// wsMessage is a client command: "input" (same body as POST /api/input),
// "fire" or "reset".
type wsMessage struct {
	Type string `json:"type"`
	inputRequest
}

// WebSocketHub pushes state and score to connected clients and accepts
// control messages from them.
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	stop       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	engine    EngineInterface
	upgrader  websocket.Upgrader
	slots     *ipSlots
	maxTotal  int
	readLimit int64

	log zerolog.Logger
}

// NewWebSocketHub creates a hub with connection limiting. Nothing runs until
// Run is called.
func NewWebSocketHub(engine EngineInterface, origins []string, limits config.ResourceLimits, log zerolog.Logger) *WebSocketHub {
	h := &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		stop:       make(chan struct{}),
		engine:     engine,
		slots:      newIPSlots(limits.MaxWSPerIP),
		maxTotal:   limits.MaxWSConnections,
		readLimit:  limits.MaxInputBodyBytes,
		log:        log.With().Str("component", "ws").Logger(),
	}

	checker := NewOriginChecker(origins)
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if checker.Allowed(origin) {
				return true
			}
			h.log.Warn().Str("origin", origin).Msg("websocket connection rejected")
			metrics.RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run services registrations and broadcasts until Stop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for conn, client := range h.clients {
				h.slots.release(client.ip)
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			metrics.UpdateWSConnections(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			h.log.Info().Str("ip", client.ip).Int("total", count).Msg("client connected")
			metrics.UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.remove(conn)

		case message := <-h.broadcast:
			h.mu.RLock()
			var failed []*websocket.Conn
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					failed = append(failed, conn)
				}
			}
			h.mu.RUnlock()
			for _, conn := range failed {
				h.remove(conn)
			}
			metrics.IncrementWSMessages()
		}
	}
}

func (h *WebSocketHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	client, ok := h.clients[conn]
	if ok {
		h.slots.release(client.ip)
		delete(h.clients, conn)
		conn.Close()
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.log.Info().Int("remaining", count).Msg("client disconnected")
		metrics.UpdateWSConnections(count)
	}
}

// Stop closes every connection and ends Run and the broadcast loop.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Broadcast queues an event for all clients. It never blocks: when the
// queue is full the message is dropped.
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg := map[string]interface{}{
		"event": event,
		"data":  data,
	}

	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- jsonBytes:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes the latest snapshot every interval while at
// least one client is connected.
func (h *WebSocketHub) StartBroadcastLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				if h.ClientCount() == 0 {
					continue
				}
				h.Broadcast(EventState, h.engine.GetSnapshot())
			}
		}
	}()
}

// HandleWebSocket upgrades the request after the connection limits pass.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= h.maxTotal {
		h.log.Warn().Int("limit", h.maxTotal).Msg("websocket rejected: total limit reached")
		metrics.RecordConnectionRejected("ws_limit")
		writeError(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.slots.acquire(ip) {
		h.log.Warn().Str("ip", ip).Msg("websocket rejected: per-IP limit reached")
		metrics.RecordConnectionRejected("ws_limit")
		writeError(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		h.slots.release(ip)
		return
	}
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	select {
	case h.register <- &wsClient{conn: conn, ip: ip}:
	case <-h.stop:
		h.slots.release(ip)
		conn.Close()
		return
	}

	go h.readLoop(conn, ip)
}

// readLoop applies client commands until the connection fails.
func (h *WebSocketHub) readLoop(conn *websocket.Conn, ip string) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.stop:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if err := h.handleMessage(msg); err != nil {
			h.log.Debug().Err(err).Str("ip", ip).Str("type", msg.Type).Msg("bad websocket message")
		}
	}
}

func (h *WebSocketHub) handleMessage(msg wsMessage) error {
	switch msg.Type {
	case "input":
		controls := h.engine.Controls()
		if controls == nil {
			return errRemoteInputDisabled
		}
		return applyInput(controls, msg.inputRequest)
	case "fire":
		h.engine.Fire()
	case "reset":
		h.engine.Reset()
	default:
		return errUnknownMessage
	}
	return nil
}
