package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/service"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/pkg/middleware"
	"maeum-toegeun/backend/pkg/sse"
	pkgws "maeum-toegeun/backend/pkg/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin:      func(r *http.Request) bool { return true },
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Streamer produces a decoded assistant reply
type Streamer interface {
	Stream(ctx context.Context, userID string, req models.ChatRequest, h sse.Handler) error
}

// Client is one connected socket
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
}

// close stops any running stream and closes Send exactly once
func (c *Client) close() {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Hub tracks live chat sockets and streams replies to them
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	chat       Streamer
	describe   func(error) string
	logger     *logger.Logger
	mu         sync.Mutex
	done       chan struct{}
}

// NewHub creates a hub. describe turns a stream error into the text shown
// to the user.
func NewHub(chat Streamer, describe func(error) string, log *logger.Logger) *Hub {
	if describe == nil {
		describe = func(err error) string { return err.Error() }
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		chat:       chat,
		describe:   describe,
		logger:     log.WithComponent("ws"),
		done:       make(chan struct{}),
	}
}

// Run serves registrations until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("Client registered", "client_id", client.ID, "user_id", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				h.logger.Debug("Client unregistered", "client_id", client.ID)
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			return
		}
	}
}

// ActiveConnections reports the number of live sockets
func (h *Hub) ActiveConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.LogError(err, "Unexpected socket close", "client_id", c.ID)
			}
			return
		}

		var msg pkgws.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(pkgws.TypeError, pkgws.Failure{Message: "잘못된 메시지 형식입니다."})
			continue
		}
		c.handle(msg)
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// handle runs chat turns one at a time so fragments of two replies never
// interleave
func (c *Client) handle(msg pkgws.Message) {
	switch msg.Type {
	case pkgws.TypePing:
		c.send(pkgws.TypePong, nil)
	case pkgws.TypeChat:
		var req models.ChatRequest
		if err := json.Unmarshal(msg.Content, &req); err != nil {
			c.send(pkgws.TypeError, pkgws.Failure{Message: "잘못된 메시지 형식입니다."})
			return
		}
		if err := service.ValidateChat(req); err != nil {
			c.send(pkgws.TypeError, pkgws.Failure{ConversationID: req.ConversationID, Message: c.Hub.describe(err)})
			return
		}
		c.stream(req)
	default:
		c.send(pkgws.TypeError, pkgws.Failure{Message: "알 수 없는 메시지 유형입니다: " + msg.Type})
	}
}

func (c *Client) stream(req models.ChatRequest) {
	conv := req.ConversationID
	_ = c.Hub.chat.Stream(c.ctx, c.UserID, req, sse.Handler{
		OnFragment: func(text string) {
			c.send(pkgws.TypeFragment, pkgws.Fragment{ConversationID: conv, Text: text})
		},
		OnError: func(err error) {
			c.send(pkgws.TypeError, pkgws.Failure{ConversationID: conv, Message: c.Hub.describe(err)})
		},
		OnFinish: func() {
			c.send(pkgws.TypeDone, pkgws.Done{ConversationID: conv})
		},
	})
}

func (c *Client) send(messageType string, content any) {
	msg := pkgws.Message{Type: messageType}
	if content != nil {
		raw, err := json.Marshal(content)
		if err != nil {
			c.Hub.logger.LogError(err, "Failed to encode socket message", "type", messageType)
			return
		}
		msg.Content = raw
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.Hub.logger.LogError(err, "Failed to encode socket message", "type", messageType)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		c.Hub.logger.Warn("Dropping socket message, send buffer full", "client_id", c.ID, "type", messageType)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Queued messages go out as separate frames
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades an authenticated request into a chat socket
func ServeWs(hub *Hub, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.logger.LogError(err, "Failed to upgrade connection")
		return
	}
	conn.EnableWriteCompression(true)

	clientID := c.Query("clientId")
	if clientID == "" {
		clientID = uuid.NewString()
	}
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		ID:     clientID,
		UserID: middleware.CurrentUser(c),
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    hub,
		ctx:    ctx,
		cancel: cancel,
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		cancel()
		conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()
}
