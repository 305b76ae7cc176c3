// internal/api/streams.go
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/calorietrack/calorietrack-go/internal/broadcast"
)

// Constants for WebSocket connections
const (
	// Time allowed to write a message to the client
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the client
	pongWait = 60 * time.Second

	// Send pings to client with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from client
	maxMessageSize = 512
)

var (
	// Upgrader for converting HTTP connections to WebSocket connections
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Allow all origins for now - this should be restricted in production
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

// Client represents a connected WebSocket observer
type Client struct {
	conn     *websocket.Conn
	sub      *broadcast.Subscription
	clientID string
	lastSeen time.Time
	closed   bool
	mu       sync.Mutex
}

// initStreamRoutes registers all stream-related API endpoints
func (c *Controller) initStreamRoutes() {
	c.Group.GET("/stream", c.HandlePredictionStream)
}

// HandlePredictionStream upgrades the connection and attaches the client as
// a hub observer. Each committed prediction is pushed as one JSON event.
func (c *Controller) HandlePredictionStream(ctx echo.Context) error {
	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Printf("Error upgrading connection to WebSocket: %v", err)
		return err
	}

	client := &Client{
		conn:     conn,
		sub:      c.Hub.Subscribe(),
		clientID: ctx.Request().RemoteAddr,
		lastSeen: time.Now(),
	}

	c.Debug("Client %s connected to prediction stream", client.clientID)
	c.Metrics.SetObserverCount(c.Hub.NumSubscribers())

	go client.writePump(c)
	go client.readPump(c)

	return nil
}

// detachClient removes the observer from the hub. Safe to call more than
// once, the hub tolerates unknown subscriptions.
func (c *Controller) detachClient(client *Client) {
	client.mu.Lock()
	if client.closed {
		client.mu.Unlock()
		return
	}
	client.closed = true
	client.mu.Unlock()

	c.Hub.Unsubscribe(client.sub)
	c.Metrics.SetObserverCount(c.Hub.NumSubscribers())
	c.Debug("Client %s disconnected from prediction stream", client.clientID)
}

// writePump pumps hub events to the WebSocket connection
func (client *Client) writePump(c *Controller) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.detachClient(client)
		client.conn.Close()
	}()

	for {
		select {
		case event, ok := <-client.sub.Events():
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the subscription
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := json.Marshal(event)
			if err != nil {
				c.logger.Printf("Error marshaling stream event: %v", err)
				continue
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump keeps the connection alive and detects client disconnects.
// Observers are read-only, incoming messages are ignored.
func (client *Client) readPump(c *Controller) {
	defer func() {
		c.detachClient(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.mu.Lock()
		client.lastSeen = time.Now()
		client.mu.Unlock()
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				client.logError(c.logger, err)
			}
			break
		}
	}
}

func (client *Client) logError(logger *log.Logger, err error) {
	logger.Printf("WebSocket error for client %s: %v", client.clientID, err)
}
