package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/pkg/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the websocket frame in both directions. Clients send
// {"type":"chat","content":question,"session_id":...}; the server answers
// with "status", "response" or "error".
type Message struct {
	Type      string      `json:"type"`
	Content   string      `json:"content"`
	SessionID string      `json:"session_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) send(msg Message) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteJSON(msg); err != nil {
		logger.Warnf("Error sending message: %v", err)
	}
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ws := &wsConn{conn: conn}
	collection := store.CollectionName(userID(c))
	ctx := c.Request.Context()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("Error reading message: %v", err)
			}
			return
		}

		switch msg.Type {
		case "chat", "":
		default:
			ws.send(Message{Type: "error", Content: "unknown message type: " + msg.Type})
			continue
		}

		wg.Add(1)
		go func(msg Message) {
			defer wg.Done()
			s.handleMessage(ctx, ws, collection, msg)
		}(msg)
	}
}

func (s *Server) handleMessage(ctx context.Context, ws *wsConn, collection string, msg Message) {
	ws.send(Message{Type: "status", Content: "thinking", SessionID: msg.SessionID})

	out, err := s.orch.RunChat(ctx, msg.Content, msg.SessionID, collection)
	if err != nil {
		ws.send(Message{Type: "error", Content: err.Error(), SessionID: msg.SessionID})
		return
	}
	ws.send(Message{Type: "response", Content: out.Answer, SessionID: msg.SessionID, Data: out})
}
