package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xtort/kasa-hs300/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is LAN-only automation glue; origin checks add nothing.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// statusMessage is one websocket status push.
type statusMessage struct {
	Outlets []outletJSON `json:"outlets"`
	Stale   bool         `json:"stale,omitempty"` // last device refresh failed
}

// HandleWebSocket upgrades the connection and pushes the outlet status
// every poll interval until the peer goes away. A failed device refresh
// marks the push stale and keeps the connection open; the strip being
// briefly unreachable should not churn subscribers.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	logging.Info("websocket subscriber connected",
		zap.String("remote_addr", r.RemoteAddr),
	)

	go s.writeStatus(conn, r.RemoteAddr)
	s.readUntilClose(conn)
}

// readUntilClose drains the peer so close frames and pongs are
// processed. Subscribers never send application messages.
func (s *Server) readUntilClose(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeStatus(conn *websocket.Conn, remoteAddr string) {
	ticker := time.NewTicker(s.pollInterval)
	pinger := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		pinger.Stop()
		_ = conn.Close()
		logging.Info("websocket subscriber disconnected",
			zap.String("remote_addr", remoteAddr),
		)
	}()

	// Immediate first push so subscribers don't wait a full interval.
	if err := s.pushStatus(conn); err != nil {
		return
	}

	for {
		select {
		case <-ticker.C:
			if err := s.pushStatus(conn); err != nil {
				return
			}
		case <-pinger.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) pushStatus(conn *websocket.Conn) error {
	s.mu.Lock()
	err := s.strip.RefreshStatus()
	outlets := s.strip.Outlets()
	s.mu.Unlock()

	if err != nil {
		logging.Warn("status poll failed", zap.Error(err))
	}

	msg := statusMessage{
		Outlets: outletsJSON(outlets),
		Stale:   err != nil,
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
