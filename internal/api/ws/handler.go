// Package ws streams live terminal events over a websocket.
//
// One connection receives every notification and every new market snapshot
// as typed JSON messages. The client can switch the active chart symbol
// without a REST round trip.
package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cryptodesk/backend/internal/domain/desktop"
	"github.com/cryptodesk/backend/internal/domain/market"
	"github.com/cryptodesk/backend/internal/domain/notify"
	"github.com/cryptodesk/backend/internal/infrastructure/monitoring"
	"github.com/cryptodesk/backend/internal/shared/types"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type outbound struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type inbound struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol,omitempty"`
	Coin   string `json:"coin,omitempty"`
}

// Handler upgrades connections and fans out queue and feed events.
type Handler struct {
	desktop *desktop.Manager
	queue   *notify.Queue
	feed    *market.Feed
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// New creates a websocket handler.
func New(d *desktop.Manager, queue *notify.Queue, feed *market.Feed, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{desktop: d, queue: queue, feed: feed, metrics: metrics, logger: logger}
}

// Register attaches the stream route.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/stream", h.Stream)
}

// Stream handles one websocket connection for its lifetime.
func (h *Handler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.WSConnections.Inc()
	defer h.metrics.WSConnections.Dec()

	notes := h.queue.Subscribe()
	defer h.queue.Unsubscribe(notes)
	snaps := h.feed.Subscribe()
	defer h.feed.Unsubscribe(snaps)

	state := h.desktop.State()
	welcome := outbound{Type: "welcome", Data: gin.H{
		"theme":         state.Theme,
		"active_symbol": state.ActiveSymbol,
		"chart_url":     h.desktop.ChartURL(),
	}}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(welcome); err != nil {
		return
	}

	done := make(chan struct{})
	go h.readLoop(conn, done)
	h.writeLoop(conn, notes, snaps, done)
}

// readLoop consumes client messages until the connection drops.
func (h *Handler) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "ping":
			// keepalive only; protocol-level pings are handled above
		case "set_symbol":
			symbol := msg.Symbol
			if symbol == "" && msg.Coin != "" {
				symbol = desktop.SymbolFromTicker(msg.Coin)
			}
			if symbol != "" {
				h.desktop.SetActiveSymbol(symbol)
			}
		default:
			h.logger.Debug("unknown websocket message", zap.String("type", msg.Type))
		}
	}
}

// writeLoop fans out notifications and snapshots until the reader exits.
func (h *Handler) writeLoop(
	conn *websocket.Conn,
	notes chan types.Notification,
	snaps chan types.MarketSnapshot,
	done chan struct{},
) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case n, ok := <-notes:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(outbound{Type: "notification", Data: n}); err != nil {
				return
			}
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(outbound{Type: "market_snapshot", Data: snap}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
