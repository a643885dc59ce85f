// Package http exposes the terminal backend over REST.
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cryptodesk/backend/internal/domain/assets"
	"github.com/cryptodesk/backend/internal/domain/desktop"
	"github.com/cryptodesk/backend/internal/domain/market"
	"github.com/cryptodesk/backend/internal/domain/notify"
	"github.com/cryptodesk/backend/internal/domain/session"
	"github.com/cryptodesk/backend/internal/domain/swap"
	"github.com/cryptodesk/backend/internal/domain/transfer"
	"github.com/cryptodesk/backend/internal/infrastructure/monitoring"
	"github.com/cryptodesk/backend/internal/shared/types"
)

// Handlers bundles the REST endpoints with their collaborators.
type Handlers struct {
	desktop   *desktop.Manager
	table     *assets.Table
	queue     *notify.Queue
	feed      *market.Feed
	transfers *transfer.Orchestrator
	sessions  *session.Manager
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	started   time.Time
}

// New creates the REST handler set.
func New(
	d *desktop.Manager,
	table *assets.Table,
	queue *notify.Queue,
	feed *market.Feed,
	transfers *transfer.Orchestrator,
	sessions *session.Manager,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		desktop:   d,
		table:     table,
		queue:     queue,
		feed:      feed,
		transfers: transfers,
		sessions:  sessions,
		metrics:   metrics,
		logger:    logger,
		started:   time.Now(),
	}
}

// Register attaches all REST routes to the router.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/monitor", h.Monitor)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	r.GET("/windows", h.ListWindows)
	r.GET("/windows/:id", h.GetWindow)
	r.POST("/windows/:id/drag-stop", h.DragStop)
	r.POST("/windows/:id/resize-stop", h.ResizeStop)

	r.GET("/assets", h.ListAssets)

	r.GET("/swap/quote", h.SwapQuote)
	r.POST("/swap/execute", h.SwapExecute)

	r.GET("/transfer/form", h.GetTransferForm)
	r.PUT("/transfer/form", h.PutTransferForm)
	r.POST("/transfer/dispatch", h.DispatchTransfer)
	r.GET("/transfer/history", h.TransferHistory)

	r.GET("/notifications", h.ListNotifications)

	r.GET("/market/snapshot", h.MarketSnapshot)

	r.GET("/desktop", h.DesktopState)
	r.PUT("/desktop/theme", h.SetTheme)
	r.PUT("/desktop/symbol", h.SetSymbol)

	r.POST("/sessions", h.SaveSession)
	r.GET("/sessions", h.ListSessions)
	r.GET("/sessions/export", h.ExportSessions)
	r.POST("/sessions/import", h.ImportSessions)
	r.GET("/sessions/:id", h.GetSession)
	r.POST("/sessions/:id/restore", h.RestoreSession)
	r.DELETE("/sessions/:id", h.DeleteSession)
}

// Root returns service identification.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "cryptodesk-backend",
		"version": "1.0.0",
	})
}

// Health returns liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Monitor returns the JSON status snapshot shown in the system status window.
func (h *Handlers) Monitor(c *gin.Context) {
	snap, hasSnap := h.feed.Snapshot()
	status := gin.H{
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"windows":        len(h.desktop.Windows().List()),
		"notifications":  len(h.queue.Visible()),
		"transfers":      len(h.transfers.History()),
		"feed": gin.H{
			"has_snapshot": hasSnap,
			"assets":       len(snap.Assets),
		},
	}
	if hasSnap {
		status["feed"].(gin.H)["fetched_at"] = snap.FetchedAt
	}
	c.JSON(http.StatusOK, status)
}

// ListWindows returns every open window with its current geometry.
func (h *Handlers) ListWindows(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"windows": h.desktop.Windows().List()})
}

// GetWindow returns one window.
func (h *Handlers) GetWindow(c *gin.Context) {
	w, ok := h.desktop.Windows().Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "window not found"})
		return
	}
	c.JSON(http.StatusOK, w)
}

// DragStop completes a drag gesture for a window.
func (h *Handlers) DragStop(c *gin.Context) {
	var req types.Position
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.desktop.Windows().DragStop(c.Param("id"), req); err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.LayoutSaves.Inc()
	w, _ := h.desktop.Windows().Get(c.Param("id"))
	c.JSON(http.StatusOK, w)
}

// ResizeStop completes a resize gesture for a window.
func (h *Handlers) ResizeStop(c *gin.Context) {
	var req types.Size
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.desktop.Windows().ResizeStop(c.Param("id"), req); err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.LayoutSaves.Inc()
	w, _ := h.desktop.Windows().Get(c.Param("id"))
	c.JSON(http.StatusOK, w)
}

// ListAssets returns the chain descriptor and the tradable asset table.
func (h *Handlers) ListAssets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"chain":  h.table.Chain(),
		"assets": h.table.List(),
	})
}

// SwapQuote computes a live quote from query parameters.
func (h *Handlers) SwapQuote(c *gin.Context) {
	quote, err := swap.Quote(h.table, c.Query("sell"), c.Query("buy"), c.Query("qty"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.SwapQuotes.Inc()
	c.JSON(http.StatusOK, quote)
}

type swapExecuteRequest struct {
	Sell string `json:"sell" binding:"required"`
	Buy  string `json:"buy" binding:"required"`
	Qty  string `json:"qty"`
}

// SwapExecute runs the simulated swap.
func (h *Handlers) SwapExecute(c *gin.Context) {
	var req swapExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quote, err := h.desktop.ExecuteSwap(req.Sell, req.Buy, req.Qty)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetTransferForm returns the current transfer form and pending flag.
func (h *Handlers) GetTransferForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"form":    h.transfers.Form(),
		"pending": h.transfers.Pending(),
	})
}

// PutTransferForm replaces the transfer form inputs.
func (h *Handlers) PutTransferForm(c *gin.Context) {
	var form types.TransferForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.transfers.SetForm(form)
	c.JSON(http.StatusOK, gin.H{"form": form})
}

// DispatchTransfer runs the transfer dispatch for the current form.
func (h *Handlers) DispatchTransfer(c *gin.Context) {
	record, err := h.transfers.Dispatch(c.Request.Context())
	if err != nil {
		h.metrics.Dispatches.WithLabelValues(dispatchOutcome(err)).Inc()
		h.fail(c, err)
		return
	}
	h.metrics.Dispatches.WithLabelValues("confirmed").Inc()
	c.JSON(http.StatusOK, record)
}

// TransferHistory returns this session's transfers, most recent first.
func (h *Handlers) TransferHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"transfers": h.transfers.History()})
}

// ListNotifications returns the currently visible notifications.
func (h *Handlers) ListNotifications(c *gin.Context) {
	visible := h.queue.Visible()
	h.metrics.NotificationsActive.Set(float64(len(visible)))
	c.JSON(http.StatusOK, gin.H{"notifications": visible})
}

// MarketSnapshot returns the latest ticker snapshot, 204 before first fetch.
func (h *Handlers) MarketSnapshot(c *gin.Context) {
	snap, ok := h.feed.Snapshot()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	h.metrics.MarketAssets.Set(float64(len(snap.Assets)))
	c.JSON(http.StatusOK, snap)
}

// DesktopState returns theme, active symbol and the chart embed address.
func (h *Handlers) DesktopState(c *gin.Context) {
	state := h.desktop.State()
	c.JSON(http.StatusOK, gin.H{
		"theme":         state.Theme,
		"active_symbol": state.ActiveSymbol,
		"chart_url":     h.desktop.ChartURL(),
		"themes":        desktop.Themes,
	})
}

type themeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

// SetTheme switches the UI theme.
func (h *Handlers) SetTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.desktop.SetTheme(req.Theme); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}

type symbolRequest struct {
	// Symbol is a full trading pair ("SOLUSDT"); Coin is a bare ticker
	// symbol ("sol") mapped to its USDT pair. One of the two is required.
	Symbol string `json:"symbol"`
	Coin   string `json:"coin"`
}

// SetSymbol switches the chart to a new trading symbol.
func (h *Handlers) SetSymbol(c *gin.Context) {
	var req symbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	symbol := req.Symbol
	if symbol == "" && req.Coin != "" {
		symbol = desktop.SymbolFromTicker(req.Coin)
	}
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol or coin required"})
		return
	}
	h.desktop.SetActiveSymbol(symbol)
	c.JSON(http.StatusOK, gin.H{
		"active_symbol": symbol,
		"chart_url":     h.desktop.ChartURL(),
	})
}

type saveSessionRequest struct {
	Name string `json:"name"`
}

// SaveSession captures the current desktop arrangement.
func (h *Handlers) SaveSession(c *gin.Context) {
	var req saveSessionRequest
	_ = c.ShouldBindJSON(&req)

	sess, err := h.sessions.Save(req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// ListSessions returns metadata for all saved sessions.
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.sessions.List()})
}

// GetSession returns one saved session document.
func (h *Handlers) GetSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// RestoreSession applies a saved session to the desktop.
func (h *Handlers) RestoreSession(c *gin.Context) {
	if err := h.sessions.Restore(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": c.Param("id")})
}

// DeleteSession removes a saved session.
func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// ExportSessions streams all sessions as a gzip archive.
func (h *Handlers) ExportSessions(c *gin.Context) {
	c.Header("Content-Type", "application/gzip")
	c.Header("Content-Disposition", `attachment; filename="sessions.json.gz"`)
	if err := h.sessions.Export(c.Writer); err != nil {
		h.logger.Error("session export failed", zap.Error(err))
	}
}

// ImportSessions reads a gzip archive of sessions and stores them.
func (h *Handlers) ImportSessions(c *gin.Context) {
	count, err := h.sessions.Import(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": count})
}

// fail maps domain errors onto HTTP statuses.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrWindowNotFound),
		errors.Is(err, types.ErrSessionNotFound),
		errors.Is(err, types.ErrUnknownAsset):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrInvalidAmount),
		errors.Is(err, types.ErrInvalidRecipient):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrNotConnected):
		status = http.StatusPreconditionFailed
	case errors.Is(err, types.ErrDispatchPending):
		status = http.StatusConflict
	case errors.Is(err, types.ErrUserRejected),
		errors.Is(err, types.ErrContractError):
		status = http.StatusBadGateway
	case errors.Is(err, types.ErrFeedUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func dispatchOutcome(err error) string {
	switch {
	case errors.Is(err, types.ErrNotConnected):
		return "not_connected"
	case errors.Is(err, types.ErrUserRejected):
		return "rejected"
	case errors.Is(err, types.ErrContractError):
		return "contract_error"
	case errors.Is(err, types.ErrDispatchPending):
		return "pending"
	case errors.Is(err, types.ErrInvalidAmount), errors.Is(err, types.ErrInvalidRecipient):
		return "invalid_input"
	default:
		return "error"
	}
}
