// Package desktop is the terminal composition root.
//
// It wires the fixed set of named windows and owns the cross-cutting UI
// state: the active theme, the active chart symbol, and the simulated swap
// execution. The chart collaborator is addressed by symbol only; nothing
// flows back from it.
package desktop

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cryptodesk/backend/internal/domain/assets"
	"github.com/cryptodesk/backend/internal/domain/swap"
	"github.com/cryptodesk/backend/internal/domain/wallet"
	"github.com/cryptodesk/backend/internal/domain/window"
	"github.com/cryptodesk/backend/internal/shared/types"
)

// Available themes; the first is the default.
var Themes = []string{"theme-green", "theme-blue", "theme-amber"}

// DefaultSymbol is the chart symbol shown before any ticker click
const DefaultSymbol = "ANKRUSDT"

const chartEmbedURL = "https://s.tradingview.com/widgetembed/?symbol=BINANCE:%s&theme=dark"

// windowDef is one fixed desktop window with its default geometry
type windowDef struct {
	id       string
	title    string
	defaults types.WindowLayout
}

func fixedWindows() []windowDef {
	layout := func(w, h, x, y int) types.WindowLayout {
		return types.WindowLayout{
			Size:     types.Size{Width: w, Height: h},
			Position: types.Position{X: x, Y: y},
		}
	}
	return []windowDef{
		{"swap", "Swap Engine", layout(440, 460, 20, 20)},
		{"transfer", "Token Dispatch", layout(420, 320, 20, 490)},
		{"chart", "Market Data", layout(680, 460, 480, 20)},
		{"history", "Session Logs", layout(320, 180, 1180, 500)},
		{"wallet", "Wallet Core", layout(320, 180, 1180, 300)},
		{"monitor", "System Status", layout(320, 260, 1180, 20)},
	}
}

// Notifier surfaces desktop-level events
type Notifier interface {
	PushKind(kind types.NotificationKind, message string) string
}

// Manager owns the desktop: fixed windows plus theme and chart state
type Manager struct {
	windows  *window.Manager
	table    *assets.Table
	wallet   wallet.Wallet
	notifier Notifier
	logger   *zap.Logger

	mu           sync.RWMutex
	theme        string
	activeSymbol string
}

// NewManager opens the fixed window set and initializes UI state
func NewManager(windows *window.Manager, table *assets.Table, w wallet.Wallet, n Notifier, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		windows:      windows,
		table:        table,
		wallet:       w,
		notifier:     n,
		logger:       logger,
		theme:        Themes[0],
		activeSymbol: DefaultSymbol,
	}
	for _, def := range fixedWindows() {
		windows.Open(def.id, def.title, def.defaults)
	}
	return m
}

// Windows returns the window manager
func (m *Manager) Windows() *window.Manager {
	return m.windows
}

// State returns the cross-cutting UI state
func (m *Manager) State() types.DesktopState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return types.DesktopState{Theme: m.theme, ActiveSymbol: m.activeSymbol}
}

// SetTheme switches the UI theme
func (m *Manager) SetTheme(theme string) error {
	valid := false
	for _, t := range Themes {
		if t == theme {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown theme: %s", theme)
	}

	m.mu.Lock()
	m.theme = theme
	m.mu.Unlock()
	return nil
}

// SetActiveSymbol switches the chart to the given trading symbol
func (m *Manager) SetActiveSymbol(symbol string) {
	m.mu.Lock()
	m.activeSymbol = symbol
	m.mu.Unlock()
}

// SymbolFromTicker maps a ticker entry's coin symbol to the trading pair
// the chart collaborator understands.
func SymbolFromTicker(coinSymbol string) string {
	return strings.ToUpper(coinSymbol) + "USDT"
}

// ChartURL builds the read-only chart embed address for the active symbol
func (m *Manager) ChartURL() string {
	m.mu.RLock()
	symbol := m.activeSymbol
	m.mu.RUnlock()

	return fmt.Sprintf(chartEmbedURL, symbol)
}

// ExecuteSwap runs the simulated swap: it validates inputs, requires a
// connected wallet, and surfaces the execution as a notification. No real
// settlement happens.
func (m *Manager) ExecuteSwap(sellSym, buySym, qtyText string) (types.SwapQuote, error) {
	quote, err := swap.Quote(m.table, sellSym, buySym, qtyText)
	if err != nil {
		return types.SwapQuote{}, err
	}
	if !swap.ValidQty(qtyText) {
		return types.SwapQuote{}, fmt.Errorf("%w: %q", types.ErrInvalidAmount, qtyText)
	}
	if !m.wallet.Connected() {
		m.notifier.PushKind(types.NoteNotConnected, "Wallet not connected!")
		return types.SwapQuote{}, types.ErrNotConnected
	}

	m.notifier.PushKind(types.NoteInfo, fmt.Sprintf(
		"Executing Swap: %s %s → %s %s", qtyText, sellSym, quote.BuyQty, buySym,
	))
	m.logger.Info("swap executed",
		zap.String("sell", sellSym),
		zap.String("buy", buySym),
		zap.String("qty", qtyText),
	)
	return quote, nil
}

// Snapshot captures every window's geometry for session save
func (m *Manager) Snapshot() []types.WindowSnapshot {
	list := m.windows.List()
	out := make([]types.WindowSnapshot, len(list))
	for i, w := range list {
		out[i] = types.WindowSnapshot{ID: w.ID, Title: w.Title, Layout: w.Layout}
	}
	return out
}

// Apply restores desktop state and window geometry from a saved session.
// Unknown windows in the snapshot are skipped.
func (m *Manager) Apply(state types.DesktopState, windows []types.WindowSnapshot) {
	if err := m.SetTheme(state.Theme); err != nil {
		m.logger.Warn("session theme rejected", zap.String("theme", state.Theme))
	}
	if state.ActiveSymbol != "" {
		m.SetActiveSymbol(state.ActiveSymbol)
	}
	for _, ws := range windows {
		if err := m.windows.Restore(ws.ID, ws.Layout); err != nil {
			m.logger.Warn("session window skipped", zap.String("window_id", ws.ID))
		}
	}
}
