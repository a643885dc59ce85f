// Package types defines the shared data model for the terminal backend.
//
// Core Types:
//   - WindowLayout: persisted window geometry (size + position)
//   - AssetDescriptor: static token definition with a mock USD price
//   - SwapQuote: derived swap estimate, never stored
//   - TransferRecord: session-lifetime transfer history entry
//   - Notification: short-lived user-facing message
//   - MarketAsset: one ticker entry from the price collaborator
//
// Types here carry no behavior beyond validation and formatting so they can
// be shared across domain packages without import cycles.
package types
