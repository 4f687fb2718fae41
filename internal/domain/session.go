package domain

// SessionID is the client-persisted opaque identity. It survives
// reconnects within a browser tab; the server trusts it as presented
// on the handshake.
type SessionID string

// ConnID identifies a single live websocket connection. A session may
// transiently map to zero connections (reconnect window) or one.
type ConnID string
