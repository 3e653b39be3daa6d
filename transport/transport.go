// Package transport defines the seam between the provisioning core and the
// BLE peripheral stack. The transport owns advertising, pairing and
// characteristic dispatch; it never interprets payloads, it only shuttles
// bytes to and from the handlers.
package transport

import "context"

// Handlers are the coordinator callbacks a transport drives. Write handlers
// receive the raw characteristic payload; read handlers return the bytes to
// serve. All fields must be non-nil.
type Handlers struct {
	AuthWrite        func([]byte)
	CredentialsWrite func([]byte)
	ScratchWrite     func([]byte)

	Scratch  func() []byte
	Identity func() []byte
	Status   func() []byte

	Connected    func(addr string)
	Disconnected func(addr string)
}

// Transport advertises the provisioning service and dispatches protocol
// events until ctx is cancelled.
type Transport interface {
	Serve(ctx context.Context) error
	Stop() error
}
