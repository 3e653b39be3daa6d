// Package provision implements the hub's provisioning core: the
// authorization gate, credential intake, the connection-attempt ladder, and
// the coordinator that ties them to the transport's read/write events.
package provision

import (
	"strings"
	"unicode/utf8"
)

// Gate guards credential intake behind a shared-token check.
//
// The check is a plaintext compare with unlimited attempts: no lockout, no
// rate limiting, no transport encryption. That is the protocol as deployed
// (a pairing convenience, not a security boundary) and it is kept weak here
// on purpose rather than silently hardened.
type Gate struct {
	expected   string
	authorized bool
}

// NewGate returns a gate expecting the given token. The gate itself is not
// goroutine safe; the Coordinator serializes access.
func NewGate(token string) *Gate {
	return &Gate{expected: token}
}

// Verify decodes raw as UTF-8 (invalid sequences are replaced, never
// rejected), trims surrounding whitespace and compares against the expected
// token. The authorized flag is overwritten on every call, so a failed
// attempt revokes a previously granted authorization.
func (g *Gate) Verify(raw []byte) bool {
	token := strings.TrimSpace(strings.ToValidUTF8(string(raw), string(utf8.RuneError)))
	g.authorized = token == g.expected
	return g.authorized
}

// Authorized reports whether the last Verify matched.
func (g *Gate) Authorized() bool {
	return g.authorized
}
