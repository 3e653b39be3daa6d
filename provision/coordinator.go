package provision

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"

	"github.com/smarttuppleware/hubprov"
)

// scratchInitial is the power-on value of the generic scratch characteristic.
const scratchInitial = "ZHAW-SMARTTUPPLEWARE"

// Coordinator owns all mutable provisioning state (authorization flag, last
// accepted credentials, scratch buffer, status store) and routes the
// transport's events to the gate, the intake and the attempter. All state
// mutations are serialized through its mutex; connection attempts run on
// their own goroutine so a multi-step attempt never blocks status or
// identity reads from a concurrent client.
type Coordinator struct {
	log       hubprov.Logger
	gate      *Gate
	status    *StatusStore
	attempter ConnectionAttempter
	identity  []byte

	mu      sync.Mutex
	busy    bool
	creds   hubprov.Credentials
	scratch []byte

	wg sync.WaitGroup
}

func NewCoordinator(cfg hubprov.Config, att ConnectionAttempter, log hubprov.Logger) (*Coordinator, error) {
	identity, err := jsoniter.Marshal(cfg.Identity)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		log:       log.ChildLogger(map[string]interface{}{"component": "coordinator"}),
		gate:      NewGate(cfg.AuthToken),
		status:    NewStatusStore(),
		attempter: att,
		identity:  identity,
		scratch:   []byte(scratchInitial),
	}, nil
}

// HandleAuthWrite feeds a token write to the authorization gate.
func (c *Coordinator) HandleAuthWrite(raw []byte) {
	c.logWrite("auth", raw)

	c.mu.Lock()
	ok := c.gate.Verify(raw)
	c.mu.Unlock()

	c.log.Infof("authorization attempt: authorized=%v", ok)
}

// HandleCredentialsWrite validates a credential write and, if the hub is
// authorized and idle, kicks off a connection attempt. The attempt outcome
// lands in the status store when it completes; this call returns
// immediately.
func (c *Coordinator) HandleCredentialsWrite(raw []byte) {
	c.logWrite("credentials", raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.gate.Authorized() {
		c.log.Warn("rejecting credential write: not authorized (write auth first)")
		c.status.Record(hubprov.Failed("not authorized"))
		return
	}

	creds, err := ParseCredentials(raw)
	if err != nil {
		c.log.Warnf("rejecting credential write: %v", err)
		c.status.Record(hubprov.Failed("invalid credentials: " + err.Error()))
		return
	}

	if c.busy {
		c.log.Warnf("rejecting credential write for %q: attempt in progress", creds.SSID)
		c.status.Record(hubprov.Failed("busy: attempt in progress"))
		return
	}

	c.creds = creds
	c.busy = true
	c.log.Infof("accepted credentials for ssid %q", creds.SSID)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		// attempts are never cancelled once started
		out := c.attempter.Attempt(context.Background(), creds.SSID, creds.Password)

		c.mu.Lock()
		c.status.Record(out)
		c.busy = false
		c.mu.Unlock()
	}()
}

// HandleScratchWrite replaces the generic scratch value.
func (c *Coordinator) HandleScratchWrite(raw []byte) {
	c.logWrite("scratch", raw)

	c.mu.Lock()
	c.scratch = append([]byte(nil), raw...)
	c.mu.Unlock()
}

// ReadScratch returns the current scratch value.
func (c *Coordinator) ReadScratch() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.scratch...)
}

// ReadIdentity returns the serialized hub identity.
func (c *Coordinator) ReadIdentity() []byte {
	return append([]byte(nil), c.identity...)
}

// ReadStatus returns the serialized outcome of the last attempt.
func (c *Coordinator) ReadStatus() []byte {
	return c.status.Bytes()
}

// HandleConnect logs a central connecting.
func (c *Coordinator) HandleConnect(addr string) {
	c.log.Infof(">>> central connected: %s", addr)
}

// HandleDisconnect logs a central disconnecting.
func (c *Coordinator) HandleDisconnect(addr string) {
	c.log.Infof("<<< central disconnected: %s", addr)
}

// Wait blocks until any in-flight connection attempt has completed. Used on
// shutdown and by tests.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) logWrite(channel string, raw []byte) {
	text := strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	c.log.Debugf("%s write: len=%d hex=%x text=%q", channel, len(raw), raw, text)
}
