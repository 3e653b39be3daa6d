// Package bluez implements the BLE transport on top of the system's BlueZ
// stack via tinygo.org/x/bluetooth. It registers the provisioning service's
// five characteristics and advertises the hub's local name.
package bluez

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"tinygo.org/x/bluetooth"

	"github.com/smarttuppleware/hubprov"
	"github.com/smarttuppleware/hubprov/transport"
)

// refreshInterval is how often the read-only characteristic values (status,
// scratch) are pushed into the GATT database. The stack serves reads from
// its own value buffer, so dynamic values need periodic refreshing.
const refreshInterval = time.Second

// Peripheral is the production transport. One instance serves one
// advertising session.
type Peripheral struct {
	log      hubprov.Logger
	name     string
	handlers transport.Handlers

	mu      sync.Mutex
	adv     *bluetooth.Advertisement
	serving bool

	scratchChar bluetooth.Characteristic
	statusChar  bluetooth.Characteristic
}

var _ transport.Transport = (*Peripheral)(nil)

// New builds a peripheral advertising under the configured local name. The
// adapter address from the config is informational only: the underlying
// stack always binds the default adapter.
func New(cfg hubprov.Config, h transport.Handlers, log hubprov.Logger) *Peripheral {
	l := log.ChildLogger(map[string]interface{}{"component": "bluez"})
	if cfg.Adapter != "" {
		l.Infof("adapter %s requested; note the stack binds the default adapter", cfg.Adapter)
	}
	return &Peripheral{
		log:      l,
		name:     cfg.LocalName,
		handlers: h,
	}
}

// Serve registers the GATT service, starts advertising and blocks until ctx
// is cancelled.
func (p *Peripheral) Serve(ctx context.Context) error {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return errors.Wrap(err, "enable bluetooth adapter")
	}

	adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		addr := device.Address.String()
		if connected {
			p.handlers.Connected(addr)
		} else {
			p.handlers.Disconnected(addr)
		}
	})

	svcUUID, charUUIDs, err := parseUUIDs()
	if err != nil {
		return err
	}

	svc := &bluetooth.Service{
		UUID: svcUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &p.scratchChar,
				UUID:   charUUIDs.scratch,
				Value:  p.handlers.Scratch(),
				Flags: bluetooth.CharacteristicReadPermission |
					bluetooth.CharacteristicWritePermission |
					bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(_ bluetooth.Connection, _ int, value []byte) {
					p.handlers.ScratchWrite(value)
				},
			},
			{
				UUID:  charUUIDs.identity,
				Value: p.handlers.Identity(),
				Flags: bluetooth.CharacteristicReadPermission,
			},
			{
				UUID: charUUIDs.auth,
				Flags: bluetooth.CharacteristicWritePermission |
					bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(_ bluetooth.Connection, _ int, value []byte) {
					p.handlers.AuthWrite(value)
				},
			},
			{
				UUID: charUUIDs.credentials,
				Flags: bluetooth.CharacteristicWritePermission |
					bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(_ bluetooth.Connection, _ int, value []byte) {
					p.handlers.CredentialsWrite(value)
				},
			},
			{
				Handle: &p.statusChar,
				UUID:   charUUIDs.status,
				Value:  p.handlers.Status(),
				Flags:  bluetooth.CharacteristicReadPermission,
			},
		},
	}
	if err := adapter.AddService(svc); err != nil {
		return errors.Wrap(err, "register provisioning service")
	}

	adv := adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    p.name,
		ServiceUUIDs: []bluetooth.UUID{svcUUID},
	}); err != nil {
		return errors.Wrap(err, "configure advertisement")
	}
	if err := adv.Start(); err != nil {
		return errors.Wrap(err, "start advertising")
	}

	p.mu.Lock()
	p.adv = adv
	p.serving = true
	p.mu.Unlock()

	p.log.Infof("advertising %q, service %s", p.name, hubprov.ServiceUUID)

	p.refreshLoop(ctx)
	return p.Stop()
}

// Stop ends the advertising session. Safe to call more than once.
func (p *Peripheral) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.serving {
		return nil
	}
	p.serving = false

	if err := p.adv.Stop(); err != nil {
		return errors.Wrap(err, "stop advertising")
	}
	p.log.Info("stopped advertising")
	return nil
}

// refreshLoop keeps the dynamic read-only characteristic values current
// until ctx is done.
func (p *Peripheral) refreshLoop(ctx context.Context) {
	t := time.NewTicker(refreshInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := p.statusChar.Write(p.handlers.Status()); err != nil {
				p.log.Debugf("status refresh: %v", err)
			}
			if _, err := p.scratchChar.Write(p.handlers.Scratch()); err != nil {
				p.log.Debugf("scratch refresh: %v", err)
			}
		}
	}
}

type charUUIDs struct {
	scratch     bluetooth.UUID
	identity    bluetooth.UUID
	auth        bluetooth.UUID
	credentials bluetooth.UUID
	status      bluetooth.UUID
}

func parseUUIDs() (bluetooth.UUID, charUUIDs, error) {
	var cc charUUIDs

	svc, err := bluetooth.ParseUUID(hubprov.ServiceUUID)
	if err != nil {
		return bluetooth.UUID{}, cc, errors.Wrap(err, "service uuid")
	}

	for _, u := range []struct {
		dst *bluetooth.UUID
		src string
	}{
		{&cc.scratch, hubprov.ScratchCharUUID},
		{&cc.identity, hubprov.InfoCharUUID},
		{&cc.auth, hubprov.AuthCharUUID},
		{&cc.credentials, hubprov.WifiCharUUID},
		{&cc.status, hubprov.StatusCharUUID},
	} {
		parsed, err := bluetooth.ParseUUID(u.src)
		if err != nil {
			return bluetooth.UUID{}, cc, errors.Wrapf(err, "characteristic uuid %s", u.src)
		}
		*u.dst = parsed
	}

	return svc, cc, nil
}
