package hubprov

import (
	"time"
)

// Config carries the hub's startup configuration. Zero values are filled in
// by NewConfig; the auth token is deliberately a plain shared string (see
// provision.Gate for the caveats).
type Config struct {
	LocalName string
	Adapter   string
	Identity  Identity
	AuthToken string

	// Interface pins the wifi interface to use for connection attempts.
	// Empty means auto-select.
	Interface string

	// ConnectTimeout bounds the direct connect step of an attempt. The
	// fallback profile activation gets 1.5x this budget.
	ConnectTimeout time.Duration

	// SettleDelay is how long to wait after requesting a rescan before
	// trusting visibility queries.
	SettleDelay time.Duration
}

// An Option is a configuration function, which configures the hub.
type Option func(*Config) error

// NewConfig returns a Config with defaults applied, then modified by opts.
func NewConfig(opts ...Option) (Config, error) {
	c := Config{
		LocalName: "SMARTTUPPLEWARE_HUB",
		Identity: Identity{
			Type:     "SMARTTUPPLEWARE_HUB",
			Vendor:   "ZHAW",
			Model:    "DVHUB",
			Firmware: "1.0.0",
		},
		AuthToken:      "pair-token-123",
		ConnectTimeout: 45 * time.Second,
		SettleDelay:    2 * time.Second,
	}
	for _, o := range opts {
		if err := o(&c); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}

// OptLocalName sets the BLE local name the hub advertises.
func OptLocalName(name string) Option {
	return func(c *Config) error {
		if name != "" {
			c.LocalName = name
		}
		return nil
	}
}

// OptAdapter selects the bluetooth adapter by address.
func OptAdapter(addr string) Option {
	return func(c *Config) error {
		c.Adapter = addr
		return nil
	}
}

// OptDeviceID sets the unique hub identifier reported in the identity record.
func OptDeviceID(id string) Option {
	return func(c *Config) error {
		c.Identity.DeviceID = id
		return nil
	}
}

// OptFirmware sets the firmware version string reported in the identity record.
func OptFirmware(fw string) Option {
	return func(c *Config) error {
		if fw != "" {
			c.Identity.Firmware = fw
		}
		return nil
	}
}

// OptAuthToken sets the shared authorization token.
func OptAuthToken(token string) Option {
	return func(c *Config) error {
		if token != "" {
			c.AuthToken = token
		}
		return nil
	}
}

// OptInterface pins the wifi interface used for connection attempts.
func OptInterface(iface string) Option {
	return func(c *Config) error {
		c.Interface = iface
		return nil
	}
}

// OptConnectTimeout overrides the direct connect budget.
func OptConnectTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d > 0 {
			c.ConnectTimeout = d
		}
		return nil
	}
}

// OptSettleDelay overrides the post-rescan settle delay.
func OptSettleDelay(d time.Duration) Option {
	return func(c *Config) error {
		if d >= 0 {
			c.SettleDelay = d
		}
		return nil
	}
}
